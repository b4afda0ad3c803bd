package query

import (
	"context"
	"fmt"
	"log"

	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/models"
	"github.com/undersounds/undersounds/shared/utils"
	"github.com/undersounds/undersounds/user-service/internal/gateway"
)

// AccountReader is the slice of the write repository the auth read path
// needs. Login has to see the password hash, so it reads the write model and
// projects a view itself instead of going through the cache.
type AccountReader interface {
	GetByID(id string) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
}

type TokenIssuer interface {
	IssueAccessToken(accountID string) (string, error)
	IssueRefreshToken(accountID string) (string, error)
	VerifyRefreshToken(token string) (string, error)
	IssueOTPToken(email, otp string) (string, error)
}

// ArtistFetcher retrieves the remote artist record for view enrichment.
// It degrades to nil instead of failing.
type ArtistFetcher interface {
	FetchArtist(ctx context.Context, artistID string) *gateway.RemoteArtist
}

type Mailer interface {
	SendOTP(ctx context.Context, to, otp string) error
}

// AuthQueryService serves the session read paths: login, refresh and the
// forgot-password handshake. Linked band accounts get their remote artist
// attached to the returned view when the content service answers in time;
// when it does not, the view goes out without it.
type AuthQueryService struct {
	accounts AccountReader
	tokens   TokenIssuer
	artists  ArtistFetcher
	mailer   Mailer
}

func NewAuthQueryService(accounts AccountReader, tokens TokenIssuer, artists ArtistFetcher, mailer Mailer) *AuthQueryService {
	return &AuthQueryService{
		accounts: accounts,
		tokens:   tokens,
		artists:  artists,
		mailer:   mailer,
	}
}

// Login verifies credentials and mints the token pair. Unknown email and
// wrong password produce the same error.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.AccountView, string, string, error) {
	account, err := s.accounts.GetByEmail(cmd.Email)
	if err != nil {
		return nil, "", "", fmt.Errorf("invalid credentials")
	}
	if account.PasswordHash == "" || !utils.CheckPassword(cmd.Password, account.PasswordHash) {
		return nil, "", "", fmt.Errorf("invalid credentials")
	}

	accessToken, err := s.tokens.IssueAccessToken(account.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to issue refresh token: %w", err)
	}

	view := models.NewAccountView(account)
	s.enrich(ctx, account, view)
	return view, accessToken, refreshToken, nil
}

// Refresh exchanges a valid refresh token for a fresh access token and the
// current account view.
func (s *AuthQueryService) Refresh(ctx context.Context, cmd cqrs.RefreshTokenCommand) (*models.AccountView, string, error) {
	accountID, err := s.tokens.VerifyRefreshToken(cmd.Token)
	if err != nil {
		return nil, "", fmt.Errorf("invalid token")
	}

	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return nil, "", fmt.Errorf("account not found")
	}

	accessToken, err := s.tokens.IssueAccessToken(account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue access token: %w", err)
	}

	view := models.NewAccountView(account)
	s.enrich(ctx, account, view)
	return view, accessToken, nil
}

// ForgotPassword mints a one-time code bound into a short-lived token and
// mails the code to the account. The token is what the client must present
// back together with the code on reset.
func (s *AuthQueryService) ForgotPassword(ctx context.Context, cmd cqrs.ForgotPasswordCommand) (string, error) {
	account, err := s.accounts.GetByEmail(cmd.Email)
	if err != nil {
		return "", fmt.Errorf("email not found")
	}

	otp := utils.GenerateOTP()
	otpToken, err := s.tokens.IssueOTPToken(account.Email, otp)
	if err != nil {
		return "", fmt.Errorf("failed to issue otp token: %w", err)
	}

	// Delivery happens off the request path; a mail failure is logged, not
	// surfaced, so the endpoint does not leak delivery state.
	go func() {
		if err := s.mailer.SendOTP(context.Background(), account.Email, otp); err != nil {
			log.Printf("Failed to send OTP mail to %s: %v", account.Email, err)
		}
	}()

	return otpToken, nil
}

// enrich attaches the remote artist to a linked band account's view.
// Best-effort: a gateway miss leaves the view untouched.
func (s *AuthQueryService) enrich(ctx context.Context, account *models.Account, view *models.AccountView) {
	if account.Role != models.RoleBand || !account.ArtistLink.IsLinked() {
		return
	}
	artist := s.artists.FetchArtist(ctx, account.ArtistLink.ArtistID)
	if artist == nil {
		return
	}
	albums := artist.Albums
	if albums == nil {
		albums = []string{}
	}
	view.Artist = &models.ArtistView{
		ID:           artist.ID,
		Name:         artist.Name,
		ProfileImage: artist.ProfileImage,
		Banner:       artist.Banner,
		Genre:        artist.Genre,
		Bio:          artist.Bio,
		Followers:    artist.Followers,
		Albums:       albums,
		CreatedAt:    artist.CreatedAt,
		UpdatedAt:    artist.UpdatedAt,
	}
}
