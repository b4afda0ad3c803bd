package command

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/events"
	"github.com/undersounds/undersounds/shared/models"
	"github.com/undersounds/undersounds/shared/utils"
	"github.com/undersounds/undersounds/user-service/internal/gateway"
)

// AccountStore is the slice of the write repository the command side needs.
type AccountStore interface {
	Create(account *models.Account) error
	GetByID(id string) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	UpdateProfile(account *models.Account) error
	UpdatePassword(id, passwordHash string) error
	LinkToArtist(accountID, artistID string) error
	SetLinkStatus(accountID, status string) error
	AddFollowing(accountID, artistID string) error
	RemoveFollowing(accountID, artistID string) error
	AddLikedTrack(accountID, trackID string) error
	RemoveLikedTrack(accountID, trackID string) error
}

// ArtistProvider creates artist records in the content service.
type ArtistProvider interface {
	CreateArtist(ctx context.Context, payload gateway.ArtistPayload) (*gateway.RemoteArtist, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// ViewRefresher keeps the cached account projection in step with writes.
type ViewRefresher interface {
	CacheView(ctx context.Context, account *models.Account) *models.AccountView
	InvalidateView(ctx context.Context, id string)
}

// OTPVerifier validates a one-time-code token issued by the forgot-password
// flow and returns the email and code bound into it.
type OTPVerifier interface {
	VerifyOTPToken(token string) (email, otp string, err error)
}

// AccountCommandService executes all account mutations. Remote artist
// provisioning during registration is strictly best-effort: the account write
// has already committed, so no artist-side failure is allowed to surface to
// the registering user.
type AccountCommandService struct {
	store     AccountStore
	artists   ArtistProvider
	views     ViewRefresher
	publisher EventPublisher
	otp       OTPVerifier
}

func NewAccountCommandService(
	store AccountStore,
	artists ArtistProvider,
	views ViewRefresher,
	publisher EventPublisher,
	otp OTPVerifier,
) *AccountCommandService {
	return &AccountCommandService{
		store:     store,
		artists:   artists,
		views:     views,
		publisher: publisher,
		otp:       otp,
	}
}

// Register creates an account, deriving its role from which optional fields
// are present. Band accounts additionally get a remote artist provisioned and
// linked; any failure in that leg is absorbed and the account is returned
// without a link.
func (s *AccountCommandService) Register(ctx context.Context, cmd cqrs.RegisterCommand) (*models.AccountView, error) {
	if existing, _ := s.store.GetByEmail(cmd.Email); existing != nil {
		return nil, fmt.Errorf("email already exists")
	}

	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           utils.GenerateID("usr"),
		Username:     cmd.Username,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		Role:         deriveRole(cmd),
		ProfileImage: utils.AvatarURL(cmd.Username),
		Bio:          cmd.Bio,
		SocialLinks:  cmd.SocialLinks,
		Following:    []string{},
		LikedTracks:  []string{},
		ArtistLink:   models.ArtistLink{Status: models.LinkUnlinked},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	switch account.Role {
	case models.RoleBand:
		account.BandName = cmd.BandName
		account.Genre = cmd.Genre
		account.ArtistLink.Status = models.LinkPending
	case models.RoleLabel:
		account.LabelName = cmd.LabelName
		account.Website = cmd.Website
	}

	if err := s.store.Create(account); err != nil {
		return nil, err
	}

	// The account row is committed; the rest of the flow must run to
	// completion server-side even if the caller disconnects mid-request.
	ctx = context.WithoutCancel(ctx)

	if account.Role == models.RoleBand {
		s.provisionArtist(ctx, account)
	}

	view := s.views.CacheView(ctx, account)

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      account.Role,
	}); err != nil {
		log.Printf("Failed to publish account.created for %s: %v", account.ID, err)
	}

	return view, nil
}

// provisionArtist creates the remote artist record for a freshly registered
// band and links it. The account row is already committed, so every failure
// here is logged and absorbed; a create failure downgrades the link to
// unlinked so the manual link endpoint can heal it later.
func (s *AccountCommandService) provisionArtist(ctx context.Context, account *models.Account) {
	artist, err := s.artists.CreateArtist(ctx, artistPayload(account))
	if err != nil {
		log.Printf("Artist provisioning failed for account %s: %v", account.ID, err)
		account.ArtistLink = models.ArtistLink{Status: models.LinkUnlinked}
		if err := s.store.SetLinkStatus(account.ID, models.LinkUnlinked); err != nil {
			log.Printf("Failed to record unlinked status for account %s: %v", account.ID, err)
		}
		return
	}

	if err := s.store.LinkToArtist(account.ID, artist.ID); err != nil {
		// The remote artist exists but the link write failed; the account
		// stays pending until someone calls the link endpoint.
		log.Printf("Failed to link account %s to artist %s: %v", account.ID, artist.ID, err)
		return
	}

	account.ArtistLink = models.LinkedTo(artist.ID)
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.ArtistLinked, events.ArtistLinkedEvent{
		AccountID: account.ID,
		ArtistID:  artist.ID,
	}); err != nil {
		log.Printf("Failed to publish artist.linked for %s: %v", account.ID, err)
	}
}

// LinkBandToArtist provisions and links an artist for a band account that has
// none. Unlike registration, failures here are the caller's problem.
func (s *AccountCommandService) LinkBandToArtist(ctx context.Context, cmd cqrs.LinkBandToArtistCommand) (*models.AccountView, error) {
	account, err := s.store.GetByID(cmd.AccountID)
	if err != nil {
		return nil, fmt.Errorf("account not found")
	}
	if account.Role != models.RoleBand {
		return nil, fmt.Errorf("account is not a band")
	}
	if account.ArtistLink.IsLinked() {
		return nil, fmt.Errorf("account already linked")
	}

	artist, err := s.artists.CreateArtist(ctx, artistPayload(account))
	if err != nil {
		log.Printf("Artist provisioning failed for account %s: %v", account.ID, err)
		return nil, fmt.Errorf("artist provisioning failed")
	}

	if err := s.store.LinkToArtist(account.ID, artist.ID); err != nil {
		return nil, err
	}

	account.ArtistLink = models.LinkedTo(artist.ID)
	account.UpdatedAt = time.Now().UTC()
	view := s.views.CacheView(ctx, account)

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.ArtistLinked, events.ArtistLinkedEvent{
		AccountID: account.ID,
		ArtistID:  artist.ID,
	}); err != nil {
		log.Printf("Failed to publish artist.linked for %s: %v", account.ID, err)
	}

	return view, nil
}

// ToggleFollow flips the account's membership in the artist's follower set
// and reports the resulting state plus the full following list.
func (s *AccountCommandService) ToggleFollow(ctx context.Context, cmd cqrs.ToggleFollowCommand) (bool, []string, error) {
	account, err := s.store.GetByID(cmd.AccountID)
	if err != nil {
		return false, nil, fmt.Errorf("account not found")
	}

	following := !contains(account.Following, cmd.ArtistID)
	if following {
		err = s.store.AddFollowing(cmd.AccountID, cmd.ArtistID)
	} else {
		err = s.store.RemoveFollowing(cmd.AccountID, cmd.ArtistID)
	}
	if err != nil {
		return false, nil, err
	}

	account, err = s.store.GetByID(cmd.AccountID)
	if err != nil {
		return false, nil, err
	}
	s.views.CacheView(ctx, account)

	var pubErr error
	if following {
		pubErr = s.publisher.Publish(ctx, events.AccountEventsStream, events.ArtistFollowed, events.ArtistFollowedEvent{
			AccountID: cmd.AccountID,
			ArtistID:  cmd.ArtistID,
		})
	} else {
		pubErr = s.publisher.Publish(ctx, events.AccountEventsStream, events.ArtistUnfollowed, events.ArtistUnfollowedEvent{
			AccountID: cmd.AccountID,
			ArtistID:  cmd.ArtistID,
		})
	}
	if pubErr != nil {
		log.Printf("Failed to publish follow event for %s: %v", cmd.AccountID, pubErr)
	}

	return following, account.Following, nil
}

// ToggleLike flips the account's membership in a track's like set.
func (s *AccountCommandService) ToggleLike(ctx context.Context, cmd cqrs.ToggleLikeCommand) (bool, []string, error) {
	account, err := s.store.GetByID(cmd.AccountID)
	if err != nil {
		return false, nil, fmt.Errorf("account not found")
	}

	liked := !contains(account.LikedTracks, cmd.TrackID)
	if liked {
		err = s.store.AddLikedTrack(cmd.AccountID, cmd.TrackID)
	} else {
		err = s.store.RemoveLikedTrack(cmd.AccountID, cmd.TrackID)
	}
	if err != nil {
		return false, nil, err
	}

	account, err = s.store.GetByID(cmd.AccountID)
	if err != nil {
		return false, nil, err
	}
	s.views.CacheView(ctx, account)

	return liked, account.LikedTracks, nil
}

// UpdateProfile applies the non-empty fields of the command onto the account.
func (s *AccountCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.AccountView, error) {
	account, err := s.store.GetByID(cmd.AccountID)
	if err != nil {
		return nil, fmt.Errorf("account not found")
	}

	if cmd.Username != "" {
		account.Username = cmd.Username
	}
	if cmd.ProfileImage != "" {
		account.ProfileImage = cmd.ProfileImage
	}
	if cmd.BannerImage != "" {
		account.BannerImage = cmd.BannerImage
	}
	if cmd.Bio != "" {
		account.Bio = cmd.Bio
	}
	if cmd.SocialLinks != (models.SocialLinks{}) {
		account.SocialLinks = cmd.SocialLinks
	}
	if cmd.Genre != "" && account.Role == models.RoleBand {
		account.Genre = cmd.Genre
	}
	if cmd.Website != "" && account.Role == models.RoleLabel {
		account.Website = cmd.Website
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateProfile(account); err != nil {
		return nil, err
	}

	view := s.views.CacheView(ctx, account)

	if err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountID: account.ID,
		Username:  account.Username,
	}); err != nil {
		log.Printf("Failed to publish account.updated for %s: %v", account.ID, err)
	}

	return view, nil
}

// ResetPassword validates the OTP token minted by the forgot-password flow
// and replaces the account's password.
func (s *AccountCommandService) ResetPassword(ctx context.Context, cmd cqrs.ResetPasswordCommand) error {
	email, otp, err := s.otp.VerifyOTPToken(cmd.OTPToken)
	if err != nil || otp != cmd.OTP || email != cmd.Email {
		return fmt.Errorf("invalid otp")
	}

	account, err := s.store.GetByEmail(cmd.Email)
	if err != nil {
		return fmt.Errorf("account not found")
	}

	passwordHash, err := utils.HashPassword(cmd.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdatePassword(account.ID, passwordHash); err != nil {
		return err
	}

	s.views.InvalidateView(ctx, account.ID)
	return nil
}

func deriveRole(cmd cqrs.RegisterCommand) string {
	switch {
	case cmd.BandName != "":
		return models.RoleBand
	case cmd.LabelName != "":
		return models.RoleLabel
	default:
		return models.RoleFan
	}
}

func artistPayload(account *models.Account) gateway.ArtistPayload {
	name := account.BandName
	if name == "" {
		name = account.Username
	}
	return gateway.ArtistPayload{
		Name:         name,
		ProfileImage: account.ProfileImage,
		Banner:       account.BannerImage,
		Genre:        account.Genre,
		Bio:          account.Bio,
		Followers:    0,
		Albums:       []string{},
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
