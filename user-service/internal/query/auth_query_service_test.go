package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/models"
	"github.com/undersounds/undersounds/shared/utils"
	"github.com/undersounds/undersounds/user-service/internal/gateway"
)

type fakeAccountReader struct {
	byEmail map[string]*models.Account
}

func (r *fakeAccountReader) GetByID(id string) (*models.Account, error) {
	for _, a := range r.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("account not found")
}

func (r *fakeAccountReader) GetByEmail(email string) (*models.Account, error) {
	if a, ok := r.byEmail[email]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("account not found")
}

type fakeTokenIssuer struct {
	refreshAccountID string
	refreshErr       error
}

func (f *fakeTokenIssuer) IssueAccessToken(accountID string) (string, error) {
	return "access-" + accountID, nil
}

func (f *fakeTokenIssuer) IssueRefreshToken(accountID string) (string, error) {
	return "refresh-" + accountID, nil
}

func (f *fakeTokenIssuer) VerifyRefreshToken(token string) (string, error) {
	return f.refreshAccountID, f.refreshErr
}

func (f *fakeTokenIssuer) IssueOTPToken(email, otp string) (string, error) {
	return "otp-token-" + email, nil
}

type fakeArtistFetcher struct {
	artist *gateway.RemoteArtist
	calls  []string
}

func (f *fakeArtistFetcher) FetchArtist(ctx context.Context, artistID string) *gateway.RemoteArtist {
	f.calls = append(f.calls, artistID)
	return f.artist
}

type fakeMailer struct {
	sent chan string
}

func (f *fakeMailer) SendOTP(ctx context.Context, to, otp string) error {
	f.sent <- otp
	return nil
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return h
}

func newAuthService(t *testing.T, accounts ...*models.Account) (*AuthQueryService, *fakeArtistFetcher, *fakeTokenIssuer, *fakeMailer) {
	t.Helper()
	reader := &fakeAccountReader{byEmail: make(map[string]*models.Account)}
	for _, a := range accounts {
		reader.byEmail[a.Email] = a
	}
	fetcher := &fakeArtistFetcher{}
	tokens := &fakeTokenIssuer{}
	mailer := &fakeMailer{sent: make(chan string, 1)}
	return NewAuthQueryService(reader, tokens, fetcher, mailer), fetcher, tokens, mailer
}

func fanAccount(t *testing.T) *models.Account {
	return &models.Account{
		ID:           "usr-fan000001",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash(t, "secret123"),
		Role:         models.RoleFan,
	}
}

func linkedBandAccount(t *testing.T) *models.Account {
	return &models.Account{
		ID:           "usr-band00001",
		Username:     "bob",
		Email:        "band@example.com",
		PasswordHash: hash(t, "secret123"),
		Role:         models.RoleBand,
		BandName:     "The Sonic Owls",
		ArtistLink:   models.LinkedTo("art-42"),
	}
}

func TestLogin(t *testing.T) {
	svc, fetcher, _, _ := newAuthService(t, fanAccount(t))

	view, access, refresh, err := svc.Login(context.Background(), cqrs.LoginCommand{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if view.ID != "usr-fan000001" {
		t.Errorf("Unexpected view id %s", view.ID)
	}
	if access != "access-usr-fan000001" || refresh != "refresh-usr-fan000001" {
		t.Errorf("Unexpected tokens %q %q", access, refresh)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("Fan login must not hit the artist gateway, got %v", fetcher.calls)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _, _ := newAuthService(t, fanAccount(t))

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "secret123"},
		{"wrong password", "alice@example.com", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.Login(context.Background(), cqrs.LoginCommand{Email: tt.email, Password: tt.password})
			if err == nil || err.Error() != "invalid credentials" {
				t.Errorf("Expected uniform 'invalid credentials', got %v", err)
			}
		})
	}
}

func TestLoginEnrichesLinkedBand(t *testing.T) {
	svc, fetcher, _, _ := newAuthService(t, linkedBandAccount(t))
	fetcher.artist = &gateway.RemoteArtist{ID: "art-42", Name: "The Sonic Owls", Followers: 7}

	view, _, _, err := svc.Login(context.Background(), cqrs.LoginCommand{
		Email:    "band@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if view.Artist == nil {
		t.Fatal("Expected artist enrichment on linked band login")
	}
	if view.Artist.ID != "art-42" || view.Artist.Followers != 7 {
		t.Errorf("Unexpected enrichment %+v", view.Artist)
	}
	if view.Artist.Albums == nil {
		t.Error("Enriched artist should carry an empty album list, not nil")
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "art-42" {
		t.Errorf("Expected one fetch for art-42, got %v", fetcher.calls)
	}
}

func TestLoginSurvivesGatewayMiss(t *testing.T) {
	svc, fetcher, _, _ := newAuthService(t, linkedBandAccount(t))
	fetcher.artist = nil

	view, access, _, err := svc.Login(context.Background(), cqrs.LoginCommand{
		Email:    "band@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login must succeed when the content service is down, got: %v", err)
	}
	if view.Artist != nil {
		t.Errorf("Expected no enrichment on gateway miss, got %+v", view.Artist)
	}
	if access == "" {
		t.Error("Tokens must still be issued on gateway miss")
	}
}

func TestLoginSkipsFetchForUnlinkedBand(t *testing.T) {
	band := linkedBandAccount(t)
	band.ArtistLink = models.ArtistLink{Status: models.LinkUnlinked}
	svc, fetcher, _, _ := newAuthService(t, band)

	view, _, _, err := svc.Login(context.Background(), cqrs.LoginCommand{
		Email:    "band@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if view.Artist != nil || view.ArtistID != "" {
		t.Errorf("Unlinked band view must carry no artist data, got %+v", view)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("Unlinked band must not hit the gateway, got %v", fetcher.calls)
	}
}

func TestRefresh(t *testing.T) {
	svc, fetcher, tokens, _ := newAuthService(t, linkedBandAccount(t))
	tokens.refreshAccountID = "usr-band00001"
	fetcher.artist = &gateway.RemoteArtist{ID: "art-42", Name: "The Sonic Owls"}

	view, access, err := svc.Refresh(context.Background(), cqrs.RefreshTokenCommand{Token: "some-refresh"})
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if access != "access-usr-band00001" {
		t.Errorf("Unexpected access token %q", access)
	}
	if view.Artist == nil || view.Artist.ID != "art-42" {
		t.Errorf("Expected artist enrichment on refresh, got %+v", view.Artist)
	}
}

func TestRefreshErrors(t *testing.T) {
	svc, _, tokens, _ := newAuthService(t, fanAccount(t))

	tokens.refreshErr = fmt.Errorf("invalid token")
	if _, _, err := svc.Refresh(context.Background(), cqrs.RefreshTokenCommand{Token: "garbage"}); err == nil || err.Error() != "invalid token" {
		t.Errorf("Expected 'invalid token', got %v", err)
	}

	tokens.refreshErr = nil
	tokens.refreshAccountID = "usr-deleted"
	if _, _, err := svc.Refresh(context.Background(), cqrs.RefreshTokenCommand{Token: "stale"}); err == nil || err.Error() != "account not found" {
		t.Errorf("Expected 'account not found', got %v", err)
	}
}

func TestForgotPassword(t *testing.T) {
	svc, _, _, mailer := newAuthService(t, fanAccount(t))

	otpToken, err := svc.ForgotPassword(context.Background(), cqrs.ForgotPasswordCommand{Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if otpToken != "otp-token-alice@example.com" {
		t.Errorf("Unexpected otp token %q", otpToken)
	}

	select {
	case otp := <-mailer.sent:
		if len(otp) != 6 {
			t.Errorf("Expected a 6-character code, got %q", otp)
		}
	case <-time.After(time.Second):
		t.Fatal("OTP mail was never sent")
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _, _ := newAuthService(t)

	_, err := svc.ForgotPassword(context.Background(), cqrs.ForgotPasswordCommand{Email: "ghost@example.com"})
	if err == nil || err.Error() != "email not found" {
		t.Errorf("Expected 'email not found', got %v", err)
	}
}
