package cqrs

import "github.com/undersounds/undersounds/shared/models"

// RegisterCommand creates a new account. The role is derived from which
// optional fields are present: BandName wins over LabelName, neither means a
// fan account.
type RegisterCommand struct {
	Username    string
	Email       string
	Password    string
	Bio         string
	SocialLinks models.SocialLinks
	BandName    string
	Genre       string
	LabelName   string
	Website     string
}

type UpdateProfileCommand struct {
	AccountID    string
	Username     string
	ProfileImage string
	BannerImage  string
	Bio          string
	SocialLinks  models.SocialLinks
	Genre        string
	Website      string
}

// LinkBandToArtistCommand provisions a remote artist for an existing band
// account that never got one. This is the only healing path for a failed
// registration-time link; nothing retries it automatically.
type LinkBandToArtistCommand struct {
	AccountID string
}

type ToggleFollowCommand struct {
	AccountID string
	ArtistID  string
}

type ToggleLikeCommand struct {
	AccountID string
	TrackID   string
}

type ResetPasswordCommand struct {
	Email       string
	OTP         string
	OTPToken    string
	NewPassword string
}

type LoginCommand struct {
	Email    string
	Password string
	Remember bool
}

type RefreshTokenCommand struct {
	Token string
}

type ForgotPasswordCommand struct {
	Email string
}

// CreateArtistCommand creates an artist record in the content service.
// Issued either by the service's own API or on behalf of the user service
// during band provisioning.
type CreateArtistCommand struct {
	Name         string
	ProfileImage string
	Banner       string
	Genre        string
	Bio          string
	Followers    int
	Albums       []string
}

type UpdateArtistCommand struct {
	ArtistID     string
	Name         string
	ProfileImage string
	Banner       string
	Genre        string
	Bio          string
}
