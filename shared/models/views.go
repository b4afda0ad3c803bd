package models

import "time"

// AccountView is the read-optimised projection of an account.
// It never exposes PasswordHash. ArtistID is serialised only for linked band
// accounts, and Artist is a transient enrichment attached on the login and
// refresh read paths — it is never persisted.
type AccountView struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Role         string      `json:"role"`
	ProfileImage string      `json:"profileImage"`
	BannerImage  string      `json:"bannerImage"`
	Followers    int         `json:"followers"`
	Bio          string      `json:"bio"`
	SocialLinks  SocialLinks `json:"socialLinks"`
	Following    []string    `json:"following"`
	LikedTracks  []string    `json:"likedTracks"`
	BandName     string      `json:"bandName,omitempty"`
	Genre        string      `json:"genre,omitempty"`
	LabelName    string      `json:"labelName,omitempty"`
	Website      string      `json:"website,omitempty"`
	ArtistID     string      `json:"artistId,omitempty"`
	Artist       *ArtistView `json:"artist,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// ArtistView is the read-optimised projection of an artist.
type ArtistView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profileImage"`
	Banner       string    `json:"banner"`
	Genre        string    `json:"genre"`
	Bio          string    `json:"bio"`
	Followers    int       `json:"seguidores"`
	Albums       []string  `json:"albums"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewAccountView projects the write model onto the public view.
// Role-specific fields are blanked for roles they do not apply to, and the
// artist id travels only on linked band accounts.
func NewAccountView(a *Account) *AccountView {
	view := &AccountView{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		Role:         a.Role,
		ProfileImage: a.ProfileImage,
		BannerImage:  a.BannerImage,
		Followers:    a.Followers,
		Bio:          a.Bio,
		SocialLinks:  a.SocialLinks,
		Following:    a.Following,
		LikedTracks:  a.LikedTracks,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if view.Following == nil {
		view.Following = []string{}
	}
	if view.LikedTracks == nil {
		view.LikedTracks = []string{}
	}
	switch a.Role {
	case RoleBand:
		view.BandName = a.BandName
		view.Genre = a.Genre
		if a.ArtistLink.IsLinked() {
			view.ArtistID = a.ArtistLink.ArtistID
		}
	case RoleLabel:
		view.LabelName = a.LabelName
		view.Website = a.Website
	}
	return view
}

// NewArtistView projects the artist write model onto the public view.
func NewArtistView(a *Artist) *ArtistView {
	albums := a.Albums
	if albums == nil {
		albums = []string{}
	}
	return &ArtistView{
		ID:           a.ID,
		Name:         a.Name,
		ProfileImage: a.ProfileImage,
		Banner:       a.Banner,
		Genre:        a.Genre,
		Bio:          a.Bio,
		Followers:    a.Followers,
		Albums:       albums,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
