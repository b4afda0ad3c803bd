package models

import "time"

// Account roles. Derived once at registration and never re-evaluated.
const (
	RoleFan   = "fan"
	RoleBand  = "band"
	RoleLabel = "label"
)

// Artist link states. The reference between a band account and its remote
// artist record is a weak cross-service reference, so "has an artist" is
// genuinely three-valued: never linked / provisioning in flight / linked.
const (
	LinkUnlinked = "unlinked"
	LinkPending  = "pending"
	LinkLinked   = "linked"
)

type SocialLinks struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
}

// ArtistLink is the tagged optional reference from an account to an artist
// record owned by the content service. ArtistID is meaningful only when
// Status is LinkLinked. There is no foreign-key enforcement and no cascade:
// the referenced artist existed at link time but may not exist now.
type ArtistLink struct {
	Status   string `json:"status"`
	ArtistID string `json:"artistId,omitempty"`
}

func LinkedTo(artistID string) ArtistLink {
	return ArtistLink{Status: LinkLinked, ArtistID: artistID}
}

func (l ArtistLink) IsLinked() bool {
	return l.Status == LinkLinked && l.ArtistID != ""
}

// Account is the write model owned by the user service.
// PasswordHash is empty for externally-authenticated accounts.
type Account struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
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
	ArtistLink   ArtistLink  `json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Artist is the write model owned by the content service. The user service
// never touches this type directly; it consumes artists through its gateway.
// The follower count keeps its legacy wire name "seguidores".
type Artist struct {
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
