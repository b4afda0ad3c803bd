package events

import "time"

// Event types
const (
	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	ArtistLinked   = "artist.linked"

	ArtistFollowed   = "artist.followed"
	ArtistUnfollowed = "artist.unfollowed"

	ArtistCreated = "artist.created"
	ArtistUpdated = "artist.updated"
)

// Stream names
const (
	AccountEventsStream = "account.events"
	ArtistEventsStream  = "artist.events"
)

// Envelope wraps every event on the wire.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Account events
type AccountCreatedEvent struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type AccountUpdatedEvent struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
}

// ArtistLinkedEvent records a successful write of an artist id onto a band
// account after remote provisioning.
type ArtistLinkedEvent struct {
	AccountID string `json:"accountId"`
	ArtistID  string `json:"artistId"`
}

// Follow events drive the artist follower counters in the content service.
// Delivery is at-least-once and eventually consistent with the account-side
// following list.
type ArtistFollowedEvent struct {
	AccountID string `json:"accountId"`
	ArtistID  string `json:"artistId"`
}

type ArtistUnfollowedEvent struct {
	AccountID string `json:"accountId"`
	ArtistID  string `json:"artistId"`
}

// Artist events
type ArtistCreatedEvent struct {
	ArtistID string `json:"artistId"`
	Name     string `json:"name"`
}

type ArtistUpdatedEvent struct {
	ArtistID string `json:"artistId"`
	Name     string `json:"name"`
}
