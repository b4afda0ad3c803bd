package cqrs

// ---------- Account queries ----------

// GetAccountQuery fetches a single account view by ID.
type GetAccountQuery struct {
	AccountID string
}

// ---------- Artist queries ----------

// GetArtistQuery fetches a single artist by ID.
type GetArtistQuery struct {
	ArtistID string
}

// ListArtistsQuery fetches all artists, optionally filtered by genre.
type ListArtistsQuery struct {
	Genre string
}
