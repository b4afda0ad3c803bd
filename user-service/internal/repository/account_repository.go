package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/undersounds/undersounds/shared/models"
)

// AccountWriteRepository handles all state-mutating operations for accounts.
// It operates exclusively against the PostgreSQL write store (source of
// truth). The following / liked_tracks columns are text[] with set semantics
// enforced in SQL: adds are conditioned on non-membership so duplicates can
// never be written.
type AccountWriteRepository struct {
	db *sql.DB
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

const accountColumns = `
	id, username, email, password_hash, role, profile_image, banner_image,
	followers, bio, social_facebook, social_instagram, social_twitter,
	following, liked_tracks, band_name, genre, label_name, website,
	artist_id, artist_link_status, created_at, updated_at
`

func (r *AccountWriteRepository) Create(account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := r.db.Exec(query,
		account.ID, account.Username, account.Email, nullString(account.PasswordHash),
		account.Role, account.ProfileImage, account.BannerImage,
		account.Followers, account.Bio,
		account.SocialLinks.Facebook, account.SocialLinks.Instagram, account.SocialLinks.Twitter,
		pq.Array(account.Following), pq.Array(account.LikedTracks),
		nullString(account.BandName), nullString(account.Genre),
		nullString(account.LabelName), nullString(account.Website),
		nullString(account.ArtistLink.ArtistID), account.ArtistLink.Status,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("email already exists")
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID fetches the full write model (including PasswordHash) for internal
// operations.
func (r *AccountWriteRepository) GetByID(id string) (*models.Account, error) {
	return r.getBy("id", id)
}

func (r *AccountWriteRepository) GetByEmail(email string) (*models.Account, error) {
	return r.getBy("email", email)
}

func (r *AccountWriteRepository) getBy(column, value string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1`

	var account models.Account
	var passwordHash, bandName, genre, labelName, website, artistID sql.NullString

	err := r.db.QueryRow(query, value).Scan(
		&account.ID, &account.Username, &account.Email, &passwordHash,
		&account.Role, &account.ProfileImage, &account.BannerImage,
		&account.Followers, &account.Bio,
		&account.SocialLinks.Facebook, &account.SocialLinks.Instagram, &account.SocialLinks.Twitter,
		pq.Array(&account.Following), pq.Array(&account.LikedTracks),
		&bandName, &genre, &labelName, &website,
		&artistID, &account.ArtistLink.Status,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.PasswordHash = passwordHash.String
	account.BandName = bandName.String
	account.Genre = genre.String
	account.LabelName = labelName.String
	account.Website = website.String
	account.ArtistLink.ArtistID = artistID.String
	return &account, nil
}

func (r *AccountWriteRepository) UpdateProfile(account *models.Account) error {
	query := `
		UPDATE accounts
		SET username = $2, profile_image = $3, banner_image = $4, bio = $5,
			social_facebook = $6, social_instagram = $7, social_twitter = $8,
			genre = $9, website = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.db.Exec(query,
		account.ID, account.Username, account.ProfileImage, account.BannerImage, account.Bio,
		account.SocialLinks.Facebook, account.SocialLinks.Instagram, account.SocialLinks.Twitter,
		nullString(account.Genre), nullString(account.Website), account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return checkFound(result)
}

func (r *AccountWriteRepository) UpdatePassword(id, passwordHash string) error {
	result, err := r.db.Exec(
		`UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return checkFound(result)
}

// LinkToArtist writes the remote artist id onto the account and marks the
// link established.
func (r *AccountWriteRepository) LinkToArtist(accountID, artistID string) error {
	result, err := r.db.Exec(
		`UPDATE accounts SET artist_id = $2, artist_link_status = $3, updated_at = NOW() WHERE id = $1`,
		accountID, artistID, models.LinkLinked,
	)
	if err != nil {
		return fmt.Errorf("failed to link artist: %w", err)
	}
	return checkFound(result)
}

func (r *AccountWriteRepository) SetLinkStatus(accountID, status string) error {
	result, err := r.db.Exec(
		`UPDATE accounts SET artist_link_status = $2, updated_at = NOW() WHERE id = $1`,
		accountID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set link status: %w", err)
	}
	return checkFound(result)
}

// AddFollowing appends artistID to the following set if absent. Appending an
// already-present id is a no-op, not an error.
func (r *AccountWriteRepository) AddFollowing(accountID, artistID string) error {
	return r.addToSet(accountID, artistID, "following")
}

func (r *AccountWriteRepository) RemoveFollowing(accountID, artistID string) error {
	return r.removeFromSet(accountID, artistID, "following")
}

func (r *AccountWriteRepository) AddLikedTrack(accountID, trackID string) error {
	return r.addToSet(accountID, trackID, "liked_tracks")
}

func (r *AccountWriteRepository) RemoveLikedTrack(accountID, trackID string) error {
	return r.removeFromSet(accountID, trackID, "liked_tracks")
}

func (r *AccountWriteRepository) addToSet(accountID, value, column string) error {
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = array_append(%[1]s, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(%[1]s))
	`, column)
	if _, err := r.db.Exec(query, accountID, value); err != nil {
		return fmt.Errorf("failed to add to %s: %w", column, err)
	}
	return nil
}

func (r *AccountWriteRepository) removeFromSet(accountID, value, column string) error {
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = array_remove(%[1]s, $2), updated_at = NOW()
		WHERE id = $1
	`, column)
	if _, err := r.db.Exec(query, accountID, value); err != nil {
		return fmt.Errorf("failed to remove from %s: %w", column, err)
	}
	return nil
}

func checkFound(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found")
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
