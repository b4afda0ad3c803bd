package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/undersounds/undersounds/shared/models"
)

// ArtistWriteRepository handles all state-mutating operations for artists.
// It operates exclusively against the PostgreSQL write store (source of
// truth).
type ArtistWriteRepository struct {
	db *sql.DB
}

func NewArtistWriteRepository(db *sql.DB) *ArtistWriteRepository {
	return &ArtistWriteRepository{db: db}
}

const artistColumns = `
	id, name, profile_image, banner, genre, bio, followers, albums,
	created_at, updated_at
`

func (r *ArtistWriteRepository) Create(artist *models.Artist) error {
	query := `
		INSERT INTO artists (` + artistColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(query,
		artist.ID, artist.Name, artist.ProfileImage, artist.Banner,
		artist.Genre, artist.Bio, artist.Followers, pq.Array(artist.Albums),
		artist.CreatedAt, artist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create artist: %w", err)
	}
	return nil
}

func (r *ArtistWriteRepository) GetByID(id string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = $1`

	var artist models.Artist
	err := r.db.QueryRow(query, id).Scan(
		&artist.ID, &artist.Name, &artist.ProfileImage, &artist.Banner,
		&artist.Genre, &artist.Bio, &artist.Followers, pq.Array(&artist.Albums),
		&artist.CreatedAt, &artist.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return &artist, nil
}

// List returns all artists, optionally filtered by genre.
func (r *ArtistWriteRepository) List(genre string) ([]*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists`
	args := []any{}
	if genre != "" {
		query += ` WHERE genre = $1`
		args = append(args, genre)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	defer rows.Close()

	var artists []*models.Artist
	for rows.Next() {
		var artist models.Artist
		err := rows.Scan(
			&artist.ID, &artist.Name, &artist.ProfileImage, &artist.Banner,
			&artist.Genre, &artist.Bio, &artist.Followers, pq.Array(&artist.Albums),
			&artist.CreatedAt, &artist.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, &artist)
	}
	return artists, rows.Err()
}

func (r *ArtistWriteRepository) Update(artist *models.Artist) error {
	query := `
		UPDATE artists
		SET name = $2, profile_image = $3, banner = $4, genre = $5, bio = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.Exec(query,
		artist.ID, artist.Name, artist.ProfileImage, artist.Banner,
		artist.Genre, artist.Bio, artist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}
	return checkFound(result)
}

// AdjustFollowers applies a follower-count delta. The count is clamped at
// zero so a redelivered unfollow can never drive it negative.
func (r *ArtistWriteRepository) AdjustFollowers(id string, delta int) error {
	query := `
		UPDATE artists
		SET followers = GREATEST(followers + $2, 0), updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust followers: %w", err)
	}
	return checkFound(result)
}

func checkFound(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("artist not found")
	}
	return nil
}
