package repository

import (
	"context"
	"time"

	"github.com/undersounds/undersounds/shared/models"
	"github.com/undersounds/undersounds/shared/redis"
)

const artistViewTTL = 10 * time.Minute

// ArtistReadRepository serves artist views through the Redis cache with a
// write-store fallback.
type ArtistReadRepository struct {
	cache  *redis.ViewCache[models.ArtistView]
	writes *ArtistWriteRepository
}

func NewArtistReadRepository(client *redis.Client, writes *ArtistWriteRepository) *ArtistReadRepository {
	return &ArtistReadRepository{
		cache:  redis.NewViewCache[models.ArtistView](client.Client, "artist:view:", artistViewTTL),
		writes: writes,
	}
}

func (r *ArtistReadRepository) GetView(ctx context.Context, id string) (*models.ArtistView, error) {
	if view, ok := r.cache.Get(ctx, id); ok {
		return view, nil
	}

	artist, err := r.writes.GetByID(id)
	if err != nil {
		return nil, err
	}
	view := models.NewArtistView(artist)
	r.cache.Put(ctx, id, view)
	return view, nil
}

// CacheView refreshes the cached view for an artist after a write.
func (r *ArtistReadRepository) CacheView(ctx context.Context, artist *models.Artist) *models.ArtistView {
	view := models.NewArtistView(artist)
	r.cache.Put(ctx, artist.ID, view)
	return view
}

func (r *ArtistReadRepository) InvalidateView(ctx context.Context, id string) {
	r.cache.Invalidate(ctx, id)
}
