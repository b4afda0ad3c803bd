package query

import (
	"context"

	"github.com/undersounds/undersounds/content-service/internal/repository"
	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/models"
)

// ArtistQueryService answers artist reads. Single-artist lookups go through
// the view cache; listings hit the write store directly.
type ArtistQueryService struct {
	reads  *repository.ArtistReadRepository
	writes *repository.ArtistWriteRepository
}

func NewArtistQueryService(reads *repository.ArtistReadRepository, writes *repository.ArtistWriteRepository) *ArtistQueryService {
	return &ArtistQueryService{reads: reads, writes: writes}
}

func (s *ArtistQueryService) GetArtist(ctx context.Context, query cqrs.GetArtistQuery) (*models.ArtistView, error) {
	return s.reads.GetView(ctx, query.ArtistID)
}

func (s *ArtistQueryService) ListArtists(ctx context.Context, query cqrs.ListArtistsQuery) ([]*models.ArtistView, error) {
	artists, err := s.writes.List(query.Genre)
	if err != nil {
		return nil, err
	}
	views := make([]*models.ArtistView, 0, len(artists))
	for _, artist := range artists {
		views = append(views, models.NewArtistView(artist))
	}
	return views, nil
}
