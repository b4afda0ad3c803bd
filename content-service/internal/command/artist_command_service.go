package command

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/events"
	"github.com/undersounds/undersounds/shared/models"
	"github.com/undersounds/undersounds/shared/utils"
)

// ArtistStore is the slice of the write repository the command side needs.
type ArtistStore interface {
	Create(artist *models.Artist) error
	GetByID(id string) (*models.Artist, error)
	Update(artist *models.Artist) error
	AdjustFollowers(id string, delta int) error
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// ViewRefresher keeps the cached artist projection in step with writes.
type ViewRefresher interface {
	CacheView(ctx context.Context, artist *models.Artist) *models.ArtistView
}

// ArtistCommandService writes artist state and keeps the read model in sync.
// It also consumes the account event stream to maintain follower counters.
type ArtistCommandService struct {
	store     ArtistStore
	views     ViewRefresher
	publisher EventPublisher
}

func NewArtistCommandService(store ArtistStore, views ViewRefresher, publisher EventPublisher) *ArtistCommandService {
	return &ArtistCommandService{
		store:     store,
		views:     views,
		publisher: publisher,
	}
}

func (s *ArtistCommandService) CreateArtist(ctx context.Context, cmd cqrs.CreateArtistCommand) (*models.ArtistView, error) {
	now := time.Now().UTC()
	artist := &models.Artist{
		ID:           utils.GenerateID("art"),
		Name:         cmd.Name,
		ProfileImage: cmd.ProfileImage,
		Banner:       cmd.Banner,
		Genre:        cmd.Genre,
		Bio:          cmd.Bio,
		Followers:    cmd.Followers,
		Albums:       cmd.Albums,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if artist.Albums == nil {
		artist.Albums = []string{}
	}

	if err := s.store.Create(artist); err != nil {
		return nil, err
	}

	view := s.views.CacheView(ctx, artist)

	if err := s.publisher.Publish(ctx, events.ArtistEventsStream, events.ArtistCreated, events.ArtistCreatedEvent{
		ArtistID: artist.ID,
		Name:     artist.Name,
	}); err != nil {
		log.Printf("Failed to publish artist.created for %s: %v", artist.ID, err)
	}

	return view, nil
}

func (s *ArtistCommandService) UpdateArtist(ctx context.Context, cmd cqrs.UpdateArtistCommand) (*models.ArtistView, error) {
	artist, err := s.store.GetByID(cmd.ArtistID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != "" {
		artist.Name = cmd.Name
	}
	if cmd.ProfileImage != "" {
		artist.ProfileImage = cmd.ProfileImage
	}
	if cmd.Banner != "" {
		artist.Banner = cmd.Banner
	}
	if cmd.Genre != "" {
		artist.Genre = cmd.Genre
	}
	if cmd.Bio != "" {
		artist.Bio = cmd.Bio
	}
	artist.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(artist); err != nil {
		return nil, err
	}

	view := s.views.CacheView(ctx, artist)

	if err := s.publisher.Publish(ctx, events.ArtistEventsStream, events.ArtistUpdated, events.ArtistUpdatedEvent{
		ArtistID: artist.ID,
		Name:     artist.Name,
	}); err != nil {
		log.Printf("Failed to publish artist.updated for %s: %v", artist.ID, err)
	}

	return view, nil
}

// HandleAccountEvent reacts to follow and unfollow events from the user
// service by moving the artist's follower counter. Events naming an unknown
// artist are logged and acked; the account-side list is the source of truth
// and there is nothing to apply the delta to.
func (s *ArtistCommandService) HandleAccountEvent(ctx context.Context, event events.Envelope) error {
	var delta int
	switch event.Type {
	case events.ArtistFollowed:
		delta = 1
	case events.ArtistUnfollowed:
		delta = -1
	default:
		return nil
	}

	var data events.ArtistFollowedEvent
	if err := events.DecodeData(event, &data); err != nil {
		return err
	}

	if err := s.store.AdjustFollowers(data.ArtistID, delta); err != nil {
		if err.Error() == "artist not found" {
			log.Printf("Ignoring %s for unknown artist %s", event.Type, data.ArtistID)
			return nil
		}
		return fmt.Errorf("failed to apply %s for %s: %w", event.Type, data.ArtistID, err)
	}

	artist, err := s.store.GetByID(data.ArtistID)
	if err != nil {
		return err
	}
	s.views.CacheView(ctx, artist)
	return nil
}
