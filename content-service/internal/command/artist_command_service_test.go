package command

import (
	"context"
	"fmt"
	"testing"

	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/events"
	"github.com/undersounds/undersounds/shared/models"
)

type fakeArtistStore struct {
	artists map[string]*models.Artist
	failAll bool
}

func newFakeArtistStore() *fakeArtistStore {
	return &fakeArtistStore{artists: make(map[string]*models.Artist)}
}

func (s *fakeArtistStore) Create(artist *models.Artist) error {
	if s.failAll {
		return fmt.Errorf("insert failed")
	}
	copied := *artist
	s.artists[artist.ID] = &copied
	return nil
}

func (s *fakeArtistStore) GetByID(id string) (*models.Artist, error) {
	artist, ok := s.artists[id]
	if !ok {
		return nil, fmt.Errorf("artist not found")
	}
	copied := *artist
	return &copied, nil
}

func (s *fakeArtistStore) Update(artist *models.Artist) error {
	if _, ok := s.artists[artist.ID]; !ok {
		return fmt.Errorf("artist not found")
	}
	copied := *artist
	s.artists[artist.ID] = &copied
	return nil
}

func (s *fakeArtistStore) AdjustFollowers(id string, delta int) error {
	if s.failAll {
		return fmt.Errorf("write failed")
	}
	artist, ok := s.artists[id]
	if !ok {
		return fmt.Errorf("artist not found")
	}
	artist.Followers += delta
	if artist.Followers < 0 {
		artist.Followers = 0
	}
	return nil
}

type fakeArtistViews struct {
	cached []string
}

func (v *fakeArtistViews) CacheView(ctx context.Context, artist *models.Artist) *models.ArtistView {
	v.cached = append(v.cached, artist.ID)
	return models.NewArtistView(artist)
}

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	p.events = append(p.events, eventType)
	return nil
}

func newService() (*ArtistCommandService, *fakeArtistStore, *fakePublisher) {
	store := newFakeArtistStore()
	publisher := &fakePublisher{}
	svc := NewArtistCommandService(store, &fakeArtistViews{}, publisher)
	return svc, store, publisher
}

func followEnvelope(eventType, artistID string) events.Envelope {
	return events.Envelope{
		Type: eventType,
		Data: map[string]any{"accountId": "usr-fan000001", "artistId": artistID},
	}
}

func TestCreateArtist(t *testing.T) {
	svc, store, publisher := newService()

	view, err := svc.CreateArtist(context.Background(), cqrs.CreateArtistCommand{
		Name:  "The Sonic Owls",
		Genre: "indie",
	})
	if err != nil {
		t.Fatalf("CreateArtist failed: %v", err)
	}
	if view.ID == "" || view.Name != "The Sonic Owls" {
		t.Errorf("Unexpected view %+v", view)
	}
	if view.Albums == nil {
		t.Error("New artist should carry an empty album list, not nil")
	}
	if _, err := store.GetByID(view.ID); err != nil {
		t.Errorf("Artist was not persisted: %v", err)
	}
	if len(publisher.events) != 1 || publisher.events[0] != events.ArtistCreated {
		t.Errorf("Expected [artist.created], got %v", publisher.events)
	}
}

func TestUpdateArtistKeepsUnsetFields(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	created, _ := svc.CreateArtist(ctx, cqrs.CreateArtistCommand{
		Name:  "The Sonic Owls",
		Genre: "indie",
		Bio:   "We play loud.",
	})

	updated, err := svc.UpdateArtist(ctx, cqrs.UpdateArtistCommand{
		ArtistID: created.ID,
		Genre:    "post-rock",
	})
	if err != nil {
		t.Fatalf("UpdateArtist failed: %v", err)
	}
	if updated.Genre != "post-rock" {
		t.Errorf("Expected updated genre, got %q", updated.Genre)
	}
	if updated.Name != "The Sonic Owls" || updated.Bio != "We play loud." {
		t.Errorf("Unset fields must keep their previous value, got %+v", updated)
	}
}

func TestHandleAccountEventFollowerCounter(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	created, _ := svc.CreateArtist(ctx, cqrs.CreateArtistCommand{Name: "The Sonic Owls"})

	if err := svc.HandleAccountEvent(ctx, followEnvelope(events.ArtistFollowed, created.ID)); err != nil {
		t.Fatalf("Follow event failed: %v", err)
	}
	if err := svc.HandleAccountEvent(ctx, followEnvelope(events.ArtistFollowed, created.ID)); err != nil {
		t.Fatalf("Follow event failed: %v", err)
	}

	artist, _ := store.GetByID(created.ID)
	if artist.Followers != 2 {
		t.Errorf("Expected 2 followers, got %d", artist.Followers)
	}

	if err := svc.HandleAccountEvent(ctx, followEnvelope(events.ArtistUnfollowed, created.ID)); err != nil {
		t.Fatalf("Unfollow event failed: %v", err)
	}
	artist, _ = store.GetByID(created.ID)
	if artist.Followers != 1 {
		t.Errorf("Expected 1 follower, got %d", artist.Followers)
	}
}

func TestHandleAccountEventUnknownArtistIsAcked(t *testing.T) {
	svc, _, _ := newService()

	err := svc.HandleAccountEvent(context.Background(), followEnvelope(events.ArtistFollowed, "art-ghost"))
	if err != nil {
		t.Errorf("Unknown artist must not poison the stream, got: %v", err)
	}
}

func TestHandleAccountEventIgnoresOtherTypes(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	created, _ := svc.CreateArtist(ctx, cqrs.CreateArtistCommand{Name: "The Sonic Owls"})
	if err := svc.HandleAccountEvent(ctx, followEnvelope(events.AccountCreated, created.ID)); err != nil {
		t.Fatalf("Unrelated event failed: %v", err)
	}

	artist, _ := store.GetByID(created.ID)
	if artist.Followers != 0 {
		t.Errorf("Unrelated event must not move the counter, got %d", artist.Followers)
	}
}

func TestHandleAccountEventRetriesOnStoreFailure(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	created, _ := svc.CreateArtist(ctx, cqrs.CreateArtistCommand{Name: "The Sonic Owls"})
	store.failAll = true

	err := svc.HandleAccountEvent(ctx, followEnvelope(events.ArtistFollowed, created.ID))
	if err == nil {
		t.Error("Store failure must be returned so the message is redelivered")
	}
}
