package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/undersounds/undersounds/shared/httpx"
)

// fastGateway points at server with millisecond backoff so retry paths run
// quickly under test.
func fastGateway(serverURL, apiKey string) *ArtistGateway {
	g := NewArtistGateway(serverURL, apiKey)
	g.retry = httpx.RetryOptions{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return g
}

func TestCreateArtistSuccess(t *testing.T) {
	var gotKey, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-service-api-key")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"artist":{"id":"art-123","name":"BandX","seguidores":0,"albums":[]}}`))
	}))
	defer server.Close()

	g := fastGateway(server.URL, "sekret")
	artist, err := g.CreateArtist(context.Background(), ArtistPayload{Name: "BandX", Albums: []string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artist.ID != "art-123" {
		t.Errorf("expected id art-123, got %s", artist.ID)
	}
	if gotKey != "sekret" {
		t.Errorf("expected service key header, got %q", gotKey)
	}
	if gotPath != "/artists" {
		t.Errorf("expected POST /artists, got %s", gotPath)
	}
}

func TestCreateArtistRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"artist":{"id":"art-9"}}`))
	}))
	defer server.Close()

	g := fastGateway(server.URL, "")
	artist, err := g.CreateArtist(context.Background(), ArtistPayload{Name: "BandX"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artist.ID != "art-9" {
		t.Errorf("expected id art-9, got %s", artist.ID)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestCreateArtistExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := fastGateway(server.URL, "")
	_, err := g.CreateArtist(context.Background(), ArtistPayload{Name: "BandX"})

	var statusErr *httpx.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 StatusError, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestCreateArtistDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	g := fastGateway(server.URL, "")
	_, err := g.CreateArtist(context.Background(), ArtistPayload{Name: "BandX"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", calls.Load())
	}
}

func TestCreateArtistRejectsResponseWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"artist":{"name":"anonymous"}}`))
	}))
	defer server.Close()

	g := fastGateway(server.URL, "")
	if _, err := g.CreateArtist(context.Background(), ArtistPayload{Name: "BandX"}); err == nil {
		t.Fatal("expected an error for a response without an artist id")
	}
}

func TestFetchArtistSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/art-42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"artist":{"id":"art-42","name":"BandX","seguidores":7}}`))
	}))
	defer server.Close()

	g := fastGateway(server.URL, "")
	artist := g.FetchArtist(context.Background(), "art-42")
	if artist == nil {
		t.Fatal("expected an artist")
	}
	if artist.Followers != 7 {
		t.Errorf("expected 7 followers, got %d", artist.Followers)
	}
}

func TestFetchArtistDegradesToNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	server.Close() // connection refused from the first attempt

	g := fastGateway(server.URL, "")
	if artist := g.FetchArtist(context.Background(), "art-42"); artist != nil {
		t.Errorf("expected nil on unreachable service, got %+v", artist)
	}
}

func TestFetchArtistNotFoundDegradesToNil(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	g := fastGateway(server.URL, "")
	if artist := g.FetchArtist(context.Background(), "art-42"); artist != nil {
		t.Errorf("expected nil on 404, got %+v", artist)
	}
	if calls.Load() != 1 {
		t.Errorf("404 should not be retried, got %d attempts", calls.Load())
	}
}
