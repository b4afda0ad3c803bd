// Package gateway is the user service's client for the content service,
// which owns all artist records. The content service is treated as
// unreliable: every call is retried on transient failures and fetches
// degrade to "no artist data" rather than erroring.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/undersounds/undersounds/shared/httpx"
)

const (
	createTimeout = 10 * time.Second
	fetchTimeout  = 8 * time.Second
)

// ArtistPayload is the creation request body. The follower seed keeps its
// legacy wire name "seguidores".
type ArtistPayload struct {
	Name         string   `json:"name"`
	ProfileImage string   `json:"profileImage"`
	Banner       string   `json:"banner"`
	Genre        string   `json:"genre"`
	Bio          string   `json:"bio"`
	Followers    int      `json:"seguidores"`
	Albums       []string `json:"albums"`
}

// RemoteArtist is the artist representation returned by the content service.
type RemoteArtist struct {
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

// ArtistGateway calls the content service's artist endpoints, authenticating
// with the shared service API key when one is configured.
type ArtistGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   httpx.RetryOptions
}

func NewArtistGateway(baseURL, apiKey string) *ArtistGateway {
	return &ArtistGateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
		retry:   httpx.RetryOptions{MaxAttempts: 3, BaseDelay: time.Second},
	}
}

// CreateArtist provisions a new artist record. Transient failures are
// retried; after exhaustion the last error is returned and the caller
// decides whether provisioning failure is fatal for its own operation.
func (g *ArtistGateway) CreateArtist(ctx context.Context, payload ArtistPayload) (*RemoteArtist, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artist payload: %w", err)
	}

	return httpx.WithRetry(ctx, g.retry, func(ctx context.Context) (*RemoteArtist, error) {
		ctx, cancel := context.WithTimeout(ctx, createTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/artists", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		g.authenticate(req)

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, &httpx.StatusError{StatusCode: resp.StatusCode}
		}
		return decodeArtistEnvelope(resp.Body)
	})
}

// FetchArtist looks up an existing artist. It never returns an error: any
// failure, including retry exhaustion, degrades to nil and the caller
// proceeds without artist data.
func (g *ArtistGateway) FetchArtist(ctx context.Context, artistID string) *RemoteArtist {
	artist, err := httpx.WithRetry(ctx, g.retry, func(ctx context.Context) (*RemoteArtist, error) {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/artists/"+url.PathEscape(artistID), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		g.authenticate(req)

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, &httpx.StatusError{StatusCode: resp.StatusCode}
		}
		return decodeArtistEnvelope(resp.Body)
	})
	if err != nil {
		log.Printf("gateway: fetch of artist %s failed: %v", artistID, err)
		return nil
	}
	return artist
}

func (g *ArtistGateway) authenticate(req *http.Request) {
	if g.apiKey != "" {
		req.Header.Set("x-service-api-key", g.apiKey)
	}
}

// decodeArtistEnvelope enforces the response contract: a JSON object with an
// "artist" field carrying a non-empty id. A response that does not match is
// an error, not something to probe alternative field names for.
func decodeArtistEnvelope(r io.Reader) (*RemoteArtist, error) {
	var envelope struct {
		Artist *RemoteArtist `json:"artist"`
	}
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode artist response: %w", err)
	}
	if envelope.Artist == nil || envelope.Artist.ID == "" {
		return nil, fmt.Errorf("artist response missing id")
	}
	return envelope.Artist, nil
}
