// Package posters fetches the poster images catalog documents point at and
// stores blurhash placeholders with their dimensions. Everything here is
// enrichment: results land in their own collection keyed by imdbId, the
// catalog document itself is never touched, and failures are logged and
// dropped.
package posters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // poster formats seen in the wild
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/cinelogapp/cinelog-server/internal/store"
)

const (
	// maxPosterSize caps how much of a poster response download reads.
	maxPosterSize = 10 * 1024 * 1024

	// fetchTimeout bounds one poster download end to end.
	fetchTimeout = 30 * time.Second
)

// Poster is the stored placeholder document for one title.
type Poster struct {
	ImdbID    string    `json:"_id" bson:"_id"`
	URL       string    `json:"url" bson:"url"`
	BlurHash  string    `json:"blurhash" bson:"blurhash"`
	Width     int       `json:"width" bson:"width"`
	Height    int       `json:"height" bson:"height"`
	FetchedAt time.Time `json:"fetchedAt" bson:"fetchedAt"`
}

// Fetcher downloads poster images and stores their placeholders.
type Fetcher struct {
	store      store.Store
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a poster fetcher over the given docstore.
func NewFetcher(st store.Store, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		store: st,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		logger: logger,
	}
}

// Fetch downloads the poster for a title and stores its placeholder. A
// placeholder already recorded for the same URL is left alone, so repeated
// index notifications for an unchanged document cost one store read.
func (f *Fetcher) Fetch(ctx context.Context, imdbID, url string) error {
	if url == "" {
		return errors.New("empty poster URL")
	}

	var existing Poster
	err := f.store.Get(ctx, store.CollectionPosters, imdbID, &existing)
	if err == nil && existing.URL == url {
		return nil
	}
	if err != nil && !errors.Is(err, store.ErrNoDocument) {
		return fmt.Errorf("check existing poster: %w", err)
	}

	img, size, err := f.download(ctx, url)
	if err != nil {
		return err
	}

	hash, err := computeBlurHash(img)
	if err != nil {
		return fmt.Errorf("encode blurhash: %w", err)
	}

	bounds := img.Bounds()
	poster := Poster{
		ImdbID:    imdbID,
		URL:       url,
		BlurHash:  hash,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		FetchedAt: time.Now().UTC(),
	}

	if err := f.save(ctx, poster); err != nil {
		return err
	}

	f.logger.Info("fetched poster",
		"imdb_id", imdbID,
		"size", size,
		"width", poster.Width,
		"height", poster.Height,
	)

	return nil
}

// download retrieves and decodes the image at the URL.
func (f *Fetcher) download(ctx context.Context, url string) (image.Image, int64, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPosterSize))
	if err != nil {
		return nil, 0, fmt.Errorf("read data: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("decode image: %w", err)
	}

	return img, int64(len(data)), nil
}

// save inserts the placeholder or overwrites a stale one for the same title.
func (f *Fetcher) save(ctx context.Context, poster Poster) error {
	err := f.store.Insert(ctx, store.CollectionPosters, poster.ImdbID, poster)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrDuplicateID) {
		return fmt.Errorf("store poster: %w", err)
	}

	_, err = f.store.SetFields(ctx, store.CollectionPosters, poster.ImdbID, map[string]any{
		"url":       poster.URL,
		"blurhash":  poster.BlurHash,
		"width":     poster.Width,
		"height":    poster.Height,
		"fetchedAt": poster.FetchedAt,
	})
	if err != nil {
		return fmt.Errorf("update poster: %w", err)
	}
	return nil
}
