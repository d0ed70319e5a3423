package render

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
)

// maxBadgeBytes bounds how much of a badge response is read
const maxBadgeBytes = 4 << 20

// BadgeFetcher loads badge images
type BadgeFetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// HTTPBadgeFetcher fetches badges over HTTP
type HTTPBadgeFetcher struct {
	Client *http.Client
}

// Fetch downloads and decodes the image at url
func (f *HTTPBadgeFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build badge request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch badge: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxBadgeBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode badge: %w", err)
	}

	return img, nil
}
