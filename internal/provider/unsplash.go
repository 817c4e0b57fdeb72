package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/model"
)

const unsplashSearchURL = "https://api.unsplash.com/search/photos"

// UnsplashProvider searches the Unsplash photo API. Used as the secondary
// provider by default — its results are merged in when the primary comes
// back short or fails.
type UnsplashProvider struct {
	accessKey string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

// NewUnsplashProvider creates an Unsplash-backed provider.
func NewUnsplashProvider(accessKey string, timeout time.Duration, logger *zap.Logger) *UnsplashProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &UnsplashProvider{
		accessKey: accessKey,
		baseURL:   unsplashSearchURL,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (u *UnsplashProvider) Name() string { return "unsplash" }

type unsplashPhoto struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

type unsplashResponse struct {
	Results []unsplashPhoto `json:"results"`
	Total   int             `json:"total"`
}

// Search queries Unsplash for up to count photos matching the query.
func (u *UnsplashProvider) Search(ctx context.Context, query string, count int, opts SearchOptions) ([]model.ImageCandidate, error) {
	if u.accessKey == "" {
		return nil, fmt.Errorf("unsplash access key not configured")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(clampPerPage(count, 30)))
	if opts.Orientation != "" {
		params.Set("orientation", opts.Orientation)
	}
	if opts.Color != "" {
		params.Set("color", opts.Color)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")
	req.Header.Set("User-Agent", "deck-image-service/1.0")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("unsplash returned %d for %q: %s", resp.StatusCode, query, string(body))
	}

	var parsed unsplashResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding unsplash response: %w", err)
	}

	candidates := make([]model.ImageCandidate, 0, len(parsed.Results))
	for _, photo := range parsed.Results {
		if photo.URLs.Regular == "" {
			continue
		}
		alt := photo.AltDescription
		if alt == "" {
			alt = photo.Description
		}
		candidates = append(candidates, model.ImageCandidate{
			ID:           "unsplash-" + photo.ID,
			URL:          photo.URLs.Regular,
			ThumbnailURL: photo.URLs.Small,
			Photographer: photo.User.Name,
			Alt:          alt,
			Provider:     u.Name(),
		})
	}

	u.logger.Debug("unsplash search complete",
		zap.String("query", query),
		zap.Int("results", len(candidates)),
	)
	return candidates, nil
}
