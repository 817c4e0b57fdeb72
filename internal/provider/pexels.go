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

const pexelsSearchURL = "https://api.pexels.com/v1/search"

// PexelsProvider searches the Pexels photo API. Pexels is the default
// primary provider: generous free tier, good editorial coverage.
type PexelsProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewPexelsProvider creates a Pexels-backed provider.
func NewPexelsProvider(apiKey string, timeout time.Duration, logger *zap.Logger) *PexelsProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PexelsProvider{
		apiKey:  apiKey,
		baseURL: pexelsSearchURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (p *PexelsProvider) Name() string { return "pexels" }

// pexelsPhoto mirrors the fields we use from the Pexels response.
type pexelsPhoto struct {
	ID           int64  `json:"id"`
	Photographer string `json:"photographer"`
	Alt          string `json:"alt"`
	Src          struct {
		Large2X string `json:"large2x"`
		Large   string `json:"large"`
		Medium  string `json:"medium"`
	} `json:"src"`
}

type pexelsResponse struct {
	Photos       []pexelsPhoto `json:"photos"`
	TotalResults int           `json:"total_results"`
}

// Search queries Pexels for up to count photos matching the query.
func (p *PexelsProvider) Search(ctx context.Context, query string, count int, opts SearchOptions) ([]model.ImageCandidate, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("pexels API key not configured")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(clampPerPage(count, 80)))
	if opts.Orientation != "" {
		params.Set("orientation", opts.Orientation)
	}
	if opts.Color != "" {
		params.Set("color", opts.Color)
	}
	if opts.Locale != "" {
		params.Set("locale", opts.Locale)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("User-Agent", "deck-image-service/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("pexels returned %d for %q: %s", resp.StatusCode, query, string(body))
	}

	var parsed pexelsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding pexels response: %w", err)
	}

	candidates := make([]model.ImageCandidate, 0, len(parsed.Photos))
	for _, photo := range parsed.Photos {
		full := photo.Src.Large2X
		if full == "" {
			full = photo.Src.Large
		}
		if full == "" {
			continue // no usable URL
		}
		candidates = append(candidates, model.ImageCandidate{
			ID:           "pexels-" + strconv.FormatInt(photo.ID, 10),
			URL:          full,
			ThumbnailURL: photo.Src.Medium,
			Photographer: photo.Photographer,
			Alt:          photo.Alt,
			Provider:     p.Name(),
		})
	}

	p.logger.Debug("pexels search complete",
		zap.String("query", query),
		zap.Int("results", len(candidates)),
	)
	return candidates, nil
}

// clampPerPage keeps per_page within what the backend accepts.
func clampPerPage(count, max int) int {
	if count < 1 {
		return 1
	}
	if count > max {
		return max
	}
	return count
}
