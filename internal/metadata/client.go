package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nightreel/cineclub-api/pkg/config"
)

// Info is the denormalized snapshot the club stores alongside the
// external reference.
type Info struct {
	Title     string
	Year      int
	PosterURL string
}

// Client looks up film details on a TMDB-style metadata service. The
// write paths never depend on it: callers fall back to user-supplied
// fields on any error.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a metadata client.
func NewClient(cfg config.MetadataConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type movieDetail struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
}

// Lookup fetches title/year/poster for an external film reference.
func (c *Client) Lookup(ctx context.Context, ref string) (*Info, error) {
	url := fmt.Sprintf("%s/movie/%s?api_key=%s", c.baseURL, ref, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata lookup %s: status %d", ref, resp.StatusCode)
	}

	var detail movieDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("decode metadata response: %w", err)
	}

	info := &Info{Title: detail.Title}
	if len(detail.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(detail.ReleaseDate[:4]); err == nil {
			info.Year = year
		}
	}
	if detail.PosterPath != "" {
		info.PosterURL = "https://image.tmdb.org/t/p/w500" + detail.PosterPath
	}
	return info, nil
}
