// Package googlebooks searches the Google Books volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"booknook-go/internal/domain/book"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type volumesResponse struct {
	Items []volume `json:"items"`
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title      string   `json:"title"`
		Authors    []string `json:"authors"`
		ImageLinks struct {
			SmallThumbnail string `json:"smallThumbnail"`
			Thumbnail      string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]book.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	if maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(maxResults))
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("google books status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode google books response: %w", err)
	}

	results := make([]book.SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID == "" {
			continue
		}
		thumbnail := item.VolumeInfo.ImageLinks.Thumbnail
		if thumbnail == "" {
			thumbnail = item.VolumeInfo.ImageLinks.SmallThumbnail
		}
		results = append(results, book.SearchResult{
			ID:        item.ID,
			Title:     item.VolumeInfo.Title,
			Author:    book.JoinAuthors(item.VolumeInfo.Authors),
			Authors:   item.VolumeInfo.Authors,
			Thumbnail: secureURL(thumbnail),
		})
	}
	return results, nil
}

// secureURL upgrades http thumbnails so browsers don't block mixed content.
func secureURL(value string) string {
	if strings.HasPrefix(value, "http://") {
		return "https://" + strings.TrimPrefix(value, "http://")
	}
	return value
}
