package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Upload stores data at bucket/path and returns the object's public URL.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	if c.baseURL == "" || c.serviceKey == "" {
		return "", ErrNotConfigured
	}

	objectPath := "/storage/v1/object/" + escapePath(bucket) + "/" + escapePath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+objectPath, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "3600")
	req.Header.Set("x-upsert", "false")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return c.PublicURL(bucket, path), nil
}

func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + escapePath(bucket) + "/" + escapePath(path)
}

func escapePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
