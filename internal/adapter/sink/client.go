// Package sink pushes Content Records to the backend's /collect endpoint.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"misinfo/internal/middleware"
	"misinfo/internal/record"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts rec as form fields and returns the stored document id.
func (c *Client) Send(ctx context.Context, rec *record.Record) (string, error) {
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	form := url.Values{}
	form.Set("source", rec.Source)
	form.Set("type", rec.Type)
	form.Set("content_text", rec.ContentText)
	form.Set("metadata", string(metaJSON))

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/collect", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if id := middleware.GetCorrelationID(ctx); id != "unknown" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("backend api error: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Status string `json:"status"`
		DocID  string `json:"doc_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.DocID, nil
}
