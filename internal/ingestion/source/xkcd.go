// Package source fetches single comics from the xkcd JSON API.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/comic"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/errors"
)

// Latest is the number that asks the archive for its newest comic.
const Latest = 0

// maxBodySize bounds a single comic payload.
const maxBodySize = 1 << 20

// Client retrieves comics over HTTP. It performs exactly one request per
// call; retrying is the caller's concern.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(cfg config.SourceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the resource that serves comic num.
func (c *Client) URL(num int) string {
	if num == Latest {
		return c.baseURL + "/info.0.json"
	}
	return fmt.Sprintf("%s/%d/info.0.json", c.baseURL, num)
}

// Fetch downloads comic num, or the newest comic when num is Latest. Every
// failure wraps ErrFetch; a 404 additionally wraps ErrComicNotFound.
func (c *Client) Fetch(ctx context.Context, num int) (*comic.Comic, error) {
	op := fmt.Sprintf("fetch comic %d", num)
	if num < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, op, "negative comic number")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(num), nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetch, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetch, op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.Wrap(apperrors.ErrFetch, op, apperrors.New(apperrors.ErrComicNotFound, "", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Newf(apperrors.ErrFetch, op, "unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetch, op, err)
	}
	var out comic.Comic
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetch, op, fmt.Errorf("malformed payload: %w", err))
	}
	if err := validator.ValidateComic(num, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetch, op, fmt.Errorf("malformed payload: %w", err))
	}
	return &out, nil
}
