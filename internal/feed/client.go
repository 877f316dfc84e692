package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erictseng47/Stock/internal/models"
)

// Failure taxonomy for a fetch. Both are fatal to the current run; retry
// happens by rerun, never inside the client.
var (
	ErrTransport = errors.New("feed transport failure")
	ErrSchema    = errors.New("feed schema failure")
)

// Headers the upstream feed requires on every request.
const (
	originHeader  = "https://news.cnyes.com/"
	refererHeader = "https://news.cnyes.com/"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

const (
	DefaultPage  = 1
	DefaultLimit = 30
)

// Client fetches pages from the newslist API.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *slog.Logger
}

// NewClient builds a feed client. The timeout bounds the whole request and
// must be positive; it is the only blocking network operation in a run.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// FetchPage issues one paginated request and returns the raw records from
// items.data, unmodified. A missing or malformed items.data path is a schema
// failure, not an empty success.
func (c *Client) FetchPage(ctx context.Context, page, limit int) ([]models.RawRecord, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Origin", originHeader)
	req.Header.Set("Referer", refererHeader)
	req.Header.Set("User-Agent", userAgent)

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrTransport, res.Status)
	}

	var payload struct {
		Items struct {
			Data []models.RawRecord `json:"data"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrSchema, err)
	}
	if payload.Items.Data == nil {
		return nil, fmt.Errorf("%w: items.data missing", ErrSchema)
	}

	c.log.Debug("fetched newslist page",
		slog.Int("page", page),
		slog.Int("limit", limit),
		slog.Int("records", len(payload.Items.Data)),
	)

	return payload.Items.Data, nil
}
