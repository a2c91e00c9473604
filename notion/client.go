package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.notion.com"
	DefaultVersion  = "2022-06-28"
	defaultPageSize = 100
)

// ClientConfig configures a Client. Zero values take defaults.
type ClientConfig struct {
	Token   string
	BaseURL string        // default DefaultBaseURL
	Version string        // default DefaultVersion
	Timeout time.Duration // per call, default 10s
	Rate    float64       // requests per second, default 3; negative disables
	Burst   int           // default 3

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the Notion REST API. It holds no per-request state and
// is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	version string
	timeout time.Duration
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient returns a Client, or ErrMissingToken when cfg has no token.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("notion: base url: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Rate == 0 {
		cfg.Rate = 3
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	limit := rate.Limit(cfg.Rate)
	if cfg.Rate < 0 {
		limit = rate.Inf
	}
	return &Client{
		http:    cfg.HTTPClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		version: cfg.Version,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		log:     cfg.Logger,
	}, nil
}

// RetrieveDatabase returns a database and its schema.
func (c *Client) RetrieveDatabase(ctx context.Context, id string) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+DashedID(id), nil, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// QueryDatabase returns one page of a database's rows.
func (c *Client) QueryDatabase(ctx context.Context, id, cursor string, pageSize int) (*PageList, error) {
	body := map[string]any{"page_size": pageSize}
	if cursor != "" {
		body["start_cursor"] = cursor
	}
	var list PageList
	if err := c.do(ctx, http.MethodPost, "/v1/databases/"+DashedID(id)+"/query", nil, body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListBlockChildren returns one page of a block's children.
func (c *Client) ListBlockChildren(ctx context.Context, blockID, cursor string, pageSize int) (*BlockList, error) {
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(pageSize))
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	var list BlockList
	if err := c.do(ctx, http.MethodGet, "/v1/blocks/"+DashedID(blockID)+"/children", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) do(ctx context.Context, method, relPath string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Path = path.Join(u.Path, relPath)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("notion request failed",
			zap.String("method", method),
			zap.String("path", relPath),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("notion request",
		zap.String("method", method),
		zap.String("path", relPath),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(data))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("notion: decode %s: %w", relPath, err)
	}
	return nil
}
