package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Config carries what a page needs to talk to its api: where it lives
// and the credentials to send along.
type Config struct {
	BaseURL   string
	BasePath  string
	CSRFToken string
	APIKey    string
	Timeout   time.Duration
	// RequestsPerSecond of 0 disables the limiter.
	RequestsPerSecond float64
	Burst             int
}

// Client is a rate limited HTTP client bound to one api.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient returns a client for cfg
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")
	if cfg.BasePath == "/" {
		cfg.BasePath = ""
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{Timeout: cfg.Timeout,
			Transport: &http.Transport{MaxIdleConns: 20, MaxConnsPerHost: 10, IdleConnTimeout: 20 * time.Second}},
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

// URL joins base url, base path and path and appends params.
func (c *Client) URL(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if c.cfg.APIKey != "" {
		params.Set("apikey", c.cfg.APIKey)
	}
	u := c.cfg.BaseURL + c.cfg.BasePath + "/" + strings.TrimLeft(path, "/")
	if len(params) != 0 {
		u += "?" + params.Encode()
	}
	return u
}

// DoJSON sends body (if not nil) as json and decodes the response into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(err, "rate limit")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, params), reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.CSRFToken != "" {
		req.Header.Set("X-CSRF-Token", c.cfg.CSRFToken)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Code: resp.StatusCode}
		var msg struct {
			Error string `json:"error"`
		}
		if data, rerr := io.ReadAll(io.LimitReader(resp.Body, 4096)); rerr == nil && json.Unmarshal(data, &msg) == nil {
			serr.Message = msg.Error
		}
		return serr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(ErrMalformedResponse, err.Error())
	}
	return nil
}
