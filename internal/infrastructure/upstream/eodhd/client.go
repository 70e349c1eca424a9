package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"warrantfeed/internal/domain"
)

const DefaultBaseURL = "https://eodhistoricaldata.com/api/real-time/"

// maxBody bounds how much of a response is read.
const maxBody = 8 << 20

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=eodhd_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches real-time quotes for a batch of symbols.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	timeout    time.Duration
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each Fetch call, independent of the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func NewClient(token string, options ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("eodhd: api token is empty")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: http.DefaultClient,
		timeout:    15 * time.Second,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// URL builds the batched request: the first symbol goes in the path and the
// rest are comma-joined in the s parameter.
func (c *Client) URL(symbols []string) string {
	query := url.Values{}
	if len(symbols) > 1 {
		query.Set("s", strings.Join(symbols[1:], ","))
	}
	query.Set("api_token", c.token)
	query.Set("fmt", "json")

	base := c.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(symbols[0]) + "?" + query.Encode()
}

func (c *Client) Fetch(ctx context.Context, symbols []string) ([]domain.RawQuoteEntry, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(symbols), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", domain.ErrUpstreamUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		// The token travels in the query string; keep it out of the error.
		return nil, fmt.Errorf("%w: performing request: %v", domain.ErrUpstreamUnreachable, redact(err, c.token))
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: unauthorized (status %d)", domain.ErrUpstreamUnreachable, res.StatusCode)
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: rate limited (status %d)", domain.ErrUpstreamUnreachable, res.StatusCode)
	default:
		return nil, fmt.Errorf("%w: unexpected status code: %d", domain.ErrUpstreamUnreachable, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrUpstreamUnreachable, redact(err, c.token))
	}

	entries, err := decode(body)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: requested %d symbols", domain.ErrUpstreamEmpty, len(symbols))
	}
	return entries, nil
}

// decode accepts an array of records or a single record object. A lone
// object must carry a code.
func decode(body []byte) ([]domain.RawQuoteEntry, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", domain.ErrUpstreamMalformed)
	}

	var raws []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, fmt.Errorf("%w: decoding array: %v", domain.ErrUpstreamMalformed, err)
		}
	case '{':
		var e domain.RawQuoteEntry
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("%w: decoding object: %v", domain.ErrUpstreamMalformed, err)
		}
		// Error payloads such as {"error":"..."} come back as plain objects.
		if strings.TrimSpace(e.Symbol) == "" {
			return nil, fmt.Errorf("%w: object without code %q", domain.ErrUpstreamMalformed, preview(body))
		}
		return []domain.RawQuoteEntry{e}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected body %q", domain.ErrUpstreamMalformed, preview(body))
	}

	entries := make([]domain.RawQuoteEntry, 0, len(raws))
	for i, raw := range raws {
		var e domain.RawQuoteEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			log.Warn().Int("index", i).Err(err).Str("raw", preview(raw)).Msg("skipping undecodable upstream record")
			continue
		}
		entries = append(entries, e)
	}
	if len(raws) > 0 && len(entries) == 0 {
		return nil, fmt.Errorf("%w: no decodable records in %d elements", domain.ErrUpstreamMalformed, len(raws))
	}
	return entries, nil
}

func preview(b []byte) string {
	const n = 120
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

func redact(err error, token string) string {
	msg := err.Error()
	if token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, url.QueryEscape(token), "***")
}
