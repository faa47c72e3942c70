package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const maxResponseBytes = 4 << 20

// HTTPError 非 200 响应
type HTTPError struct {
	Venue      string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: http %d: %s", e.Venue, e.Path, e.StatusCode, e.Body)
}

// RestClient 公共行情 REST 客户端，按交易所限速
type RestClient struct {
	name    string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewRestClient ratePerSec <= 0 表示不限速
func NewRestClient(name, baseURL string, ratePerSec float64) *RestClient {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		burst := int(ratePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return &RestClient{
		name:    name,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
	}
}

func (c *RestClient) BaseURL() string { return c.baseURL }

// GetJSON GET base+path?query 并把响应解码到 out
func (c *RestClient) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	endpoint, err := BuildQueryURL(c.baseURL, path, query.Encode())
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &HTTPError{Venue: c.name, Path: path, StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: json unmarshal: %w", c.name, path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
