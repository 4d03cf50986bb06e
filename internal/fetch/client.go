// Package fetch retrieves module sources over HTTP(S). Redirects are followed
// by net/http; only the final response body is returned to the caller.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/any-hub/https-loader/internal/version"
)

// DefaultMaxRedirects matches the net/http default policy.
const DefaultMaxRedirects = 10

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// ClientOptions 控制 http.Client 的超时与重定向上限。
type ClientOptions struct {
	// Timeout 为 0 时不设置整体超时，调用方可通过 ctx 自行控制。
	Timeout      time.Duration
	MaxRedirects int
}

// NewHTTPClient 返回共享 transport 的 http.Client。
func NewHTTPClient(opts ClientOptions) *http.Client {
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: defaultTransport.Clone(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// ErrBodyTooLarge 表示响应体超过 MaxBodyBytes。
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Error wraps a transport-level failure (DNS, TLS, connection reset, too many
// redirects, ...).
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx final response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %s", e.URL, e.Status)
}

// Client performs a single GET per call. It never retries.
type Client struct {
	http         *http.Client
	userAgent    string
	maxBodyBytes int64
}

// Options configures a Client. A nil HTTPClient falls back to NewHTTPClient
// with default options.
type Options struct {
	HTTPClient   *http.Client
	UserAgent    string
	MaxBodyBytes int64
}

// NewClient builds a fetch client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(ClientOptions{})
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	return &Client{
		http:         httpClient,
		userAgent:    ua,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Fetch GETs rawURL and returns the body of the final response.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body io.Reader = resp.Body
	if c.maxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBodyBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	if c.maxBodyBytes > 0 && int64(len(data)) > c.maxBodyBytes {
		return nil, &Error{URL: rawURL, Err: ErrBodyTooLarge}
	}
	return data, nil
}
