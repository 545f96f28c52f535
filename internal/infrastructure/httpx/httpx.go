package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxBodyBytes     = 1 << 20
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("status %d", e.Code) }

type Client struct {
	HTTP    *http.Client
	Token   string
	Headers map[string]string
}

// New returns a client tuned for many small requests to a few hosts.
func New(timeout time.Duration, headers map[string]string) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	h := map[string]string{"User-Agent": DefaultUserAgent}
	for k, v := range headers {
		h[k] = v
	}
	return &Client{HTTP: &http.Client{Transport: tr, Timeout: timeout}, Headers: h}
}

func (c *Client) prepare(req *http.Request) {
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.HTTP == nil {
		c.HTTP = http.DefaultClient
	}
}

// GetText performs a single GET and decodes the body with enc (nil = UTF-8).
// Quote requests are not retried: the failover chain moves on instead.
func (c *Client) GetText(ctx context.Context, url string, enc encoding.Encoding, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.prepare(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode}
	}

	var r io.Reader = io.LimitReader(resp.Body, maxBodyBytes)
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}

// DoJSON sends req with exponential backoff on transport errors and 5xx.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) error {
	c.prepare(req)

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 3 * time.Second

	op := func() error {
		resp, err := c.HTTP.Do(req.Clone(ctx))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return &StatusError{Code: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode})
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode: %w", err))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(exp, ctx))
}
