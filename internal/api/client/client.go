package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client talks to the local generation service. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
}

// ClientConfig holds the base address of the service.
type ClientConfig struct {
	Scheme string
	Host   string
}

var DefaultConfig = ClientConfig{
	Scheme: "http",
	Host:   "127.0.0.1:8000",
}

// NewClient creates a client for the given base address. No timeout is set:
// chat streams stay open for as long as the service keeps generating.
func NewClient(config ClientConfig) *Client {
	return &Client{
		base: &url.URL{Scheme: config.Scheme, Host: config.Host},
		http: &http.Client{},
	}
}

// NewClientFromURL parses a base URL such as "http://127.0.0.1:8000".
func NewClientFromURL(raw string) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", raw)
	}
	return NewClient(ClientConfig{Scheme: u.Scheme, Host: u.Host}), nil
}

// BaseURL returns the service address the client was built with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

func (c *Client) do(ctx context.Context, method, path string, data any) (*http.Response, error) {
	var body io.Reader
	if data != nil {
		bts, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(bts)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	if data != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(request)
}

// call performs a request and decodes a 200 JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &TransportError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
