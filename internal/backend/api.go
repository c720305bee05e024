// Package backend issues the two calls the probe makes against the backend:
// the credential login and the authenticated locations fetch.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"apiprobe/internal/models"
)

const (
	DefaultLoginPath     = "/user/login/"
	DefaultLocationsPath = "/user/locations/"
)

type Client struct {
	httpClient    *http.Client
	baseURL       string
	loginPath     string
	locationsPath string
	userAgent     string
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithPaths(loginPath, locationsPath string) Option {
	return func(c *Client) {
		c.loginPath = loginPath
		c.locationsPath = locationsPath
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:    http.DefaultClient,
		baseURL:       strings.TrimRight(baseURL, "/"),
		loginPath:     DefaultLoginPath,
		locationsPath: DefaultLocationsPath,
		userAgent:     "apiprobe/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts the credentials and returns the token pair. A non-2xx answer is
// reported as *StatusError.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.loginPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	raw, err := c.do(req, models.StepLogin)
	if err != nil {
		return nil, err
	}

	var loginResp LoginResponse
	if err := json.Unmarshal(raw, &loginResp); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	loginResp.Raw = raw

	if loginResp.Access == "" {
		return &loginResp, ErrNoToken
	}
	return &loginResp, nil
}

// Locations fetches the locations collection with token as the bearer
// credential. The token is sent exactly as given.
func (c *Client) Locations(ctx context.Context, token string) (*LocationsEnvelope, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.locationsPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	raw, err := c.do(req, models.StepFetch)
	if err != nil {
		return nil, err
	}

	var env LocationsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Valid JSON that is not an object still counts as a response with
		// neither message nor data.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("decode locations response: %w", err)
		}
	}
	env.Raw = raw
	return &env, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, step models.Step) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", step, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", step, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Step: step, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
