package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

const maxResponseBytes = 1 << 20

// HTTPClient is a Client backed by net/http. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient validates serverURL and returns a client whose requests
// time out after timeout. A zero timeout means no client-side limit.
func NewHTTPClient(serverURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", serverURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q: missing host", serverURL)
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *HTTPClient) Register(ctx context.Context, email string, password []byte) (*User, error) {
	u := &User{}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", credentials{email, string(password)}, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	s := &Session{}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", credentials{email, string(password)}, s); err != nil {
		return nil, err
	}
	if s.Token == "" {
		return nil, errors.New("login response carries no token")
	}
	return s, nil
}

// Me returns the identity bound to token. An empty token fails with
// ErrUnauthorized without a round trip.
func (c *HTTPClient) Me(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	id := &Identity{}
	if err := c.do(ctx, http.MethodGet, "/api/users/me", token, nil, id); err != nil {
		return nil, err
	}
	return id, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		e := &errorBody{}
		_ = json.Unmarshal(raw, e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
