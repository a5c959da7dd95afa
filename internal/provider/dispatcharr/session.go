package dispatcharr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	tokenPath       = "/api/accounts/token/"
	defaultPageSize = 250
	maxErrorBody    = 512
)

// ErrUnauthorized reports credentials the service rejected, including after a
// fresh login.
var ErrUnauthorized = errors.New("dispatcharr: unauthorized")

// StatusError is returned for non-2xx responses other than 401.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("dispatcharr: %s returned HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("dispatcharr: %s returned HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Options configures the session and client.
type Options struct {
	BaseURL    string
	Username   string
	Password   string
	UserAgent  string
	PageSize   int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// Session holds the bearer token for the primary service. Refresh replaces
// the token after the service rejects it.
type Session struct {
	baseURL   string
	username  string
	password  string
	userAgent string
	http      *http.Client

	mu    sync.RWMutex
	token string
}

// NewSession creates a session. No request is made until Login.
func NewSession(opts Options) *Session {
	return &Session{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		username:  opts.Username,
		password:  opts.Password,
		userAgent: opts.UserAgent,
		http:      opts.httpClient(),
	}
}

// Token returns the current bearer token, empty before Login.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login exchanges the configured credentials for a bearer token.
func (s *Session) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": s.username,
		"password": s.password,
	})
	if err != nil {
		return fmt.Errorf("encode login: %w", err)
	}

	url := s.baseURL + tokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("login as %q: %w", s.username, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{StatusCode: resp.StatusCode, URL: url, Body: snippet(data)}
	}

	var payload struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if payload.Access == "" {
		return errors.New("dispatcharr: login response has no access token")
	}

	s.mu.Lock()
	s.token = payload.Access
	s.mu.Unlock()
	return nil
}

// Refresh obtains a new token. The service issues short-lived access tokens,
// so a full login is the refresh.
func (s *Session) Refresh(ctx context.Context) error {
	return s.Login(ctx)
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
