package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries a per-request ULID for log correlation
const RequestIDHeader = "X-Request-ID"

type loginProbeKey struct{}

// WithLoginProbe marks a request context as the login probe: a 401 on it
// still clears the session but does not navigate, the user is already on
// the login view.
func WithLoginProbe(ctx context.Context) context.Context {
	return context.WithValue(ctx, loginProbeKey{}, true)
}

func isLoginProbe(ctx context.Context) bool {
	probe, _ := ctx.Value(loginProbeKey{}).(bool)
	return probe
}

// Transport attaches the stored credentials to every request bound for the
// API origin and reacts to authorization failures. Responses are always
// handed back unchanged so callers can build their own message.
type Transport struct {
	base   http.RoundTripper
	origin *url.URL
	store  Store
	state  *State
	nav    Navigator
	logger zerolog.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil) for apiURL
func NewTransport(apiURL string, base http.RoundTripper, store Store, state *State, nav Navigator, logger zerolog.Logger) (*Transport, error) {
	origin, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", apiURL, err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host are required", apiURL)
	}
	origin.Path = strings.TrimSuffix(origin.Path, "/")

	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{
		base:   base,
		origin: origin,
		store:  store,
		state:  state,
		nav:    nav,
		logger: logger,
	}, nil
}

func (t *Transport) targetsAPI(u *url.URL) bool {
	if !strings.EqualFold(u.Scheme, t.origin.Scheme) || !strings.EqualFold(u.Host, t.origin.Host) {
		return false
	}
	if t.origin.Path == "" {
		return true
	}
	return u.Path == t.origin.Path || strings.HasPrefix(u.Path, t.origin.Path+"/")
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.targetsAPI(req.URL) {
		return t.base.RoundTrip(req)
	}

	authReq := req.Clone(req.Context())
	if authReq.Header.Get("Authorization") == "" {
		creds, err := t.store.Get()
		if err != nil {
			t.logger.Warn().Err(err).Msg("Failed to read stored credentials, sending request anonymously")
		}
		if creds != nil {
			authReq.SetBasicAuth(creds.Email, creds.Password)
		}
	}
	authReq.Header.Set("Content-Type", "application/json")
	if authReq.Header.Get(RequestIDHeader) == "" {
		authReq.Header.Set(RequestIDHeader, ulid.Make().String())
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(authReq)
	if err != nil {
		t.logger.Error().
			Err(err).
			Str("method", authReq.Method).
			Str("path", authReq.URL.Path).
			Str("request_id", authReq.Header.Get(RequestIDHeader)).
			Msg("HTTP request failed")
		return nil, err
	}

	t.logger.Debug().
		Str("method", authReq.Method).
		Str("path", authReq.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", authReq.Header.Get(RequestIDHeader)).
		Msg("HTTP request")

	t.dispatch(authReq, resp.StatusCode)
	return resp, nil
}

func (t *Transport) dispatch(req *http.Request, status int) {
	log := t.logger.With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", status).
		Logger()

	switch {
	case status == http.StatusUnauthorized:
		// The credentials themselves are rejected: end the session.
		if err := clearSession(t.store); err != nil {
			log.Error().Err(err).Msg("Failed to clear session after 401")
		}
		t.state.Set(nil)
		log.Warn().Msg("Credentials rejected, session cleared")
		if !isLoginProbe(req.Context()) {
			t.nav.Navigate(RouteLogin, nil)
		}
	case status == http.StatusForbidden:
		log.Warn().Msg("Access denied: missing permissions")
	case status == http.StatusNotFound:
		log.Warn().Msg("Resource not found")
	case status >= 500:
		log.Error().Msg("Server error")
	case status >= 400:
		log.Warn().Msg("Unexpected error response")
	}
}
