package domain

import (
	"fmt"
	"sync"

	"epages-rest-layer/internal/validate"
)

// RestPathPrefix is the fixed path between host and shop identifier.
const RestPathPrefix = "rs/shops"

// Session is the caller-owned connection state shared by a client and its
// connectors. The zero value is a disconnected session using GET.
type Session struct {
	mu        sync.RWMutex
	host      string
	shop      string
	token     string
	useTLS    bool
	method    Method
	connected bool
	lastErr   error
}

// SessionView is an immutable snapshot of a connected session.
type SessionView struct {
	Host   string
	Shop   string
	Token  string
	UseTLS bool
	Method Method
}

// NewSession returns a disconnected session.
func NewSession() *Session {
	return &Session{method: MethodGet}
}

// Connect validates host, shop and token and, on success, replaces all
// connection fields. On failure the previous fields stay but the session is
// marked disconnected.
func (s *Session) Connect(host, shop, token string, useTLS bool) bool {
	if token == "" {
		s.fail(Validationf("connect", ErrNotConnected, "auth token is empty"))
		return false
	}
	return s.connect(host, shop, token, useTLS)
}

// ConnectAnonymous connects without a token. Requests then carry no
// Authorization header, which the platform accepts for public GETs.
func (s *Session) ConnectAnonymous(host, shop string, useTLS bool) bool {
	return s.connect(host, shop, "", useTLS)
}

func (s *Session) connect(host, shop, token string, useTLS bool) bool {
	if !validate.IsHost(host) {
		s.fail(Validationf("connect", ErrNotConnected, "invalid host %q", host))
		return false
	}
	if !validate.IsNonEmptyString(shop) {
		s.fail(Validationf("connect", ErrNotConnected, "shop is empty"))
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.host = host
	s.shop = shop
	s.token = token
	s.useTLS = useTLS
	if s.method == "" {
		s.method = MethodGet
	}
	s.connected = true
	s.lastErr = nil
	return true
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.lastErr = err
}

// Disconnect clears every field. It always succeeds.
func (s *Session) Disconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.host, s.shop, s.token = "", "", ""
	s.useTLS = false
	s.method = MethodGet
	s.connected = false
	s.lastErr = nil
	return true
}

// SetRequestMethod sets the verb used by calls that do not name one.
// Unsupported verbs leave the previous verb in effect.
func (s *Session) SetRequestMethod(m Method) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !m.Valid() {
		s.lastErr = Validationf("set request method", ErrUnsupportedMethod, "%q", m)
		return false
	}
	s.method = m
	return true
}

// RequestMethod returns the current default verb.
func (s *Session) RequestMethod() Method {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.method == "" {
		return MethodGet
	}
	return s.method
}

// IsConnected reports whether Connect last succeeded.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// View returns a snapshot of the connection, or nil when disconnected.
func (s *Session) View() *SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil
	}
	m := s.method
	if m == "" {
		m = MethodGet
	}
	return &SessionView{Host: s.host, Shop: s.shop, Token: s.token, UseTLS: s.useTLS, Method: m}
}

// LastError returns the reason the last Connect or SetRequestMethod failed.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// BaseURL is {protocol}://{host}/rs/shops/{shop}.
func (v *SessionView) BaseURL() string {
	scheme := "http"
	if v.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, v.Host, RestPathPrefix, v.Shop)
}
