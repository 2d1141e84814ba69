package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"epages-rest-layer/internal/codec"
	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/validate"

	"github.com/rs/zerolog"
)

// Media types spoken by the platform.
const (
	MediaTypeVendor    = "application/vnd.epages.v1+json"
	MediaTypeJSON      = "application/json"
	MediaTypeJSONPatch = "application/json-patch+json"
)

// Default timeouts applied when Options leave them at zero.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

// HTTPClient is satisfied by *http.Client. Tests may substitute their own.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options tune a Client. A negative timeout disables it.
type Options struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	UserAgent      string
	RateLimiter    *RateLimiter
	Metrics        *Metrics
	HTTPClient     HTTPClient
}

// Client is the transport to a single shop. It reads the session on every
// call, so reconnecting the session retargets the client.
type Client struct {
	session     *domain.Session
	http        HTTPClient
	codec       *codec.Codec
	rateLimiter *RateLimiter
	metrics     *Metrics
	userAgent   string
	logger      zerolog.Logger

	mu      sync.Mutex
	lastErr error
}

// NewClient creates a client with default timeouts and no logging.
func NewClient(session *domain.Session) *Client {
	return NewClientWithOptions(session, Options{}, zerolog.Nop())
}

// NewClientWithOptions creates a client with rate limiting, metrics and
// timeout options.
func NewClientWithOptions(session *domain.Session, opts Options, logger zerolog.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout, opts.ConnectTimeout)
	}
	return &Client{
		session:     session,
		http:        httpClient,
		codec:       codec.New(logger),
		rateLimiter: opts.RateLimiter,
		metrics:     opts.Metrics,
		userAgent:   opts.UserAgent,
		logger:      logger,
	}
}

func newHTTPClient(timeout, connectTimeout time.Duration) *http.Client {
	switch {
	case timeout == 0:
		timeout = DefaultTimeout
	case timeout < 0:
		timeout = 0
	}
	switch {
	case connectTimeout == 0:
		connectTimeout = DefaultConnectTimeout
	case connectTimeout < 0:
		connectTimeout = 0
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		// 302 is handed back to the caller as a status outside the accepted set.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Session returns the session the client reads its target from.
func (c *Client) Session() *domain.Session { return c.session }

// LastError returns the error of the most recent call, nil after a success.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) setLastError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}

// Send performs one call and returns the decoded JSON body.
func (c *Client) Send(ctx context.Context, method domain.Method, path string, payload any) (any, error) {
	resp, err := c.Do(ctx, domain.Request{Method: method, Path: path, Payload: payload})
	if resp == nil {
		return nil, err
	}
	return resp.JSON, err
}

// SendWithLocalization is Send with a mandatory locale query parameter.
func (c *Client) SendWithLocalization(ctx context.Context, method domain.Method, path, locale string, payload any) (any, error) {
	if !validate.IsLocale(locale) {
		err := domain.Validationf(string(method)+" "+path, domain.ErrValidation, "invalid locale %q", locale)
		c.logger.Warn().Err(err).Msg("Refusing localized request")
		c.setLastError(err)
		return nil, err
	}
	resp, err := c.Do(ctx, domain.Request{Method: method, Path: path, Locale: locale, Payload: payload})
	if resp == nil {
		return nil, err
	}
	return resp.JSON, err
}

// Do performs exactly one HTTP request. Validation failures return before
// anything is sent. On an accepted status with no JSON body, the response is
// returned together with a KindEmptyBody error.
func (c *Client) Do(ctx context.Context, req domain.Request) (*domain.Response, error) {
	resp, err := c.do(ctx, req)
	c.setLastError(err)
	return resp, err
}

func (c *Client) do(ctx context.Context, req domain.Request) (*domain.Response, error) {
	method := req.Method
	if method == "" {
		method = c.session.RequestMethod()
	}
	op := string(method) + " " + req.Path

	view, body, err := c.prepare(method, req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", string(method)).Str("path", req.Path).Msg("Refusing request")
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &domain.Error{Kind: domain.KindNetwork, Op: op, Err: fmt.Errorf("failed to wait for rate limiter: %w", err)}
	}

	target := buildURL(view, req)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, string(method), target, reader)
	if err != nil {
		return nil, domain.Validationf(op, domain.ErrValidation, "failed to create request: %v", err)
	}
	c.setHeaders(httpReq, method, view, body != nil)

	tr := newTracer()
	httpReq = httpReq.WithContext(tr.context(httpReq.Context()))

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		timing := tr.finish()
		netErr := &domain.Error{Kind: domain.KindNetwork, Op: op, Err: err}
		c.logger.Error().
			Err(err).
			Str("method", string(method)).
			Str("url", target).
			Dur("total", timing.Total).
			Msg("Request failed before a response was received")
		c.metrics.observe(method, req.Path, netErr.Kind.String(), timing.Total)
		return nil, netErr
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	timing := tr.finish()
	if err != nil {
		netErr := &domain.Error{Kind: domain.KindNetwork, Op: op, Status: httpResp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
		c.metrics.observe(method, req.Path, netErr.Kind.String(), timing.Total)
		return nil, netErr
	}

	resp := &domain.Response{
		Status:     httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
		Timing:     timing,
		HeaderSize: headerSize(httpResp.Header),
		BodySize:   len(raw),
	}
	if len(bytes.TrimSpace(raw)) > 0 && validate.IsJSON(string(raw)) && string(bytes.TrimSpace(raw)) != "null" {
		resp.JSON = c.codec.Decode(raw)
	}

	c.logger.Info().
		Str("method", string(method)).
		Str("url", target).
		Int("status", resp.Status).
		Dur("total", timing.Total).
		Dur("dns", timing.DNS).
		Dur("connect", timing.Connect).
		Dur("pretransfer", timing.PreTransfer).
		Dur("starttransfer", timing.StartTransfer).
		Dur("redirect", timing.Redirect).
		Int("header_size", resp.HeaderSize).
		Int("body_size", resp.BodySize).
		Msg("Request completed")

	err = classify(op, method, req.Accepted, resp)
	outcome := "ok"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	c.metrics.observe(method, req.Path, outcome, timing.Total)
	if err != nil && !IsSoft(err) {
		c.logger.Error().Err(err).Str("url", target).Msg("Request was not accepted")
		return nil, err
	}
	return resp, err
}

// prepare runs every local check and serializes the payload.
func (c *Client) prepare(method domain.Method, req domain.Request) (*domain.SessionView, []byte, error) {
	op := string(method) + " " + req.Path
	if !method.Valid() {
		return nil, nil, domain.Validationf(op, domain.ErrUnsupportedMethod, "%q", method)
	}
	view := c.session.View()
	if view == nil {
		return nil, nil, domain.Validationf(op, domain.ErrNotConnected, "")
	}
	if !validate.IsPath(req.Path) {
		return nil, nil, domain.Validationf(op, domain.ErrValidation, "invalid resource path %q", req.Path)
	}
	if req.Locale != "" && !validate.IsLocale(req.Locale) {
		return nil, nil, domain.Validationf(op, domain.ErrValidation, "invalid locale %q", req.Locale)
	}
	if req.Currency != "" && !validate.IsCurrency(req.Currency) {
		return nil, nil, domain.Validationf(op, domain.ErrValidation, "invalid currency %q", req.Currency)
	}
	if req.Payload == nil {
		return view, nil, nil
	}
	payload := req.Payload
	if method == domain.MethodPatch {
		payload = patchDocument(payload)
	}
	if !codec.IsStructured(payload) {
		return nil, nil, domain.Validationf(op, domain.ErrValidation, "payload must be a non-empty object or array, got %T", req.Payload)
	}
	if method == domain.MethodGet {
		return view, nil, nil
	}
	body, ok := c.codec.Encode(payload)
	if !ok {
		return nil, nil, domain.Validationf(op, domain.ErrValidation, "payload cannot be encoded")
	}
	return view, body, nil
}

// patchDocument wraps a single operation object in an array; the platform
// only accepts JSON-Patch documents.
func patchDocument(payload any) any {
	if op, ok := payload.(map[string]any); ok && len(op) > 0 {
		return []any{op}
	}
	return payload
}

func (c *Client) setHeaders(r *http.Request, method domain.Method, view *domain.SessionView, hasBody bool) {
	r.Header.Set("Accept", MediaTypeVendor)
	if view.Token != "" {
		r.Header.Set("Authorization", "Bearer "+view.Token)
	}
	if method == domain.MethodPatch {
		r.Header.Set("Content-Type", MediaTypeJSONPatch)
	} else if hasBody || method != domain.MethodGet {
		r.Header.Set("Content-Type", MediaTypeJSON)
	}
	if c.userAgent != "" {
		r.Header.Set("User-Agent", c.userAgent)
	}
}

func buildURL(view *domain.SessionView, req domain.Request) string {
	q := url.Values{}
	for k, vs := range req.Query {
		q[k] = append([]string(nil), vs...)
	}
	if req.Locale != "" {
		q.Set("locale", req.Locale)
	}
	if req.Currency != "" {
		q.Set("currency", req.Currency)
	}
	u := view.BaseURL() + "/" + strings.TrimPrefix(req.Path, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// classify maps a received response onto the error taxonomy.
func classify(op string, method domain.Method, accepted []int, resp *domain.Response) error {
	if resp.Status == http.StatusTooManyRequests {
		return &domain.Error{Kind: domain.KindRateLimited, Op: op, Status: resp.Status, Body: resp.Body}
	}
	if accepted == nil {
		accepted = method.DefaultAccepted()
	}
	if !containsStatus(accepted, resp.Status) {
		return &domain.Error{
			Kind:   domain.KindWrongResponse,
			Op:     op,
			Status: resp.Status,
			Body:   resp.Body,
			Err:    fmt.Errorf("expected one of %v", accepted),
		}
	}
	if resp.JSON == nil {
		return &domain.Error{Kind: domain.KindEmptyBody, Op: op, Status: resp.Status}
	}
	return nil
}

func containsStatus(set []int, status int) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func headerSize(h http.Header) int {
	n := 0
	for k, vs := range h {
		for _, v := range vs {
			n += len(k) + len(v) + 4
		}
	}
	return n
}

// IsSoft reports whether err only signals a missing body on an accepted call.
func IsSoft(err error) bool {
	return err == nil || errors.Is(err, domain.ErrEmptyBody)
}
