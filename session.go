package rapidhttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/adamwoolhether/rapidhttp/client"
)

// Session persists headers, query params, a TLS verification default
// and cookies across requests. Per-call values win over session values
// with the same key. A Session is safe for concurrent use.
type Session struct {
	client *client.Client
	jar    *cookiejar.Jar

	mu      sync.RWMutex
	headers client.Values
	params  client.Values
	verify  bool
}

// NewSession returns a Session sending on c, or on the default client
// when c is nil.
func NewSession(c *client.Client) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	if c == nil {
		c = client.Default()
	}

	return &Session{client: c, jar: jar, verify: true}, nil
}

// SetHeader sets a header sent on every request, replacing any
// previous session value for key.
func (s *Session) SetHeader(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.headers = client.Merge(s.headers, client.KV(key, value))
}

// SetParam sets a query param sent on every request, replacing any
// previous session value for key.
func (s *Session) SetParam(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.params = client.Merge(s.params, client.KV(key, value))
}

// SetVerify sets the TLS verification default for requests that do not
// choose one.
func (s *Session) SetVerify(verify bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verify = verify
}

// Headers returns a copy of the session headers.
func (s *Session) Headers() client.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(client.Values(nil), s.headers...)
}

// Params returns a copy of the session params.
func (s *Session) Params() client.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(client.Values(nil), s.params...)
}

// Cookies returns the cookies the session would send to rawURL.
func (s *Session) Cookies(rawURL string) ([]*http.Cookie, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	return s.jar.Cookies(u), nil
}

// Request merges the session state into the call described by opts and
// sends it. Set-Cookie headers on the response are stored in the jar.
func (s *Session) Request(ctx context.Context, method, rawURL string, opts ...client.RequestOption) (*client.Response, error) {
	r, err := client.NewRequest(method, rawURL, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	r.Headers = client.Merge(s.headers, r.Headers)
	r.Params = client.Merge(s.params, r.Params)
	if r.Verify == nil {
		r.Verify = client.Bool(s.verify)
	}
	s.mu.RUnlock()

	u, err := url.Parse(rawURL)
	if err == nil {
		r.Cookies = append(s.jar.Cookies(u), r.Cookies...)
	}

	resp, err := s.client.Do(ctx, r)
	if err != nil {
		return nil, err
	}

	s.storeCookies(resp)

	return resp, nil
}

func (s *Session) storeCookies(resp *client.Response) {
	u, err := url.Parse(resp.URL())
	if err != nil {
		return
	}

	cookies := (&http.Response{Header: resp.Header()}).Cookies()
	if len(cookies) > 0 {
		s.jar.SetCookies(u, cookies)
	}
}

// Get sends a GET request.
func (s *Session) Get(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return s.Request(ctx, http.MethodGet, url, opts...)
}

// Head sends a HEAD request without following redirects unless opts
// enable them.
func (s *Session) Head(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return s.Request(ctx, http.MethodHead, url, headOpts(opts)...)
}

// Post sends a POST request.
func (s *Session) Post(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return s.Request(ctx, http.MethodPost, url, opts...)
}

// Put sends a PUT request.
func (s *Session) Put(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return s.Request(ctx, http.MethodPut, url, opts...)
}

// Patch sends a PATCH request.
func (s *Session) Patch(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return s.Request(ctx, http.MethodPatch, url, opts...)
}

// Delete sends a DELETE request.
func (s *Session) Delete(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return s.Request(ctx, http.MethodDelete, url, opts...)
}

// Options sends an OPTIONS request.
func (s *Session) Options(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return s.Request(ctx, http.MethodOptions, url, opts...)
}
