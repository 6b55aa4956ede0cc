package client

import (
	"bufio"
	"bytes"
	"fmt"
	"iter"
	"net/http"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/adamwoolhether/rapidhttp/codec"
)

// Response is a fully buffered HTTP response. It holds no reference to
// the client or connection that produced it, and every accessor reads
// the same immutable buffer, so repeated calls agree.
type Response struct {
	status int
	url    string
	method string
	header http.Header

	body     []byte
	captured bool
	bodyErr  error

	id      string
	elapsed time.Duration
	codec   codec.Decoder
}

func newResponse(resp *http.Response) *Response {
	r := &Response{
		status: resp.StatusCode,
		header: resp.Header.Clone(),
		codec:  codec.Default,
	}
	if resp.Request != nil {
		// After followed redirects this is the last hop.
		r.url = resp.Request.URL.String()
		r.method = resp.Request.Method
	}
	if r.header == nil {
		r.header = http.Header{}
	}
	return r
}

// NewResponse builds a Response from parts, for tests and adapters that
// produce responses without a round trip. A nil body means none was captured.
func NewResponse(status int, rawURL string, header http.Header, body []byte) *Response {
	r := &Response{
		status:   status,
		url:      rawURL,
		header:   header.Clone(),
		body:     bytes.Clone(body),
		captured: body != nil,
		codec:    codec.Default,
	}
	if r.header == nil {
		r.header = http.Header{}
	}
	return r
}

// StatusCode is the HTTP status code, e.g. 200 or 404.
func (r *Response) StatusCode() int { return r.status }

// URL is the effective URL, which differs from the requested one when
// redirects were followed.
func (r *Response) URL() string { return r.url }

// Method is the method of the request that produced the response.
func (r *Response) Method() string { return r.method }

// RequestID is the id generated for the call, as logged by the client.
func (r *Response) RequestID() string { return r.id }

// Elapsed is the time from sending the request to the end of the body.
func (r *Response) Elapsed() time.Duration { return r.elapsed }

// Headers returns a fresh map of the response headers holding the last
// value of each name.
func (r *Response) Headers() map[string]string {
	m := make(map[string]string, len(r.header))
	for name, values := range r.header {
		if len(values) > 0 {
			m[name] = values[len(values)-1]
		}
	}
	return m
}

// Header returns a copy of the full multi-valued header set.
func (r *Response) Header() http.Header {
	return r.header.Clone()
}

// Content returns a copy of the buffered body bytes.
func (r *Response) Content() ([]byte, error) {
	if err := r.available(); err != nil {
		return nil, err
	}
	return bytes.Clone(r.body), nil
}

// Text returns the body decoded as UTF-8.
func (r *Response) Text() (string, error) {
	if err := r.available(); err != nil {
		return "", err
	}
	if !utf8.Valid(r.body) {
		return "", newError(KindInvalidEncoding, "decoding body as utf-8", nil)
	}
	return string(r.body), nil
}

// JSON decodes the body into a generic value: map[string]any, []any,
// string, float64, bool or nil.
func (r *Response) JSON() (any, error) {
	var v any
	if err := r.Unmarshal(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Unmarshal decodes the body into v, which must be a pointer.
func (r *Response) Unmarshal(v any) error {
	if err := r.available(); err != nil {
		return err
	}
	if err := r.codec.Decode(r.body, v); err != nil {
		return newError(KindJSONDecode, "decoding json body", err)
	}
	return nil
}

// RaiseForStatus returns a *StatusError for 4xx and 5xx responses and
// nil otherwise.
func (r *Response) RaiseForStatus() error {
	if r.status < http.StatusBadRequest {
		return nil
	}

	body := r.body
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	return &StatusError{
		StatusCode: r.status,
		URL:        r.url,
		Body:       string(body),
		Err:        fmt.Errorf("%w: %d %s", ErrHTTP, r.status, r.Reason()),
	}
}

// OK reports whether the status is below 400.
func (r *Response) OK() bool {
	return r.status < http.StatusBadRequest
}

// IsRedirect reports whether the response is a redirect that carries a Location.
func (r *Response) IsRedirect() bool {
	if r.header.Get("Location") == "" {
		return false
	}
	switch r.status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// IsPermanentRedirect reports whether the response is a 301 or 308 with a Location.
func (r *Response) IsPermanentRedirect() bool {
	return r.IsRedirect() && (r.status == http.StatusMovedPermanently || r.status == http.StatusPermanentRedirect)
}

// Reason is the status text, e.g. "Not Found".
func (r *Response) Reason() string {
	return http.StatusText(r.status)
}

// Lines yields the body split into lines without line terminators. It
// yields nothing when the body is unavailable.
func (r *Response) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		if r.available() != nil {
			return
		}
		sc := bufio.NewScanner(bytes.NewReader(r.body))
		sc.Buffer(make([]byte, 0, 64<<10), len(r.body)+1)
		for sc.Scan() {
			if !yield(sc.Text()) {
				return
			}
		}
	}
}

// Chunks yields the body in pieces of at most size bytes. Each piece is
// a copy. A size below 1 yields the whole body at once.
func (r *Response) Chunks(size int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if r.available() != nil || len(r.body) == 0 {
			return
		}
		if size < 1 {
			size = len(r.body)
		}
		for chunk := range slices.Chunk(r.body, size) {
			if !yield(bytes.Clone(chunk)) {
				return
			}
		}
	}
}

// String formats the response as <Response [200]>.
func (r *Response) String() string {
	return fmt.Sprintf("<Response [%d]>", r.status)
}

func (r *Response) available() error {
	if r.captured {
		return nil
	}
	return newError(KindBodyUnavailable, "response body unavailable", r.bodyErr)
}

