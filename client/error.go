package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// maxErrBodySize caps the amount of response body copied into a
// [StatusError]. The full body stays available on the [Response].
const maxErrBodySize = 4 << 10 // 4KB

// Kind labels one member of the closed set of failure causes.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidMethod
	KindURLRequired
	KindInvalidURL
	KindInvalidHeader
	KindInvalidTimeout
	KindConstruction
	KindTimeout
	KindConnectTimeout
	KindReadTimeout
	KindTooManyRedirects
	KindConnection
	KindHTTP
	KindInvalidEncoding
	KindJSONEncode
	KindJSONDecode
	KindBodyUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindInvalidMethod:    "invalid_method",
	KindURLRequired:      "url_required",
	KindInvalidURL:       "invalid_url",
	KindInvalidHeader:    "invalid_header",
	KindInvalidTimeout:   "invalid_timeout",
	KindConstruction:     "construction",
	KindTimeout:          "timeout",
	KindConnectTimeout:   "connect_timeout",
	KindReadTimeout:      "read_timeout",
	KindTooManyRedirects: "too_many_redirects",
	KindConnection:       "connection",
	KindHTTP:             "http",
	KindInvalidEncoding:  "invalid_encoding",
	KindJSONEncode:       "json_encode",
	KindJSONDecode:       "json_decode",
	KindBodyUnavailable:  "body_unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrInvalidMethod is returned when the method is not a valid HTTP token.
	ErrInvalidMethod = errors.New("invalid http method")
	// ErrURLRequired is returned when the request has no URL.
	ErrURLRequired = errors.New("url required")
	// ErrInvalidURL is returned when the URL cannot be parsed or lacks a scheme or host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidHeader is returned for header names or values that cannot be sent.
	ErrInvalidHeader = errors.New("invalid header")
	// ErrInvalidTimeout is returned for a negative per-call timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrConstruction is returned when a client or its pool cannot be built.
	ErrConstruction = errors.New("client construction failed")

	// ErrTimeout matches every time-based transport failure.
	ErrTimeout = errors.New("request timed out")
	// ErrConnection matches every transport failure that is not a timeout
	// or redirect violation, plus [ErrConnectTimeout].
	ErrConnection = errors.New("connection error")
	// ErrConnectTimeout is reported for failures while establishing the
	// connection. It matches both [ErrTimeout] and [ErrConnection].
	ErrConnectTimeout = fmt.Errorf("connect timeout: %w: %w", ErrTimeout, ErrConnection)
	// ErrReadTimeout is reported when the deadline passes while the body
	// is being read. It matches [ErrTimeout].
	ErrReadTimeout = fmt.Errorf("read timeout: %w", ErrTimeout)
	// ErrTooManyRedirects is returned when the redirect cap is exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrHTTP is the sentinel wrapped by [StatusError].
	ErrHTTP = errors.New("http error")
	// ErrInvalidEncoding is returned by [Response.Text] for non UTF-8 bodies.
	ErrInvalidEncoding = errors.New("body is not valid utf-8")
	// ErrJSONEncode wraps the encoder failure for a JSON payload.
	ErrJSONEncode = errors.New("json encode failed")
	// ErrJSONDecode wraps the decoder failure for a JSON body.
	ErrJSONDecode = errors.New("json decode failed")
	// ErrBodyUnavailable is returned when no body was captured for the response.
	ErrBodyUnavailable = errors.New("response body unavailable")
)

var kindSentinels = map[Kind]error{
	KindInvalidMethod:    ErrInvalidMethod,
	KindURLRequired:      ErrURLRequired,
	KindInvalidURL:       ErrInvalidURL,
	KindInvalidHeader:    ErrInvalidHeader,
	KindInvalidTimeout:   ErrInvalidTimeout,
	KindConstruction:     ErrConstruction,
	KindTimeout:          ErrTimeout,
	KindConnectTimeout:   ErrConnectTimeout,
	KindReadTimeout:      ErrReadTimeout,
	KindTooManyRedirects: ErrTooManyRedirects,
	KindConnection:       ErrConnection,
	KindHTTP:             ErrHTTP,
	KindInvalidEncoding:  ErrInvalidEncoding,
	KindJSONEncode:       ErrJSONEncode,
	KindJSONDecode:       ErrJSONDecode,
	KindBodyUnavailable:  ErrBodyUnavailable,
}

// Error is a classified failure. It matches its kind sentinel and the
// underlying cause with [errors.Is] and [errors.As].
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var se *StatusError
	if errors.As(err, &se) {
		return KindHTTP
	}
	return KindUnknown
}

// StatusError is returned by [Response.RaiseForStatus] for 4xx and 5xx responses.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d for url %s, body: %s", e.Err, e.StatusCode, e.URL, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// errRedirectCap is returned from CheckRedirect once the cap is reached.
type errRedirectCap struct {
	max int
}

func (e errRedirectCap) Error() string {
	return fmt.Sprintf("stopped after %d redirects", e.max)
}

// classifySend maps an error from http.Client.Do onto the taxonomy.
// Order matters: timeouts win over connect failures, which win over the
// redirect cap; everything else is a connection error.
func classifySend(err error) *Error {
	switch {
	case isTimeout(err):
		return newError(KindTimeout, "request timed out", err)
	case isConnectPhase(err):
		return newError(KindConnectTimeout, "connection timeout", err)
	case errors.As(err, new(errRedirectCap)):
		return newError(KindTooManyRedirects, "too many redirects", err)
	default:
		return newError(KindConnection, "connection error", err)
	}
}

// classifyRead maps an error from reading the response body onto the taxonomy.
func classifyRead(err error) *Error {
	if isTimeout(err) {
		return newError(KindReadTimeout, "read timed out", err)
	}
	return newError(KindConnection, "reading body", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnectPhase(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Dial failures surfaced by http.Transport without a *net.OpError,
		// such as proxy connect errors.
		return strings.Contains(urlErr.Err.Error(), "dial ")
	}
	return false
}
