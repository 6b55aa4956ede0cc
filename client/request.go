package client

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"time"
)

// Field is a single key/value pair. Value is sent using its native
// string form (fmt.Sprint), never JSON-quoted.
type Field struct {
	Key   string
	Value any
}

// String renders the value as it goes on the wire.
func (f Field) String() string {
	if s, ok := f.Value.(string); ok {
		return s
	}
	return fmt.Sprint(f.Value)
}

// Values is an ordered list of fields used for query parameters,
// headers and form bodies. Duplicate keys are kept.
type Values []Field

// KV builds Values from alternating key, value arguments.
// A trailing key without a value is dropped.
func KV(kv ...any) Values {
	v := make(Values, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		v = append(v, Field{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	return v
}

// ValuesFrom converts a map into Values ordered by key, giving Go maps a
// stable iteration order.
func ValuesFrom[V any](m map[string]V) Values {
	keys := slices.Sorted(maps.Keys(m))
	v := make(Values, 0, len(keys))
	for _, k := range keys {
		v = append(v, Field{Key: k, Value: m[k]})
	}
	return v
}

// FromURLValues converts url.Values, keeping every value of repeated keys.
func FromURLValues(uv url.Values) Values {
	keys := slices.Sorted(maps.Keys(uv))
	var v Values
	for _, k := range keys {
		for _, val := range uv[k] {
			v = append(v, Field{Key: k, Value: val})
		}
	}
	return v
}

// Add appends a field and returns the extended Values.
func (v Values) Add(key string, value any) Values {
	return append(v, Field{Key: key, Value: value})
}

// Merge returns over layered on base: fields of base whose key appears
// in over are dropped, the rest of base keeps its order and over follows.
func Merge(base, over Values) Values {
	keys := make(map[string]struct{}, len(over))
	for _, f := range over {
		keys[f.Key] = struct{}{}
	}

	out := make(Values, 0, len(base)+len(over))
	for _, f := range base {
		if _, ok := keys[f.Key]; !ok {
			out = append(out, f)
		}
	}
	return append(out, over...)
}

// encode renders v as application/x-www-form-urlencoded in order.
func (v Values) encode() string {
	var buf []byte
	for i, f := range v {
		if i > 0 {
			buf = append(buf, '&')
		}
		buf = append(buf, url.QueryEscape(f.Key)...)
		buf = append(buf, '=')
		buf = append(buf, url.QueryEscape(f.String())...)
	}
	return string(buf)
}

// BodyKind tags the shape of a request body.
type BodyKind int

const (
	BodyUnset BodyKind = iota
	BodyText
	BodyBytes
	BodyForm
	BodyJSON
)

func (k BodyKind) String() string {
	switch k {
	case BodyText:
		return "text"
	case BodyBytes:
		return "bytes"
	case BodyForm:
		return "form"
	case BodyJSON:
		return "json"
	default:
		return "unset"
	}
}

// Body is a request body in exactly one shape. The zero value is unset.
type Body struct {
	kind BodyKind
	text string
	raw  []byte
	form Values
	json any
}

// TextBody sends s verbatim.
func TextBody(s string) Body { return Body{kind: BodyText, text: s} }

// BytesBody sends b verbatim.
func BytesBody(b []byte) Body { return Body{kind: BodyBytes, raw: b} }

// FormBody sends v URL-encoded with the form content type.
func FormBody(v Values) Body { return Body{kind: BodyForm, form: v} }

// JSONBody sends v encoded as JSON with the application/json content type.
func JSONBody(v any) Body { return Body{kind: BodyJSON, json: v} }

// BodyOf picks the body shape from the dynamic type of v. Types it does
// not recognize produce an unset body: the request goes out without
// one and no error is reported.
func BodyOf(v any) Body {
	switch b := v.(type) {
	case nil:
		return Body{}
	case Body:
		return b
	case string:
		return TextBody(b)
	case []byte:
		return BytesBody(b)
	case Values:
		return FormBody(b)
	case url.Values:
		return FormBody(FromURLValues(b))
	case map[string]string:
		return FormBody(ValuesFrom(b))
	case map[string]any:
		return FormBody(ValuesFrom(b))
	default:
		return Body{}
	}
}

// Kind reports the body shape.
func (b Body) Kind() BodyKind { return b.kind }

// Request describes one HTTP call. Only Method and URL are required.
type Request struct {
	Method  string
	URL     string
	Params  Values
	Headers Values
	// Data is the generic body. JSON takes precedence when both are set.
	Data    Body
	JSON    any
	Cookies []*http.Cookie
	// Timeout overrides the client's per-request timeout for this call.
	// Zero disables the deadline for this call; it does not expire at once.
	Timeout *time.Duration
	// AllowRedirects defaults to true. False routes the call through a
	// dedicated client that surfaces 3xx responses.
	AllowRedirects *bool
	// Verify defaults to true. False routes the call through a dedicated
	// client that skips TLS certificate verification.
	Verify *bool
}

// body resolves the single body policy for the request.
func (r Request) body() Body {
	if r.JSON != nil {
		return JSONBody(r.JSON)
	}
	return r.Data
}

func (r Request) followRedirects() bool {
	return r.AllowRedirects == nil || *r.AllowRedirects
}

func (r Request) verifyTLS() bool {
	return r.Verify == nil || *r.Verify
}

// NewRequest builds a Request from functional options.
func NewRequest(method, rawURL string, opts ...RequestOption) (Request, error) {
	req := Request{Method: method, URL: rawURL}
	for _, opt := range opts {
		if err := opt(&req); err != nil {
			return Request{}, err
		}
	}
	return req, nil
}

// RequestOption is a functional option for [NewRequest] and [Client.Request].
type RequestOption func(r *Request) error

// WithParams appends query parameters, kept in the given order.
func WithParams(params Values) RequestOption {
	return func(r *Request) error {
		r.Params = append(r.Params, params...)
		return nil
	}
}

// WithHeaders sets headers; the last write for a name wins.
func WithHeaders(headers Values) RequestOption {
	return func(r *Request) error {
		r.Headers = append(r.Headers, headers...)
		return nil
	}
}

// WithData sets the generic body, picking its shape with [BodyOf].
func WithData(data any) RequestOption {
	return func(r *Request) error {
		r.Data = BodyOf(data)
		return nil
	}
}

// WithText sends s verbatim.
func WithText(s string) RequestOption {
	return func(r *Request) error {
		r.Data = TextBody(s)
		return nil
	}
}

// WithBytes sends b verbatim.
func WithBytes(b []byte) RequestOption {
	return func(r *Request) error {
		r.Data = BytesBody(b)
		return nil
	}
}

// WithForm sends v as a URL-encoded form.
func WithForm(v Values) RequestOption {
	return func(r *Request) error {
		r.Data = FormBody(v)
		return nil
	}
}

// WithJSON sends v JSON-encoded. It wins over any generic body.
func WithJSON(v any) RequestOption {
	return func(r *Request) error {
		if v == nil {
			return newError(KindJSONEncode, "json payload must not be nil", nil)
		}
		r.JSON = v
		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(r *Request) error {
		r.Cookies = append(r.Cookies, cookies...)
		return nil
	}
}

// WithRequestTimeout overrides the client's timeout for this call. Zero
// disables the deadline.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(r *Request) error {
		if d < 0 {
			return newError(KindInvalidTimeout, fmt.Sprintf("timeout %s must not be negative", d), nil)
		}
		r.Timeout = &d
		return nil
	}
}

// WithAllowRedirects controls whether redirects are followed.
func WithAllowRedirects(allow bool) RequestOption {
	return func(r *Request) error {
		r.AllowRedirects = &allow
		return nil
	}
}

// WithVerify controls TLS certificate verification.
func WithVerify(verify bool) RequestOption {
	return func(r *Request) error {
		r.Verify = &verify
		return nil
	}
}

// Seconds converts fractional seconds into a Duration for Request.Timeout.
func Seconds(s float64) *time.Duration {
	d := time.Duration(s * float64(time.Second))
	return &d
}

// Bool returns a pointer to b, for Request.AllowRedirects and Request.Verify.
func Bool(b bool) *bool { return &b }

