package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/adamwoolhether/rapidhttp/codec"
)

const (
	headerContentType = "Content-Type"
	headerUserAgent   = "User-Agent"
	headerRequestID   = "X-Request-Id"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// normalizeMethod upper-cases m and checks it is an RFC 7230 token.
func normalizeMethod(m string) (string, error) {
	method := strings.ToUpper(m)
	if method == "" || !httpguts.ValidHeaderFieldName(method) {
		return "", newError(KindInvalidMethod, fmt.Sprintf("invalid http method %q", m), nil)
	}
	return method, nil
}

// buildURL parses raw and appends params after any query already on it.
func buildURL(raw string, params Values) (*url.URL, error) {
	if raw == "" {
		return nil, newError(KindURLRequired, "a url is required to make a request", nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, newError(KindInvalidURL, fmt.Sprintf("parsing url %q", raw), err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, newError(KindInvalidURL, fmt.Sprintf("url %q needs a scheme and host", raw), nil)
	}

	if len(params) > 0 {
		q := params.encode()
		if u.RawQuery != "" {
			q = u.RawQuery + "&" + q
		}
		u.RawQuery = q
	}

	return u, nil
}

// encodeBody renders b, returning the payload and the content type the
// body policy imposes, if any.
func encodeBody(b Body, enc codec.Encoder) (io.Reader, string, error) {
	switch b.kind {
	case BodyJSON:
		data, err := enc.Encode(b.json)
		if err != nil {
			return nil, "", newError(KindJSONEncode, "encoding json payload", err)
		}
		return bytes.NewReader(data), contentTypeJSON, nil
	case BodyText:
		return strings.NewReader(b.text), "", nil
	case BodyBytes:
		return bytes.NewReader(b.raw), "", nil
	case BodyForm:
		return strings.NewReader(b.form.encode()), contentTypeForm, nil
	default:
		return nil, "", nil
	}
}

// prepare converts r into the one outgoing *http.Request for the call.
// It does not depend on which client will send it, so the pooled and
// dedicated paths share it and cannot drift apart.
func prepare(ctx context.Context, r Request, enc codec.Encoder) (*http.Request, error) {
	method, err := normalizeMethod(r.Method)
	if err != nil {
		return nil, err
	}

	u, err := buildURL(r.URL, r.Params)
	if err != nil {
		return nil, err
	}

	payload, contentType, err := encodeBody(r.body(), enc)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return nil, newError(KindInvalidURL, "instantiating request", err)
	}

	for _, h := range r.Headers {
		value := h.String()
		if !httpguts.ValidHeaderFieldName(h.Key) || !httpguts.ValidHeaderFieldValue(value) {
			return nil, newError(KindInvalidHeader, fmt.Sprintf("header %q", h.Key), nil)
		}
		req.Header.Set(h.Key, value)
	}

	// Applied after caller headers so the body policy's type wins.
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}

	for _, cookie := range r.Cookies {
		req.AddCookie(cookie)
	}

	return req, nil
}
