package client

import (
	"crypto/tls"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
)

// redirectPolicy is fixed for the lifetime of an *http.Client, which is
// why a call that disables redirects needs a client of its own.
type redirectPolicy int

const (
	followRedirects redirectPolicy = iota
	neverRedirect
)

// pooledTransport returns an *http.Transport carrying the pool settings
// from cfg. insecure disables certificate verification.
func pooledTransport(cfg Config, insecure bool) *http.Transport {
	t := cleanhttp.DefaultPooledTransport()
	t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	t.IdleConnTimeout = cfg.IdleConnTimeout

	if insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // caller asked for verify=false.
	}

	return t
}

// newHTTPClient assembles an *http.Client over rt with the given policy.
// The per-request timeout is applied as a context deadline by the
// executor, so the client carries none of its own.
func newHTTPClient(rt http.RoundTripper, policy redirectPolicy, maxRedirects int) *http.Client {
	hc := &http.Client{Transport: rt}

	switch policy {
	case neverRedirect:
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	default:
		hc.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errRedirectCap{max: maxRedirects}
			}
			return nil
		}
	}

	return hc
}
