// Package rapidhttp is a synchronous, connection-pooled HTTP client.
//
// The package-level functions run on the process-wide client from
// [client.Default], which is built on first use and shared by every
// goroutine:
//
//	resp, err := rapidhttp.Get(ctx, "https://api.example.com/items",
//		client.WithParams(client.KV("page", 1)),
//	)
//
// Use [NewClient] for a client with its own settings and [NewSession] to
// carry headers, params and cookies across calls.
package rapidhttp

import (
	"context"
	"net/http"

	"github.com/adamwoolhether/rapidhttp/client"
)

// NewClient instantiates a new *client.Client with the provided options.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// Request sends a request with the given method on the default client.
func Request(ctx context.Context, method, url string, opts ...client.RequestOption) (*client.Response, error) {
	return client.Default().Request(ctx, method, url, opts...)
}

// Get sends a GET request.
func Get(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return Request(ctx, http.MethodGet, url, opts...)
}

// Head sends a HEAD request. Redirects are not followed unless opts
// enable them.
func Head(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return Request(ctx, http.MethodHead, url, headOpts(opts)...)
}

// Post sends a POST request.
func Post(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return Request(ctx, http.MethodPost, url, opts...)
}

// Put sends a PUT request.
func Put(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return Request(ctx, http.MethodPut, url, opts...)
}

// Patch sends a PATCH request.
func Patch(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return Request(ctx, http.MethodPatch, url, opts...)
}

// Delete sends a DELETE request.
func Delete(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return Request(ctx, http.MethodDelete, url, opts...)
}

// Options sends an OPTIONS request.
func Options(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error) {
	return Request(ctx, http.MethodOptions, url, opts...)
}

// headOpts puts the no-redirect default first so a caller option can
// still turn redirects back on.
func headOpts(opts []client.RequestOption) []client.RequestOption {
	return append([]client.RequestOption{client.WithAllowRedirects(false)}, opts...)
}
