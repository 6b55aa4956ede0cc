package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/rapidhttp/client/throttle"
	"github.com/adamwoolhether/rapidhttp/codec"
	"github.com/adamwoolhether/rapidhttp/metrics"
)

// Client is a pooled HTTP client. It is safe for concurrent use; calls
// share the pool without any call-level locking.
type Client struct {
	pooled  *http.Client
	cfg     Config
	base    http.RoundTripper // caller transport, nil means pooled transports per cfg
	limiter *throttle.Limiter
	ua      string

	codec     codec.Codec
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	requestID bool
}

// Build creates a Client with the default pool settings, adjusted by optFns.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, newError(KindConstruction, "applying client option", err)
		}
	}

	client := &Client{
		cfg:       DefaultConfig(),
		base:      opts.rt,
		ua:        opts.userAgent,
		codec:     codec.Default,
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("rapidhttp"),
		metrics:   opts.metrics,
		requestID: opts.requestID,
	}

	if opts.config != nil {
		client.cfg = *opts.config
	}

	if opts.timeout != nil {
		client.cfg.Timeout = *opts.timeout
	}

	if opts.codec != nil {
		client.codec = opts.codec
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.throttle != nil {
		l, err := throttle.New(*opts.throttle, func() *slog.Logger { return client.logger })
		if err != nil {
			return nil, newError(KindConstruction, "configuring throttle", err)
		}
		client.limiter = l
	}

	rt, _ := client.roundTripper(true)
	client.pooled = newHTTPClient(rt, followRedirects, client.cfg.MaxRedirects)

	return client, nil
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns the process-wide client, building it on first use from
// [LoadConfig]. It is never torn down. A build failure panics, since
// nothing that depends on the default client can proceed without it.
func Default() *Client {
	defaultOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			panic(fmt.Sprintf("rapidhttp: default client: %v", err))
		}

		c, err := Build(WithConfig(cfg))
		if err != nil {
			panic(fmt.Sprintf("rapidhttp: default client: %v", err))
		}
		defaultClient = c
	})

	return defaultClient
}

// Config returns the settings the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// CloseIdleConnections closes idle pooled connections.
func (c *Client) CloseIdleConnections() {
	c.pooled.CloseIdleConnections()
}

// roundTripper assembles the transport chain: base transport, then the
// user agent, then the throttle. The returned *http.Transport is the one
// built here, or nil when the chain sits on the caller's transport.
func (c *Client) roundTripper(verify bool) (http.RoundTripper, *http.Transport) {
	var (
		rt    http.RoundTripper
		owned *http.Transport
	)
	if c.base != nil {
		rt = c.base
	} else {
		owned = pooledTransport(c.cfg, !verify)
		rt = owned
	}

	if c.ua != "" {
		rt = userAgent{value: c.ua, base: rt}
	}
	if c.limiter != nil {
		rt = c.limiter.Wrap(rt)
	}

	return rt, owned
}

// dedicated is a one-off client for a single call. release closes the
// connections of the transport it built; a caller transport is shared
// with the pooled client and is left alone.
type dedicated struct {
	hc     *http.Client
	tr     *http.Transport
	reason string
}

func (d *dedicated) release() {
	if d != nil && d.tr != nil {
		d.tr.CloseIdleConnections()
	}
}

// selectClient returns the pooled client unless the request asks for a
// policy the pooled client cannot have: no redirects, or no certificate
// verification. Those calls get a fresh client that is never pooled.
func (c *Client) selectClient(r Request) (*http.Client, *dedicated) {
	follow, verify := r.followRedirects(), r.verifyTLS()
	if follow && verify {
		return c.pooled, nil
	}

	policy := followRedirects
	reason := "insecure"
	if !follow {
		policy = neverRedirect
		reason = "no_redirects"
	}

	rt, owned := c.roundTripper(verify)
	d := &dedicated{
		hc:     newHTTPClient(rt, policy, c.cfg.MaxRedirects),
		tr:     owned,
		reason: reason,
	}
	if c.metrics != nil {
		c.metrics.ObserveDedicated(reason)
	}

	return d.hc, d
}

// Request builds a [Request] from opts and executes it with [Client.Do].
func (c *Client) Request(ctx context.Context, method, rawURL string, opts ...RequestOption) (*Response, error) {
	r, err := NewRequest(method, rawURL, opts...)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, r)
}

// Do sends r and returns the buffered response. It blocks until the
// whole body is read or the call's timeout passes. No retries are made.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	id := uuid.NewString()
	log := c.logger.With("request_id", id)

	timeout := c.cfg.Timeout
	if r.Timeout != nil {
		if *r.Timeout < 0 {
			return nil, newError(KindInvalidTimeout, fmt.Sprintf("timeout %s must not be negative", *r.Timeout), nil)
		}
		timeout = *r.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := prepare(ctx, r, c.codec)
	if err != nil {
		c.observeError(r.Method, err)
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "rapidhttp.request", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.full", req.URL.String()),
		attribute.String("rapidhttp.request_id", id),
	)
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if c.requestID && req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, id)
	}

	hc, one := c.selectClient(r)
	defer one.release()
	if one != nil {
		log.Debug("using dedicated client", "reason", one.reason)
	}

	log.Debug("request started", "method", req.Method, "url", req.URL.String())
	start := time.Now()

	resp, sendErr := c.send(hc, req)
	if sendErr != nil {
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, sendErr.Kind.String())
		c.observeError(req.Method, sendErr)
		log.Error("request failed", "method", req.Method, "url", req.URL.String(), "kind", sendErr.Kind.String(), "error", sendErr)
		return nil, sendErr
	}

	elapsed := time.Since(start)
	resp.id = id
	resp.elapsed = elapsed

	span.SetAttributes(attribute.Int("http.response.status_code", resp.status))
	if resp.bodyErr != nil {
		span.RecordError(resp.bodyErr)
		log.Warn("response body unavailable", "url", resp.url, "error", resp.bodyErr)
	}
	if c.metrics != nil {
		c.metrics.ObserveResponse(req.Method, resp.status, len(resp.body), elapsed)
	}

	log.Info("request completed", "method", req.Method, "url", resp.url, "statusCode", resp.status, "since", elapsed.String())

	return resp, nil
}

// send executes req on hc and buffers the body. A failure to send is
// returned classified; a failure while reading the body is kept on the
// Response so status and headers still reach the caller.
func (c *Client) send(hc *http.Client, req *http.Request) (*Response, *Error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, classifySend(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	out := newResponse(resp)
	out.codec = c.codec

	if req.Method == http.MethodHead {
		return out, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		out.bodyErr = classifyRead(err)
		return out, nil
	}
	out.body = body
	out.captured = true

	return out, nil
}

func (c *Client) observeError(method string, err error) {
	if c.metrics != nil {
		c.metrics.ObserveError(method, KindOf(err).String())
	}
}
