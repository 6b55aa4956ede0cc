package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/rapidhttp/client/throttle"
	"github.com/adamwoolhether/rapidhttp/codec"
	"github.com/adamwoolhether/rapidhttp/metrics"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	config    *Config
	rt        http.RoundTripper
	timeout   *time.Duration
	userAgent string
	throttle  *throttle.Config
	codec     codec.Codec
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	requestID bool
}

// WithConfig replaces the default pool settings.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.config = &cfg
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport
// in place of the pooled one. Dedicated clients reuse it as well, so
// pooling and TLS settings become the caller's responsibility.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout sets the default per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent sends header as User-Agent on requests that do not set one.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
// The limit is shared by the pooled client and every dedicated client.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithCodec replaces the JSON strategy chain, [codec.Default] otherwise.
func WithCodec(c codec.Codec) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("codec must not be nil")
		}
		o.codec = c
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer records a client span per request on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithMetrics records request counts, latencies and failures on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		if m == nil {
			return errors.New("metrics must not be nil")
		}
		o.metrics = m
		return nil
	}
}

// WithRequestID sends each call's generated id as X-Request-Id unless
// the caller set that header.
func WithRequestID() Option {
	return func(o *options) error {
		o.requestID = true
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(headerUserAgent) != "" {
		return ua.base.RoundTrip(r)
	}
	cpy := r.Clone(r.Context())
	cpy.Header.Set(headerUserAgent, ua.value)
	return ua.base.RoundTrip(cpy)
}

// CloseIdleConnections lets http.Client reach the wrapped transport.
func (ua userAgent) CloseIdleConnections() {
	if c, ok := ua.base.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
