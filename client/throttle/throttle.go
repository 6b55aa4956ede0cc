package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttler's
// Requests Per Second and Burst Rate
type Config struct {
	RPS   int
	Burst int
}

// Limiter is a token bucket shared by every transport it wraps, so a
// client and its one-off clients draw from the same budget.
type Limiter struct {
	limiter *rate.Limiter
	cfg     Config
	logFn   func() *slog.Logger
}

// New returns a Limiter for cfg. logFn lazily resolves the logger at
// request time, making option ordering irrelevant. A nil-returning logFn
// disables the exhaustion logs.
func New(cfg Config, logFn func() *slog.Logger) (*Limiter, error) {
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", cfg.RPS, cfg.Burst, ErrMustNotBeZero)
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	l := &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:     cfg,
		logFn:   logFn,
	}

	return l, nil
}

// Wrap returns an http.RoundTripper that waits on l before calling next.
func (l *Limiter) Wrap(next http.RoundTripper) http.RoundTripper {
	return &roundTripper{l: l, next: next}
}

type roundTripper struct {
	l    *Limiter
	next http.RoundTripper
}

func (t *roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	logger := t.l.logFn()
	if logger != nil && t.l.limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted", "rate", t.l.cfg.RPS, "burst", t.l.cfg.Burst, "host", r.URL.Host)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "rate", t.l.cfg.RPS, "burst", t.l.cfg.Burst)
		}()
	}

	start := time.Now()

	err := t.l.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}

// CloseIdleConnections passes through to the wrapped transport, if it has any.
func (t *roundTripper) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
