// Package throttle rate-limits outbound HTTP requests with the
// token-bucket limiter from [golang.org/x/time/rate].
//
// A [Limiter] can wrap any number of transports; all of them draw from
// the same bucket. The client uses this so that one-off clients built
// for a single call still count against the client's limit:
//
//	l, err := throttle.New(throttle.Config{RPS: 10, Burst: 5}, nil)
//	pooled := &http.Client{Transport: l.Wrap(pooledTransport)}
//	oneOff := &http.Client{Transport: l.Wrap(freshTransport)}
//
// When the bucket is empty, requests block until a token becomes
// available or the request context ends.
package throttle
