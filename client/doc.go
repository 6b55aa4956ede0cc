// Package client provides the core of the pooled HTTP client built on
// [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//	)
//
// [Default] returns the process-wide client configured from RAPIDHTTP_*
// environment variables; see [LoadConfig].
//
// # Making Requests
//
// Describe the call with [RequestOption]s, or fill a [Request] directly,
// and execute it with [Client.Request] or [Client.Do]:
//
//	resp, err := c.Request(ctx, "post", "https://api.example.com/users",
//		client.WithParams(client.KV("page", 2)),
//		client.WithJSON(user),
//	)
//	if err != nil { ... }
//	if err := resp.RaiseForStatus(); err != nil { ... }
//	var out User
//	err = resp.Unmarshal(&out)
//
// The body is always read in full before Do returns, so a [Response] is
// safe to keep and read from any goroutine.
//
// # Redirects and TLS
//
// The pooled client follows up to [Config.MaxRedirects] redirects and
// always verifies certificates. A call with [WithAllowRedirects](false)
// or [WithVerify](false) runs on a dedicated client that is dropped once
// the call returns.
//
// # Errors
//
// Failures are returned as [*Error] values carrying a [Kind]. Match them
// with [errors.Is] against the sentinels:
//
//	if errors.Is(err, client.ErrTimeout) { ... }
//
// [ErrConnectTimeout] matches both [ErrTimeout] and [ErrConnection].
package client
