// Command rapidhttp sends a single HTTP request and prints the response.
//
//	rapidhttp request post https://httpbin.org/post -H 'Accept: application/json' --json '{"a":1}'
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
