package client_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/adamwoolhether/rapidhttp/client"
)

func ExampleBuild() {
	c, err := client.Build(
		client.WithTimeout(10*time.Second),
		client.WithUserAgent("example/1.0"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("timeout:", c.Config().Timeout)
	// Output: timeout: 10s
}

func ExampleClient_Request() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"page":"`+r.URL.Query().Get("page")+`"}`)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	resp, err := c.Request(context.Background(), "get", ts.URL,
		client.WithParams(client.KV("page", 2)),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var out struct {
		Page string `json:"page"`
	}
	if err := resp.Unmarshal(&out); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp, out.Page)
	// Output: <Response [200]> 2
}

func ExampleClient_Do() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusMovedPermanently)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	resp, err := c.Do(context.Background(), client.Request{
		Method:         http.MethodGet,
		URL:            ts.URL,
		AllowRedirects: client.Bool(false),
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp.StatusCode(), resp.IsPermanentRedirect(), resp.Headers()["Location"])
	// Output: 301 true /elsewhere
}

func ExampleResponse_RaiseForStatus() {
	resp := client.NewResponse(http.StatusNotFound, "https://example.com/missing", nil, []byte("not here"))

	err := resp.RaiseForStatus()
	fmt.Println(errors.Is(err, client.ErrHTTP))

	var se *client.StatusError
	if errors.As(err, &se) {
		fmt.Println(se.StatusCode, se.Body)
	}
	// Output:
	// true
	// 404 not here
}

func ExampleKindOf() {
	_, err := client.NewRequest("GET", "", client.WithRequestTimeout(-time.Second))
	fmt.Println(client.KindOf(err))
	// Output: invalid_timeout
}
