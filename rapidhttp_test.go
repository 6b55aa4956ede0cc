package rapidhttp_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/rapidhttp"
	"github.com/adamwoolhether/rapidhttp/client"
)

func mockServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Query", r.URL.RawQuery)
		w.Header().Set("X-Token", r.Header.Get("X-Token"))
		if c, err := r.Cookie("session"); err == nil {
			w.Header().Set("X-Cookie", c.Value)
		}
		_, _ = io.Copy(w, r.Body)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s3cret", Path: "/"})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts
}

func TestVerbs(t *testing.T) {
	ts := mockServer(t)

	type verbFn func(t *testing.T, url string) (*client.Response, error)

	testCases := map[string]struct {
		fn        verbFn
		expMethod string
	}{
		"get":     {fn: wrap(rapidhttp.Get), expMethod: http.MethodGet},
		"post":    {fn: wrap(rapidhttp.Post), expMethod: http.MethodPost},
		"put":     {fn: wrap(rapidhttp.Put), expMethod: http.MethodPut},
		"patch":   {fn: wrap(rapidhttp.Patch), expMethod: http.MethodPatch},
		"delete":  {fn: wrap(rapidhttp.Delete), expMethod: http.MethodDelete},
		"options": {fn: wrap(rapidhttp.Options), expMethod: http.MethodOptions},
		"head":    {fn: wrap(rapidhttp.Head), expMethod: http.MethodHead},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			resp, err := tc.fn(t, ts.URL+"/echo")
			if err != nil {
				t.Fatalf("exp nil err, got: %v", err)
			}
			if got := resp.Headers()["X-Method"]; got != tc.expMethod {
				t.Errorf("exp %s, got %s", tc.expMethod, got)
			}
		})
	}
}

func wrap(fn func(ctx context.Context, url string, opts ...client.RequestOption) (*client.Response, error)) func(t *testing.T, url string) (*client.Response, error) {
	return func(t *testing.T, url string) (*client.Response, error) {
		return fn(t.Context(), url)
	}
}

func TestRequest_MixedCaseMethod(t *testing.T) {
	ts := mockServer(t)

	resp, err := rapidhttp.Request(t.Context(), "pOsT", ts.URL+"/echo", client.WithText("hi"))
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if got := resp.Headers()["X-Method"]; got != http.MethodPost {
		t.Errorf("exp POST, got %s", got)
	}
}

func TestHead_DoesNotFollowRedirects(t *testing.T) {
	ts := mockServer(t)

	resp, err := rapidhttp.Head(t.Context(), ts.URL+"/redirect")
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if resp.StatusCode() != http.StatusFound {
		t.Errorf("exp 302, got %d", resp.StatusCode())
	}

	resp, err = rapidhttp.Head(t.Context(), ts.URL+"/redirect", client.WithAllowRedirects(true))
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Errorf("exp 200 once redirects are enabled, got %d", resp.StatusCode())
	}
}

func TestGet_FollowsRedirects(t *testing.T) {
	ts := mockServer(t)

	resp, err := rapidhttp.Get(t.Context(), ts.URL+"/redirect")
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Errorf("exp 200, got %d", resp.StatusCode())
	}
	if got := resp.URL(); got != ts.URL+"/echo" {
		t.Errorf("exp effective url %q, got %q", ts.URL+"/echo", got)
	}
}

func TestSession(t *testing.T) {
	ts := mockServer(t)

	c, err := rapidhttp.NewClient()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	s, err := rapidhttp.NewSession(c)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	s.SetHeader("X-Token", "session")
	s.SetParam("a", 1)
	s.SetParam("b", 2)

	t.Run("sessionValues", func(t *testing.T) {
		resp, err := s.Get(t.Context(), ts.URL+"/echo")
		if err != nil {
			t.Fatalf("exp nil err, got: %v", err)
		}
		if got := resp.Headers()["X-Token"]; got != "session" {
			t.Errorf("exp session header, got %q", got)
		}
		if got := resp.Headers()["X-Query"]; got != "a=1&b=2" {
			t.Errorf("exp session params, got %q", got)
		}
	})

	t.Run("callValuesWin", func(t *testing.T) {
		resp, err := s.Get(t.Context(), ts.URL+"/echo",
			client.WithHeaders(client.KV("x-token", "call")),
			client.WithParams(client.KV("a", 9, "c", 3)),
		)
		if err != nil {
			t.Fatalf("exp nil err, got: %v", err)
		}
		if got := resp.Headers()["X-Token"]; got != "call" {
			t.Errorf("exp call header, got %q", got)
		}
		if got := resp.Headers()["X-Query"]; got != "b=2&a=9&c=3" {
			t.Errorf("exp call params to replace session ones, got %q", got)
		}
	})

	t.Run("cookiesPersist", func(t *testing.T) {
		if _, err := s.Post(t.Context(), ts.URL+"/login"); err != nil {
			t.Fatalf("exp nil err, got: %v", err)
		}

		resp, err := s.Get(t.Context(), ts.URL+"/echo")
		if err != nil {
			t.Fatalf("exp nil err, got: %v", err)
		}
		if got := resp.Headers()["X-Cookie"]; got != "s3cret" {
			t.Errorf("exp stored cookie to be sent, got %q", got)
		}

		cookies, err := s.Cookies(ts.URL)
		if err != nil {
			t.Fatalf("exp nil err, got: %v", err)
		}
		if len(cookies) != 1 || cookies[0].Value != "s3cret" {
			t.Errorf("unexpected cookies %v", cookies)
		}
	})

	t.Run("stateIsCopied", func(t *testing.T) {
		h := s.Headers()
		h[0].Value = "mutated"

		exp := client.KV("X-Token", "session")
		if diff := cmp.Diff(exp, s.Headers()); diff != "" {
			t.Errorf("session headers changed (-exp +got):\n%s", diff)
		}
	})
}

func TestSession_Verify(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer ts.Close()

	s, err := rapidhttp.NewSession(nil)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if _, err := s.Get(t.Context(), ts.URL); err == nil {
		t.Fatal("exp certificate error while verifying")
	}

	s.SetVerify(false)
	if _, err := s.Get(t.Context(), ts.URL); err != nil {
		t.Fatalf("exp nil err with verify disabled, got: %v", err)
	}

	if _, err := s.Get(t.Context(), ts.URL, client.WithVerify(true)); err == nil {
		t.Fatal("exp a call-level verify to override the session")
	}
}
