package client

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/rapidhttp/codec"
)

func TestNormalizeMethod(t *testing.T) {
	testCases := map[string]struct {
		in     string
		exp    string
		expErr error
	}{
		"lower":      {in: "get", exp: "GET"},
		"mixed":      {in: "pAtCh", exp: "PATCH"},
		"upper":      {in: "DELETE", exp: "DELETE"},
		"extension":  {in: "propfind", exp: "PROPFIND"},
		"space":      {in: "G ET", expErr: ErrInvalidMethod},
		"empty":      {in: "", expErr: ErrInvalidMethod},
		"separator":  {in: "GET/", expErr: ErrInvalidMethod},
		"controlChr": {in: "GE\nT", expErr: ErrInvalidMethod},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := normalizeMethod(tc.in)
			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Fatalf("exp err %v; got: %v", tc.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("exp nil err, got: %v", err)
			}
			if got != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestBuildURL(t *testing.T) {
	testCases := map[string]struct {
		raw    string
		params Values
		exp    string
		expErr error
	}{
		"noParams":    {raw: "http://h/p", exp: "http://h/p"},
		"ordered":     {raw: "http://h/p", params: KV("b", 2, "a", 1), exp: "http://h/p?b=2&a=1"},
		"duplicates":  {raw: "http://h/p", params: KV("a", 1, "a", 2), exp: "http://h/p?a=1&a=2"},
		"existing":    {raw: "http://h/p?x=0", params: KV("y", 1), exp: "http://h/p?x=0&y=1"},
		"escaped":     {raw: "http://h/p", params: KV("q", "a b&c"), exp: "http://h/p?q=a+b%26c"},
		"nativeBool":  {raw: "http://h/p", params: KV("on", true), exp: "http://h/p?on=true"},
		"empty":       {raw: "", expErr: ErrURLRequired},
		"noScheme":    {raw: "example.com/path", expErr: ErrInvalidURL},
		"unparseable": {raw: "http://[::1", expErr: ErrInvalidURL},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			u, err := buildURL(tc.raw, tc.params)
			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Fatalf("exp err %v; got: %v", tc.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("exp nil err, got: %v", err)
			}
			if got := u.String(); got != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestPrepare_Body(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}

	testCases := map[string]struct {
		req     Request
		expBody string
		expCT   []string
	}{
		"json": {
			req:     Request{JSON: user{Name: "alice"}},
			expBody: `{"name":"alice"}`,
			expCT:   []string{contentTypeJSON},
		},
		"jsonOverridesCallerContentType": {
			req: Request{
				JSON:    map[string]int{"a": 1},
				Headers: KV("Content-Type", "text/plain"),
			},
			expBody: `{"a":1}`,
			expCT:   []string{contentTypeJSON},
		},
		"jsonWinsOverData": {
			req:     Request{JSON: []int{1, 2}, Data: TextBody("ignored")},
			expBody: `[1,2]`,
			expCT:   []string{contentTypeJSON},
		},
		"form": {
			req:     Request{Data: FormBody(KV("z", 1, "a", "x y"))},
			expBody: "z=1&a=x+y",
			expCT:   []string{contentTypeForm},
		},
		"formFromMap": {
			req:     Request{Data: BodyOf(map[string]string{"b": "2", "a": "1"})},
			expBody: "a=1&b=2",
			expCT:   []string{contentTypeForm},
		},
		"text": {
			req:     Request{Data: TextBody("hello")},
			expBody: "hello",
		},
		"textKeepsCallerContentType": {
			req:     Request{Data: TextBody("<a/>"), Headers: KV("Content-Type", "application/xml")},
			expBody: "<a/>",
			expCT:   []string{"application/xml"},
		},
		"bytes": {
			req:     Request{Data: BytesBody([]byte{0xff, 0x00})},
			expBody: "\xff\x00",
		},
		"unsupportedIsDropped": {
			req: Request{Data: BodyOf(42)},
		},
		"unset": {},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.req.Method = http.MethodPost
			tc.req.URL = "http://example.com/"

			req, err := prepare(t.Context(), tc.req, codec.Default)
			if err != nil {
				t.Fatalf("exp nil err, got: %v", err)
			}

			var body string
			if req.Body != nil {
				b, err := io.ReadAll(req.Body)
				if err != nil {
					t.Fatalf("reading body: %v", err)
				}
				body = string(b)
			}
			if body != tc.expBody {
				t.Errorf("exp body %q, got %q", tc.expBody, body)
			}

			if diff := cmp.Diff(tc.expCT, req.Header.Values("Content-Type")); diff != "" {
				t.Errorf("content type mismatch (-exp +got):\n%s", diff)
			}
		})
	}
}

func TestPrepare_Headers(t *testing.T) {
	r := Request{
		Method:  "get",
		URL:     "http://example.com/",
		Headers: KV("X-Trace", "a", "x-trace", "b", "X-Count", 3),
		Cookies: []*http.Cookie{{Name: "session", Value: "abc"}},
	}

	req, err := prepare(t.Context(), r, codec.Default)
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	if req.Method != http.MethodGet {
		t.Errorf("exp method GET, got %q", req.Method)
	}
	if diff := cmp.Diff([]string{"b"}, req.Header.Values("X-Trace")); diff != "" {
		t.Errorf("last write should win (-exp +got):\n%s", diff)
	}
	if got := req.Header.Get("X-Count"); got != "3" {
		t.Errorf("exp X-Count 3, got %q", got)
	}
	if got := req.Header.Get("Cookie"); got != "session=abc" {
		t.Errorf("exp cookie header, got %q", got)
	}
}

func TestPrepare_Errors(t *testing.T) {
	testCases := map[string]struct {
		req    Request
		expErr error
	}{
		"badMethod":    {req: Request{Method: "G ET", URL: "http://h/"}, expErr: ErrInvalidMethod},
		"noURL":        {req: Request{Method: "GET"}, expErr: ErrURLRequired},
		"badURL":       {req: Request{Method: "GET", URL: "::"}, expErr: ErrInvalidURL},
		"badHeaderKey": {req: Request{Method: "GET", URL: "http://h/", Headers: KV("Bad Key", "v")}, expErr: ErrInvalidHeader},
		"badHeaderVal": {req: Request{Method: "GET", URL: "http://h/", Headers: KV("K", "a\r\nb")}, expErr: ErrInvalidHeader},
		"encodeFails":  {req: Request{Method: "POST", URL: "http://h/", JSON: make(chan int)}, expErr: ErrJSONEncode},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := prepare(t.Context(), tc.req, codec.Default)
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp err %v; got: %v", tc.expErr, err)
			}
		})
	}
}
