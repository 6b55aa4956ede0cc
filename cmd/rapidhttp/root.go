package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/rapidhttp/client"
	"github.com/adamwoolhether/rapidhttp/codec"
	"github.com/adamwoolhether/rapidhttp/internal/validate"
)

var errBodyConflict = errors.New("--data, --form and --json are mutually exclusive")

type requestFlags struct {
	Params      []string      `flag:"param"`
	Headers     []string      `flag:"header"`
	Data        string        `flag:"data"`
	Form        []string      `flag:"form"`
	JSON        string        `flag:"json" validate:"omitempty,json"`
	Timeout     time.Duration `flag:"timeout" validate:"gte=0"`
	RateLimit   int           `flag:"rate-limit" validate:"gte=0"`
	UserAgent   string        `flag:"user-agent"`
	NoRedirects bool          `flag:"no-redirects"`
	Insecure    bool          `flag:"insecure"`
	Include     bool          `flag:"include"`
	Raise       bool          `flag:"raise"`
	Verbose     bool          `flag:"verbose"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rapidhttp",
		Short:         "Send HTTP requests through the rapidhttp client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRequestCmd())

	return root
}

func newRequestCmd() *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "request METHOD URL",
		Short: "Send one request and print the response",
		Long: `Sends one request and prints the status line and body. Methods are
case-insensitive. Redirects are followed unless --no-redirects is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, f, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&f.Params, "param", "p", nil, "Query parameter as key=value. Can be specified multiple times.")
	flags.StringArrayVarP(&f.Headers, "header", "H", nil, "Header as 'Name: value'. Can be specified multiple times.")
	flags.StringVarP(&f.Data, "data", "d", "", "Raw request body")
	flags.StringArrayVarP(&f.Form, "form", "f", nil, "Form field as key=value. Can be specified multiple times.")
	flags.StringVar(&f.JSON, "json", "", "JSON request body")
	flags.DurationVar(&f.Timeout, "timeout", client.DefaultTimeout, "Request timeout, 0 disables it")
	flags.IntVar(&f.RateLimit, "rate-limit", 0, "Maximum requests per second (0 = unlimited)")
	flags.StringVar(&f.UserAgent, "user-agent", "rapidhttp-cli", "User-Agent sent when no header sets one")
	flags.BoolVar(&f.NoRedirects, "no-redirects", false, "Return 3xx responses instead of following them")
	flags.BoolVarP(&f.Insecure, "insecure", "k", false, "Skip TLS certificate verification")
	flags.BoolVarP(&f.Include, "include", "i", false, "Print response headers")
	flags.BoolVar(&f.Raise, "raise", false, "Exit with an error on 4xx and 5xx responses")
	flags.BoolVarP(&f.Verbose, "verbose", "v", false, "Log request progress to stderr")

	return cmd
}

func runRequest(cmd *cobra.Command, f requestFlags, method, rawURL string) error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	opts, err := f.requestOptions()
	if err != nil {
		return err
	}

	c, err := f.client(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer c.CloseIdleConnections()

	resp, err := c.Request(cmd.Context(), method, rawURL, opts...)
	if err != nil {
		return err
	}

	if err := printResponse(cmd.OutOrStdout(), resp, f.Include); err != nil {
		return err
	}

	if f.Raise {
		return resp.RaiseForStatus()
	}

	return nil
}

func (f requestFlags) client(logOut io.Writer) (*client.Client, error) {
	level := slog.LevelWarn
	if f.Verbose {
		level = slog.LevelDebug
	}

	opts := []client.Option{
		client.WithTimeout(f.Timeout),
		client.WithLogger(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))),
	}
	if f.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(f.UserAgent))
	}
	if f.RateLimit > 0 {
		opts = append(opts, client.WithThrottle(f.RateLimit, f.RateLimit))
	}

	return client.Build(opts...)
}

func (f requestFlags) requestOptions() ([]client.RequestOption, error) {
	var bodies int
	for _, set := range []bool{f.Data != "", len(f.Form) > 0, f.JSON != ""} {
		if set {
			bodies++
		}
	}
	if bodies > 1 {
		return nil, errBodyConflict
	}

	params, err := splitPairs(f.Params, "=")
	if err != nil {
		return nil, fmt.Errorf("--param: %w", err)
	}
	headers, err := splitPairs(f.Headers, ":")
	if err != nil {
		return nil, fmt.Errorf("--header: %w", err)
	}

	opts := []client.RequestOption{
		client.WithParams(params),
		client.WithHeaders(headers),
		client.WithAllowRedirects(!f.NoRedirects),
		client.WithVerify(!f.Insecure),
	}

	switch {
	case f.Data != "":
		opts = append(opts, client.WithText(f.Data))
	case len(f.Form) > 0:
		form, err := splitPairs(f.Form, "=")
		if err != nil {
			return nil, fmt.Errorf("--form: %w", err)
		}
		opts = append(opts, client.WithForm(form))
	case f.JSON != "":
		var payload any
		if err := codec.Default.Decode([]byte(f.JSON), &payload); err != nil {
			return nil, fmt.Errorf("--json: %w", err)
		}
		opts = append(opts, client.WithJSON(payload))
	}

	return opts, nil
}

// splitPairs parses key<sep>value arguments, trimming spaces around both.
func splitPairs(args []string, sep string) (client.Values, error) {
	var v client.Values
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, sep)
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%q is not in key%svalue form", arg, sep)
		}
		v = v.Add(key, strings.TrimSpace(value))
	}
	return v, nil
}

func printResponse(w io.Writer, resp *client.Response, include bool) error {
	fmt.Fprintf(w, "HTTP %d %s\n", resp.StatusCode(), resp.Reason())

	if include {
		headers := resp.Header()
		for _, name := range slices.Sorted(maps.Keys(headers)) {
			for _, value := range headers[name] {
				fmt.Fprintf(w, "%s: %s\n", name, value)
			}
		}
	}
	fmt.Fprintln(w)

	content, err := resp.Content()
	if err != nil {
		if resp.Method() == http.MethodHead && errors.Is(err, client.ErrBodyUnavailable) {
			return nil
		}
		return err
	}

	_, err = w.Write(content)
	return err
}
