// Package fetch retrieves a page the way a browser tab would and reduces
// every outcome, transport failures included, to a single Response value.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"time"
	"unicode/utf8"

	"menuparity/internal/components/assert"
	"menuparity/internal/components/telemetry"
	"menuparity/lib/authflow"
	"menuparity/lib/browser"
	"menuparity/lib/restyutil"
	"menuparity/lib/session"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html/charset"
)

var tracer = otel.Tracer("menuparity/lib/fetch")

const (
	report_fetch_request = "fetch.request"
	report_fetch_decode  = "fetch.decode"
)

type Options struct {
	// Cookie seeds a throwaway session when Session is nil.
	Cookie string
	// Session is read and updated by the fetch when set.
	Session    *session.Session
	Timeout    time.Duration
	MaxRetries int
	Insecure   bool
	Referer    string
	// AuthFlow follows redirects by hand and signs in when a login page is
	// served, see package authflow.
	AuthFlow bool
	Username string
	Password string
	// Label names the fetch in http dumps.
	Label string
}

type Response struct {
	// OK is set for a 2xx html response, Body is empty otherwise.
	OK         bool
	StatusCode int
	Header     http.Header
	Body       string
	// URL is the url the final response was served from.
	URL string
	// RequestHeader is the header set of the first request, Cookie
	// included.
	RequestHeader    http.Header
	AuthFlowOccurred bool
	LoginOccurred    bool
	Err              *Error
}

var htmlContentType = regexp.MustCompile(`(?i)text/html|application/xhtml\+xml`)

func IsHTML(contentType string) bool {
	return htmlContentType.MatchString(contentType)
}

type FetcherOptions struct {
	Tel     telemetry.API
	Profile browser.Profile
	Login   authflow.LoginConfig
	// MaxRPS limits requests per host, 0 disables the limit.
	MaxRPS float64
	// BrowserTLS wraps the transport with a browser-like TLS fingerprint.
	BrowserTLS bool
	// Transport replaces the default transports, Insecure and BrowserTLS
	// are ignored when it is set.
	Transport http.RoundTripper
	Dump      *restyutil.Dumper
}

type Fetcher struct {
	opts       FetcherOptions
	tel        telemetry.API
	limiter    *HostLimiter
	transports *transports
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	assert.NotNil(opts.Tel)
	if opts.Profile == (browser.Profile{}) {
		opts.Profile = browser.Chrome
	}

	f := &Fetcher{
		opts:       opts,
		tel:        telemetry.NewScopedAPI("fetch", opts.Tel),
		transports: &transports{browserTLS: opts.BrowserTLS},
	}
	if opts.MaxRPS > 0 {
		f.limiter = NewHostLimiter(opts.MaxRPS)
	}
	return f
}

// Fetch never returns a Go error: transport failures end up in
// Response.Err and HTTP failures in Response.StatusCode.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) Response {
	assert.NotEmptyStr(rawURL)
	assert.NonNegative("max retries", opts.MaxRetries)
	assert.NonNegative("timeout", opts.Timeout)

	ctx, span := tracer.Start(ctx, "Fetch", trace.WithAttributes(
		attribute.String("url", rawURL),
		attribute.Bool("auth_flow", opts.AuthFlow),
	))
	defer span.End()

	requestHeader := f.opts.Profile.Headers(rawURL, opts.Referer)

	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" {
		if err == nil {
			err = fmt.Errorf("invalid URL '%s': missing host", rawURL)
		}
		span.SetStatus(codes.Error, "invalid url")
		return Response{
			Header:        http.Header{},
			URL:           rawURL,
			RequestHeader: requestHeader,
			Err:           &Error{Code: CodeInvalidURL, Message: err.Error()},
		}
	}

	sess := opts.Session
	if sess == nil {
		sess = session.New("oneshot")
		sess.Seed(opts.Cookie, rawURL)
	}
	if cookie := sess.CookieHeader(rawURL); cookie != "" {
		requestHeader.Set("Cookie", cookie)
	}

	client := f.newClient(sess, opts)

	var res Response
	if opts.AuthFlow {
		res = f.orchestrated(ctx, client, rawURL, opts)
	} else {
		res = f.simple(ctx, client, rawURL, opts)
	}
	res.RequestHeader = requestHeader

	span.SetAttributes(
		attribute.Int("status", res.StatusCode),
		attribute.Bool("ok", res.OK),
		attribute.Bool("auth_flow_occurred", res.AuthFlowOccurred),
		attribute.Bool("login_occurred", res.LoginOccurred),
	)
	if res.Err != nil {
		span.SetStatus(codes.Error, res.Err.Error())
		f.tel.ReportWarning(report_fetch_request, res.Err, rawURL)
	}
	return res
}

func (f *Fetcher) simple(ctx context.Context, client *resty.Client, rawURL string, opts Options) Response {
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(authflow.MaxHops))

	res, err := client.R().
		SetContext(ctx).
		SetHeaderMultiValues(f.opts.Profile.Headers(rawURL, opts.Referer)).
		Get(rawURL)
	if err != nil {
		return Response{Header: http.Header{}, URL: rawURL, Err: Classify(err)}
	}

	finalURL := rawURL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	return f.normalize(res.StatusCode(), res.Header(), res.Body(), finalURL)
}

func (f *Fetcher) orchestrated(ctx context.Context, client *resty.Client, rawURL string, opts Options) Response {
	client.SetRedirectPolicy(authflow.NoFollow)

	flow := authflow.NewFlow(client, f.opts.Profile, f.opts.Login, f.tel)
	out := flow.Run(ctx, rawURL, opts.Referer, authflow.Credentials{
		Username: opts.Username,
		Password: opts.Password,
	})

	var res Response
	switch {
	case out.Err != nil:
		res = Response{Header: http.Header{}, URL: rawURL, Err: Classify(out.Err)}
	case out.Synthetic:
		res = Response{
			Header: http.Header{},
			URL:    out.Response.URL,
			Err: &Error{
				Code:    CodeRedirectLimit,
				Message: fmt.Sprintf("stopped after %d redirects", out.Hops),
			},
		}
	default:
		res = f.normalize(out.Response.StatusCode, out.Response.Header, out.Response.Body, out.Response.URL)
	}
	res.AuthFlowOccurred = out.Flags.AuthFlow
	res.LoginOccurred = out.Flags.Login
	return res
}

func (f *Fetcher) normalize(status int, header http.Header, body []byte, finalURL string) Response {
	if header == nil {
		header = http.Header{}
	}
	contentType := header.Get("Content-Type")
	ok := status >= 200 && status < 300 && IsHTML(contentType)

	res := Response{
		OK:         ok,
		StatusCode: status,
		Header:     header,
		URL:        finalURL,
	}
	if ok {
		res.Body = f.decode(body, contentType)
	}
	return res
}

// decode converts body to UTF-8 using the charset named by the content type
// or the document itself. Valid UTF-8 without a declared charset is kept as
// is, the sniffer only looks at the first 1024 bytes.
func (f *Fetcher) decode(body []byte, contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if (err != nil || params["charset"] == "") && utf8.Valid(body) {
		return string(body)
	}
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		f.tel.ReportWarning(report_fetch_decode, err, contentType)
		return string(body)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		f.tel.ReportWarning(report_fetch_decode, err, contentType)
		return string(body)
	}
	return string(decoded)
}
