// Package authflow follows redirects by hand and signs into hosted login
// pages on the way, so that a protected page can be fetched with nothing more
// than a cookie jar and a set of credentials.
package authflow

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"menuparity/internal/components/assert"
	"menuparity/internal/components/telemetry"
	"menuparity/lib/browser"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("menuparity/lib/authflow")

// MaxHops bounds the redirects (login redirects included) a single run
// follows.
const MaxHops = 10

const (
	report_flow_hop      = "flow.hop"
	report_flow_login    = "flow.login"
	report_flow_location = "flow.location"
	report_flow_limit    = "flow.limit"
)

// Flags accumulate what happened during a run. They only ever turn on.
type Flags struct {
	AuthFlow bool
	Login    bool
}

func (f *Flags) Merge(o Flags) {
	f.AuthFlow = f.AuthFlow || o.AuthFlow
	f.Login = f.Login || o.Login
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the url the response was served from.
	URL string
}

func fromResty(res *resty.Response, u string) Response {
	return Response{
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		Body:       res.Body(),
		URL:        u,
	}
}

// Outcome is the terminal state of a run.
//
// Err is set when the transport failed, Response is then the zero value.
// Synthetic is set when the hop limit was reached, Response then has status
// 0 and no body.
type Outcome struct {
	Response  Response
	Flags     Flags
	Hops      int
	Err       error
	Synthetic bool
}

type Flow struct {
	client  *resty.Client
	profile browser.Profile
	login   LoginConfig
	tel     telemetry.API
}

// NewFlow wraps a client whose redirect policy must not follow redirects on
// its own (see NoFollow).
func NewFlow(client *resty.Client, profile browser.Profile, login LoginConfig, tel telemetry.API) *Flow {
	assert.NotNil(client)
	assert.NotNil(tel)
	return &Flow{
		client:  client,
		profile: profile,
		login:   login.withDefaults(),
		tel:     telemetry.NewScopedAPI("authflow", tel),
	}
}

// NoFollow is the redirect policy a Flow client needs: the 3xx response is
// handed back instead of being followed.
var NoFollow = resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
})

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func resolve(current, location string) (string, bool) {
	base, err := url.Parse(current)
	if err != nil {
		return "", false
	}
	next, err := base.Parse(strings.TrimSpace(location))
	if err != nil {
		return "", false
	}
	return next.String(), true
}

// Run fetches target, following redirects and submitting the login form when
// one is served and creds are valid.
func (f *Flow) Run(ctx context.Context, target, referer string, creds Credentials) Outcome {
	assert.NotEmptyStr(target)

	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.String("target", target),
	))
	defer span.End()

	var flags Flags
	current := target
	hops := 0

	for hops < MaxHops {
		res, err := f.get(ctx, current, referer)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "request failed")
			return Outcome{Flags: flags, Hops: hops, Err: err}
		}
		status := res.StatusCode()
		span.AddEvent("hop", trace.WithAttributes(
			attribute.String("url", current),
			attribute.Int("status", status),
			attribute.Int("hop", hops),
		))
		f.tel.ReportDebug(report_flow_hop, hops, current, status)

		if status == http.StatusInternalServerError {
			return Outcome{Response: fromResty(res, current), Flags: flags, Hops: hops}
		}

		if !isRedirect(status) {
			if status != http.StatusOK || !creds.Valid() || !f.login.Detector.IsLoginPage(res.String()) {
				return Outcome{Response: fromResty(res, current), Flags: flags, Hops: hops}
			}

			span.AddEvent("login form detected")
			submitted, err := f.submitLogin(ctx, current, referer, res.Body(), creds)
			if err != nil {
				f.tel.ReportWarning(report_flow_login, err, current)
				return Outcome{Response: fromResty(res, current), Flags: flags, Hops: hops}
			}
			flags.Login = true

			loginStatus := submitted.StatusCode()
			if location := submitted.Header().Get("Location"); isRedirect(loginStatus) && location != "" {
				if next, ok := resolve(current, location); ok {
					referer = current
					current = next
					hops++
					flags.AuthFlow = true
					continue
				}
			}
			if isSuccess(loginStatus) {
				return Outcome{Response: fromResty(submitted, current), Flags: flags, Hops: hops}
			}

			f.tel.ReportWarning(report_flow_login, "login rejected", current, loginStatus)
			return Outcome{Response: fromResty(res, current), Flags: flags, Hops: hops}
		}

		location := res.Header().Get("Location")
		if location == "" {
			return Outcome{Response: fromResty(res, current), Flags: flags, Hops: hops}
		}
		next, ok := resolve(current, location)
		if !ok {
			f.tel.ReportWarning(report_flow_location, "unresolvable location", current, location)
			return Outcome{Response: fromResty(res, current), Flags: flags, Hops: hops}
		}

		referer = current
		current = next
		hops++
		flags.AuthFlow = true
	}

	f.tel.ReportWarning(report_flow_limit, "redirect limit reached", target, current)
	span.SetStatus(codes.Error, "redirect limit reached")
	return Outcome{
		Response:  Response{Header: http.Header{}, URL: current},
		Flags:     flags,
		Hops:      hops,
		Synthetic: true,
	}
}

func (f *Flow) get(ctx context.Context, target, referer string) (*resty.Response, error) {
	return f.client.R().
		SetContext(ctx).
		SetHeaderMultiValues(f.profile.Headers(target, referer)).
		Get(target)
}

func (f *Flow) submitLogin(ctx context.Context, pageURL, referer string, page []byte, creds Credentials) (*resty.Response, error) {
	form, err := ParseLoginForm(pageURL, page, f.login)
	if err != nil {
		return nil, err
	}
	headers := browser.FormSubmitHeaders(f.profile.Headers(pageURL, referer), pageURL)
	return f.client.R().
		SetContext(ctx).
		SetHeaderMultiValues(headers).
		SetBody(form.Values(creds).Encode()).
		Post(form.SubmitURL)
}
