package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"menuparity/internal/components/telemetry"
	"menuparity/lib/session"
	libtelemetry "menuparity/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	retryWaitTime    = 2 * time.Second
	retryMaxWaitTime = 8 * time.Second
)

var retryStatuses = map[int]bool{
	http.StatusRequestTimeout:        true,
	http.StatusRequestEntityTooLarge: true,
	http.StatusTooManyRequests:       true,
	http.StatusInternalServerError:   true,
	http.StatusBadGateway:            true,
	http.StatusServiceUnavailable:    true,
	http.StatusGatewayTimeout:        true,
}

// retryable allows retries for GET requests only, on transport errors and
// on the statuses that usually clear up on their own.
func retryable(res *resty.Response, err error) bool {
	if res == nil || res.Request == nil {
		return false
	}
	if res.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	return retryStatuses[res.StatusCode()]
}

// retryDelay doubles from 2s for every attempt, up to 8s.
func retryDelay(_ *resty.Client, res *resty.Response) (time.Duration, error) {
	attempt := 1
	if res != nil && res.Request != nil && res.Request.Attempt > 0 {
		attempt = res.Request.Attempt
	}
	delay := retryWaitTime << (attempt - 1)
	if delay > retryMaxWaitTime || delay <= 0 {
		delay = retryMaxWaitTime
	}
	return delay, nil
}

// HostLimiter rate limits requests per host with a token bucket each.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

func NewHostLimiter(rps float64) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}

type transports struct {
	mu         sync.Mutex
	browserTLS bool
	byInsecure map[bool]http.RoundTripper
}

// get returns a transport shared by every fetch with the same insecure
// setting so connections are pooled across pairs.
func (t *transports) get(insecure bool) http.RoundTripper {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rt, ok := t.byInsecure[insecure]; ok {
		return rt
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	var rt http.RoundTripper = base
	if t.browserTLS {
		// replaces base.TLSClientConfig
		rt = cloudflarebp.AddCloudFlareByPass(base)
	}
	if insecure {
		if base.TLSClientConfig == nil {
			base.TLSClientConfig = &tls.Config{}
		}
		base.TLSClientConfig.InsecureSkipVerify = true
	}

	if t.byInsecure == nil {
		t.byInsecure = map[bool]http.RoundTripper{}
	}
	t.byInsecure[insecure] = rt
	return rt
}

// newClient builds the resty client of a single fetch, bound to the jar of
// sess.
func (f *Fetcher) newClient(sess *session.Session, opts Options) *resty.Client {
	transport := f.opts.Transport
	if transport == nil {
		transport = f.transports.get(opts.Insecure)
	}

	client := resty.NewWithClient(&http.Client{
		Transport: transport,
		Jar:       sess.Jar(),
	})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	client.
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		SetRetryAfter(retryDelay).
		AddRetryCondition(retryable)

	if f.limiter != nil {
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			// RawRequest is still nil in OnBeforeRequest
			u, err := url.Parse(req.URL)
			if err != nil {
				return err
			}
			return f.limiter.Wait(req.Context(), u.Host)
		})
	}

	telemetry.InstrumentResty(client, f.tel)
	libtelemetry.TraceResty(client, "menuparity/lib/fetch")
	if f.opts.Dump != nil {
		f.opts.Dump.Attach(client, opts.Label)
	}
	return client
}
