// Package runner drives a comparison run: one session per side, pairs in
// order with a pause between them, cookies written back at the end.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"menuparity/internal/compare"
	"menuparity/internal/components/assert"
	"menuparity/internal/components/chrono"
	"menuparity/internal/components/telemetry"
	"menuparity/internal/input"
	"menuparity/lib/fetch"
	"menuparity/lib/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("menuparity/internal/runner")
	meter  = otel.Meter("menuparity/internal/runner")
)

var ErrPairsFailed = errors.New("some pairs failed")

const (
	report_runner_seed    = "runner.seed"
	report_runner_persist = "runner.persist"
	report_runner_pairs   = "runner.pairs"
)

type Config struct {
	Selector string
	// Delay is the pause between two pairs.
	Delay    time.Duration
	Timeout  time.Duration
	Retries  int
	Insecure bool
	// AuthFlow makes the first fetch of each side follow redirects by hand.
	AuthFlow bool
	RefererA string
	RefererB string
	// CookiesFile is overwritten with both sessions when an auth flow
	// happened, empty disables the write.
	CookiesFile string
}

type Runner struct {
	cfg        Config
	comparator *compare.Comparator
	tel        telemetry.API
	pairs      metric.Int64Counter

	// Clock stamps the start and end of a run.
	Clock chrono.API

	// OnResult is called after every pair with the total number of pairs.
	OnResult func(total int, r compare.Result)
}

func New(fetcher compare.Fetcher, cfg Config, tel telemetry.API) (*Runner, error) {
	assert.NotNil(tel)
	assert.NonNegative("delay", cfg.Delay)
	assert.NonNegative("retries", cfg.Retries)

	pairs, err := meter.Int64Counter(
		"menuparity.pairs",
		metric.WithDescription("Compared url pairs by result."),
	)
	if err != nil {
		return nil, fmt.Errorf("create pairs counter: %w", err)
	}

	return &Runner{
		cfg:        cfg,
		comparator: compare.NewComparator(fetcher, cfg.Selector, tel),
		tel:        telemetry.NewScopedAPI("runner", tel),
		pairs:      pairs,
		Clock:      chrono.StandardImpl{},
	}, nil
}

type Outcome struct {
	StartedAt        time.Time
	FinishedAt       time.Time
	Results          []compare.Result
	AuthFlowOccurred bool
	// Cookies is the serialized state of both sessions, read from the
	// first url of each side.
	Cookies   input.Cookies
	Persisted bool
}

func (o Outcome) Failed() int {
	failed := 0
	for _, r := range o.Results {
		if !r.Pass {
			failed++
		}
	}
	return failed
}

// Err is ErrPairsFailed when a pair failed.
func (o Outcome) Err() error {
	if n := o.Failed(); n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPairsFailed, n, len(o.Results))
	}
	return nil
}

func (r *Runner) side(sess *session.Session, referer, label string, creds input.Credentials) compare.SideConfig {
	c := creds.A
	if label == string(compare.SideB) {
		c = creds.B
	}
	return compare.SideConfig{
		Session: sess,
		Options: fetch.Options{
			Session:    sess,
			Timeout:    r.cfg.Timeout,
			MaxRetries: r.cfg.Retries,
			Insecure:   r.cfg.Insecure,
			Referer:    referer,
			AuthFlow:   r.cfg.AuthFlow,
			Username:   c.Username,
			Password:   c.Password,
			Label:      label,
		},
	}
}

// Run compares every pair in order. A failing pair never stops the run, a
// canceled context does, returning the results collected so far.
func (r *Runner) Run(ctx context.Context, in input.Inputs) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	out := Outcome{StartedAt: r.Clock.Now()}
	if len(in.Pairs) == 0 {
		out.FinishedAt = out.StartedAt
		return out, nil
	}

	sessA := session.New("A")
	sessB := session.New("B")
	seededA := sessA.Seed(in.Cookies.A, in.Pairs[0].A)
	seededB := sessB.Seed(in.Cookies.B, in.Pairs[0].B)
	r.tel.ReportDebug(report_runner_seed, "A", seededA, "B", seededB)

	a := r.side(sessA, r.cfg.RefererA, "A", in.Credentials)
	b := r.side(sessB, r.cfg.RefererB, "B", in.Credentials)

	total := len(in.Pairs)
	for i, pair := range in.Pairs {
		result := r.comparator.Compare(ctx, i+1, pair, a, b)
		out.Results = append(out.Results, result)
		out.AuthFlowOccurred = out.AuthFlowOccurred || result.AuthFlowOccurred

		status := "pass"
		if !result.Pass {
			status = "fail"
		}
		r.pairs.Add(ctx, 1, metric.WithAttributes(attribute.String("result", status)))
		if r.OnResult != nil {
			r.OnResult(total, result)
		}

		if i == total-1 {
			break
		}
		err := sleep(ctx, r.cfg.Delay)
		if err != nil {
			r.finish(&out, sessA, sessB, in.Pairs[0])
			return out, err
		}
	}

	r.tel.ReportCount(report_runner_pairs, int64(len(out.Results)))
	r.finish(&out, sessA, sessB, in.Pairs[0])
	return out, nil
}

func (r *Runner) finish(out *Outcome, sessA, sessB *session.Session, first input.Pair) {
	out.FinishedAt = r.Clock.Now()
	out.Cookies = input.Cookies{
		A: sessA.Serialize(first.A),
		B: sessB.Serialize(first.B),
	}
	if !out.AuthFlowOccurred || r.cfg.CookiesFile == "" {
		return
	}
	err := input.WriteCookies(r.cfg.CookiesFile, out.Cookies)
	if err != nil {
		r.tel.ReportBroken(report_runner_persist, err, r.cfg.CookiesFile)
		return
	}
	out.Persisted = true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
