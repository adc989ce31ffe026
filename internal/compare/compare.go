// Package compare fetches both sides of a url pair and decides whether their
// navigation menus list the same anchors.
package compare

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"menuparity/internal/components/assert"
	"menuparity/internal/components/telemetry"
	"menuparity/internal/input"
	"menuparity/lib/fetch"
	"menuparity/lib/htmlutil"
	"menuparity/lib/session"
	"menuparity/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("menuparity/internal/compare")

const (
	report_comparator_retry = "comparator.retry"
	report_comparator_diff  = "comparator.diff"
)

const ReasonIdentical = "Identical anchors"

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

type SideConfig struct {
	Session *session.Session
	Options fetch.Options
}

func (s SideConfig) options() fetch.Options {
	opts := s.Options
	if opts.Session == nil {
		opts.Session = s.Session
	}
	return opts
}

func (s SideConfig) canLogin() bool {
	return s.Options.Username != "" && s.Options.Password != ""
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts fetch.Options) fetch.Response
}

type Result struct {
	Index  int
	URLA   string
	URLB   string
	Pass   bool
	Reason string
	Diff   string
	Hints  []Hint
	// Retried lists the sides fetched a second time after their container
	// was missing.
	Retried          []Side
	AuthFlowOccurred bool
	CountA           int
	CountB           int
}

type Comparator struct {
	fetcher       Fetcher
	selector      string
	hintThreshold float64
	tel           telemetry.API
}

func NewComparator(fetcher Fetcher, selector string, tel telemetry.API) *Comparator {
	assert.NotNil(fetcher)
	assert.NotEmptyStr(selector)
	assert.NotNil(tel)
	return &Comparator{
		fetcher:       fetcher,
		selector:      selector,
		hintThreshold: DefaultHintThreshold,
		tel:           telemetry.NewScopedAPI("compare", tel),
	}
}

// httpReason describes a failed fetch, transport failures (status 0) carry
// their code and message.
func httpReason(side Side, res fetch.Response) string {
	reason := fmt.Sprintf("%s HTTP %d", side, res.StatusCode)
	if res.StatusCode == 0 && res.Err != nil {
		extra := strings.TrimSpace(fmt.Sprintf("%s %s", res.Err.Code, res.Err.Message))
		if extra != "" {
			reason += " " + extra
		}
	}
	return reason
}

type sideState struct {
	side      Side
	url       string
	config    SideConfig
	res       fetch.Response
	container htmlutil.Container
}

// Compare fetches both sides concurrently, then evaluates them. A failure of
// one side never cancels the other.
func (c *Comparator) Compare(ctx context.Context, index int, pair input.Pair, a, b SideConfig) Result {
	ctx, span := tracer.Start(ctx, "Compare", trace.WithAttributes(
		attribute.Int("index", index),
		attribute.String("url_a", pair.A),
		attribute.String("url_b", pair.B),
	))
	defer span.End()

	sa := &sideState{side: SideA, url: pair.A, config: a}
	sb := &sideState{side: SideB, url: pair.B, config: b}

	var g errgroup.Group
	for _, s := range []*sideState{sa, sb} {
		g.Go(func() error {
			s.res = c.fetcher.Fetch(ctx, s.url, s.config.options())
			return nil
		})
	}
	g.Wait()

	result := c.evaluate(ctx, index, pair, sa, sb)
	span.SetAttributes(
		attribute.Bool("pass", result.Pass),
		attribute.String("reason", result.Reason),
	)
	return result
}

func (c *Comparator) evaluate(ctx context.Context, index int, pair input.Pair, sa, sb *sideState) Result {
	result := Result{
		Index: index,
		URLA:  pair.A,
		URLB:  pair.B,
	}
	flagged := func(res fetch.Response) {
		result.AuthFlowOccurred = result.AuthFlowOccurred || res.AuthFlowOccurred || res.LoginOccurred
	}
	flagged(sa.res)
	flagged(sb.res)

	if !sa.res.OK {
		result.Reason = httpReason(SideA, sa.res)
		return result
	}
	if !sb.res.OK {
		result.Reason = httpReason(SideB, sb.res)
		return result
	}

	for _, s := range []*sideState{sa, sb} {
		s.container = htmlutil.ExtractContainer(s.res.Body, c.selector)
		if !s.container.Missing || !s.config.canLogin() {
			continue
		}

		// usually a login page served in place of the menu, but a page that
		// really lacks the container is fetched twice as well
		c.tel.ReportDebug(report_comparator_retry, index, string(s.side), s.url)
		retryOpts := s.config.options()
		retryOpts.AuthFlow = true
		s.res = c.fetcher.Fetch(ctx, s.url, retryOpts)
		result.Retried = append(result.Retried, s.side)
		flagged(s.res)

		if !s.res.OK {
			result.Reason = httpReason(s.side, s.res)
			return result
		}
		s.container = htmlutil.ExtractContainer(s.res.Body, c.selector)
	}

	if sa.container.Missing {
		result.Reason = "container missing in A"
		return result
	}
	if sb.container.Missing {
		result.Reason = "container missing in B"
		return result
	}

	textsA := htmlutil.AnchorTexts(sa.container.InnerHTML)
	textsB := htmlutil.AnchorTexts(sb.container.InnerHTML)
	result.CountA = len(textsA)
	result.CountB = len(textsB)

	if slices.Equal(textsA, textsB) {
		result.Pass = true
		result.Reason = ReasonIdentical
		return result
	}

	diff, err := textutil.UnifiedDiff(textsA, textsB)
	if err != nil {
		c.tel.ReportBroken(report_comparator_diff, err, index)
	}
	result.Diff = diff
	result.Reason = fmt.Sprintf("Anchor counts: A=%d, B=%d", len(textsA), len(textsB))
	result.Hints = RenameHints(textsA, textsB, c.hintThreshold)
	return result
}
