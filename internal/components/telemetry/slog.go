package telemetry

import (
	"fmt"
	"log/slog"
	"testing"
)

// SlogAPI implements API using the log/slog package.
type SlogAPI struct{}

func formatParams(out *[]any, params []any) {
	for i, p := range params {
		*out = append(
			*out,
			fmt.Sprintf("params.%d", i),
			p,
		)
	}
}

func (SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

func (SlogAPI) ReportDebug(message string, params ...any) {
	remainingPairs := []any{}
	formatParams(&remainingPairs, params)
	slog.Debug(message, remainingPairs...)
}

func (SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}

// TestingAPI implements API by writing every report to the test log.
type TestingAPI struct {
	t testing.TB
}

func NewTestingAPI(t testing.TB) TestingAPI {
	return TestingAPI{t: t}
}

func (a TestingAPI) ReportBroken(id string, params ...any) {
	a.t.Helper()
	a.t.Log(append([]any{"BROKEN", id}, params...)...)
}

func (a TestingAPI) ReportWarning(id string, params ...any) {
	a.t.Helper()
	a.t.Log(append([]any{"WARN", id}, params...)...)
}

func (a TestingAPI) ReportDebug(msg string, params ...any) {
	a.t.Helper()
	a.t.Log(append([]any{"DEBUG", msg}, params...)...)
}

func (a TestingAPI) ReportCount(id string, count int64) {
	a.t.Helper()
	a.t.Log("COUNT", id, count)
}
