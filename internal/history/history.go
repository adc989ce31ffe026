// Package history keeps the outcome of past runs in a sqlite database so
// drift can be followed over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"menuparity/internal/compare"
	"menuparity/pkg/migrations"

	"github.com/google/uuid"
)

var steps = []string{
	`create table run (
		id text primary key,
		started_at integer not null,
		finished_at integer not null,
		urls_file text not null,
		cookies_file text not null,
		passed integer not null,
		failed integer not null
	)`,
	`create table result (
		run_id text not null references run(id) on delete cascade,
		idx integer not null,
		url_a text not null,
		url_b text not null,
		pass integer not null,
		reason text not null,
		diff text not null,
		auth_flow integer not null,
		primary key (run_id, idx)
	)`,
}

type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	URLsFile    string
	CookiesFile string
	Passed      int
	Failed      int
}

func NewRun(urlsFile, cookiesFile string, startedAt time.Time) Run {
	return Run{
		ID:          uuid.NewString(),
		StartedAt:   startedAt,
		URLsFile:    urlsFile,
		CookiesFile: cookiesFile,
	}
}

type Entry struct {
	Index    int
	URLA     string
	URLB     string
	Pass     bool
	Reason   string
	Diff     string
	AuthFlow bool
}

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	db, err := migrations.OpenAndMigrateDB(ctx, path, steps)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore uses an already migrated database.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	err := migrations.Migrate(ctx, db, steps)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func wrapRecord(err error) error {
	return fmt.Errorf("record run: %w", err)
}

// Record stores the run and its results in a single transaction, the pass
// and fail counts of run are derived from results.
func (s *Store) Record(ctx context.Context, run Run, results []compare.Result) error {
	run.Passed, run.Failed = 0, 0
	for _, r := range results {
		if r.Pass {
			run.Passed++
		} else {
			run.Failed++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapRecord(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`insert into run (id, started_at, finished_at, urls_file, cookies_file, passed, failed)
		values (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
		run.URLsFile,
		run.CookiesFile,
		run.Passed,
		run.Failed,
	)
	if err != nil {
		return wrapRecord(err)
	}

	for _, r := range results {
		_, err = tx.ExecContext(
			ctx,
			`insert into result (run_id, idx, url_a, url_b, pass, reason, diff, auth_flow)
			values (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, r.Index, r.URLA, r.URLB, r.Pass, r.Reason, r.Diff, r.AuthFlowOccurred,
		)
		if err != nil {
			return wrapRecord(err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return wrapRecord(err)
	}
	return nil
}

// Runs lists the most recent runs first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select id, started_at, finished_at, urls_file, cookies_file, passed, failed
		from run order by started_at desc, id limit ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished int64
		err = rows.Scan(&run.ID, &started, &finished, &run.URLsFile, &run.CookiesFile, &run.Passed, &run.Failed)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.StartedAt = time.UnixMilli(started)
		run.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select idx, url_a, url_b, pass, reason, diff, auth_flow
		from result where run_id = ? order by idx`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries of run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		err = rows.Scan(&e.Index, &e.URLA, &e.URLB, &e.Pass, &e.Reason, &e.Diff, &e.AuthFlow)
		if err != nil {
			return nil, fmt.Errorf("list entries of run %s: %w", runID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
