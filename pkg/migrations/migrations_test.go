package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var steps = []string{
	`create table run (id text primary key)`,
	`alter table run add column note text not null default ''`,
}

func TestOpenAndMigrateDB(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := OpenAndMigrateDB(ctx, path, steps[:1])
	require.NoError(t, err)
	_, err = db.Exec(`insert into run (id) values ('r1')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenAndMigrateDB(ctx, path, steps)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	require.Equal(t, 2, version)

	var note string
	require.NoError(t, db.QueryRow(`select note from run where id = 'r1'`).Scan(&note))
	require.Empty(t, note)

	// running again is a no-op
	require.NoError(t, Migrate(ctx, db, steps))
}

func TestMigrateUnknownVersion(t *testing.T) {
	ctx := context.Background()
	db, err := OpenAndMigrateDB(ctx, filepath.Join(t.TempDir(), "h.db"), steps)
	require.NoError(t, err)
	defer db.Close()

	require.Error(t, Migrate(ctx, db, steps[:1]))
}

func TestMigrateFailedStepRollsBack(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	err = Migrate(ctx, db, []string{steps[0], `this is not sql`})
	require.Error(t, err)

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	require.Equal(t, 1, version)
}
