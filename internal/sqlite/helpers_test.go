package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// testConfig returns a Config for a fresh database file under t.TempDir().
func testConfig(t *testing.T) types.Config {
	t.Helper()
	return types.Config{Path: filepath.Join(t.TempDir(), "strata.db")}
}

// openTable opens a table against config and closes it when the test ends.
func openTable(t *testing.T, config types.Config, name string, fields ...types.Field) *Table {
	t.Helper()
	tbl, err := NewTable(config, name, fields...)
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })
	return tbl
}

// fixedClock makes the table stamp every write with the same instant so
// tests can observe the forced advance of updated.
func fixedClock(tbl *Table, at time.Time) {
	tbl.now = func() time.Time { return at }
}

var userStatus = types.MustEnum("active", "inactive")

func userFields() []types.Field {
	return []types.Field{
		{Name: "name", Type: types.String, Required: true},
		{Name: "age", Type: types.Integer},
		{Name: "bio", Type: types.Text},
		{Name: "admin", Type: types.Boolean, Default: false},
		{Name: "born", Type: types.Timestamp},
		{Name: "status", Type: userStatus, Default: "active"},
	}
}

func openUsers(t *testing.T) *Table {
	t.Helper()
	return openTable(t, testConfig(t), "users", userFields()...)
}

// seedUsers creates one user per name with ascending ages starting at 20.
func seedUsers(t *testing.T, users *Table, names ...string) []types.Record {
	t.Helper()
	recs := make([]types.Record, len(names))
	for i, name := range names {
		r, err := users.Create(types.Values{"name": name, "age": 20 + i})
		require.NoError(t, err)
		recs[i] = r
	}
	return recs
}

// countRows returns the number of rows stored in tbl.
func countRows(t *testing.T, tbl *Table) int {
	t.Helper()
	all, err := tbl.All()
	require.NoError(t, err)
	return all.Len()
}
