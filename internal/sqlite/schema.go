package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// createTableSQL renders the idempotent DDL for a table: the id primary key,
// the declared columns in order, then the created and updated stamps.
func createTableSQL(table string, fields []types.Field) string {
	cols := make([]string, 0, len(fields)+3)
	cols = append(cols, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, f := range fields {
		col := f.Name + " " + f.Type.SQLType()
		if f.Required {
			col += " NOT NULL"
		}
		if f.Unique {
			col += " UNIQUE"
		}
		cols = append(cols, col)
	}
	cols = append(cols,
		"created INTEGER NOT NULL",
		"updated INTEGER NOT NULL",
	)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", table, strings.Join(cols, ",\n  "))
}
