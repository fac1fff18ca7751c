package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/strata/pkg/types"
)

func TestCreateTableSQL(t *testing.T) {
	fields := []types.Field{
		{Name: "name", Type: types.String, Required: true, Unique: true},
		{Name: "age", Type: types.Integer},
		{Name: "bio", Type: types.Text},
		{Name: "status", Type: types.MustEnum("a", "b")},
	}
	want := "CREATE TABLE IF NOT EXISTS users (\n" +
		"  id INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
		"  name VARCHAR(255) NOT NULL UNIQUE,\n" +
		"  age INTEGER,\n" +
		"  bio TEXT,\n" +
		"  status INTEGER,\n" +
		"  created INTEGER NOT NULL,\n" +
		"  updated INTEGER NOT NULL\n" +
		");"
	assert.Equal(t, want, createTableSQL("users", fields))
}

func TestDMLShapes(t *testing.T) {
	fields := []types.Field{
		{Name: "name", Type: types.String},
		{Name: "age", Type: types.Integer},
		{Name: "bio", Type: types.Text},
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "insert renders every declared column then stamps",
			got:  insertSQL("users", fields, map[string]any{"name": "O'Brien", "age": int64(3)}, 1000),
			want: "INSERT INTO users (name, age, bio, created, updated) VALUES ('O''Brien', 3, NULL, 1000, 1000)",
		},
		{
			name: "update by id",
			got:  updateSQL("users", assignments(fields, map[string]any{"age": int64(4), "name": "x"}), 2000, 7),
			want: "UPDATE users SET name='x', age=4, updated=2000 WHERE id = 7",
		},
		{
			name: "update with only a stamp",
			got:  updateSQL("users", nil, 2000, 7),
			want: "UPDATE users SET updated=2000 WHERE id = 7",
		},
		{
			name: "batch update",
			got:  batchUpdateSQL("users", assignments(fields, map[string]any{"bio": nil}), 3000, []int64{1, 2, 5}),
			want: "UPDATE users SET bio=NULL, updated=3000 WHERE id IN (1,2,5)",
		},
		{
			name: "delete by id",
			got:  deleteSQL("users", 9),
			want: "DELETE FROM users WHERE id = 9",
		},
		{
			name: "batch delete",
			got:  batchDeleteSQL("users", []int64{1, 2}),
			want: "DELETE FROM users WHERE id IN (1,2)",
		},
		{
			name: "select all",
			got:  selectSQL("users", "", -1, false),
			want: "SELECT * FROM users",
		},
		{
			name: "select with where and limit",
			got:  selectSQL("users", "(age > 3)", 2, false),
			want: "SELECT * FROM users WHERE (age > 3) LIMIT 2",
		},
		{
			name: "select last",
			got:  selectSQL("users", "", 2, true),
			want: "SELECT * FROM users ORDER BY id DESC LIMIT 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestNextStamp(t *testing.T) {
	now := time.UnixMilli(5000)

	assert.Equal(t, int64(5000), nextStamp(now, 0))
	assert.Equal(t, int64(5000), nextStamp(now, 4999))
	assert.Equal(t, int64(5001), nextStamp(now, 5000), "equal stamp must advance")
	assert.Equal(t, int64(6001), nextStamp(now, 6000), "clock behind stored stamp must still advance")
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, normalize(nil))
	assert.Equal(t, int64(7), normalize(int64(7)))
	assert.Equal(t, "abc", normalize([]byte("abc")))
	assert.Equal(t, int64(1), normalize(true))
	assert.Equal(t, int64(0), normalize(false))
	assert.Equal(t, int64(3), normalize(float64(3)))
	assert.Equal(t, 2.5, normalize(2.5))
	assert.Equal(t, int64(1500), normalize(time.UnixMilli(1500)))
}

func TestSortByID(t *testing.T) {
	rows := []row{{"id": int64(3)}, {"id": int64(1)}, {"id": int64(2)}}
	sortByID(rows)
	assert.Equal(t, []int64{1, 2, 3}, []int64{rowID(rows[0]), rowID(rows[1]), rowID(rows[2])})
}
