package cli

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/strata"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func openUsers(t *testing.T) types.Model {
	t.Helper()
	m, err := strata.NewModel(types.MemoryConfig(), "users",
		types.Field{Name: "name", Type: types.String},
		types.Field{Name: "age", Type: types.Integer},
		types.Field{Name: "admin", Type: types.Boolean},
		types.Field{Name: "born", Type: types.Timestamp},
	)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestParseValue(t *testing.T) {
	m := openUsers(t)
	field := func(name string) types.Field {
		f, ok := m.Field(name)
		require.True(t, ok, name)
		return f
	}

	tests := []struct {
		name    string
		field   string
		raw     string
		want    any
		wantErr bool
	}{
		{name: "empty is null", field: "age", raw: "", want: nil},
		{name: "integer", field: "age", raw: "-4", want: int64(-4)},
		{name: "bad integer", field: "age", raw: "four", wantErr: true},
		{name: "boolean", field: "admin", raw: "true", want: true},
		{name: "boolean shorthand", field: "admin", raw: "0", want: false},
		{name: "timestamp as milliseconds", field: "born", raw: "1500", want: int64(1500)},
		{name: "timestamp as RFC 3339", field: "born", raw: "2024-03-01T10:00:00Z", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "bad timestamp", field: "born", raw: "soon", wantErr: true},
		{name: "string kept verbatim", field: "name", raw: "a=b", want: "a=b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValue(field(tt.field), tt.raw)
			if tt.wantErr {
				var usage *usageError
				assert.ErrorAs(t, err, &usage)
				return
			}
			require.NoError(t, err)
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilters(t *testing.T) {
	m := openUsers(t)

	tests := []struct {
		name    string
		args    []string
		want    []types.Criteria
		wantErr bool
	}{
		{name: "no filters", args: nil, want: nil},
		{
			name: "terms in one group",
			args: []string{"name=Ada", "age>=3", "age<9"},
			want: []types.Criteria{{"name": "Ada", "age": types.Cmp{types.OpGte: int64(3), types.OpLt: int64(9)}}},
		},
		{
			name: "or splits groups",
			args: []string{"age!=1", "or", "name="},
			want: []types.Criteria{{"age": types.Cmp{types.OpNe: int64(1)}}, {"name": nil}},
		},
		{
			name: "earliest operator wins",
			args: []string{"name=a>b"},
			want: []types.Criteria{{"name": "a>b"}},
		},
		{
			name: "two-character operator preferred",
			args: []string{"age<=2"},
			want: []types.Criteria{{"age": types.Cmp{types.OpLte: int64(2)}}},
		},
		{name: "missing operator", args: []string{"age"}, wantErr: true},
		{name: "missing field", args: []string{"=3"}, wantErr: true},
		{name: "leading or", args: []string{"or", "age=1"}, wantErr: true},
		{name: "trailing or", args: []string{"age=1", "OR"}, wantErr: true},
		{name: "equality then comparison", args: []string{"age=5", "age>3"}, wantErr: true},
		{name: "comparison then equality", args: []string{"age>3", "age=5"}, wantErr: true},
		{name: "equality twice", args: []string{"name=a", "name=b"}, wantErr: true},
		{name: "same operator twice", args: []string{"age>3", "age>4"}, wantErr: true},
		{
			name: "same field across groups",
			args: []string{"age=5", "or", "age>3"},
			want: []types.Criteria{{"age": int64(5)}, {"age": types.Cmp{types.OpGt: int64(3)}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(m, tt.args)
			if tt.wantErr {
				var usage *usageError
				assert.ErrorAs(t, err, &usage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseFilters(m, []string{"height=2"})
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestParseAssignments(t *testing.T) {
	m := openUsers(t)

	got, err := parseAssignments(m, []string{"name=Ada", "age=3", "admin="})
	require.NoError(t, err)
	assert.Equal(t, types.Values{"name": "Ada", "age": int64(3), "admin": nil}, got)

	_, err = parseAssignments(m, []string{"name"})
	var usage *usageError
	assert.ErrorAs(t, err, &usage)
	_, err = parseAssignments(m, []string{"height=3"})
	assert.ErrorIs(t, err, types.ErrUnknownField)
}

func TestFormatValue(t *testing.T) {
	state := types.MustEnum("on", "off").Output(int64(1), types.FieldRef{})
	unset := types.MustEnum("on").Output(nil, types.FieldRef{})

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"nil", nil, "null"},
		{"enum", state, "off"},
		{"null enum", unset, "null"},
		{"time in UTC", time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)), "2024-01-02T02:04:05Z"},
		{"plain string", "ada", "ada"},
		{"string with space", "ada l", `"ada l"`},
		{"integer", int64(7), "7"},
		{"boolean", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.v))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"usage", usagef("bad"), exitUserError},
		{"wrapped usage", fmt.Errorf("ctx: %w", usagef("bad")), exitUserError},
		{"sentinel", fmt.Errorf("x: %w", types.ErrNotFound), exitUserError},
		{"other", errors.New("disk on fire"), exitSysError},
		{"closed model", types.ErrModelClosed, exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
