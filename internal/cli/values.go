package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// parseValue converts a command-line string into an assignable value for f.
// An empty string means null.
func parseValue(f types.Field, s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var (
		v   any
		err error
	)
	switch f.Type {
	case types.Integer:
		v, err = cast.ToInt64E(s)
	case types.Boolean:
		v, err = cast.ToBoolE(s)
	case types.Timestamp:
		if ms, msErr := cast.ToInt64E(s); msErr == nil {
			return ms, nil
		}
		v, err = cast.ToTimeE(s)
	default:
		v = s
	}
	if err != nil {
		return nil, usagef("field %q: cannot parse %q as %s", f.Name, s, f.Type.Name())
	}
	return v, nil
}

// parseAssignments parses field=value arguments against m.
func parseAssignments(m types.Model, args []string) (types.Values, error) {
	values := make(types.Values, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, usagef("invalid assignment %q (expected field=value)", arg)
		}
		f, ok := m.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q on %s", types.ErrUnknownField, name, m.Name())
		}
		v, err := parseValue(f, raw)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}

// filterOps lists the filter operators. At equal positions the earlier
// entry wins, so ">=" is preferred over ">".
var filterOps = []struct {
	token string
	op    types.Op
}{
	{">=", types.OpGte},
	{"<=", types.OpLte},
	{"!=", types.OpNe},
	{">", types.OpGt},
	{"<", types.OpLt},
	{"=", ""},
}

// parseFilters splits args on the word "or" into criteria groups. Each
// group holds field=value, field!=value, field>value, field>=value,
// field<value or field<=value terms.
func parseFilters(m types.Model, args []string) ([]types.Criteria, error) {
	var groups []types.Criteria
	current := types.Criteria{}
	for _, arg := range args {
		if strings.EqualFold(arg, "or") {
			if len(current) == 0 {
				return nil, usagef("empty filter group before %q", arg)
			}
			groups = append(groups, current)
			current = types.Criteria{}
			continue
		}
		if err := addFilter(m, current, arg); err != nil {
			return nil, err
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	} else if len(groups) > 0 {
		return nil, usagef("empty filter group after \"or\"")
	}
	return groups, nil
}

func addFilter(m types.Model, c types.Criteria, arg string) error {
	at, match := -1, -1
	for j, fo := range filterOps {
		if i := strings.Index(arg, fo.token); i > 0 && (at < 0 || i < at) {
			at, match = i, j
		}
	}
	if match < 0 {
		return usagef("invalid filter %q (expected field<op>value)", arg)
	}
	fo := filterOps[match]
	name, raw := arg[:at], arg[at+len(fo.token):]
	f, ok := m.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q on %s", types.ErrUnknownField, name, m.Name())
	}
	v, err := parseValue(f, raw)
	if err != nil {
		return err
	}
	prev, exists := c[name]
	if fo.op == "" {
		if exists {
			return usagef("field %q is filtered twice in one group", name)
		}
		c[name] = v
		return nil
	}
	cmp := types.Cmp{}
	if exists {
		existing, ok := prev.(types.Cmp)
		if !ok {
			return usagef("field %q mixes = with a comparison in one group", name)
		}
		cmp = existing
	}
	if _, dup := cmp[fo.op]; dup {
		return usagef("field %q is filtered twice in one group", name)
	}
	cmp[fo.op] = v
	c[name] = cmp
	return nil
}

// columns returns the column names of m in table order.
func columns(m types.Model) []string {
	cols := []string{types.ColumnID}
	for _, f := range m.Fields() {
		cols = append(cols, f.Name)
	}
	return append(cols, types.ColumnCreated, types.ColumnUpdated)
}

// writeRecords prints records as a JSON array or as one line of
// field=value pairs per record.
func writeRecords(w io.Writer, m types.Model, recs []types.Record, jsonMode bool) error {
	if jsonMode {
		out := make([]types.Values, len(recs))
		for i, r := range recs {
			out[i] = r.Values()
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal records: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	cols := columns(m)
	for _, r := range recs {
		values := r.Values()
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = c + "=" + formatValue(values[c])
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return nil
}

// writeRecord prints one record.
func writeRecord(w io.Writer, m types.Model, r types.Record, jsonMode bool) error {
	if jsonMode {
		data, err := json.MarshalIndent(r.Values(), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return writeRecords(w, m, []types.Record{r}, false)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case *types.EnumState:
		if x.IsNull() {
			return "null"
		}
		return x.Value()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case string:
		if strings.ContainsAny(x, " \t\n\"") {
			return fmt.Sprintf("%q", x)
		}
		return x
	default:
		return cast.ToString(x)
	}
}
