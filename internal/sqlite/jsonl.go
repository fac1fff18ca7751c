package sqlite

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// ExportJSONL writes every row of m to path, one JSON object of storage
// values per line, in ascending id order. The file is replaced atomically.
// Returns the number of rows written.
func ExportJSONL(m types.Model, path string) (int, error) {
	all, err := m.All()
	if err != nil {
		return 0, err
	}
	columns := append([]string{types.ColumnID}, fieldNames(m.Fields())...)
	columns = append(columns, types.ColumnCreated, types.ColumnUpdated)

	lines := make([]json.RawMessage, 0, all.Len())
	for _, rec := range all.All() {
		obj := make(map[string]any, len(columns))
		for _, c := range columns {
			v, err := rec.Raw(c)
			if err != nil {
				return 0, err
			}
			obj[c] = v
		}
		line, err := json.Marshal(obj)
		if err != nil {
			return 0, fmt.Errorf("encoding %s id %d: %w", m.Name(), rec.ID(), err)
		}
		lines = append(lines, line)
	}
	if err := writeJSONL(path, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

// ImportJSONL creates one record of m per line of path. Lines are read as
// ExportJSONL writes them; id, created and updated are ignored so imported
// rows get fresh ones. Blank and malformed lines are skipped. Import stops at
// the first line that fails validation, keeping the rows already created.
// Returns the number of rows created.
func ImportJSONL(m types.Model, path string) (int, error) {
	lines, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, line := range lines {
		obj, err := decodeObject(line.data)
		if err != nil || obj == nil {
			continue
		}
		values, err := fromStorage(m.Fields(), obj)
		if err != nil {
			return n, fmt.Errorf("%s line %d: %w", path, line.num, err)
		}
		if _, err := m.Create(values); err != nil {
			return n, fmt.Errorf("%s line %d: %w", path, line.num, err)
		}
		n++
	}
	return n, nil
}

// decodeObject decodes one JSON object, keeping numbers as json.Number so
// integers past 2^53 survive.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// fromStorage converts decoded JSON storage values into assignable values.
// Unknown keys are kept so Create reports them.
func fromStorage(fields []types.Field, obj map[string]any) (types.Values, error) {
	values := make(types.Values, len(obj))
	for k, v := range obj {
		if types.IsReserved(k) {
			continue
		}
		values[k] = v
	}
	for _, f := range fields {
		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		out, err := assignable(f, v)
		if err != nil {
			return nil, types.MismatchError(f.Name, f.Type, v)
		}
		values[f.Name] = out
	}
	return values, nil
}

func assignable(f types.Field, v any) (any, error) {
	if e, ok := f.Type.(*types.EnumType); ok {
		i, err := cast.ToIntE(v)
		if err != nil {
			return nil, err
		}
		states := e.States()
		if i < 0 || i >= len(states) {
			return nil, fmt.Errorf("enum index %d out of range", i)
		}
		return states[i], nil
	}
	switch f.Type {
	case types.Integer, types.Timestamp:
		return cast.ToInt64E(v)
	case types.Boolean:
		if n, ok := v.(json.Number); ok {
			i, err := n.Int64()
			if err != nil {
				return nil, err
			}
			return i != 0, nil
		}
		return cast.ToBoolE(v)
	case types.String, types.Text:
		return cast.ToStringE(v)
	}
	return v, nil
}

func fieldNames(fields []types.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

type jsonlLine struct {
	num  int
	data json.RawMessage
}

// readJSONL returns each non-empty, well-formed line of path with its
// 1-based line number.
func readJSONL(path string) ([]jsonlLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []jsonlLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for num := 1; scanner.Scan(); num++ {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		lines = append(lines, jsonlLine{num: num, data: slices.Clone(line)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return lines, nil
}

// writeJSONL replaces path with lines using a temp file, fsync and rename.
func writeJSONL(path string, lines []json.RawMessage) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err = w.Write(line); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
		if err = w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
