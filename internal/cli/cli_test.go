package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/types"
)

func TestVersion(t *testing.T) {
	env := NewTestEnv(t)
	res := env.MustRun("version")
	assert.Equal(t, "strata v0.3.0\nmodule: github.com/mesh-intelligence/strata\n", res.Stdout)
	_, err := os.Stat(env.ConfigDir)
	assert.True(t, os.IsNotExist(err), "version does not touch the config dir")
}

func TestInit(t *testing.T) {
	env := NewTestEnv(t)
	res := env.MustRun("init")
	assert.Contains(t, res.Stdout, "strata initialized: "+env.DBPath)
	assert.Contains(t, res.Stdout, "(2 tables)")

	_, err := os.Stat(env.DBPath)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.ConfigDir, "config.yaml"))
	assert.NoError(t, err, "default config is written on first run")

	env.MustRun("init")
}

func TestInitWritesStarterSchema(t *testing.T) {
	env := NewTestEnv(t)
	env.SchemaPath = filepath.Join(t.TempDir(), "nested", "schema.yaml")

	res := env.MustRun("init")
	assert.Contains(t, res.Stdout, "(1 tables)")
	data, err := os.ReadFile(env.SchemaPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: note")

	env.MustRun("create", "notes", "title=hello")
	res = env.MustRun("get", "notes", "1")
	assert.Contains(t, res.Stdout, "status=draft")
}

func TestTables(t *testing.T) {
	env := NewTestEnv(t)
	res := env.MustRun("tables")
	assert.Equal(t, "users\tname:string age:integer admin:boolean status:enum\nposts\ttitle:string user_id:integer\n", res.Stdout)

	res = env.MustRun("--json", "tables")
	var infos []struct {
		Name   string   `json:"name"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "posts", infos[1].Name)
}

func TestRecordCommands(t *testing.T) {
	env := NewTestEnv(t)

	res := env.MustRun("create", "users", "name=Ada Lovelace", "age=36")
	assert.True(t, strings.HasPrefix(res.Stdout, `id=1 name="Ada Lovelace" age=36 admin=false status=active created=`), res.Stdout)
	env.MustRun("create", "users", "name=Bob", "age=20", "status=inactive")
	env.MustRun("create", "users", "name=Cy", "age=50", "admin=true")

	t.Run("get", func(t *testing.T) {
		res := env.MustRun("--json", "get", "users", "2")
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.Stdout), &got))
		assert.Equal(t, "Bob", got["name"])
		assert.Equal(t, "inactive", got["status"])
		assert.Equal(t, float64(2), got["id"])
	})

	t.Run("list filters", func(t *testing.T) {
		tests := []struct {
			args []string
			want []float64
		}{
			{[]string{}, []float64{1, 2, 3}},
			{[]string{"age>30"}, []float64{1, 3}},
			{[]string{"age>=20", "age<40"}, []float64{1, 2}},
			{[]string{"status=inactive", "or", "admin=true"}, []float64{2, 3}},
			{[]string{"age!=36"}, []float64{2, 3}},
			{[]string{"--last", "2"}, []float64{2, 3}},
			{[]string{"--first", "1"}, []float64{1}},
			{[]string{"age>0", "--limit", "2"}, []float64{1, 2}},
		}
		for _, tt := range tests {
			t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
				res := env.MustRun(append([]string{"--json", "list", "users"}, tt.args...)...)
				var rows []map[string]any
				require.NoError(t, json.Unmarshal([]byte(res.Stdout), &rows))
				ids := make([]float64, len(rows))
				for i, r := range rows {
					ids[i] = r["id"].(float64)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("set", func(t *testing.T) {
		res := env.MustRun("set", "users", "1", "age=37", "status=inactive")
		assert.Contains(t, res.Stdout, "age=37")
		assert.Contains(t, res.Stdout, "status=inactive")

		res = env.MustRun("set", "users", "1", "age=")
		assert.Contains(t, res.Stdout, "age=null")
	})

	t.Run("relations through filters", func(t *testing.T) {
		env.MustRun("create", "posts", "title=hello", "user_id=3")
		res := env.MustRun("list", "posts", "user_id=3")
		assert.Contains(t, res.Stdout, "title=hello")
	})

	t.Run("delete", func(t *testing.T) {
		res := env.MustRun("delete", "users", "2")
		assert.Equal(t, "deleted users 2\n", res.Stdout)
		res = env.Run("get", "users", "2")
		assert.ErrorIs(t, res.Err, types.ErrNotFound)
	})
}

func TestCommandErrors(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("create", "users", "name=Ada")

	tests := []struct {
		name     string
		args     []string
		wantErr  error
		wantCode int
	}{
		{"unknown table", []string{"list", "ghosts"}, types.ErrUnknownModel, exitUserError},
		{"unknown field", []string{"create", "users", "nope=1"}, types.ErrUnknownField, exitUserError},
		{"missing required field", []string{"create", "users", "age=3"}, types.ErrInvalidRecord, exitUserError},
		{"bad enum state", []string{"create", "users", "name=x", "status=gone"}, types.ErrTypeMismatch, exitUserError},
		{"operator on a string", []string{"list", "users", "name>a"}, types.ErrUncomparableType, exitUserError},
		{"missing record", []string{"get", "users", "9"}, types.ErrNotFound, exitUserError},
		{"invalid limit", []string{"list", "users", "--limit=-1"}, types.ErrInvalidLimit, exitUserError},
		{"bad id", []string{"get", "users", "zero"}, nil, exitUserError},
		{"bad integer", []string{"create", "users", "name=x", "age=old"}, nil, exitUserError},
		{"bad filter", []string{"list", "users", "age"}, nil, exitUserError},
		{"empty or group", []string{"list", "users", "or", "age=1"}, nil, exitUserError},
		{"exclusive limits", []string{"list", "users", "--first", "1", "--last", "1"}, nil, exitUserError},
		{"bad log level", []string{"--log-level", "loud", "tables"}, nil, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.Run(tt.args...)
			require.Error(t, res.Err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCode, exitCode(res.Err))
		})
	}

	t.Run("missing schema is a system error", func(t *testing.T) {
		env.SchemaPath = filepath.Join(t.TempDir(), "absent.yaml")
		res := env.Run("tables")
		require.Error(t, res.Err)
		assert.Equal(t, exitSysError, exitCode(res.Err))
	})
}

func TestUnknownTableListsValidNames(t *testing.T) {
	env := NewTestEnv(t)
	res := env.Run("list", "ghosts")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "valid: users, posts")
}

func TestExportImport(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("create", "users", "name=Ada", "status=inactive")
	env.MustRun("create", "users", "name=Bob")

	path := filepath.Join(t.TempDir(), "users.jsonl")
	res := env.MustRun("export", "users", path)
	assert.Equal(t, "exported 2 users records to "+path+"\n", res.Stdout)

	other := NewTestEnv(t)
	res = other.MustRun("import", "users", path)
	assert.Equal(t, "imported 2 users records from "+path+"\n", res.Stdout)

	res = other.MustRun("list", "users", "status=inactive")
	assert.Contains(t, res.Stdout, "name=Ada")
	assert.NotContains(t, res.Stdout, "name=Bob")
}

func TestConfigFileSuppliesPaths(t *testing.T) {
	env := NewTestEnv(t)
	require.NoError(t, os.MkdirAll(env.ConfigDir, 0o755))
	dbPath := filepath.Join(t.TempDir(), "from-config.db")
	cfg := "db: " + dbPath + "\nschema: " + env.SchemaPath + "\nlog_level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.ConfigDir, "config.yaml"), []byte(cfg), 0o644))

	root := NewRootCmd()
	var out strings.Builder
	root.SetOut(&out)
	root.SetErr(&strings.Builder{})
	root.SetArgs([]string{"--config-dir", env.ConfigDir, "init"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "strata initialized: "+dbPath)
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}
