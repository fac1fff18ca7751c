package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// testSchema declares the models the command tests run against.
const testSchema = `models:
  - name: user
    fields:
      - {name: name, type: string, required: true}
      - {name: age, type: integer}
      - {name: admin, type: boolean, default: false}
      - {name: status, type: enum, states: [active, inactive], default: active}
    has_many:
      - {model: post, foreign_key: user_id}
  - name: post
    fields:
      - {name: title, type: string, required: true}
      - {name: user_id, type: integer}
    belongs_to:
      - {model: user, foreign_key: user_id}
`

// CmdResult holds the output of one command run.
type CmdResult struct {
	Stdout string
	Stderr string
	Err    error
}

// TestEnv is an isolated config directory, schema and database.
type TestEnv struct {
	t          *testing.T
	ConfigDir  string
	DBPath     string
	SchemaPath string
}

// NewTestEnv writes testSchema into a fresh temp directory.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	t.Setenv("STRATA_CONFIG_DIR", "")
	t.Setenv("STRATA_DB", "")
	t.Setenv("STRATA_SCHEMA", "")
	t.Setenv("STRATA_LOG_LEVEL", "")

	dir := t.TempDir()
	env := &TestEnv{
		t:          t,
		ConfigDir:  filepath.Join(dir, "config"),
		DBPath:     filepath.Join(dir, "strata.db"),
		SchemaPath: filepath.Join(dir, "schema.yaml"),
	}
	if err := os.WriteFile(env.SchemaPath, []byte(testSchema), 0o644); err != nil {
		t.Fatalf("writing schema: %v", err)
	}
	return env
}

// Run executes the root command with the environment's paths prepended.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{
		"--config-dir", e.ConfigDir,
		"--db", e.DBPath,
		"--schema", e.SchemaPath,
	}, args...))
	err := root.Execute()
	return CmdResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// MustRun executes the command and fails the test on error.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	res := e.Run(args...)
	if res.Err != nil {
		e.t.Fatalf("strata %v: %v\nstderr: %s", args, res.Err, res.Stderr)
	}
	return res
}
