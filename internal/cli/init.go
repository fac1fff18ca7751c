package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/strata/pkg/strata"
)

// starterSchema is written to the schema path by init when no schema exists.
var starterSchema = strata.Schema{
	Models: []strata.ModelDef{
		{
			Name: "note",
			Fields: []strata.FieldDef{
				{Name: "title", Type: "string", Required: true},
				{Name: "body", Type: "text"},
				{Name: "status", Type: "enum", States: []string{"draft", "published", "archived"}, Default: "draft"},
			},
		},
	},
}

func newInitCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize strata configuration and database",
		Long:  "Create the configuration directory, write a starter schema if none exists,\nthen create the database tables the schema declares.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeSchemaIfMissing(s.schemaPath); err != nil {
				return fmt.Errorf("write schema: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
			cat, err := s.open()
			if err != nil {
				return err
			}
			names := cat.Names()
			if err := cat.Close(); err != nil {
				return fmt.Errorf("finalize database: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "strata initialized: %s\n", s.dbPath)
			fmt.Fprintf(out, "schema: %s (%d tables)\n", s.schemaPath, len(names))
			return nil
		},
	}
}

// writeSchemaIfMissing writes starterSchema to path unless a file is
// already there.
func writeSchemaIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(&starterSchema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
