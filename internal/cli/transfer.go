package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/strata"
)

func newExportCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "export <table> <file>",
		Short: "Write every record of a table to a JSONL file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, m, err := s.model(args[0])
			if err != nil {
				return err
			}
			defer cat.Close()

			n, err := strata.ExportJSONL(m, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d %s records to %s\n", n, m.Name(), args[1])
			return nil
		},
	}
}

func newImportCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import <table> <file>",
		Short: "Create records from a JSONL file",
		Long:  "Import creates one record per line of a file written by export.\nIds and timestamps are assigned afresh; malformed lines are skipped.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, m, err := s.model(args[0])
			if err != nil {
				return err
			}
			defer cat.Close()

			n, err := strata.ImportJSONL(m, args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s records from %s\n", n, m.Name(), args[1])
			return err
		},
	}
}
