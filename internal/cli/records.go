package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/strata"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func newTablesCmd(s *session, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables the schema declares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := s.open()
			if err != nil {
				return err
			}
			defer cat.Close()

			type tableInfo struct {
				Name   string   `json:"name"`
				Fields []string `json:"fields"`
			}
			var infos []tableInfo
			for _, name := range cat.Names() {
				m, err := cat.Model(name)
				if err != nil {
					return err
				}
				var fields []string
				for _, f := range m.Fields() {
					fields = append(fields, f.Name+":"+f.Type.Name())
				}
				infos = append(infos, tableInfo{Name: name, Fields: fields})
			}

			out := cmd.OutOrStdout()
			if flags.jsonMode {
				data, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal tables: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(out, "%s\t%s\n", info.Name, strings.Join(info.Fields, " "))
			}
			return nil
		},
	}
}

func newListCmd(s *session, flags *rootFlags) *cobra.Command {
	var first, last, limit int
	cmd := &cobra.Command{
		Use:   "list <table> [filter...]",
		Short: "List records with optional filters",
		Long: `List queries records of a table in ascending id order.

Filters are field<op>value terms with op one of =, !=, >, >=, <, <=.
Terms are ANDed; the word "or" starts another group, and groups are ORed.
An empty value matches null.

Example:
  strata list users
  strata list users status=active
  strata list posts user_id=1 or title=Welcome
  strata list users --last 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, n := range []int{first, last, limit} {
				if n != 0 {
					set++
				}
			}
			if set > 1 {
				return usagef("--first, --last and --limit are mutually exclusive")
			}

			cat, m, err := s.model(args[0])
			if err != nil {
				return err
			}
			defer cat.Close()

			groups, err := parseFilters(m, args[1:])
			if err != nil {
				return err
			}
			q := m.Where(types.Criteria{})
			for _, g := range groups {
				q = q.Where(g)
			}
			switch {
			case first != 0:
				q = q.First(first)
			case last != 0:
				q = q.Last(last)
			case limit != 0:
				q = q.Limit(limit)
			}

			rs, err := q.Evaluate()
			if err != nil {
				return err
			}
			recs := make([]types.Record, 0, rs.Len())
			for _, r := range rs.All() {
				recs = append(recs, r)
			}
			return writeRecords(cmd.OutOrStdout(), m, recs, flags.jsonMode)
		},
	}
	cmd.Flags().IntVar(&first, "first", 0, "only the n lowest ids")
	cmd.Flags().IntVar(&last, "last", 0, "only the n highest ids")
	cmd.Flags().IntVar(&limit, "limit", 0, "at most n records")
	return cmd
}

func newGetCmd(s *session, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Get a record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, m, r, err := s.find(args[0], args[1])
			if err != nil {
				return err
			}
			defer cat.Close()
			return writeRecord(cmd.OutOrStdout(), m, r, flags.jsonMode)
		},
	}
}

func newCreateCmd(s *session, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create <table> field=value...",
		Short: "Create a record",
		Long: `Create assigns the given fields to a new record and saves it.

Example:
  strata create users name=Ada status=active
  strata create posts title=Hello user_id=1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, m, err := s.model(args[0])
			if err != nil {
				return err
			}
			defer cat.Close()

			values, err := parseAssignments(m, args[1:])
			if err != nil {
				return err
			}
			r, err := m.Create(values)
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), m, r, flags.jsonMode)
		},
	}
}

func newSetCmd(s *session, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <table> <id> field=value...",
		Short: "Update fields of a record",
		Long: `Set applies the given fields to an existing record in one update.
An empty value sets the field to null.

Example:
  strata set users 1 status=inactive`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, m, r, err := s.find(args[0], args[1])
			if err != nil {
				return err
			}
			defer cat.Close()

			values, err := parseAssignments(m, args[2:])
			if err != nil {
				return err
			}
			err = r.Mutate(func(mu types.Mutator) error {
				for name, v := range values {
					if err := mu.Set(name, v); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), m, r, flags.jsonMode)
		},
	}
}

func newDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, _, r, err := s.find(args[0], args[1])
			if err != nil {
				return err
			}
			defer cat.Close()

			if err := r.Destroy(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %d\n", args[0], r.ID())
			return nil
		},
	}
}

// find opens table and loads the record with the given id. The caller must
// close the catalog.
func (s *session) find(table, rawID string) (*strata.Catalog, types.Model, types.Record, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, nil, nil, err
	}
	cat, m, err := s.model(table)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := m.Find(id)
	if err != nil {
		cat.Close()
		return nil, nil, nil, err
	}
	return cat, m, r, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid id %q (expected a positive integer)", raw)
	}
	return id, nil
}
