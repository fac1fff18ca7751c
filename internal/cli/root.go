// Package cli implements the strata command-line interface: schema-driven
// record management over a SQLite database.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/internal/paths"
	"github.com/mesh-intelligence/strata/pkg/strata"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	db        string
	schema    string
	logLevel  string
	jsonMode  bool
}

// session is the state PersistentPreRunE resolves for a command.
type session struct {
	configDir  string
	dbPath     string
	schemaPath string
	logger     *slog.Logger
}

// NewRootCmd creates the top-level "strata" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	var (
		flags rootFlags
		s     session
	)
	root := &cobra.Command{
		Use:     "strata",
		Short:   "Manage records of a schema-defined SQLite database",
		Long:    "Strata opens the models declared in a schema file and lists, creates,\nupdates, deletes, exports and imports their records.",
		Version: strata.Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return s.resolve(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flags.db, "db", "", "database file (default: $(CWD)/strata.db)")
	pf.StringVar(&flags.schema, "schema", "", "schema file (default: <config-dir>/schema.yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: warn)")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(&s))
	root.AddCommand(newTablesCmd(&s, &flags))
	root.AddCommand(newListCmd(&s, &flags))
	root.AddCommand(newGetCmd(&s, &flags))
	root.AddCommand(newCreateCmd(&s, &flags))
	root.AddCommand(newSetCmd(&s, &flags))
	root.AddCommand(newDeleteCmd(&s))
	root.AddCommand(newExportCmd(&s))
	root.AddCommand(newImportCmd(&s))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "strata:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to exitUserError when it stems from bad input and
// exitSysError otherwise.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return exitUserError
	}
	for _, target := range []error{
		types.ErrTypeMismatch, types.ErrUnknownField, types.ErrReadOnlyField,
		types.ErrInvalidRecord, types.ErrNotFound, types.ErrUnknownModel,
		types.ErrUncomparableType, types.ErrUnknownOperator, types.ErrInvalidLimit,
		types.ErrIllegalDestroy, types.ErrIllegalMutation,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// usageError marks malformed command-line input.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// resolve loads config.yaml and fixes the paths and logger for the command.
func (s *session) resolve(cmd *cobra.Command, flags rootFlags) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	level := flags.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level)
	if err != nil {
		return err
	}

	dbPath, err := paths.ResolveDBPath(flags.db, cfg.GetString(cfgKeyDB))
	if err != nil {
		return fmt.Errorf("resolve database: %w", err)
	}
	schemaPath, err := paths.ResolveSchemaPath(flags.schema, cfg.GetString(cfgKeySchema), configDir)
	if err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}

	*s = session{configDir: configDir, dbPath: dbPath, schemaPath: schemaPath, logger: logger}
	logger.Debug("session resolved", "config_dir", configDir, "db", dbPath, "schema", schemaPath)
	return nil
}

// open opens every model of the schema against the database.
func (s *session) open() (*strata.Catalog, error) {
	cat, err := strata.OpenSchema(s.schemaPath, types.Config{Path: s.dbPath, Logger: s.logger})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.schemaPath, err)
	}
	return cat, nil
}

// model opens the catalog and returns the named model. The caller must
// close the catalog.
func (s *session) model(name string) (*strata.Catalog, types.Model, error) {
	cat, err := s.open()
	if err != nil {
		return nil, nil, err
	}
	m, err := cat.Model(name)
	if err != nil {
		cat.Close()
		return nil, nil, fmt.Errorf("%w (valid: %s)", err, strings.Join(cat.Names(), ", "))
	}
	return cat, m, nil
}
