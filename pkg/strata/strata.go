// Package strata is the public entry point of the Strata object-relational
// layer. It constructs SQLite-backed models while keeping the engine
// internal.
//
// Example:
//
//	cfg := types.Config{Path: "app.db"}
//	users, err := strata.NewModel(cfg, "users",
//	    types.Field{Name: "name", Type: types.String, Required: true},
//	    types.Field{Name: "status", Type: types.MustEnum("active", "inactive")},
//	)
//	if err != nil {
//	    return err
//	}
//	defer users.Close()
package strata

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mesh-intelligence/strata/internal/sqlite"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Version is the release of the strata module.
const Version = "0.3.0"

// NewModel opens a model over the table name with the given declared fields.
// The table is created if it does not exist.
func NewModel(config types.Config, name string, fields ...types.Field) (types.Model, error) {
	t, err := sqlite.NewTable(config, name, fields...)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ExportJSONL writes every row of m to path, one JSON object per line.
// Returns the number of rows written.
func ExportJSONL(m types.Model, path string) (int, error) {
	return sqlite.ExportJSONL(m, path)
}

// ImportJSONL creates one record of m per line of path.
// Returns the number of rows created.
func ImportJSONL(m types.Model, path string) (int, error) {
	return sqlite.ImportJSONL(m, path)
}

// exitSignals are the signals CloseOnExit reacts to.
var exitSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// exit is swapped out by tests.
var exit = os.Exit

// CloseOnExit closes every closer when the process receives SIGINT, SIGTERM
// or SIGHUP, then exits with status 1. The returned func stops watching.
func CloseOnExit(closers ...io.Closer) (stop func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, exitSignals...)
	done := make(chan struct{})
	go func() {
		select {
		case s := <-sig:
			slog.Info("closing models", "signal", s.String())
			closeAll(closers)
			exit(1)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sig)
		select {
		case <-done:
		default:
			close(done)
		}
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}
