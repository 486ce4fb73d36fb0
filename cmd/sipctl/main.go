// Command sipctl runs the Sipocalypse admin operations without the HTTP API,
// for cron jobs and operators.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sipocalypse/api/internal/config"
	"github.com/sipocalypse/api/internal/logging"
	"github.com/sipocalypse/api/internal/sheets"
	"github.com/sipocalypse/api/internal/store"
)

var jsonOut bool

var rootCmd = &cobra.Command{
	Use:           "sipctl",
	Short:         "Sipocalypse admin tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of text")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is the configuration shared by every subcommand.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	loc    *time.Location
	repo   *store.Repository
	close  func() error
}

// loadEnv reads the configuration and opens the store. repo is nil when the
// store is not configured and requireStore is false.
func loadEnv(cmd *cobra.Command, requireStore bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger, logCloser := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFile)

	repo, closeStore, err := store.Open(cmd.Context(), store.Options{
		Backend: cfg.StoreBackend,
		Sheets: sheets.Config{
			SpreadsheetID: cfg.SheetsSpreadsheetID,
			ClientEmail:   cfg.SheetsClientEmail,
			PrivateKey:    cfg.SheetsPrivateKey,
		},
		DBPath: cfg.DBPath,
	})
	if err != nil && (requireStore || !errors.Is(err, store.ErrNotConfigured)) {
		logCloser.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		loc:    loc,
		repo:   repo,
		close: func() error {
			return errors.Join(closeStore(), logCloser.Close())
		},
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
