package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sipocalypse/api/internal/database"
	"github.com/sipocalypse/api/internal/migrations"
	"github.com/sipocalypse/api/internal/rowstore"
	"github.com/sipocalypse/api/internal/sheets"
	"github.com/sipocalypse/api/internal/sqlitestore"
)

const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ErrNotConfigured means the selected backend lacks the settings it needs.
var ErrNotConfigured = errors.New("store: not configured")

type Options struct {
	Backend string
	Sheets  sheets.Config
	DBPath  string
}

// Open builds a Repository over the backend named in opts. The returned close
// function releases the backend and is never nil.
func Open(ctx context.Context, opts Options) (*Repository, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case "", BackendSheets:
		if !opts.Sheets.Configured() {
			return nil, noop, ErrNotConfigured
		}
		c, err := sheets.New(ctx, opts.Sheets)
		if err != nil {
			return nil, noop, fmt.Errorf("opening sheets backend: %w", err)
		}
		return New(c), noop, nil

	case BackendSQLite:
		if opts.DBPath == "" {
			return nil, noop, ErrNotConfigured
		}
		db, err := database.Open(ctx, opts.DBPath)
		if err != nil {
			return nil, noop, err
		}
		if _, err := migrations.Run(ctx, db); err != nil {
			db.Close()
			return nil, noop, err
		}
		return New(sqlitestore.New(db)), db.Close, nil

	case BackendMemory:
		return New(rowstore.NewMemory()), noop, nil
	}
	return nil, noop, fmt.Errorf("store: unknown backend %q", opts.Backend)
}
