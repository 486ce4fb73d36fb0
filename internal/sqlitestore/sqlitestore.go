// Package sqlitestore keeps rowstore tables in SQLite. Each table holds one
// JSON document per row, keyed by field key, so it needs no header mapping.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sipocalypse/api/internal/rowstore"
)

// tables must match the migrations.
var tables = map[string]bool{
	"games":        true,
	"daily_scores": true,
	"winners":      true,
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Read(ctx context.Context, sc rowstore.Schema, keep func(rowstore.Record) bool) ([]rowstore.Record, error) {
	if err := checkTable(sc.Table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM `+sc.Table+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sc.Table, err)
	}
	defer rows.Close()

	out := []rowstore.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", sc.Table, err)
		}
		rec, err := decode(sc, data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s row: %w", sc.Table, err)
		}
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	return out, rows.Err()
}

func (s *Store) Append(ctx context.Context, sc rowstore.Schema, rec rowstore.Record) error {
	if err := checkTable(sc.Table); err != nil {
		return err
	}

	data, err := encode(sc, rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO `+sc.Table+` (data) VALUES (?)`, data)
	if err != nil {
		return fmt.Errorf("appending to %s: %w", sc.Table, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, sc rowstore.Schema, match func(rowstore.Record) bool, patch rowstore.Record) error {
	if err := checkTable(sc.Table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id, data FROM `+sc.Table+` ORDER BY id`)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sc.Table, err)
	}

	var (
		id    int64
		found rowstore.Record
	)
	for rows.Next() {
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			rows.Close()
			return fmt.Errorf("scanning %s: %w", sc.Table, err)
		}
		rec, err := decode(sc, data)
		if err != nil {
			rows.Close()
			return fmt.Errorf("decoding %s row: %w", sc.Table, err)
		}
		if match(rec) {
			found = rec
			break
		}
	}
	rows.Close()
	if found == nil {
		return rowstore.ErrNotFound
	}

	for k, v := range patch {
		found[k] = v
	}
	data, err := encode(sc, found)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE `+sc.Table+` SET data = ? WHERE id = ?`, data, id); err != nil {
		return fmt.Errorf("updating %s: %w", sc.Table, err)
	}
	return tx.Commit()
}

// Ping checks that every table exists and is readable.
func (s *Store) Ping(ctx context.Context, names ...string) error {
	for _, t := range names {
		if err := checkTable(t); err != nil {
			return err
		}
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+t).Scan(&n); err != nil {
			return fmt.Errorf("checking %s: %w", t, err)
		}
	}
	return nil
}

func checkTable(name string) error {
	if !tables[name] {
		return fmt.Errorf("sqlitestore: unknown table %q", name)
	}
	return nil
}

// encode keeps only the schema's fields.
func encode(sc rowstore.Schema, rec rowstore.Record) (string, error) {
	doc := make(map[string]string, len(sc.Fields))
	for _, f := range sc.Fields {
		if v, ok := rec[f.Key]; ok {
			doc[f.Key] = v
		}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding %s row: %w", sc.Table, err)
	}
	return string(b), nil
}

func decode(sc rowstore.Schema, data string) (rowstore.Record, error) {
	var doc map[string]string
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, err
	}
	rec := make(rowstore.Record, len(sc.Fields))
	for _, f := range sc.Fields {
		rec[f.Key] = doc[f.Key]
	}
	return rec, nil
}

var _ rowstore.Backend = (*Store)(nil)
