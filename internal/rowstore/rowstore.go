// Package rowstore presents flat, header-driven tables as typed records.
//
// A Schema names a table (sheet) and the logical fields it carries. Every
// field accepts a set of header aliases so that hand-edited header rows keep
// mapping onto the same field. Backends never cache the header layout: the
// current header row is resolved on every operation.
package rowstore

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

var ErrNotFound = errors.New("rowstore: no matching row")

// Field is a logical column and the header names accepted for it.
type Field struct {
	Key     string
	Aliases []string
}

// Schema describes one table.
type Schema struct {
	Table string
	// Defaults is the header row written when a table has none.
	Defaults []string
	Fields   []Field
}

// Record maps field keys to cell values. Missing keys read as "".
type Record map[string]string

// Backend is implemented by every storage engine that can hold the tables.
type Backend interface {
	// Read returns the records of s in store order. A nil keep returns all rows.
	Read(ctx context.Context, s Schema, keep func(Record) bool) ([]Record, error)
	// Append adds rec as a new row. Existing rows are never overwritten.
	Append(ctx context.Context, s Schema, rec Record) error
	// Update overwrites the patched fields of the first row accepted by match
	// and leaves every other column alone. It returns ErrNotFound when no row
	// matches.
	Update(ctx context.Context, s Schema, match func(Record) bool, patch Record) error
}

// NormalizeHeader lower-cases h and strips everything that is not a letter
// or digit, so "Game ID", "game_id" and "GAME-id" compare equal.
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AliasIndex maps every normalized alias to its field key.
func (s Schema) AliasIndex() map[string]string {
	idx := make(map[string]string)
	for _, f := range s.Fields {
		for _, a := range f.Aliases {
			idx[NormalizeHeader(a)] = f.Key
		}
	}
	return idx
}

// ColumnKeys resolves a header row into the field key of each column. Columns
// that match no alias get "". When several headers resolve to the same key
// only the first one is used.
func (s Schema) ColumnKeys(headers []string) []string {
	idx := s.AliasIndex()
	seen := make(map[string]bool)
	keys := make([]string, len(headers))
	for i, h := range headers {
		key, ok := idx[NormalizeHeader(h)]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		keys[i] = key
	}
	return keys
}

// Project maps one raw row (cells in header order) into a Record. Cells past
// the end of the row read as "".
func (s Schema) Project(headers []string, row []string) Record {
	keys := s.ColumnKeys(headers)
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		rec[f.Key] = ""
	}
	for i, key := range keys {
		if key == "" {
			continue
		}
		if i < len(row) {
			rec[key] = row[i]
		}
	}
	return rec
}

// Layout builds a row positioned by headers. Columns with no matching field
// are written as "".
func (s Schema) Layout(headers []string, rec Record) []string {
	keys := s.ColumnKeys(headers)
	row := make([]string, len(headers))
	for i, key := range keys {
		if key != "" {
			row[i] = rec[key]
		}
	}
	return row
}

// FieldEquals returns a matcher for records whose field key equals value
// after trimming both sides.
func FieldEquals(key, value string) func(Record) bool {
	want := strings.TrimSpace(value)
	return func(r Record) bool {
		return strings.TrimSpace(r[key]) == want
	}
}
