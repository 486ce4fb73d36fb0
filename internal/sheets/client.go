// Package sheets stores rowstore tables in a Google Sheets spreadsheet, one
// sheet per table with a header row in row 1.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/sipocalypse/api/internal/rowstore"
)

const (
	valueInputOption = "USER_ENTERED"
	fullRange        = "A:Z"
)

var ErrNotConfigured = errors.New("sheets: spreadsheet id, client email and private key are required")

type Config struct {
	SpreadsheetID string
	ClientEmail   string
	PrivateKey    string

	// TokenURL and Endpoint override the Google defaults (used by tests).
	TokenURL string
	Endpoint string
	// HTTPClient is the base transport for both the token exchange and the
	// API calls. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

func (c Config) Configured() bool {
	return c.SpreadsheetID != "" && c.ClientEmail != "" && c.PrivateKey != ""
}

type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	base := cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	ts, err := NewTokenSource(cfg.ClientEmail, cfg.PrivateKey, cfg.TokenURL, base)
	if err != nil {
		return nil, err
	}

	authCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(authCtx, ts))}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

// Read fetches the whole table; row 1 is the header row.
func (c *Client) Read(ctx context.Context, s rowstore.Schema, keep func(rowstore.Record) bool) ([]rowstore.Record, error) {
	values, err := c.values(ctx, a1(s.Table, fullRange))
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []rowstore.Record{}, nil
	}

	headers := values[0]
	out := []rowstore.Record{}
	for _, row := range values[1:] {
		rec := s.Project(headers, row)
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Append writes rec as a new row laid out by the current header row. If the
// sheet has no header row yet, the schema defaults are written first.
func (c *Client) Append(ctx context.Context, s rowstore.Schema, rec rowstore.Record) error {
	headers, err := c.headerRow(ctx, s)
	if err != nil {
		return err
	}

	_, err = c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, a1(s.Table, fullRange), &sheetsapi.ValueRange{
			Values: [][]any{toCells(s.Layout(headers, rec))},
		}).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return wrap("append "+s.Table, err)
	}
	return nil
}

// Update scans the table for the first row accepted by match and rewrites only
// the cells named in patch.
func (c *Client) Update(ctx context.Context, s rowstore.Schema, match func(rowstore.Record) bool, patch rowstore.Record) error {
	values, err := c.values(ctx, a1(s.Table, fullRange))
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return rowstore.ErrNotFound
	}

	headers := values[0]
	keys := s.ColumnKeys(headers)
	for i, row := range values[1:] {
		if !match(s.Project(headers, row)) {
			continue
		}

		sheetRow := i + 2
		var data []*sheetsapi.ValueRange
		for col, key := range keys {
			v, ok := patch[key]
			if key == "" || !ok {
				continue
			}
			data = append(data, &sheetsapi.ValueRange{
				Range:  a1(s.Table, fmt.Sprintf("%s%d", ColumnName(col), sheetRow)),
				Values: [][]any{{v}},
			})
		}
		if len(data) == 0 {
			return nil
		}

		_, err := c.svc.Spreadsheets.Values.
			BatchUpdate(c.spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
				ValueInputOption: valueInputOption,
				Data:             data,
			}).
			Context(ctx).
			Do()
		if err != nil {
			return wrap("update "+s.Table, err)
		}
		return nil
	}
	return rowstore.ErrNotFound
}

// Ping reads the header row of each table to prove the credentials and the
// spreadsheet are usable.
func (c *Client) Ping(ctx context.Context, tables ...string) error {
	for _, t := range tables {
		if _, err := c.values(ctx, a1(t, "1:1")); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) headerRow(ctx context.Context, s rowstore.Schema) ([]string, error) {
	current, err := c.values(ctx, a1(s.Table, "1:1"))
	if err != nil {
		return nil, err
	}
	if len(current) > 0 && len(current[0]) > 0 {
		return current[0], nil
	}

	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, a1(s.Table, "A1"), &sheetsapi.ValueRange{
			Values: [][]any{toCells(s.Defaults)},
		}).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrap("write headers "+s.Table, err)
	}
	return s.Defaults, nil
}

func (c *Client) values(ctx context.Context, rng string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, wrap("read "+rng, err)
	}

	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if s, ok := v.(string); ok {
				cells[j] = s
				continue
			}
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out, nil
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func a1(table, rng string) string {
	return table + "!" + rng
}

// ColumnName converts a zero-based column index to A1 letters (0 -> A, 26 -> AA).
func ColumnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

var _ rowstore.Backend = (*Client)(nil)
