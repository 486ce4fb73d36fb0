package leads

import (
	"context"
	"fmt"

	supa "github.com/supabase-community/supabase-go"
)

// Supabase inserts each lead as a row of a Supabase table.
type Supabase struct {
	client *supa.Client
	table  string
}

func NewSupabase(url, key, table string) (*Supabase, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to supabase: %w", err)
	}
	return &Supabase{client: client, table: table}, nil
}

type leadRow struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Activity  string `json:"activity"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

func (s *Supabase) Capture(_ context.Context, l Lead) error {
	_, _, err := s.client.From(s.table).Insert(leadRow{
		ID:        l.ID,
		Email:     l.Email,
		Activity:  l.Activity,
		Source:    l.Source,
		CreatedAt: l.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting lead into supabase: %w", err)
	}
	return nil
}

var _ Sink = (*Supabase)(nil)
