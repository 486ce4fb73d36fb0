// Package store maps the games, daily_scores and winners tables onto the
// domain types. Every call re-reads the backing table; nothing is cached.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sipocalypse/api/internal/rowstore"
	"github.com/sipocalypse/api/internal/sipocalypse"
)

// Pinger is implemented by backends that can verify access to their tables.
type Pinger interface {
	Ping(ctx context.Context, tables ...string) error
}

type Repository struct {
	backend rowstore.Backend
	now     func() time.Time
}

func New(backend rowstore.Backend) *Repository {
	return &Repository{backend: backend, now: time.Now}
}

// AppendGame stores g as a new games row. Zero-valued GameName, CreatedAt and
// Status are filled in; RuleCount always reflects len(g.Rules).
func (r *Repository) AppendGame(ctx context.Context, g sipocalypse.Game) error {
	if g.GameName == "" {
		g.GameName = g.Activity
	}
	if g.CreatedAt == "" {
		g.CreatedAt = sipocalypse.Timestamp(r.now())
	}
	if g.Status == "" {
		g.Status = sipocalypse.GameStatusGenerated
	}

	err := r.backend.Append(ctx, GamesSchema, rowstore.Record{
		"gameId":     g.GameID,
		"date":       g.Date,
		"createdAt":  g.CreatedAt,
		"activity":   g.Activity,
		"gameName":   g.GameName,
		"chaosLevel": strconv.Itoa(g.ChaosLevel),
		"ruleCount":  strconv.Itoa(len(g.Rules)),
		"dareCount":  strconv.Itoa(len(g.Dares)),
		"rulesJson":  rowstore.EncodeList(g.Rules),
		"daresJson":  rowstore.EncodeList(g.Dares),
		"chaosScore": rowstore.FormatNumber(g.ChaosScore),
		"status":     string(g.Status),
	})
	if err != nil {
		return fmt.Errorf("appending game: %w", err)
	}
	return nil
}

// GamesByDate returns the games of date in store order.
func (r *Repository) GamesByDate(ctx context.Context, date string) ([]sipocalypse.Game, error) {
	recs, err := r.backend.Read(ctx, GamesSchema, rowstore.FieldEquals("date", date))
	if err != nil {
		return nil, fmt.Errorf("reading games: %w", err)
	}

	games := make([]sipocalypse.Game, 0, len(recs))
	for _, rec := range recs {
		games = append(games, r.decodeGame(rec))
	}
	return games, nil
}

// GameByID returns the first game whose id matches.
func (r *Repository) GameByID(ctx context.Context, gameID string) (sipocalypse.Game, bool, error) {
	recs, err := r.backend.Read(ctx, GamesSchema, rowstore.FieldEquals("gameId", gameID))
	if err != nil {
		return sipocalypse.Game{}, false, fmt.Errorf("reading games: %w", err)
	}
	if len(recs) == 0 {
		return sipocalypse.Game{}, false, nil
	}
	return r.decodeGame(recs[0]), true, nil
}

func (r *Repository) decodeGame(rec rowstore.Record) sipocalypse.Game {
	rules := rowstore.ParseList(rec["rulesJson"])
	dares := rowstore.ParseList(rec["daresJson"])

	g := sipocalypse.Game{
		GameID:     rec["gameId"],
		Date:       rec["date"],
		CreatedAt:  rec["createdAt"],
		Activity:   rec["activity"],
		GameName:   rec["gameName"],
		ChaosLevel: rowstore.IntOr(rec["chaosLevel"], 1),
		RuleCount:  rowstore.IntOr(rec["ruleCount"], len(rules)),
		DareCount:  rowstore.IntOr(rec["dareCount"], len(dares)),
		Rules:      rules,
		Dares:      dares,
		ChaosScore: rowstore.NumberOr(rec["chaosScore"], 0),
		Status:     sipocalypse.GameStatus(rec["status"]),
	}
	if g.GameID == "" {
		g.GameID = sipocalypse.NewGameID()
	}
	if g.CreatedAt == "" {
		g.CreatedAt = sipocalypse.Timestamp(r.now())
	}
	if g.GameName == "" {
		g.GameName = g.Activity
	}
	if g.Status == "" {
		g.Status = sipocalypse.GameStatusGenerated
	}
	return g
}

// AppendDailyScores appends one row per score, in order.
func (r *Repository) AppendDailyScores(ctx context.Context, scores []sipocalypse.DailyScore) error {
	for _, s := range scores {
		err := r.backend.Append(ctx, DailyScoresSchema, rowstore.Record{
			"date":       s.Date,
			"gameId":     s.GameID,
			"activity":   s.Activity,
			"score":      strconv.Itoa(s.Score),
			"chaosLevel": strconv.Itoa(s.ChaosLevel),
			"ruleCount":  strconv.Itoa(s.RuleCount),
			"dareCount":  strconv.Itoa(s.DareCount),
			"createdAt":  s.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("appending daily score for %s: %w", s.GameID, err)
		}
	}
	return nil
}

// DailyScores returns every stored score row of date.
func (r *Repository) DailyScores(ctx context.Context, date string) ([]sipocalypse.DailyScore, error) {
	recs, err := r.backend.Read(ctx, DailyScoresSchema, rowstore.FieldEquals("date", date))
	if err != nil {
		return nil, fmt.Errorf("reading daily scores: %w", err)
	}
	out := make([]sipocalypse.DailyScore, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sipocalypse.DailyScore{
			Date:       rec["date"],
			GameID:     rec["gameId"],
			Activity:   rec["activity"],
			Score:      rowstore.IntOr(rec["score"], 0),
			ChaosLevel: rowstore.IntOr(rec["chaosLevel"], 1),
			RuleCount:  rowstore.IntOr(rec["ruleCount"], 0),
			DareCount:  rowstore.IntOr(rec["dareCount"], 0),
			CreatedAt:  rec["createdAt"],
		})
	}
	return out, nil
}

// WinnerByDate returns the first winner row of date.
func (r *Repository) WinnerByDate(ctx context.Context, date string) (sipocalypse.Winner, bool, error) {
	recs, err := r.backend.Read(ctx, WinnersSchema, rowstore.FieldEquals("date", date))
	if err != nil {
		return sipocalypse.Winner{}, false, fmt.Errorf("reading winners: %w", err)
	}
	if len(recs) == 0 {
		return sipocalypse.Winner{}, false, nil
	}
	return decodeWinner(recs[0]), true, nil
}

// Winners returns every winner row in store order.
func (r *Repository) Winners(ctx context.Context) ([]sipocalypse.Winner, error) {
	recs, err := r.backend.Read(ctx, WinnersSchema, nil)
	if err != nil {
		return nil, fmt.Errorf("reading winners: %w", err)
	}
	out := make([]sipocalypse.Winner, 0, len(recs))
	for _, rec := range recs {
		out = append(out, decodeWinner(rec))
	}
	return out, nil
}

func decodeWinner(rec rowstore.Record) sipocalypse.Winner {
	w := sipocalypse.Winner{
		Date:          rec["date"],
		GameID:        rec["gameId"],
		Activity:      rec["activity"],
		Score:         rowstore.IntOr(rec["score"], 0),
		Status:        sipocalypse.WinnerStatus(rec["status"]),
		ImagePrompt:   rec["imagePrompt"],
		ImageURL:      rec["imageUrl"],
		SocialCaption: rec["socialCaption"],
		PostedAt:      rec["postedAt"],
		CreatedAt:     rec["createdAt"],
	}
	if w.Status == "" {
		w.Status = sipocalypse.WinnerStatusReadyForCard
	}
	return w
}

func (r *Repository) AppendWinner(ctx context.Context, w sipocalypse.Winner) error {
	if w.Status == "" {
		w.Status = sipocalypse.WinnerStatusReadyForCard
	}
	if w.CreatedAt == "" {
		w.CreatedAt = sipocalypse.Timestamp(r.now())
	}

	err := r.backend.Append(ctx, WinnersSchema, rowstore.Record{
		"date":          w.Date,
		"gameId":        w.GameID,
		"activity":      w.Activity,
		"score":         strconv.Itoa(w.Score),
		"status":        string(w.Status),
		"imagePrompt":   w.ImagePrompt,
		"imageUrl":      w.ImageURL,
		"socialCaption": w.SocialCaption,
		"postedAt":      w.PostedAt,
		"createdAt":     w.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("appending winner: %w", err)
	}
	return nil
}

// UpdateWinner rewrites the patched columns of the winner row of date. It
// returns an error wrapping rowstore.ErrNotFound when no such row exists.
func (r *Repository) UpdateWinner(ctx context.Context, date string, patch sipocalypse.WinnerPatch) error {
	rec := rowstore.Record{}
	if patch.Status != nil {
		rec["status"] = string(*patch.Status)
	}
	if patch.ImagePrompt != nil {
		rec["imagePrompt"] = *patch.ImagePrompt
	}
	if patch.ImageURL != nil {
		rec["imageUrl"] = *patch.ImageURL
	}
	if patch.PostedAt != nil {
		rec["postedAt"] = *patch.PostedAt
	}

	if err := r.backend.Update(ctx, WinnersSchema, rowstore.FieldEquals("date", date), rec); err != nil {
		return fmt.Errorf("updating winner for %s: %w", date, err)
	}
	return nil
}

// Ping verifies that every table is reachable. Backends without a Ping method
// are assumed to be reachable.
func (r *Repository) Ping(ctx context.Context) error {
	p, ok := r.backend.(Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx, Tables...)
}
