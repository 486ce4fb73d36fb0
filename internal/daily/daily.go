// Package daily picks and persists the winner of a calendar date.
//
// A run reads the date's games, scores and ranks them, appends one score row
// per game and appends a single winner row. An existing winner short-circuits
// the run unless it is forced. Nothing is locked: two forced runs racing on
// the same date can both append a winner.
package daily

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sipocalypse/api/internal/scoring"
	"github.com/sipocalypse/api/internal/sipocalypse"
)

const leaderboardSize = 5

// ErrNoGames is returned when the date has no games to score. Nothing is
// written in that case.
var ErrNoGames = errors.New("daily: no games found")

// JobError wraps a store failure that aborted a run. Rows written before the
// failure are not rolled back.
type JobError struct {
	Step string
	Err  error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("daily scoring job failed at %s: %v", e.Step, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

type Store interface {
	WinnerByDate(ctx context.Context, date string) (sipocalypse.Winner, bool, error)
	GamesByDate(ctx context.Context, date string) ([]sipocalypse.Game, error)
	AppendDailyScores(ctx context.Context, scores []sipocalypse.DailyScore) error
	AppendWinner(ctx context.Context, w sipocalypse.Winner) error
}

// Entry is one leaderboard line.
type Entry struct {
	GameID   string `json:"gameId"`
	Activity string `json:"activity"`
	Score    int    `json:"score"`
}

type Result struct {
	Date        string             `json:"date"`
	Skipped     bool               `json:"skipped"`
	Winner      sipocalypse.Winner `json:"winner"`
	Leaderboard []Entry            `json:"leaderboard,omitempty"`
}

type Orchestrator struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewOrchestrator(store Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{store: store, logger: logger, now: time.Now}
}

// Run scores date. With force set an existing winner is ignored and a second
// set of score rows and a second winner row are appended.
func (o *Orchestrator) Run(ctx context.Context, date string, force bool) (Result, error) {
	existing, found, err := o.store.WinnerByDate(ctx, date)
	if err != nil {
		return Result{}, &JobError{Step: "winner lookup", Err: err}
	}
	if found && !force {
		o.logger.Info("daily run skipped, winner exists", "date", date, "game_id", existing.GameID)
		return Result{Date: date, Skipped: true, Winner: existing}, nil
	}

	games, err := o.store.GamesByDate(ctx, date)
	if err != nil {
		return Result{}, &JobError{Step: "games lookup", Err: err}
	}
	if len(games) == 0 {
		return Result{}, fmt.Errorf("%w for %s", ErrNoGames, date)
	}

	ranked := scoring.Rank(games)

	scores := make([]sipocalypse.DailyScore, len(ranked))
	for i, r := range ranked {
		scores[i] = sipocalypse.DailyScore{
			Date:       date,
			GameID:     r.Game.GameID,
			Activity:   r.Game.Activity,
			Score:      r.Score,
			ChaosLevel: r.Game.ChaosLevel,
			RuleCount:  r.Game.RuleCount,
			DareCount:  r.Game.DareCount,
			CreatedAt:  r.Game.CreatedAt,
		}
	}
	if err := o.store.AppendDailyScores(ctx, scores); err != nil {
		return Result{}, &JobError{Step: "score append", Err: err}
	}

	top := ranked[0]
	winner := sipocalypse.Winner{
		Date:          date,
		GameID:        top.Game.GameID,
		Activity:      top.Game.Activity,
		Score:         top.Score,
		Status:        sipocalypse.WinnerStatusReadyForCard,
		ImagePrompt:   scoring.WinnerImagePrompt(top.Game.Activity, top.Score, date),
		SocialCaption: scoring.SocialCaption(top.Game.Activity, top.Score, date),
		CreatedAt:     sipocalypse.Timestamp(o.now()),
	}
	if err := o.store.AppendWinner(ctx, winner); err != nil {
		return Result{}, &JobError{Step: "winner append", Err: err}
	}

	board := make([]Entry, 0, leaderboardSize)
	for _, r := range ranked[:min(leaderboardSize, len(ranked))] {
		board = append(board, Entry{GameID: r.Game.GameID, Activity: r.Game.Activity, Score: r.Score})
	}

	o.logger.Info("daily run completed",
		"date", date,
		"games", len(games),
		"game_id", winner.GameID,
		"score", winner.Score,
		"forced", force,
	)
	return Result{Date: date, Winner: winner, Leaderboard: board}, nil
}
