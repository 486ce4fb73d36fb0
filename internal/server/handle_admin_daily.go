package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sipocalypse/api/internal/daily"
	"github.com/sipocalypse/api/internal/sipocalypse"
)

// DailyRunRequest is the request body for POST /api/admin/daily-run.
type DailyRunRequest struct {
	Date  string `json:"date"`
	Force bool   `json:"force"`
}

// DailyRunResponse is the response for POST /api/admin/daily-run.
type DailyRunResponse struct {
	OK          bool               `json:"ok"`
	Date        string             `json:"date"`
	Winner      sipocalypse.Winner `json:"winner"`
	Skipped     bool               `json:"skipped,omitempty"`
	Leaderboard []daily.Entry      `json:"leaderboard,omitempty"`
}

// WinnerTodayResponse is the response for GET /api/admin/winner-today.
// Winner is null when the date has no winner yet.
type WinnerTodayResponse struct {
	Date   string              `json:"date"`
	Winner *sipocalypse.Winner `json:"winner"`
}

// WinnersResponse is the response for GET /api/admin/winners.
type WinnersResponse struct {
	Winners []sipocalypse.Winner `json:"winners"`
}

func handleDailyRun(logger *slog.Logger, deps Deps, orch *daily.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DailyRunRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		date := dateOrToday(req.Date, deps.Location)

		res, err := orch.Run(r.Context(), date, req.Force)
		switch {
		case errors.Is(err, daily.ErrNoGames):
			deps.Metrics.dailyRun("failed")
			writeError(w, http.StatusNotFound, fmt.Sprintf("No games found for %s.", date))
			return
		case err != nil:
			deps.Metrics.dailyRun("failed")
			logger.Error("daily run failed", "date", date, "error", err)
			details := err.Error()
			var jobErr *daily.JobError
			if errors.As(err, &jobErr) {
				details = jobErr.Err.Error()
			}
			writeErrorDetails(w, http.StatusInternalServerError, "Daily scoring job failed.", details)
			return
		}

		if res.Skipped {
			deps.Metrics.dailyRun("skipped")
		} else {
			deps.Metrics.dailyRun("completed")
			logger.Info("daily run triggered", "date", date, "force", req.Force, "admin", adminFrom(r).Email)
		}
		writeJSON(w, http.StatusOK, DailyRunResponse{
			OK:          true,
			Date:        res.Date,
			Winner:      res.Winner,
			Skipped:     res.Skipped,
			Leaderboard: res.Leaderboard,
		})
	}
}

func handleWinnerToday(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := dateOrToday(r.URL.Query().Get("date"), deps.Location)

		winner, ok, err := deps.Store.WinnerByDate(r.Context(), date)
		if err != nil {
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to load winner from Google Sheets.", err.Error())
			return
		}

		resp := WinnerTodayResponse{Date: date}
		if ok {
			resp.Winner = &winner
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleWinners(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		winners, err := deps.Store.Winners(r.Context())
		if err != nil {
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to load winners from Google Sheets.", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, WinnersResponse{Winners: winners})
	}
}
