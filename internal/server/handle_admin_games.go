package server

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sipocalypse/api/internal/ai"
	"github.com/sipocalypse/api/internal/sipocalypse"
)

// GamesResponse is the response for GET /api/admin/games.
type GamesResponse struct {
	Date  string             `json:"date"`
	Games []sipocalypse.Game `json:"games"`
}

// CreateGameRequest is the request body for POST /api/admin/games. Numeric
// fields accept numbers or numeric strings.
type CreateGameRequest struct {
	Activity   any    `json:"activity"`
	ChaosLevel any    `json:"chaosLevel"`
	Rules      any    `json:"rules"`
	Dares      any    `json:"dares"`
	ChaosScore any    `json:"chaosScore"`
	Date       string `json:"date"`
}

// CreateGameResponse is the response for POST /api/admin/games.
type CreateGameResponse struct {
	OK     bool   `json:"ok"`
	GameID string `json:"gameId"`
}

func handleListGames(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := dateOrToday(r.URL.Query().Get("date"), deps.Location)

		games, err := deps.Store.GamesByDate(r.Context(), date)
		if err != nil {
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to load games from Google Sheets.", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, GamesResponse{Date: date, Games: games})
	}
}

func handleCreateGame(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}

		activity := stringField(req.Activity)
		if err := validate.Var(activity, "required"); err != nil {
			writeError(w, http.StatusBadRequest, "Activity is required.")
			return
		}

		game := sipocalypse.Game{
			GameID:     sipocalypse.NewGameID(),
			Date:       dateOrToday(req.Date, deps.Location),
			Activity:   activity,
			ChaosLevel: ai.ChaosLevel(req.ChaosLevel),
			Rules:      truthyStrings(req.Rules),
			Dares:      truthyStrings(req.Dares),
			ChaosScore: math.Round(min(100, max(0, numberField(req.ChaosScore)))),
			Status:     sipocalypse.GameStatusManual,
		}
		if err := deps.Store.AppendGame(r.Context(), game); err != nil {
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to save game to Google Sheets.", err.Error())
			return
		}

		logger.Info("manual game recorded", "game_id", game.GameID, "date", game.Date, "admin", adminFrom(r).Email)
		writeJSON(w, http.StatusCreated, CreateGameResponse{OK: true, GameID: game.GameID})
	}
}

// dateOrToday returns date, or today's date in loc when date is blank.
func dateOrToday(date string, loc *time.Location) string {
	if date = strings.TrimSpace(date); date != "" {
		return date
	}
	return sipocalypse.DateIn(time.Now(), loc)
}

// stringField returns the trimmed value when v is a JSON string.
func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// numberField converts a JSON number, numeric string or boolean to a float.
// Anything else is 0.
func numberField(v any) float64 {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case bool:
		if t {
			n = 1
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = f
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// truthyStrings keeps the non-empty entries of a JSON array. Non-arrays yield
// an empty list.
func truthyStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case float64:
			if t != 0 {
				out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
			}
		}
	}
	return out
}
