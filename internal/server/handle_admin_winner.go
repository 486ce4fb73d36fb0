package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sipocalypse/api/internal/ai"
	"github.com/sipocalypse/api/internal/promo"
	"github.com/sipocalypse/api/internal/sipocalypse"
	"github.com/sipocalypse/api/internal/social"
)

// WinnerDateRequest is the request body of the winner promotion endpoints.
type WinnerDateRequest struct {
	Date string `json:"date"`
}

// WinnerImageResponse is the response for POST /api/admin/generate-winner-image.
type WinnerImageResponse struct {
	OK bool `json:"ok"`
	promo.ImageResult
}

// PostWinnerResponse is the response for POST /api/admin/post-winner.
type PostWinnerResponse struct {
	OK     bool               `json:"ok"`
	Winner sipocalypse.Winner `json:"winner"`
}

// ImageErrorResponse reports a failed image request with the model used.
type ImageErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Model   string `json:"model,omitempty"`
}

func handleGenerateWinnerImage(logger *slog.Logger, deps Deps, svc *promo.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Images == nil {
			writeError(w, http.StatusInternalServerError, "Missing OPENAI_API_KEY on server.")
			return
		}

		var req WinnerDateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		date := dateOrToday(req.Date, deps.Location)

		res, err := svc.GenerateWinnerImage(r.Context(), date)
		if err != nil {
			var (
				provErr *ai.ProviderError
				updErr  *promo.UpdateError
			)
			switch {
			case errors.Is(err, promo.ErrNoWinner):
				writeError(w, http.StatusNotFound, fmt.Sprintf("No winner found for %s.", date))
			case errors.As(err, &provErr):
				logger.Error("winner image request failed", "date", date, "status", provErr.StatusCode)
				writeJSON(w, http.StatusBadGateway, ImageErrorResponse{
					Error:   fmt.Sprintf("%s image request failed (%d).", provErr.Provider, provErr.StatusCode),
					Details: provErr.Details(),
					Model:   deps.Images.ImageModel(),
				})
			case errors.Is(err, ai.ErrNoImage):
				writeError(w, http.StatusBadGateway, "OpenAI returned no image data.")
			case errors.As(err, &updErr):
				logger.Error("updating winner after image", "date", date, "error", err)
				writeError(w, http.StatusInternalServerError, updErr.Error())
			default:
				logger.Error("generating winner image", "date", date, "error", err)
				writeErrorDetails(w, http.StatusInternalServerError, "Failed to generate winner image.", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, WinnerImageResponse{OK: true, ImageResult: res})
	}
}

func handlePostWinner(logger *slog.Logger, deps Deps, svc *promo.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Poster == nil {
			writeError(w, http.StatusInternalServerError, "Missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID on server.")
			return
		}

		var req WinnerDateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		date := dateOrToday(req.Date, deps.Location)

		winner, err := svc.PostWinner(r.Context(), date)
		if err != nil {
			var updErr *promo.UpdateError
			switch {
			case errors.Is(err, promo.ErrNoWinner):
				writeError(w, http.StatusNotFound, fmt.Sprintf("No winner found for %s.", date))
			case errors.Is(err, social.ErrNotConfigured), errors.Is(err, promo.ErrPosterNotConfigured):
				writeError(w, http.StatusInternalServerError, "Missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID on server.")
			case errors.As(err, &updErr):
				logger.Error("updating winner after post", "date", date, "error", err)
				writeError(w, http.StatusInternalServerError, updErr.Error())
			default:
				logger.Error("posting winner", "date", date, "error", err)
				writeErrorDetails(w, http.StatusBadGateway, "Failed to post winner.", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, PostWinnerResponse{OK: true, Winner: winner})
	}
}
