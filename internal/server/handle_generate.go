package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sipocalypse/api/internal/ai"
	"github.com/sipocalypse/api/internal/leads"
	"github.com/sipocalypse/api/internal/mail"
	"github.com/sipocalypse/api/internal/sipocalypse"
)

// GenerateGameRequest is the request body for POST /api/generate-game.
type GenerateGameRequest struct {
	Activity      any `json:"activity"`
	ChaosLevel    any `json:"chaosLevel"`
	NumberOfRules any `json:"numberOfRules"`
	IncludeDares  any `json:"includeDares"`
}

// SendCocktailRequest is the request body for POST /api/send-cocktail.
type SendCocktailRequest struct {
	Activity any `json:"activity"`
	Email    any `json:"email"`
}

// SendCocktailResponse is the response for POST /api/send-cocktail.
type SendCocktailResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Sheet   leads.Result `json:"sheet"`
}

func handleGenerateGame(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Text == nil {
			writeError(w, http.StatusInternalServerError, "Missing OPENAI_API_KEY on server.")
			return
		}

		var req GenerateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		activity := stringField(req.Activity)
		if err := validate.Var(activity, "required"); err != nil {
			writeError(w, http.StatusBadRequest, "Activity is required.")
			return
		}

		gameReq := ai.GameRequest{
			Activity:      activity,
			ChaosLevel:    ai.ChaosLevel(req.ChaosLevel),
			NumberOfRules: ai.RuleCount(req.NumberOfRules),
			IncludeDares:  truthy(req.IncludeDares),
		}
		game, err := ai.GenerateGame(r.Context(), deps.Text, gameReq)
		if err != nil {
			writeTextError(w, logger, err, "OpenAI returned no content.", "Server error while generating game.")
			return
		}
		deps.Metrics.gameGenerated()

		if deps.Store != nil {
			rec := sipocalypse.Game{
				GameID:     sipocalypse.NewGameID(),
				Date:       sipocalypse.DateIn(time.Now(), deps.Location),
				Activity:   activity,
				GameName:   game.Title,
				ChaosLevel: gameReq.ChaosLevel,
				Rules:      game.Rules,
				Dares:      game.Dares,
				Status:     sipocalypse.GameStatusGenerated,
			}
			if err := deps.Store.AppendGame(r.Context(), rec); err != nil {
				logger.Warn("recording generated game", "error", err)
			}
		}

		writeJSON(w, http.StatusOK, game)
	}
}

func handleSendCocktail(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Text == nil {
			writeError(w, http.StatusInternalServerError, "Missing OPENAI_API_KEY on server.")
			return
		}
		if deps.Mailer == nil {
			writeError(w, http.StatusInternalServerError, "Missing RESEND_API_KEY on server.")
			return
		}

		var req SendCocktailRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		activity := stringField(req.Activity)
		email := stringField(req.Email)
		if err := validate.Var(activity, "required"); err != nil {
			writeError(w, http.StatusBadRequest, "Activity is required.")
			return
		}
		if err := validate.Var(email, "required,looseemail"); err != nil {
			writeError(w, http.StatusBadRequest, "Valid email is required.")
			return
		}

		text, err := ai.GenerateCocktail(r.Context(), deps.Text, activity)
		text = strings.TrimSpace(text)
		if err == nil && text == "" {
			err = ai.ErrNoContent
		}
		if err != nil {
			writeTextError(w, logger, err, "Failed to generate cocktail recipe.", "Server error while sending cocktail email.")
			return
		}

		recipe := ai.ParseRecipe(text)
		msg, err := mail.CocktailMessage(email, mail.Cocktail{
			Activity:     activity,
			DrinkName:    recipe.DrinkName,
			Ingredients:  recipe.Ingredients,
			Instructions: recipe.Instructions,
			Description:  recipe.Description,
			LogoURL:      mail.LogoURL(deps.Config.SiteURL),
			Text:         text,
		})
		if err != nil {
			logger.Error("rendering cocktail email", "error", err)
			writeErrorDetails(w, http.StatusInternalServerError, "Server error while sending cocktail email.", err.Error())
			return
		}

		if err := deps.Mailer.Send(r.Context(), msg); err != nil {
			logger.Error("sending cocktail email", "error", err)
			details := err.Error()
			var mailErr *mail.Error
			if errors.As(err, &mailErr) {
				details = mailErr.Err.Error()
			}
			writeErrorDetails(w, http.StatusBadGateway, "Resend request failed.", details)
			return
		}
		deps.Metrics.cocktailSent()

		sheet := leads.CaptureAll(r.Context(), deps.Leads, leads.NewLead(email, activity))
		if sheet.Attempted && !sheet.Success {
			logger.Error("lead capture failed", "error", *sheet.Error)
			if deps.Config.LeadStrict {
				writeJSON(w, http.StatusBadGateway, SendCocktailResponse{
					Success: false,
					Error:   "Email sent, but Google Sheet logging failed.",
					Sheet:   sheet,
				})
				return
			}
		}

		writeJSON(w, http.StatusOK, SendCocktailResponse{Success: true, Sheet: sheet})
	}
}

// writeTextError maps a text generation failure to a 502, or to a 500 with
// fallback as the message when the failure is not the provider's.
func writeTextError(w http.ResponseWriter, logger *slog.Logger, err error, noContent, fallback string) {
	var provErr *ai.ProviderError
	switch {
	case errors.As(err, &provErr):
		logger.Error("text provider request failed", "provider", provErr.Provider, "status", provErr.StatusCode)
		writeErrorDetails(w, http.StatusBadGateway, provErr.Error(), provErr.Details())
	case errors.Is(err, ai.ErrNoContent):
		writeError(w, http.StatusBadGateway, noContent)
	case errors.Is(err, ai.ErrInvalidJSON):
		writeError(w, http.StatusBadGateway, "OpenAI returned invalid JSON.")
	case errors.Is(err, ai.ErrNoRules):
		writeError(w, http.StatusBadGateway, "No rules were generated.")
	default:
		logger.Error("text generation failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

// truthy follows JSON truthiness: false, 0, "" and null are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
