package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/sipocalypse/api/internal/ai"
)

// ErrorResponse is returned for all error responses. Details carries the
// upstream message when a provider or the store failed.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               []response
}

type response struct {
	status int
	body   any
}

var operations = []operation{
	{
		method: http.MethodPost, path: "/api/generate-game",
		summary:     "Generate a game",
		description: "Generates drinking-game rules and optional dares for an activity.",
		req:         GenerateGameRequest{},
		resp: []response{
			{http.StatusOK, ai.GeneratedGame{}},
			{http.StatusBadRequest, ErrorResponse{}},
			{http.StatusBadGateway, ErrorResponse{}},
		},
	},
	{
		method: http.MethodPost, path: "/api/send-cocktail",
		summary:     "Email a cocktail recipe",
		description: "Generates a cocktail recipe for an activity and emails it. Optionally records the lead.",
		req:         SendCocktailRequest{},
		resp: []response{
			{http.StatusOK, SendCocktailResponse{}},
			{http.StatusBadRequest, ErrorResponse{}},
			{http.StatusBadGateway, SendCocktailResponse{}},
		},
	},
	{
		method: http.MethodPost, path: "/api/admin/login",
		summary:     "Admin login",
		description: "Checks email and password and sets the sipocalypse_admin cookie.",
		req:         AdminLoginRequest{},
		resp: []response{
			{http.StatusOK, AdminLoginResponse{}},
			{http.StatusBadRequest, ErrorResponse{}},
			{http.StatusUnauthorized, ErrorResponse{}},
			{http.StatusTooManyRequests, ErrorResponse{}},
		},
	},
	{
		method: http.MethodGet, path: "/api/admin/session",
		summary:     "Current session",
		description: "Reports whether the request carries a valid admin session.",
		resp:        []response{{http.StatusOK, AdminSessionResponse{}}},
	},
	{
		method: http.MethodPost, path: "/api/admin/logout",
		summary:     "Admin logout",
		description: "Clears the admin session cookie.",
		resp:        []response{{http.StatusOK, OKResponse{}}},
	},
	{
		method: http.MethodGet, path: "/api/admin/setup-check",
		summary:     "Setup check",
		description: "Lists missing settings and verifies access to the store tables.",
		resp:        []response{{http.StatusOK, SetupReport{}}},
	},
	{
		method: http.MethodGet, path: "/api/admin/games",
		summary:     "List games",
		description: "Returns the games of a date (default today). Requires the admin cookie.",
		req:         dateQuery{},
		resp: []response{
			{http.StatusOK, GamesResponse{}},
			{http.StatusUnauthorized, ErrorResponse{}},
		},
	},
	{
		method: http.MethodPost, path: "/api/admin/games",
		summary:     "Record a game",
		description: "Appends a manually entered game. Requires the admin cookie.",
		req:         CreateGameRequest{},
		resp: []response{
			{http.StatusCreated, CreateGameResponse{}},
			{http.StatusBadRequest, ErrorResponse{}},
			{http.StatusUnauthorized, ErrorResponse{}},
		},
	},
	{
		method: http.MethodPost, path: "/api/admin/daily-run",
		summary:     "Run daily scoring",
		description: "Scores the games of a date and records the winner. Skips when a winner exists unless forced.",
		req:         DailyRunRequest{},
		resp: []response{
			{http.StatusOK, DailyRunResponse{}},
			{http.StatusNotFound, ErrorResponse{}},
			{http.StatusUnauthorized, ErrorResponse{}},
			{http.StatusInternalServerError, ErrorResponse{}},
		},
	},
	{
		method: http.MethodPost, path: "/api/admin/generate-winner-image",
		summary:     "Generate winner card",
		description: "Renders the tarot-style card of a date's winner and stores its prompt and URL.",
		req:         WinnerDateRequest{},
		resp: []response{
			{http.StatusOK, WinnerImageResponse{}},
			{http.StatusNotFound, ErrorResponse{}},
			{http.StatusBadGateway, ImageErrorResponse{}},
		},
	},
	{
		method: http.MethodPost, path: "/api/admin/post-winner",
		summary:     "Post winner",
		description: "Posts the winner caption and card to Telegram and marks the winner posted.",
		req:         WinnerDateRequest{},
		resp: []response{
			{http.StatusOK, PostWinnerResponse{}},
			{http.StatusNotFound, ErrorResponse{}},
		},
	},
	{
		method: http.MethodGet, path: "/api/admin/winner-today",
		summary:     "Winner of a date",
		description: "Returns the winner of a date (default today), or null.",
		req:         dateQuery{},
		resp:        []response{{http.StatusOK, WinnerTodayResponse{}}},
	},
	{
		method: http.MethodGet, path: "/api/admin/winners",
		summary:     "All winners",
		description: "Returns every recorded winner in store order.",
		resp:        []response{{http.StatusOK, WinnersResponse{}}},
	},
}

type dateQuery struct {
	Date string `query:"date" description:"YYYY-MM-DD, defaults to today in the configured timezone"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Sipocalypse API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Game generation and daily winner administration for Sipocalypse.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for _, resp := range op.resp {
			oc.AddRespStructure(resp.body, openapi.WithHTTPStatus(resp.status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
