package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sipocalypse/api/internal/ai"
	"github.com/sipocalypse/api/internal/config"
	"github.com/sipocalypse/api/internal/leads"
	"github.com/sipocalypse/api/internal/mail"
	"github.com/sipocalypse/api/internal/rowstore"
	"github.com/sipocalypse/api/internal/session"
	"github.com/sipocalypse/api/internal/sipocalypse"
	"github.com/sipocalypse/api/internal/store"
)

const (
	adminEmail    = "admin@sipocalypse.fun"
	adminPassword = "hunter2"
)

type fakeText struct {
	out  string
	err  error
	reqs []ai.Request
}

func (f *fakeText) Generate(_ context.Context, req ai.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.out, f.err
}

type fakeImages struct {
	img ai.Image
	err error
}

func (f *fakeImages) GenerateImage(context.Context, string) (ai.Image, error) { return f.img, f.err }

func (f *fakeImages) ImageModel() string { return "gpt-image-test" }

type fakePoster struct {
	caption, image string
}

func (f *fakePoster) Post(_ context.Context, caption, imageURL string) error {
	f.caption, f.image = caption, imageURL
	return nil
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSink struct{ err error }

func (f fakeSink) Capture(context.Context, leads.Lead) error { return f.err }

type fakeCounter struct{ n map[string]int64 }

func (f *fakeCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.n == nil {
		f.n = map[string]int64{}
	}
	f.n[key]++
	return f.n[key], nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testConfig() *config.Config {
	return &config.Config{
		Environment:        "development",
		CORSOrigins:        []string{"http://localhost:5173"},
		SiteURL:            "https://sipocalypse.fun",
		AdminEmails:        adminEmail,
		AdminPassword:      adminPassword,
		AdminSessionSecret: "test-secret",
	}
}

// testDeps returns deps over an empty in-memory store.
func testDeps() Deps {
	cfg := testConfig()
	return Deps{
		Config:   cfg,
		Location: time.UTC,
		Store:    store.New(rowstore.NewMemory()),
		Sessions: session.NewCodec(cfg.AdminSessionSecret),
		Gate:     session.NewGate(cfg.AdminEmails, cfg.AdminPassword, ""),
		Metrics:  NewMetrics(),
	}
}

func newTestHandler(deps Deps) http.Handler {
	return New(":0", discard(), deps).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/admin/login", AdminLoginRequest{Email: adminEmail, Password: adminPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func seedGame(t *testing.T, repo *store.Repository, g sipocalypse.Game) {
	t.Helper()
	if err := repo.AppendGame(context.Background(), g); err != nil {
		t.Fatalf("seeding game: %v", err)
	}
}

func TestAdminRoutesRequireStoreBeforeSession(t *testing.T) {
	deps := testDeps()
	deps.Store = nil
	h := newTestHandler(deps)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/games"},
		{http.MethodPost, "/api/admin/daily-run"},
		{http.MethodGet, "/api/admin/winners"},
	} {
		w := do(t, h, tc.method, tc.path, nil)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected 500, got %d", tc.method, tc.path, w.Code)
		}
		if got := decode[ErrorResponse](t, w).Error; got != storeNotConfigured {
			t.Fatalf("%s %s: error = %q", tc.method, tc.path, got)
		}
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	h := newTestHandler(testDeps())

	forged := &http.Cookie{Name: session.CookieName, Value: "e30.AAAA"}
	for _, cookies := range [][]*http.Cookie{nil, {forged}} {
		w := do(t, h, http.MethodGet, "/api/admin/winners", nil, cookies...)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if got := decode[ErrorResponse](t, w).Error; got != "Unauthorized" {
			t.Fatalf("error = %q, want Unauthorized", got)
		}
	}
}

func TestAdminLogin(t *testing.T) {
	h := newTestHandler(testDeps())

	tests := []struct {
		name     string
		body     AdminLoginRequest
		wantCode int
		wantErr  string
	}{
		{"missing password", AdminLoginRequest{Email: adminEmail}, http.StatusBadRequest, "Email and password are required."},
		{"blank email", AdminLoginRequest{Email: "  ", Password: adminPassword}, http.StatusBadRequest, "Email and password are required."},
		{"wrong password", AdminLoginRequest{Email: adminEmail, Password: "nope"}, http.StatusUnauthorized, "Invalid credentials."},
		{"unknown email", AdminLoginRequest{Email: "x@y.z", Password: adminPassword}, http.StatusUnauthorized, "Invalid credentials."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/admin/login", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if got := decode[ErrorResponse](t, w).Error; got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/api/admin/login", AdminLoginRequest{Email: " Admin@Sipocalypse.fun ", Password: adminPassword})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		resp := decode[AdminLoginResponse](t, w)
		if !resp.OK || resp.Email != "Admin@Sipocalypse.fun" {
			t.Fatalf("unexpected response %+v", resp)
		}

		cookies := w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != session.CookieName || !cookies[0].HttpOnly {
			t.Fatalf("unexpected cookies %+v", cookies)
		}
		if cookies[0].Secure {
			t.Fatal("cookie must not be Secure outside production")
		}
	})
}

func TestAdminSessionAndLogout(t *testing.T) {
	h := newTestHandler(testDeps())

	w := do(t, h, http.MethodGet, "/api/admin/session", nil)
	if got := decode[AdminSessionResponse](t, w); got.Authenticated {
		t.Fatalf("expected unauthenticated, got %+v", got)
	}

	cookie := login(t, h)
	w = do(t, h, http.MethodGet, "/api/admin/session", nil, cookie)
	got := decode[AdminSessionResponse](t, w)
	if !got.Authenticated || got.Email != adminEmail {
		t.Fatalf("unexpected session %+v", got)
	}

	w = do(t, h, http.MethodPost, "/api/admin/logout", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	cleared := w.Result().Cookies()
	if len(cleared) != 1 || cleared[0].Value != "" || cleared[0].MaxAge >= 0 {
		t.Fatalf("logout did not clear the cookie: %+v", cleared)
	}
}

func TestLoginRateLimit(t *testing.T) {
	deps := testDeps()
	deps.Limiter = NewRateLimiter(&fakeCounter{}, "login", 2, time.Minute)
	h := newTestHandler(deps)

	body := AdminLoginRequest{Email: adminEmail, Password: "wrong"}
	for i := 0; i < 2; i++ {
		if w := do(t, h, http.MethodPost, "/api/admin/login", body); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}
	w := do(t, h, http.MethodPost, "/api/admin/login", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}

func TestLoginRateLimitIgnoresSourcePort(t *testing.T) {
	deps := testDeps()
	deps.Limiter = NewRateLimiter(&fakeCounter{}, "login", 2, time.Minute)
	h := newTestHandler(deps)

	data, err := json.Marshal(AdminLoginRequest{Email: adminEmail, Password: "wrong"})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	codes := make([]int, 0, 4)
	for port := 40000; port < 40004; port++ {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = fmt.Sprintf("203.0.113.7:%d", port)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	want := []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}

	// Another address has its own window.
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(data))
	req.RemoteAddr = "198.51.100.2:40000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("other client: expected 401, got %d", w.Code)
	}
}

func TestCreateAndListGames(t *testing.T) {
	h := newTestHandler(testDeps())
	cookie := login(t, h)

	w := do(t, h, http.MethodPost, "/api/admin/games", map[string]any{"activity": "  "}, cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/admin/games", map[string]any{
		"activity":   "karaoke",
		"date":       "2025-03-01",
		"chaosLevel": "3",
		"rules":      []any{"Sip on key changes", "", "Chug on high notes"},
		"dares":      []any{"Duet with a stranger"},
		"chaosScore": 140,
	}, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[CreateGameResponse](t, w)
	if !created.OK || !strings.HasPrefix(created.GameID, "game_") {
		t.Fatalf("unexpected response %+v", created)
	}

	w = do(t, h, http.MethodGet, "/api/admin/games?date=2025-03-01", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := decode[GamesResponse](t, w)
	if list.Date != "2025-03-01" || len(list.Games) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
	g := list.Games[0]
	if g.GameID != created.GameID || g.Status != sipocalypse.GameStatusManual {
		t.Fatalf("unexpected game %+v", g)
	}
	if g.ChaosLevel != 3 || g.RuleCount != 2 || g.DareCount != 1 || g.ChaosScore != 100 {
		t.Fatalf("unexpected numbers %+v", g)
	}
}

func TestDailyRun(t *testing.T) {
	deps := testDeps()
	h := newTestHandler(deps)
	cookie := login(t, h)

	const date = "2025-03-01"
	seedGame(t, deps.Store, sipocalypse.Game{
		GameID: "game_late", Date: date, Activity: "bowling", CreatedAt: "2025-03-01T20:00:00.000Z",
		ChaosLevel: 2, Rules: []string{"a", "b"},
	})
	seedGame(t, deps.Store, sipocalypse.Game{
		GameID: "game_karaoke", Date: date, Activity: "karaoke", CreatedAt: "2025-03-01T19:00:00.000Z",
		ChaosLevel: 3, Rules: []string{"a", "b", "c", "d", "e"}, Dares: []string{"a", "b", "c", "d"}, ChaosScore: 80,
	})

	w := do(t, h, http.MethodPost, "/api/admin/daily-run", DailyRunRequest{Date: date}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	first := decode[DailyRunResponse](t, w)
	if first.Skipped || first.Winner.GameID != "game_karaoke" || first.Winner.Score != 100 {
		t.Fatalf("unexpected run %+v", first)
	}
	if len(first.Leaderboard) != 2 || first.Leaderboard[1].GameID != "game_late" {
		t.Fatalf("unexpected leaderboard %+v", first.Leaderboard)
	}
	if first.Winner.Status != sipocalypse.WinnerStatusReadyForCard {
		t.Fatalf("winner status = %q", first.Winner.Status)
	}

	w = do(t, h, http.MethodPost, "/api/admin/daily-run", DailyRunRequest{Date: date}, cookie)
	second := decode[DailyRunResponse](t, w)
	if !second.Skipped || second.Winner.GameID != "game_karaoke" {
		t.Fatalf("rerun should skip, got %+v", second)
	}

	winners, err := deps.Store.Winners(context.Background())
	if err != nil {
		t.Fatalf("reading winners: %v", err)
	}
	if len(winners) != 1 {
		t.Fatalf("expected one winner row, got %d", len(winners))
	}
}

func TestDailyRunNoGames(t *testing.T) {
	deps := testDeps()
	h := newTestHandler(deps)
	cookie := login(t, h)

	w := do(t, h, http.MethodPost, "/api/admin/daily-run", DailyRunRequest{Date: "2025-01-01"}, cookie)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := decode[ErrorResponse](t, w).Error; got != "No games found for 2025-01-01." {
		t.Fatalf("error = %q", got)
	}

	scores, err := deps.Store.DailyScores(context.Background(), "2025-01-01")
	if err != nil || len(scores) != 0 {
		t.Fatalf("expected no score rows, got %d (%v)", len(scores), err)
	}
}

func TestWinnerTodayAndWinners(t *testing.T) {
	deps := testDeps()
	h := newTestHandler(deps)
	cookie := login(t, h)

	w := do(t, h, http.MethodGet, "/api/admin/winner-today?date=2025-03-02", nil, cookie)
	if !strings.Contains(w.Body.String(), `"winner":null`) {
		t.Fatalf("expected null winner, got %s", w.Body.String())
	}

	if err := deps.Store.AppendWinner(context.Background(), sipocalypse.Winner{
		Date: "2025-03-02", GameID: "game_1", Activity: "darts", Score: 42,
	}); err != nil {
		t.Fatalf("seeding winner: %v", err)
	}

	w = do(t, h, http.MethodGet, "/api/admin/winner-today?date=2025-03-02", nil, cookie)
	today := decode[WinnerTodayResponse](t, w)
	if today.Winner == nil || today.Winner.Score != 42 {
		t.Fatalf("unexpected winner %+v", today)
	}

	w = do(t, h, http.MethodGet, "/api/admin/winners", nil, cookie)
	if got := decode[WinnersResponse](t, w); len(got.Winners) != 1 {
		t.Fatalf("expected 1 winner, got %+v", got)
	}
}

func TestGenerateWinnerImage(t *testing.T) {
	deps := testDeps()
	h := newTestHandler(deps)
	cookie := login(t, h)

	w := do(t, h, http.MethodPost, "/api/admin/generate-winner-image", WinnerDateRequest{Date: "2025-03-01"}, cookie)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("without images: expected 500, got %d", w.Code)
	}

	deps.Images = &fakeImages{img: ai.Image{URL: "https://img.example/card.png"}}
	h = newTestHandler(deps)

	w = do(t, h, http.MethodPost, "/api/admin/generate-winner-image", WinnerDateRequest{Date: "2025-03-01"}, cookie)
	if w.Code != http.StatusNotFound {
		t.Fatalf("no winner: expected 404, got %d", w.Code)
	}

	seedGame(t, deps.Store, sipocalypse.Game{GameID: "game_1", Date: "2025-03-01", Activity: "karaoke", Rules: []string{"Sip"}})
	if err := deps.Store.AppendWinner(context.Background(), sipocalypse.Winner{Date: "2025-03-01", GameID: "game_1", Activity: "karaoke", Score: 90}); err != nil {
		t.Fatalf("seeding winner: %v", err)
	}

	w = do(t, h, http.MethodPost, "/api/admin/generate-winner-image", WinnerDateRequest{Date: "2025-03-01"}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[WinnerImageResponse](t, w)
	if !resp.OK || resp.ImageURL != "https://img.example/card.png" || resp.Model != "gpt-image-test" {
		t.Fatalf("unexpected response %+v", resp)
	}

	stored, _, err := deps.Store.WinnerByDate(context.Background(), "2025-03-01")
	if err != nil {
		t.Fatalf("reading winner: %v", err)
	}
	if stored.Status != sipocalypse.WinnerStatusImageGenerated || stored.ImageURL != resp.ImageURL {
		t.Fatalf("winner not updated: %+v", stored)
	}
}

func TestGenerateWinnerImageProviderError(t *testing.T) {
	deps := testDeps()
	deps.Images = &fakeImages{err: &ai.ProviderError{Provider: "OpenAI", StatusCode: 400, Body: "bad prompt"}}
	h := newTestHandler(deps)
	cookie := login(t, h)

	if err := deps.Store.AppendWinner(context.Background(), sipocalypse.Winner{Date: "2025-03-01", GameID: "game_1", Activity: "karaoke"}); err != nil {
		t.Fatalf("seeding winner: %v", err)
	}

	w := do(t, h, http.MethodPost, "/api/admin/generate-winner-image", WinnerDateRequest{Date: "2025-03-01"}, cookie)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	resp := decode[ImageErrorResponse](t, w)
	if resp.Error != "OpenAI image request failed (400)." || resp.Details != "bad prompt" || resp.Model != "gpt-image-test" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPostWinner(t *testing.T) {
	deps := testDeps()
	poster := &fakePoster{}
	deps.Poster = poster
	h := newTestHandler(deps)
	cookie := login(t, h)

	if err := deps.Store.AppendWinner(context.Background(), sipocalypse.Winner{
		Date: "2025-03-01", GameID: "game_1", Activity: "karaoke", SocialCaption: "Winner!", ImageURL: "https://img.example/card.png",
	}); err != nil {
		t.Fatalf("seeding winner: %v", err)
	}

	w := do(t, h, http.MethodPost, "/api/admin/post-winner", WinnerDateRequest{Date: "2025-03-01"}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[PostWinnerResponse](t, w)
	if resp.Winner.Status != sipocalypse.WinnerStatusPosted || resp.Winner.PostedAt == "" {
		t.Fatalf("unexpected winner %+v", resp.Winner)
	}
	if poster.caption != "Winner!" || poster.image != "https://img.example/card.png" {
		t.Fatalf("unexpected post %+v", poster)
	}

	w = do(t, h, http.MethodPost, "/api/admin/post-winner", WinnerDateRequest{Date: "2024-01-01"}, cookie)
	if w.Code != http.StatusNotFound {
		t.Fatalf("no winner: expected 404, got %d", w.Code)
	}
}

func TestGenerateGame(t *testing.T) {
	deps := testDeps()
	text := &fakeText{out: `{"title":"Mic Drop","rules":["1. Sip on key changes","2. Chug on high notes","3. Extra"],"dares":["Duet"]}`}
	deps.Text = text
	h := newTestHandler(deps)

	w := do(t, h, http.MethodPost, "/api/generate-game", map[string]any{"activity": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/generate-game", map[string]any{
		"activity": "karaoke", "chaosLevel": 9, "numberOfRules": 2, "includeDares": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	game := decode[ai.GeneratedGame](t, w)
	if game.Title != "Mic Drop" || len(game.Rules) != 2 || game.Rules[0] != "Sip on key changes" || len(game.Dares) != 1 {
		t.Fatalf("unexpected game %+v", game)
	}

	games, err := deps.Store.GamesByDate(context.Background(), sipocalypse.DateIn(time.Now(), time.UTC))
	if err != nil {
		t.Fatalf("reading games: %v", err)
	}
	if len(games) != 1 || games[0].Status != sipocalypse.GameStatusGenerated || games[0].ChaosLevel != 4 {
		t.Fatalf("generated game not recorded: %+v", games)
	}
}

func TestGenerateGameErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     *fakeText
		wantCode int
		wantErr  string
	}{
		{"provider", &fakeText{err: &ai.ProviderError{Provider: "OpenAI", StatusCode: 429, Body: "slow down"}}, http.StatusBadGateway, "OpenAI request failed (429)."},
		{"no content", &fakeText{err: ai.ErrNoContent}, http.StatusBadGateway, "OpenAI returned no content."},
		{"invalid json", &fakeText{out: "not json"}, http.StatusBadGateway, "OpenAI returned invalid JSON."},
		{"no rules", &fakeText{out: `{"title":"x","rules":[],"dares":[]}`}, http.StatusBadGateway, "No rules were generated."},
		{"unexpected", &fakeText{err: errors.New("boom")}, http.StatusInternalServerError, "Server error while generating game."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := testDeps()
			deps.Text = tt.text
			h := newTestHandler(deps)

			w := do(t, h, http.MethodPost, "/api/generate-game", map[string]any{"activity": "darts"})
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if got := decode[ErrorResponse](t, w).Error; got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestGenerateGameNotConfigured(t *testing.T) {
	h := newTestHandler(testDeps())

	w := do(t, h, http.MethodPost, "/api/generate-game", map[string]any{"activity": "darts"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if got := decode[ErrorResponse](t, w).Error; got != "Missing OPENAI_API_KEY on server." {
		t.Fatalf("error = %q", got)
	}
}

const recipe = `Drink Name: Bunker Buster

Ingredients:
- 2 oz rum
- 1 oz lime

Instructions:
1. Shake
2. Pour

Description: Tastes like the end of the world.`

func TestSendCocktail(t *testing.T) {
	deps := testDeps()
	deps.Text = &fakeText{out: recipe}
	mailer := &fakeMailer{}
	deps.Mailer = mailer
	deps.Leads = []leads.Sink{fakeSink{}}
	h := newTestHandler(deps)

	w := do(t, h, http.MethodPost, "/api/send-cocktail", map[string]any{"activity": "darts", "email": "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got := decode[ErrorResponse](t, w).Error; got != "Valid email is required." {
		t.Fatalf("error = %q", got)
	}

	w = do(t, h, http.MethodPost, "/api/send-cocktail", map[string]any{"activity": "darts", "email": "guest@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[SendCocktailResponse](t, w)
	if !resp.Success || !resp.Sheet.Attempted || !resp.Sheet.Success {
		t.Fatalf("unexpected response %+v", resp)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "guest@example.com" || msg.Subject != `Your Sipocalypse Cocktail for "darts"` {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.HTML, "Bunker Buster") || msg.Text != recipe {
		t.Fatalf("message body missing recipe")
	}
}

func TestSendCocktailLeadFailure(t *testing.T) {
	for _, strict := range []bool{false, true} {
		deps := testDeps()
		deps.Config.LeadStrict = strict
		deps.Text = &fakeText{out: recipe}
		deps.Mailer = &fakeMailer{}
		deps.Leads = []leads.Sink{fakeSink{err: errors.New("sheet down")}}
		h := newTestHandler(deps)

		w := do(t, h, http.MethodPost, "/api/send-cocktail", map[string]any{"activity": "darts", "email": "guest@example.com"})
		resp := decode[SendCocktailResponse](t, w)

		if strict {
			if w.Code != http.StatusBadGateway || resp.Success || resp.Error != "Email sent, but Google Sheet logging failed." {
				t.Fatalf("strict: unexpected %d %+v", w.Code, resp)
			}
		} else if w.Code != http.StatusOK || !resp.Success {
			t.Fatalf("lenient: unexpected %d %+v", w.Code, resp)
		}
		if resp.Sheet.Error == nil || *resp.Sheet.Error != "sheet down" {
			t.Fatalf("sheet error not reported: %+v", resp.Sheet)
		}
	}
}

func TestSendCocktailMailFailure(t *testing.T) {
	deps := testDeps()
	deps.Text = &fakeText{out: recipe}
	deps.Mailer = &fakeMailer{err: &mail.Error{Err: errors.New("domain not verified")}}
	h := newTestHandler(deps)

	w := do(t, h, http.MethodPost, "/api/send-cocktail", map[string]any{"activity": "darts", "email": "guest@example.com"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.Error != "Resend request failed." || resp.Details != "domain not verified" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSetupCheck(t *testing.T) {
	deps := testDeps()
	deps.Store = nil
	h := newTestHandler(deps)

	w := do(t, h, http.MethodGet, "/api/admin/setup-check", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rep := decode[SetupReport](t, w)
	if rep.OK || rep.SheetsConfigured || rep.SheetsAccess.OK || rep.SheetsAccess.Error != "Not configured" {
		t.Fatalf("unexpected report %+v", rep)
	}
	if len(rep.MissingEnvVars) == 0 || rep.MissingEnvVars[0] != "GOOGLE_SHEETS_SPREADSHEET_ID" {
		t.Fatalf("unexpected missing vars %v", rep.MissingEnvVars)
	}

	rep = CheckSetup(context.Background(), testConfig(), store.New(rowstore.NewMemory()))
	if !rep.SheetsAccess.OK {
		t.Fatalf("memory store should be reachable: %+v", rep)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(testDeps())

	do(t, h, http.MethodGet, "/api/admin/session", nil)

	w := do(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `sipocalypse_http_requests_total{method="GET",path="/api/admin/session",status="200"} 1`) {
		t.Fatalf("request counter missing:\n%s", w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(testDeps())

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("Allow-Credentials = %q", got)
	}
}
