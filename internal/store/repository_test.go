package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipocalypse/api/internal/rowstore"
	"github.com/sipocalypse/api/internal/sipocalypse"
)

func newTestRepo() (*Repository, *rowstore.Memory) {
	mem := rowstore.NewMemory()
	r := New(mem)
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r, mem
}

func TestAppendGameRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRepo()

	err := r.AppendGame(ctx, sipocalypse.Game{
		GameID:     "game_1",
		Date:       "2025-03-01",
		Activity:   "karaoke",
		ChaosLevel: 3,
		Rules:      []string{"sip", "chug"},
		Dares:      []string{"sing"},
		ChaosScore: 72.5,
	})
	require.NoError(t, err)

	headers, rows := mem.Raw(TableGames)
	assert.Equal(t, GamesSchema.Defaults, headers)
	require.Len(t, rows, 1)

	games, err := r.GamesByDate(ctx, "2025-03-01")
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "game_1", g.GameID)
	assert.Equal(t, "karaoke", g.GameName, "name defaults to activity")
	assert.Equal(t, "2025-03-01T12:00:00.000Z", g.CreatedAt)
	assert.Equal(t, 3, g.ChaosLevel)
	assert.Equal(t, 2, g.RuleCount)
	assert.Equal(t, 1, g.DareCount, "dare count falls back to len(dares) without a column")
	assert.Equal(t, []string{"sip", "chug"}, g.Rules)
	assert.Equal(t, []string{"sing"}, g.Dares)
	assert.InDelta(t, 72.5, g.ChaosScore, 0.001)
	assert.Equal(t, sipocalypse.GameStatusGenerated, g.Status)
}

func TestGamesByDateDecodeDefaults(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRepo()
	mem.Seed(TableGames,
		[]string{"Date", "Activity", "Rules", "Chaos Level", "Score"},
		[]string{"2025-03-01", "darts", "one | two | three", "", "abc"},
		[]string{"2025-03-02", "bowling", "[]", "2", "10"},
	)

	games, err := r.GamesByDate(ctx, " 2025-03-01 ")
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Contains(t, g.GameID, "game_")
	assert.Equal(t, "darts", g.GameName)
	assert.Equal(t, 1, g.ChaosLevel)
	assert.Equal(t, 3, g.RuleCount)
	assert.Equal(t, 0, g.DareCount)
	assert.Equal(t, float64(0), g.ChaosScore)
	assert.Equal(t, "2025-03-01T12:00:00.000Z", g.CreatedAt)
}

func TestGameByID(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo()
	require.NoError(t, r.AppendGame(ctx, sipocalypse.Game{GameID: "game_a", Date: "2025-03-01", Activity: "a"}))
	require.NoError(t, r.AppendGame(ctx, sipocalypse.Game{GameID: "game_b", Date: "2025-03-01", Activity: "b"}))

	g, ok, err := r.GameByID(ctx, "game_b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", g.Activity)

	_, ok, err = r.GameByID(ctx, "game_missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDailyScores(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo()

	scores := []sipocalypse.DailyScore{
		{Date: "2025-03-01", GameID: "g1", Activity: "a", Score: 90, ChaosLevel: 4, RuleCount: 8, DareCount: 2, CreatedAt: "t"},
		{Date: "2025-03-01", GameID: "g2", Activity: "b", Score: 40, ChaosLevel: 1, RuleCount: 3, CreatedAt: "t"},
	}
	require.NoError(t, r.AppendDailyScores(ctx, scores))

	got, err := r.DailyScores(ctx, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, scores, got)
}

func TestWinnerLifecycle(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo()

	_, ok, err := r.WinnerByDate(ctx, "2025-03-01")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.AppendWinner(ctx, sipocalypse.Winner{
		Date: "2025-03-01", GameID: "g1", Activity: "karaoke", Score: 88, SocialCaption: "caption",
	}))

	w, ok, err := r.WinnerByDate(ctx, "2025-03-01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sipocalypse.WinnerStatusReadyForCard, w.Status)
	assert.Equal(t, 88, w.Score)

	status := sipocalypse.WinnerStatusImageGenerated
	url := "https://img.example/card.png"
	require.NoError(t, r.UpdateWinner(ctx, "2025-03-01", sipocalypse.WinnerPatch{Status: &status, ImageURL: &url}))

	w, _, err = r.WinnerByDate(ctx, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, status, w.Status)
	assert.Equal(t, url, w.ImageURL)
	assert.Equal(t, "caption", w.SocialCaption, "unpatched columns keep their value")

	all, err := r.Winners(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateWinnerNotFound(t *testing.T) {
	r, _ := newTestRepo()
	status := sipocalypse.WinnerStatusPosted
	err := r.UpdateWinner(context.Background(), "2025-03-01", sipocalypse.WinnerPatch{Status: &status})
	assert.ErrorIs(t, err, rowstore.ErrNotFound)
}

func TestOpenMemory(t *testing.T) {
	r, closeFn, err := Open(context.Background(), Options{Backend: BackendMemory})
	require.NoError(t, err)
	defer closeFn()
	assert.NoError(t, r.Ping(context.Background()))
}

func TestOpenSheetsNotConfigured(t *testing.T) {
	_, closeFn, err := Open(context.Background(), Options{Backend: BackendSheets})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, closeFn())
}

func TestOpenUnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), Options{Backend: "csv"})
	assert.Error(t, err)
}
