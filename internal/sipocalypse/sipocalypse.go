// Package sipocalypse defines the core domain types shared by the store,
// the scoring engine and the daily winner job.
package sipocalypse

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type GameStatus string

const (
	GameStatusGenerated GameStatus = "generated"
	GameStatusManual    GameStatus = "manual"
)

type WinnerStatus string

const (
	WinnerStatusReadyForCard   WinnerStatus = "ready_for_card"
	WinnerStatusImageGenerated WinnerStatus = "image_generated"
	WinnerStatusPosted         WinnerStatus = "posted"
)

// Game is one generated (or manually entered) drinking game.
type Game struct {
	GameID     string     `json:"gameId"`
	Date       string     `json:"date"`
	CreatedAt  string     `json:"createdAt"`
	Activity   string     `json:"activity"`
	GameName   string     `json:"gameName"`
	ChaosLevel int        `json:"chaosLevel"`
	RuleCount  int        `json:"ruleCount"`
	DareCount  int        `json:"dareCount"`
	Rules      []string   `json:"rules"`
	Dares      []string   `json:"dares"`
	ChaosScore float64    `json:"chaosScore"`
	Status     GameStatus `json:"status"`
}

// DailyScore is the per-game result of one scoring run.
type DailyScore struct {
	Date       string `json:"date"`
	GameID     string `json:"gameId"`
	Activity   string `json:"activity"`
	Score      int    `json:"score"`
	ChaosLevel int    `json:"chaosLevel"`
	RuleCount  int    `json:"ruleCount"`
	DareCount  int    `json:"dareCount"`
	CreatedAt  string `json:"createdAt"`
}

// Winner is the top-scoring game of a date.
type Winner struct {
	Date          string       `json:"date"`
	GameID        string       `json:"gameId"`
	Activity      string       `json:"activity"`
	Score         int          `json:"score"`
	Status        WinnerStatus `json:"status"`
	ImagePrompt   string       `json:"imagePrompt"`
	ImageURL      string       `json:"imageUrl"`
	SocialCaption string       `json:"socialCaption"`
	PostedAt      string       `json:"postedAt"`
	CreatedAt     string       `json:"createdAt"`
}

// WinnerPatch lists the winner columns to overwrite. Nil fields are left untouched.
type WinnerPatch struct {
	Status      *WinnerStatus
	ImagePrompt *string
	ImageURL    *string
	PostedAt    *string
}

const DateLayout = "2006-01-02"

// DateIn returns the calendar date of t in loc, formatted as YYYY-MM-DD.
func DateIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// Timestamp formats t the way createdAt/postedAt columns are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewGameID returns a fresh, time-ordered game identifier.
func NewGameID() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return "game_" + strings.ToLower(id.String())
}
