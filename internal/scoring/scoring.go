// Package scoring rates games on a 0-100 scale and ranks them for the daily
// winner.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sipocalypse/api/internal/sipocalypse"
)

// Input holds the game attributes that contribute to a score.
type Input struct {
	Activity   string
	ChaosLevel int
	RuleCount  int
	DareCount  int
	ChaosScore float64
}

func InputOf(g sipocalypse.Game) Input {
	return Input{
		Activity:   g.Activity,
		ChaosLevel: g.ChaosLevel,
		RuleCount:  g.RuleCount,
		DareCount:  g.DareCount,
		ChaosScore: g.ChaosScore,
	}
}

// Score is deterministic: identical inputs always give the same result.
func Score(in Input) int {
	chaos := min(4, max(1, in.ChaosLevel))
	rules := max(0, in.RuleCount)
	dares := max(0, in.DareCount)
	chaosScore := in.ChaosScore
	if math.IsNaN(chaosScore) || chaosScore < 0 {
		chaosScore = 0
	}
	words := len(strings.Fields(in.Activity))

	raw := float64(chaos*18) +
		float64(min(24, rules*3)) +
		float64(min(18, dares*4)) +
		float64(min(12, words*2)) +
		math.Min(16, chaosScore*0.16)

	return min(100, max(0, int(math.Round(raw))))
}

// Ranked is a game with its computed score.
type Ranked struct {
	Game  sipocalypse.Game
	Score int
}

// Rank scores games and orders them by score descending. Ties go to the game
// created first; games whose creation time cannot be parsed sort after those
// that can, in input order.
func Rank(games []sipocalypse.Game) []Ranked {
	out := make([]Ranked, len(games))
	created := make([]time.Time, len(games))
	for i, g := range games {
		out[i] = Ranked{Game: g, Score: Score(InputOf(g))}
	}

	idx := make([]int, len(games))
	for i := range idx {
		idx[i] = i
		created[i] = parseCreatedAt(games[i].CreatedAt)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if out[ia].Score != out[ib].Score {
			return out[ia].Score > out[ib].Score
		}
		ta, tb := created[ia], created[ib]
		if ta.IsZero() || tb.IsZero() {
			return !ta.IsZero() && tb.IsZero()
		}
		return ta.Before(tb)
	})

	sorted := make([]Ranked, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

func parseCreatedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

func WinnerImagePrompt(activity string, score int, date string) string {
	return fmt.Sprintf("Design a bold social media winner card for Sipocalypse. Headline: Apocalypse Winner of the Day. Activity: %s. Score: %d/100. Date: %s. Style: chaotic party vibes, vibrant neon, readable typography, 1:1 format.", activity, score, date)
}

func SocialCaption(activity string, score int, date string) string {
	return fmt.Sprintf("Apocalypse Winner of the Day (%s): %s scored %d/100. Think you can beat this chaos tomorrow? #Sipocalypse #DrinkingGames #PartyGame", date, activity, score)
}
