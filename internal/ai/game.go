package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultRuleCount = 5
	maxRuleCount     = 11
	maxDares         = 5
	gameTemperature  = 0.9
)

var chaosLabels = map[int]string{
	1: "Initial Sips",
	2: "Rising Revelry",
	3: "Pre-Apocalyptic Party",
	4: "Sipocalypse Level Event",
}

const gameSystemPrompt = `You are Rulelord 5000 and Darebrain 9000 for the party game Sipocalypse.
Generate drinking-game rules and optional dares based on user input.

Return ONLY valid JSON with this exact shape:
{
  "title": "string",
  "rules": ["string"],
  "dares": ["string"]
}

Requirements:
- Rules and dares must be directly related to the provided activity.
- Keep rules/dares short, punchy, funny, and easy to follow.
- Keep all content party-safe and non-harmful.
- Match drinking frequency and intensity to chaos level:
  1 = rare triggers,
  2 = moderate,
  3 = frequent,
  4 = mayhem.
- "rules" must contain exactly the requested number of items.
- If includeDares is false, return an empty "dares" array.
- If includeDares is true, return 3 to 5 dares.
- No markdown, no code fences, no extra keys.`

var gameSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "title": {"type": "string"},
    "rules": {"type": "array", "items": {"type": "string"}},
    "dares": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["title", "rules", "dares"]
}`)

var ErrNoRules = errors.New("ai: no rules were generated")

type GameRequest struct {
	Activity      string
	ChaosLevel    int
	NumberOfRules int
	IncludeDares  bool
}

type GeneratedGame struct {
	Title string   `json:"title"`
	Rules []string `json:"rules"`
	Dares []string `json:"dares"`
}

// ChaosLevel converts a loosely typed JSON value to a level in [1, 4].
// Non-numeric input yields 1.
func ChaosLevel(v any) int {
	n, ok := toNumber(v)
	if !ok {
		return 1
	}
	return int(min(4, max(1, math.Round(n))))
}

// RuleCount converts a loosely typed JSON value to a count in [1, 11].
// Missing or non-numeric input yields 5.
func RuleCount(v any) int {
	n, ok := toNumber(v)
	if !ok {
		return defaultRuleCount
	}
	return int(min(maxRuleCount, max(1, math.Round(n))))
}

func toNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case bool:
		if t {
			n = 1
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// GenerateGame asks gen for a game and cleans the result: rules and dares are
// trimmed, stripped of leading numbering and capped; dares are dropped unless
// requested.
func GenerateGame(ctx context.Context, gen TextGenerator, req GameRequest) (GeneratedGame, error) {
	raw, err := gen.Generate(ctx, Request{
		System:      gameSystemPrompt,
		User:        gameUserPrompt(req),
		Temperature: gameTemperature,
		SchemaName:  "sipocalypse_game",
		Schema:      gameSchema,
	})
	if err != nil {
		return GeneratedGame{}, err
	}

	var parsed struct {
		Title any `json:"title"`
		Rules any `json:"rules"`
		Dares any `json:"dares"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return GeneratedGame{}, ErrInvalidJSON
	}

	game := GeneratedGame{
		Title: `Sipocalypse Game for "` + req.Activity + `"`,
		Rules: cleanLines(parsed.Rules),
		Dares: []string{},
	}
	if title, ok := parsed.Title.(string); ok && strings.TrimSpace(title) != "" {
		game.Title = strings.TrimSpace(title)
	}
	if len(game.Rules) > req.NumberOfRules {
		game.Rules = game.Rules[:req.NumberOfRules]
	}
	if req.IncludeDares {
		game.Dares = cleanLines(parsed.Dares)
		if len(game.Dares) > maxDares {
			game.Dares = game.Dares[:maxDares]
		}
	}
	if len(game.Rules) == 0 {
		return GeneratedGame{}, ErrNoRules
	}
	return game, nil
}

func gameUserPrompt(req GameRequest) string {
	dares := "no"
	if req.IncludeDares {
		dares = "yes"
	}
	return fmt.Sprintf("Activity: %s\nChaos Level: %d (%s)\nNumber of Rules: %d\nInclude Dares: %s",
		req.Activity, req.ChaosLevel, chaosLabels[req.ChaosLevel], req.NumberOfRules, dares)
}

var leadingNumber = regexp.MustCompile(`^\s*\d+\.\s*`)

func cleanLines(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(leadingNumber.ReplaceAllString(s, ""))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
