package ai

import (
	"context"
	"regexp"
	"strings"
)

const cocktailSystemPrompt = `You are the unhinged but loveable head bartender at Sipocalypse.
Create a bizarrely brilliant cocktail based on an activity.

You MUST strictly follow this exact output format and line breaks:

Drink Name: [The name of the cocktail]

Ingredients:
[Each ingredient on its own line]

Instructions:
[Each instruction step on its own line]

Description: [One short, punchy one-liner]

Rules:
- No intro text
- No outro text
- No markdown
- No code fences
- Keep ingredients realistic and drinkable`

const (
	defaultDrinkName   = "Custom Chaos Cocktail"
	defaultDescription = "A bunker-approved sip for maximum chaos."
)

type Recipe struct {
	DrinkName    string
	Ingredients  []string
	Instructions []string
	Description  string
}

// GenerateCocktail returns the raw recipe text for activity.
func GenerateCocktail(ctx context.Context, gen TextGenerator, activity string) (string, error) {
	return gen.Generate(ctx, Request{
		System:      cocktailSystemPrompt,
		User:        "The activity is: " + activity,
		Temperature: gameTemperature,
	})
}

var (
	nameRe         = regexp.MustCompile(`(?i)Drink Name:\s*(.+)`)
	ingredientsRe  = regexp.MustCompile(`(?i)Ingredients:\s*\n([\s\S]*?)\n\s*Instructions:`)
	instructionsRe = regexp.MustCompile(`(?i)Instructions:\s*\n([\s\S]*?)\n\s*Description:`)
	descriptionRe  = regexp.MustCompile(`(?i)Description:\s*([\s\S]*)$`)

	bulletRe = regexp.MustCompile(`^\s*[-*]\s*`)
	stepRe   = regexp.MustCompile(`^\s*\d+[).\s-]*`)
)

// ParseRecipe splits recipe text in the bartender format into its sections.
// Missing sections fall back to a default name, empty lists and a default
// description.
func ParseRecipe(text string) Recipe {
	normalized := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))

	r := Recipe{
		DrinkName:   defaultDrinkName,
		Description: defaultDescription,
	}
	if m := nameRe.FindStringSubmatch(normalized); m != nil && strings.TrimSpace(m[1]) != "" {
		r.DrinkName = strings.TrimSpace(m[1])
	}
	if m := descriptionRe.FindStringSubmatch(normalized); m != nil && strings.TrimSpace(m[1]) != "" {
		r.Description = strings.TrimSpace(m[1])
	}

	var ingredients, instructions string
	if m := ingredientsRe.FindStringSubmatch(normalized); m != nil {
		ingredients = m[1]
	}
	if m := instructionsRe.FindStringSubmatch(normalized); m != nil {
		instructions = m[1]
	}
	r.Ingredients = splitLines(ingredients, bulletRe)
	r.Instructions = splitLines(instructions, stepRe)
	return r
}

func splitLines(block string, prefix *regexp.Regexp) []string {
	out := []string{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(prefix.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
