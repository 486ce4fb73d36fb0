// Package promo turns a stored daily winner into promotional material: a
// tarot-style winner card and a social post.
package promo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sipocalypse/api/internal/ai"
	"github.com/sipocalypse/api/internal/sipocalypse"
	"github.com/sipocalypse/api/internal/social"
)

var (
	ErrNoWinner            = errors.New("promo: no winner for date")
	ErrImagesNotConfigured = errors.New("promo: image generation is not configured")
	ErrPosterNotConfigured = errors.New("promo: social posting is not configured")
)

// UpdateError means the winner row could not be updated after the image or
// post succeeded.
type UpdateError struct {
	Err error
}

func (e *UpdateError) Error() string { return "Failed to update winner: " + e.Err.Error() }

func (e *UpdateError) Unwrap() error { return e.Err }

type Store interface {
	WinnerByDate(ctx context.Context, date string) (sipocalypse.Winner, bool, error)
	GameByID(ctx context.Context, gameID string) (sipocalypse.Game, bool, error)
	UpdateWinner(ctx context.Context, date string, patch sipocalypse.WinnerPatch) error
}

type Service struct {
	store  Store
	images ai.ImageGenerator
	poster social.Poster
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the workflows. images and poster may be nil; the matching
// operation then fails with a not-configured error.
func NewService(store Store, images ai.ImageGenerator, poster social.Poster, logger *slog.Logger) *Service {
	return &Service{store: store, images: images, poster: poster, logger: logger, now: time.Now}
}

type ImageResult struct {
	Date     string             `json:"date"`
	Winner   sipocalypse.Winner `json:"winner"`
	ImageURL string             `json:"imageUrl"`
	Model    string             `json:"model"`
	Note     string             `json:"note"`
}

// GenerateWinnerImage renders the winner card of date and records the prompt,
// the hosted image URL and the image_generated status on the winner row.
// Inline images are returned as a data URL but not stored.
func (s *Service) GenerateWinnerImage(ctx context.Context, date string) (ImageResult, error) {
	if s.images == nil {
		return ImageResult{}, ErrImagesNotConfigured
	}

	winner, ok, err := s.store.WinnerByDate(ctx, date)
	if err != nil {
		return ImageResult{}, err
	}
	if !ok {
		return ImageResult{}, ErrNoWinner
	}

	game, found, err := s.store.GameByID(ctx, winner.GameID)
	if err != nil {
		return ImageResult{}, err
	}
	gameName := winner.Activity
	var rules []string
	if found {
		rules = game.Rules
		if game.GameName != "" {
			gameName = game.GameName
		}
	}
	prompt := TarotPrompt(gameName, winner.Activity, rules)

	img, err := s.images.GenerateImage(ctx, prompt)
	if err != nil {
		return ImageResult{}, err
	}

	status := sipocalypse.WinnerStatusImageGenerated
	err = s.store.UpdateWinner(ctx, date, sipocalypse.WinnerPatch{
		Status:      &status,
		ImagePrompt: &prompt,
		ImageURL:    &img.URL,
	})
	if err != nil {
		return ImageResult{}, &UpdateError{Err: err}
	}

	resolved := img.Resolved()
	winner.ImagePrompt = prompt
	winner.ImageURL = resolved
	winner.Status = status

	note := "Image returned as base64 data URL; store it for long-term use."
	if img.URL != "" {
		note = "Image URL expires after ~60 minutes unless you store it elsewhere."
	}

	s.logger.Info("winner image generated", "date", date, "game_id", winner.GameID, "hosted", img.URL != "")
	return ImageResult{
		Date:     date,
		Winner:   winner,
		ImageURL: resolved,
		Model:    s.images.ImageModel(),
		Note:     note,
	}, nil
}

// PostWinner publishes the social caption of date, with the stored card when
// there is one, and marks the winner as posted.
func (s *Service) PostWinner(ctx context.Context, date string) (sipocalypse.Winner, error) {
	if s.poster == nil {
		return sipocalypse.Winner{}, ErrPosterNotConfigured
	}

	winner, ok, err := s.store.WinnerByDate(ctx, date)
	if err != nil {
		return sipocalypse.Winner{}, err
	}
	if !ok {
		return sipocalypse.Winner{}, ErrNoWinner
	}

	if err := s.poster.Post(ctx, winner.SocialCaption, winner.ImageURL); err != nil {
		return sipocalypse.Winner{}, err
	}

	status := sipocalypse.WinnerStatusPosted
	postedAt := s.now().UTC().Format(time.RFC3339)
	if err := s.store.UpdateWinner(ctx, date, sipocalypse.WinnerPatch{Status: &status, PostedAt: &postedAt}); err != nil {
		return sipocalypse.Winner{}, &UpdateError{Err: err}
	}

	winner.Status = status
	winner.PostedAt = postedAt
	s.logger.Info("winner posted", "date", date, "game_id", winner.GameID)
	return winner, nil
}

// TarotPrompt builds the image prompt for a winner card.
func TarotPrompt(gameName, activity string, rules []string) string {
	var nameLine, activityLine string
	if gameName != "" {
		nameLine = "Game Name: " + gameName
	}
	if activity != "" {
		activityLine = "Activity: " + activity
	}
	numbered := make([]string, len(rules))
	for i, r := range rules {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, r)
	}

	return strings.TrimSpace(fmt.Sprintf(tarotTemplate, nameLine, activityLine, strings.Join(numbered, "\n")))
}

const tarotTemplate = `Create a square (1:1) custom tarot card with a bold, bright post-apocalyptic aesthetic using the following colour palette:
- Dark Moss Green: #325B23
- Rich Black: #030615
- Eminence Purple: #532368
- Yellow Green: #87DF16
- Lime: #BEFD0F
- Steel Pink: #D302AE

The design should feature a thin, detailed border inspired by apocalyptic themes, including elements like radioactive symbols, mushroom clouds, cracked warning signs, or chaotic iconography.

Inside the card:
- Leave a wide blank title space at the top of the card.
- If the Game Name is empty or missing, invent a fun, post-apocalyptic drinking game name.
- Otherwise, use the Game Name.
- Below the title space, include a large content area taking up at least 99%% of the card's height (excluding the title space), framed within the border.
- This central area should be mostly blank, dark or lightly textured, allowing legible rule text to be overlaid.
- If the Rules section is empty or missing, invent 3-5 fun, dumb, chaos-themed drinking rules to go with the game name.
- Otherwise, use the Rules provided.

Text formatting:
- Format the rules clearly, neatly, and with perfect spelling.
- Display them as a numbered list, but do not label the section "Rules."
- Prioritise clear, legible typography that fits the aesthetic without sacrificing readability.

The border artwork must never encroach on the main content area.

%s
%s
Rules:
%s`
