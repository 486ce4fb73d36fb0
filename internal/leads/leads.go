// Package leads records the email addresses collected by the cocktail form.
package leads

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const SourceCocktailForm = "sipocalypse-cocktail-form"

type Lead struct {
	ID        string
	Email     string
	Activity  string
	Source    string
	CreatedAt time.Time
}

// NewLead stamps a lead with a fresh id and the current time.
func NewLead(email, activity string) Lead {
	return Lead{
		ID:        uuid.NewString(),
		Email:     email,
		Activity:  activity,
		Source:    SourceCocktailForm,
		CreatedAt: time.Now().UTC(),
	}
}

type Sink interface {
	Capture(ctx context.Context, l Lead) error
}

// Result reports a capture attempt the way the cocktail endpoint returns it.
type Result struct {
	Attempted bool    `json:"attempted"`
	Success   bool    `json:"success"`
	Error     *string `json:"error"`
}

// CaptureAll hands l to every sink, continuing past failures. Attempted is
// false when there are no sinks.
func CaptureAll(ctx context.Context, sinks []Sink, l Lead) Result {
	res := Result{Attempted: len(sinks) > 0}
	if !res.Attempted {
		return res
	}

	var errs []error
	for _, s := range sinks {
		if err := s.Capture(ctx, l); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		msg := err.Error()
		res.Error = &msg
		return res
	}
	res.Success = true
	return res
}
