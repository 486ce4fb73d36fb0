// Package mail delivers transactional email through Resend.
package mail

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

const DefaultFrom = "Sipocalypse <onboarding@resend.dev>"

var ErrNotConfigured = errors.New("mail: RESEND_API_KEY is not set")

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Error is a failed delivery attempt.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "Resend request failed: " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

type Resend struct {
	client *resend.Client
	from   string
}

// NewResend returns a Resend sender. baseURL may be empty to use the public
// API; httpClient may be nil.
func NewResend(apiKey, from, baseURL string, httpClient *http.Client) (*Resend, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if from == "" {
		from = DefaultFrom
	}

	var client *resend.Client
	if httpClient != nil {
		client = resend.NewCustomClient(httpClient, apiKey)
	} else {
		client = resend.NewClient(apiKey)
	}
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing resend base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Resend{client: client, from: from}, nil
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	_, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	})
	if err != nil {
		return &Error{Err: err}
	}
	return nil
}

//go:embed cocktail.html
var cocktailHTML string

var cocktailTmpl = template.Must(template.New("cocktail").Parse(cocktailHTML))

// Cocktail is the content of the cocktail recipe email.
type Cocktail struct {
	Activity     string
	DrinkName    string
	Ingredients  []string
	Instructions []string
	Description  string
	LogoURL      string
	// Text is the raw recipe, sent as the plain-text part.
	Text string
}

// CocktailMessage renders the recipe email for to.
func CocktailMessage(to string, c Cocktail) (Message, error) {
	var buf bytes.Buffer
	if err := cocktailTmpl.Execute(&buf, c); err != nil {
		return Message{}, fmt.Errorf("rendering cocktail email: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf(`Your Sipocalypse Cocktail for "%s"`, c.Activity),
		Text:    c.Text,
		HTML:    buf.String(),
	}, nil
}

// LogoURL returns the address of the logo served by the site.
func LogoURL(siteURL string) string {
	return strings.TrimSuffix(siteURL, "/") + "/sipocalypse-logo.png"
}
