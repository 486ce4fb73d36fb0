package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sipocalypse/api/internal/sipocalypse"
)

// Webhook posts each lead as JSON to a spreadsheet script endpoint.
type Webhook struct {
	url    string
	secret string
	client *http.Client
}

func NewWebhook(url, secret string, client *http.Client) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: url, secret: secret, client: client}
}

type webhookPayload struct {
	Secret    string `json:"secret"`
	Timestamp string `json:"timestamp"`
	Email     string `json:"email"`
	Activity  string `json:"activity"`
	Source    string `json:"source"`
}

func (w *Webhook) Capture(ctx context.Context, l Lead) error {
	body, err := json.Marshal(webhookPayload{
		Secret:    w.secret,
		Timestamp: sipocalypse.Timestamp(l.CreatedAt),
		Email:     l.Email,
		Activity:  l.Activity,
		Source:    l.Source,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("Google Sheet webhook failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return errors.New(strings.TrimSpace(fmt.Sprintf("Google Sheet webhook failed (%d) %s", resp.StatusCode, details)))
	}
	return nil
}

var _ Sink = (*Webhook)(nil)
