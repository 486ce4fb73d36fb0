package sheets

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	Scope           = "https://www.googleapis.com/auth/spreadsheets"

	assertionLifetime = 3500 * time.Second
	earlyExpiry       = 60 * time.Second
)

// assertionSource exchanges a service-account JWT for an access token. It does
// no caching of its own; NewTokenSource wraps it.
type assertionSource struct {
	email    string
	key      *rsa.PrivateKey
	tokenURL string
	client   *http.Client
	now      func() time.Time
}

// NewTokenSource returns a token source that signs a scoped assertion with the
// service-account key and reuses the resulting access token until 60 seconds
// before it expires. The returned source is safe for concurrent use.
func NewTokenSource(clientEmail, privateKeyPEM, tokenURL string, client *http.Client) (oauth2.TokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(NormalizePrivateKey(privateKeyPEM)))
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	src := &assertionSource{
		email:    clientEmail,
		key:      key,
		tokenURL: tokenURL,
		client:   client,
		now:      time.Now,
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, src, earlyExpiry), nil
}

// NormalizePrivateKey turns literal "\n" sequences (as found in env vars) into
// newlines.
func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

func (s *assertionSource) Token() (*oauth2.Token, error) {
	now := s.now()
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   s.email,
		"scope": Scope,
		"aud":   s.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}).SignedString(s.key)
	if err != nil {
		return nil, &Error{Op: "signing assertion", Err: err}
	}

	resp, err := s.client.PostForm(s.tokenURL, url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	})
	if err != nil {
		return nil, &Error{Op: "token request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Op: "token request", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: "token request", StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	var payload struct {
		AccessToken string  `json:"access_token"`
		TokenType   string  `json:"token_type"`
		ExpiresIn   float64 `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Op: "token request", Err: fmt.Errorf("decoding token response: %w", err)}
	}
	if payload.AccessToken == "" {
		return nil, &Error{Op: "token request", StatusCode: resp.StatusCode, Body: "response carried no access_token"}
	}
	if payload.ExpiresIn <= 0 {
		payload.ExpiresIn = 3600
	}
	if payload.TokenType == "" {
		payload.TokenType = "Bearer"
	}

	return &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		Expiry:      s.now().Add(time.Duration(payload.ExpiresIn * float64(time.Second))),
	}, nil
}
