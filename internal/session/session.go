// Package session issues and validates the signed admin session token carried
// in the admin cookie, and checks login credentials.
//
// A token is base64url(JSON{email, exp}) + "." + base64url(HMAC-SHA256 of the
// encoded payload). exp is in Unix milliseconds. There is no server-side
// session state: logging out only clears the cookie.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	CookieName = "sipocalypse_admin"
	TTL        = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("session: invalid token")

type Session struct {
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
}

// ExpiresAt returns Exp as a time.
func (s Session) ExpiresAt() time.Time {
	return time.UnixMilli(s.Exp)
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), ttl: TTL, now: time.Now}
}

// Issue returns a token for email that expires after the TTL.
func (c *Codec) Issue(email string) (string, error) {
	payload, err := json.Marshal(Session{
		Email: email,
		Exp:   c.now().Add(c.ttl).UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Validate returns the session in token, or ErrInvalidToken when the token is
// malformed, tampered with, incomplete or expired.
func (c *Codec) Validate(token string) (Session, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || sig == "" {
		return Session{}, ErrInvalidToken
	}

	expected := c.sign(encoded)
	if len(sig) != len(expected) || subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) != 1 {
		return Session{}, ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, ErrInvalidToken
	}
	if s.Email == "" || s.Exp == 0 {
		return Session{}, ErrInvalidToken
	}
	if !c.now().Before(s.ExpiresAt()) {
		return Session{}, ErrInvalidToken
	}
	return s, nil
}

func (c *Codec) sign(data string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Cookie wraps token in the admin session cookie.
func Cookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns a cookie that makes the browser drop the session
// (Max-Age=0). A copied token stays valid until it expires.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest validates the session cookie of r.
func (c *Codec) FromRequest(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, ErrInvalidToken
	}
	return c.Validate(cookie.Value)
}
