package session

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Gate decides whether a login attempt may open a session: the email must be
// on the allow-list and the password must match the configured secret.
type Gate struct {
	emails       map[string]bool
	password     string
	passwordHash []byte
}

// NewGate builds a Gate from a comma-separated email allow-list, a plain
// password and an optional bcrypt hash. When the hash is set it is used
// instead of the plain password.
func NewGate(emails, password, bcryptHash string) *Gate {
	g := &Gate{emails: make(map[string]bool), password: password}
	for _, e := range strings.Split(emails, ",") {
		if e = normalizeEmail(e); e != "" {
			g.emails[e] = true
		}
	}
	if bcryptHash != "" {
		g.passwordHash = []byte(bcryptHash)
	}
	return g
}

// EmailAllowed reports whether email is on the allow-list. An empty
// allow-list admits nobody.
func (g *Gate) EmailAllowed(email string) bool {
	return g.emails[normalizeEmail(email)]
}

// PasswordValid reports whether password matches. An unset password admits
// nobody.
func (g *Gate) PasswordValid(password string) bool {
	if g.passwordHash != nil {
		return bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)) == nil
	}
	if g.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
}

// Check combines EmailAllowed and PasswordValid.
func (g *Gate) Check(email, password string) bool {
	emailOK := g.EmailAllowed(email)
	passwordOK := g.PasswordValid(password)
	return emailOK && passwordOK
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
