package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sipocalypse/api/internal/session"
)

// AdminLoginRequest is the request body for POST /api/admin/login.
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse is the response for POST /api/admin/login.
type AdminLoginResponse struct {
	OK    bool   `json:"ok"`
	Email string `json:"email"`
}

// AdminSessionResponse is the response for GET /api/admin/session.
type AdminSessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}

// OKResponse acknowledges a request without a payload.
type OKResponse struct {
	OK bool `json:"ok"`
}

func handleAdminLogin(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Email and password are required.")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "Email and password are required.")
			return
		}

		if !deps.Gate.Check(req.Email, req.Password) {
			logger.Warn("admin login rejected", "remote_addr", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}

		token, err := deps.Sessions.Issue(req.Email)
		if err != nil {
			logger.Error("issuing session token", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to create session.")
			return
		}

		http.SetCookie(w, session.Cookie(token, deps.Config.Production()))
		writeJSON(w, http.StatusOK, AdminLoginResponse{OK: true, Email: req.Email})
	}
}

func handleAdminSession(codec *session.Codec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := codec.FromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusOK, AdminSessionResponse{Authenticated: false})
			return
		}
		writeJSON(w, http.StatusOK, AdminSessionResponse{Authenticated: true, Email: sess.Email})
	}
}

func handleAdminLogout(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, session.ClearCookie(deps.Config.Production()))
		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}
