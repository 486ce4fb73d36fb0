package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sipocalypse/api/internal/config"
	"github.com/sipocalypse/api/internal/store"
)

// SetupReport is the response for GET /api/admin/setup-check.
type SetupReport struct {
	OK               bool         `json:"ok"`
	MissingEnvVars   []string     `json:"missingEnvVars"`
	SheetsConfigured bool         `json:"sheetsConfigured"`
	SheetsAccess     AccessResult `json:"sheetsAccess"`
}

type AccessResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CheckSetup reports missing settings and whether repo can reach its tables.
// repo may be nil when the store is not configured.
func CheckSetup(ctx context.Context, cfg *config.Config, repo *store.Repository) SetupReport {
	rep := SetupReport{
		MissingEnvVars:   cfg.MissingEnvVars(),
		SheetsConfigured: cfg.SheetsConfigured(),
		SheetsAccess:     AccessResult{Error: "Not configured"},
	}
	if repo != nil {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := repo.Ping(ctx); err != nil {
			rep.SheetsAccess = AccessResult{Error: err.Error()}
		} else {
			rep.SheetsAccess = AccessResult{OK: true}
		}
	}
	rep.OK = len(rep.MissingEnvVars) == 0 && rep.SheetsAccess.OK
	return rep
}

func handleSetupCheck(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CheckSetup(r.Context(), deps.Config, deps.Store))
	}
}
