package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

// SimpleCheck handles GET /simple-check/{user_id}: a read-only snapshot
// comparison with no transaction and no window logic. Unknown users read
// as allowed, matching lazy record creation.
func (a *App) SimpleCheck(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	st, err := a.Quota.Status(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusOK, map[string]any{
				"userId":      userID,
				"canGenerate": true,
				"current":     0,
				"max":         domain.FreeDailyGenerations,
				"plan":        domain.UserPlanFree,
			})
			return
		}
		a.fail(w, err)
		return
	}
	rec := st.Record
	a.json(w, http.StatusOK, map[string]any{
		"userId":      userID,
		"canGenerate": st.WindowReset || rec.DailyGenerations < rec.MaxDailyGenerations,
		"current":     rec.DailyGenerations,
		"max":         rec.MaxDailyGenerations,
		"plan":        rec.Plan,
	})
}

// DebugUser handles GET /debug/user/{user_id}: the raw quota record plus
// the gate's view of the window.
func (a *App) DebugUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	st, err := a.Quota.Status(r.Context(), userID)
	if err != nil {
		a.fail(w, err)
		return
	}
	rec := st.Record
	a.json(w, http.StatusOK, map[string]any{
		"userId":              rec.UserID,
		"email":               rec.Email,
		"plan":                rec.Plan,
		"maxDailyGenerations": rec.MaxDailyGenerations,
		"dailyGenerations":    rec.DailyGenerations,
		"firstGenerationDate": rec.FirstGenerationDate,
		"lastGenerationDate":  rec.LastGenerationDate,
		"planExpiry":          rec.PlanExpiry,
		"windowAnchor":        st.Anchor,
		"windowElapsed":       st.WindowReset,
		"remaining":           st.Remaining,
	})
}

// MigrateUsers handles POST /migrate-users: the one-shot window anchor
// backfill. Safe to call repeatedly.
func (a *App) MigrateUsers(w http.ResponseWriter, r *http.Request) {
	n, err := a.Quota.BackfillWindowAnchor(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("migration complete, %d user(s) updated", n),
		"updated": n,
	})
}
