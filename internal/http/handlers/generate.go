package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"server/internal/builder"
	"server/internal/domain"
	"server/internal/middleware"
)

type generateRequest struct {
	UserID      string `json:"userId"`
	Email       string `json:"userEmail"`
	Prompt      string `json:"prompt"`
	Framework   string `json:"framework"`
	ProjectType string `json:"projectType"`
	Theme       string `json:"theme"`
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
}

// upsellCopy is the localized suffix appended to the limit message for
// free-plan users.
var upsellCopy = map[string]string{
	"en": ". Upgrade to Pro for 20 generations per day.",
	"id": ". Tingkatkan ke Pro untuk 20 generasi per hari.",
	"es": ". Actualiza a Pro para 20 generaciones por dia.",
	"fr": ". Passez a Pro pour 20 generations par jour.",
	"de": ". Upgrade auf Pro fuer 20 Generierungen pro Tag.",
	"pt": ". Atualize para Pro e tenha 20 geracoes por dia.",
	"ja": ". Proにアップグレードすると1日20回生成できます。",
}

// Generate handles POST /generate: quota gate, model generation, persist,
// quota increment.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		a.error(w, http.StatusBadRequest, "userId is required")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "prompt is required")
		return
	}

	ctx := r.Context()

	dec := a.Quota.Check(ctx, req.UserID, req.Email)
	if !dec.Allowed {
		msg := fmt.Sprintf("You have reached your daily generation limit (%d/%d)", dec.Current, dec.Max)
		if dec.Plan.IsFree() {
			locale := middleware.GetLocale(ctx)
			suffix, ok := upsellCopy[locale]
			if !ok {
				suffix = upsellCopy["en"]
			}
			msg += suffix
		}
		a.json(w, http.StatusTooManyRequests, map[string]any{
			"success":      false,
			"error":        msg,
			"limitReached": true,
			"current":      dec.Current,
			"max":          dec.Max,
		})
		return
	}

	// Load the existing project first for the edit flow, so ownership
	// failures do not consume quota.
	var existing *domain.Project
	if req.ProjectID != "" {
		p, err := a.Projects.GetByID(ctx, req.ProjectID)
		if err != nil {
			a.fail(w, err)
			return
		}
		if p.UserID != req.UserID {
			a.fail(w, domain.ErrForbidden)
			return
		}
		existing = p
	}

	// The attempt is approved: it counts against the quota whether or not
	// the model delivers. A failed increment aborts the request before any
	// model call is made.
	if err := a.Quota.Increment(ctx, req.UserID); err != nil {
		a.fail(w, err)
		return
	}

	projectType := domain.ProjectType(req.ProjectType)
	if projectType != domain.ProjectTypeFullstack {
		projectType = domain.ProjectTypeSingle
	}

	buildReq := builder.Request{
		Prompt:      req.Prompt,
		Framework:   req.Framework,
		ProjectType: projectType,
		Theme:       req.Theme,
	}
	if existing != nil {
		buildReq.Existing = existing.Files
	}

	res := a.Builder.Generate(ctx, buildReq)
	if !res.Success {
		a.json(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   res.Message,
		})
		return
	}

	projectID, err := a.saveGeneration(r, req, existing, res)
	if err != nil {
		a.fail(w, err)
		return
	}

	remaining := dec.Remaining - 1
	if remaining < 0 {
		remaining = 0
	}
	payload := map[string]any{
		"success":   true,
		"projectId": projectID,
		"files":     res.Files,
		"remaining": remaining,
	}
	if res.SetupInstructions != "" {
		payload["setupInstructions"] = res.SetupInstructions
	}
	if res.DeploymentGuide != "" {
		payload["deploymentGuide"] = res.DeploymentGuide
	}
	a.json(w, http.StatusOK, payload)
}

func (a *App) saveGeneration(r *http.Request, req generateRequest, existing *domain.Project, res builder.Result) (string, error) {
	ctx := r.Context()

	if existing != nil {
		if err := a.Projects.UpdateFiles(ctx, existing.ID, req.ProjectName, res.Files); err != nil {
			return "", err
		}
		if err := a.Store.WriteProject(existing.ID, res.Files); err != nil {
			return "", err
		}
		return existing.ID, nil
	}

	name := req.ProjectName
	if name == "" {
		name = deriveProjectName(req.Prompt)
	}
	theme := req.Theme
	if theme == "" {
		theme = "default"
	}
	projectType := domain.ProjectType(req.ProjectType)
	if projectType != domain.ProjectTypeFullstack {
		projectType = domain.ProjectTypeSingle
	}

	p := &domain.Project{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		Name:              name,
		Prompt:            req.Prompt,
		Framework:         strings.ToLower(strings.TrimSpace(req.Framework)),
		ProjectType:       projectType,
		Theme:             theme,
		Files:             res.Files,
		SetupInstructions: res.SetupInstructions,
		DeploymentGuide:   res.DeploymentGuide,
		CreatedAt:         time.Now().UTC(),
	}
	if err := a.Projects.Insert(ctx, p); err != nil {
		return "", err
	}
	if err := a.Store.WriteProject(p.ID, res.Files); err != nil {
		return "", err
	}
	return p.ID, nil
}

func deriveProjectName(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 5 {
		words = words[:5]
	}
	name := strings.Join(words, " ")
	if len(name) > 60 {
		name = name[:60]
	}
	if name == "" {
		name = "Untitled project"
	}
	return name
}
