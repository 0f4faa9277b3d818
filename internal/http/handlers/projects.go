package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/pkg/zip"
)

type projectResponse struct {
	ID                string               `json:"id"`
	UserID            string               `json:"userId"`
	Name              string               `json:"name"`
	Prompt            string               `json:"prompt"`
	Framework         string               `json:"framework"`
	ProjectType       domain.ProjectType   `json:"projectType"`
	Theme             string               `json:"theme"`
	Files             []domain.ProjectFile `json:"files"`
	SetupInstructions string               `json:"setupInstructions,omitempty"`
	DeploymentGuide   string               `json:"deploymentGuide,omitempty"`
	Fixes             []string             `json:"fixes,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	return projectResponse{
		ID:                p.ID,
		UserID:            p.UserID,
		Name:              p.Name,
		Prompt:            p.Prompt,
		Framework:         p.Framework,
		ProjectType:       p.ProjectType,
		Theme:             p.Theme,
		Files:             p.Files,
		SetupInstructions: p.SetupInstructions,
		DeploymentGuide:   p.DeploymentGuide,
		Fixes:             p.Fixes,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ListProjects handles GET /projects/{user_id}.
func (a *App) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	projects, err := a.Projects.ListByUser(r.Context(), userID)
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	a.json(w, http.StatusOK, map[string]any{"projects": out})
}

// GetProject handles GET /project/{project_id}.
func (a *App) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := a.Projects.GetByID(r.Context(), chi.URLParam(r, "project_id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, toProjectResponse(p))
}

type updateProjectRequest struct {
	UserID string               `json:"userId"`
	Name   string               `json:"name"`
	Files  []domain.ProjectFile `json:"files"`
}

// UpdateProject handles PUT /project/{project_id}. Only the owner may
// update; files are optional (rename-only updates).
func (a *App) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "project_id")

	var req updateProjectRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if req.UserID == "" {
		a.error(w, http.StatusBadRequest, "userId is required")
		return
	}

	p, err := a.Projects.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	if p.UserID != req.UserID {
		a.fail(w, domain.ErrForbidden)
		return
	}

	files := req.Files
	if files == nil {
		files = p.Files
	}
	if err := a.Projects.UpdateFiles(r.Context(), id, req.Name, files); err != nil {
		a.fail(w, err)
		return
	}
	if req.Files != nil {
		if err := a.Store.WriteProject(id, files); err != nil {
			a.fail(w, err)
			return
		}
	}
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteProject handles DELETE /project/{project_id}: removes the document
// and its on-disk files.
func (a *App) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "project_id")
	if err := a.Projects.Delete(r.Context(), id); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.Store.RemoveProject(id); err != nil {
		a.Logger.Error().Err(err).Str("project_id", id).Msg("remove project files")
	}
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

// ProjectFiles handles GET /project/{project_id}/files: reads the files
// from disk rather than the database.
func (a *App) ProjectFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "project_id")
	files, err := a.Store.ReadProject(id)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"projectId": id, "files": files})
}

// DownloadProject handles GET /download/{project_id}: a zip attachment of
// the stored project document.
func (a *App) DownloadProject(w http.ResponseWriter, r *http.Request) {
	p, err := a.Projects.GetByID(r.Context(), chi.URLParam(r, "project_id"))
	if err != nil {
		a.fail(w, err)
		return
	}

	entries := make([]zip.Entry, 0, len(p.Files))
	for _, f := range p.Files {
		entries = append(entries, zip.Entry{Path: f.Path, Data: []byte(f.Content)})
	}
	archive, err := zip.Archive(entries)
	if err != nil {
		a.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Name+".zip"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive); err != nil {
		a.Logger.Error().Err(err).Msg("write archive")
	}
}

// FixProject handles POST /fix-project/{project_id}: repairs structural
// gaps in a saved project and persists the result.
func (a *App) FixProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "project_id")
	p, err := a.Projects.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}

	fixed, fixes := a.Fixer.Fix(p.Framework, p.Files)
	if len(fixes) == 0 {
		a.json(w, http.StatusOK, map[string]any{"success": true, "fixes": []string{}})
		return
	}

	allFixes := append(append([]string{}, p.Fixes...), fixes...)
	if err := a.Projects.UpdateFixes(r.Context(), id, fixed, allFixes); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.Store.WriteProject(id, fixed); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "fixes": fixes})
}
