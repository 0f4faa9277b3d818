package handlers

import (
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/github"
)

type githubPushRequest struct {
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
	Token     string `json:"token"`
	Owner     string `json:"owner"`
	RepoName  string `json:"repoName"`
	CommitMsg string `json:"commitMessage"`
}

// GithubPush handles POST /github/push: pushes a saved project's files to
// a GitHub repository owned by the caller.
func (a *App) GithubPush(w http.ResponseWriter, r *http.Request) {
	var req githubPushRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		a.error(w, http.StatusBadRequest, "projectId is required")
		return
	}
	if err := github.ValidateToken(req.Token); err != nil {
		a.fail(w, err)
		return
	}

	p, err := a.Projects.GetByID(r.Context(), req.ProjectID)
	if err != nil {
		a.fail(w, err)
		return
	}
	if req.UserID == "" || p.UserID != req.UserID {
		a.fail(w, domain.ErrForbidden)
		return
	}

	result, err := a.Pusher.Push(r.Context(), github.PushRequest{
		Token:     req.Token,
		Owner:     req.Owner,
		RepoName:  req.RepoName,
		Files:     p.Files,
		CommitMsg: req.CommitMsg,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "repoUrl": result.RepoURL})
}
