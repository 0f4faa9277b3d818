package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/builder"
	"server/internal/domain"
	"server/internal/github"
	"server/internal/infra"
	"server/internal/providers/chat"
	"server/internal/quota"
)

// The App's collaborators are narrow interfaces so handler tests can stub
// them without a database or a model behind them.

type quotaGate interface {
	Check(ctx context.Context, userID, email string) quota.Decision
	Increment(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (*quota.Status, error)
	BackfillWindowAnchor(ctx context.Context) (int64, error)
}

type projectBuilder interface {
	Generate(ctx context.Context, req builder.Request) builder.Result
	Catalog() *builder.Catalog
}

type projectFixer interface {
	Fix(framework string, files []domain.ProjectFile) ([]domain.ProjectFile, []string)
}

type chatResponder interface {
	Respond(ctx context.Context, message string) chat.Reply
	RespondWithImage(ctx context.Context, message, mimeType string, image []byte) chat.Reply
}

type projectRepo interface {
	Insert(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Project, error)
	UpdateFiles(ctx context.Context, id, name string, files []domain.ProjectFile) error
	UpdateFixes(ctx context.Context, id string, files []domain.ProjectFile, fixes []string) error
	Delete(ctx context.Context, id string) error
}

type conversationRepo interface {
	Insert(ctx context.Context, m *domain.ConversationMessage) error
	List(ctx context.Context, conversationID string) ([]*domain.ConversationMessage, error)
}

type fileStore interface {
	WriteProject(projectID string, files []domain.ProjectFile) error
	ReadProject(projectID string) ([]domain.ProjectFile, error)
	RemoveProject(projectID string) error
}

type githubPusher interface {
	Push(ctx context.Context, req github.PushRequest) (*github.PushResult, error)
}

// App carries the wired dependencies for all HTTP handlers.
type App struct {
	Config        *infra.Config
	Logger        zerolog.Logger
	Quota         quotaGate
	Builder       projectBuilder
	Fixer         projectFixer
	Assistant     chatResponder
	Projects      projectRepo
	Conversations conversationRepo
	Store         fileStore
	Pusher        githubPusher
}

func (a *App) json(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.Logger.Error().Err(err).Msg("write response")
	}
}

func (a *App) error(w http.ResponseWriter, status int, msg string) {
	a.json(w, status, map[string]any{"success": false, "error": msg})
}

// fail maps domain sentinels onto status codes; everything else is a 500
// with a generic body.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, err.Error())
	default:
		a.Logger.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal error")
	}
}

func (a *App) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json body", domain.ErrInvalidRequest)
	}
	return nil
}
