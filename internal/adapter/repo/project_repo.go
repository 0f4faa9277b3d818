package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// ProjectRepositoryPG persists generated projects through the SQL runner.
type ProjectRepositoryPG struct {
	db infra.SQLExecutor
}

func NewProjectRepository(db infra.SQLExecutor) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{db: db}
}

func (r *ProjectRepositoryPG) Insert(ctx context.Context, p *domain.Project) error {
	files, err := json.Marshal(p.Files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	fixes, err := json.Marshal(emptyIfNil(p.Fixes))
	if err != nil {
		return fmt.Errorf("marshal fixes: %w", err)
	}
	_, err = r.db.Exec(ctx, sqlinline.QInsertProject,
		p.ID, p.UserID, p.Name, p.Prompt, p.Framework, p.ProjectType, p.Theme,
		files, p.SetupInstructions, p.DeploymentGuide, fixes, p.CreatedAt)
	return err
}

func (r *ProjectRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSelectProjectByID, id)
	return scanProject(row)
}

func (r *ProjectRepositoryPG) ListByUser(ctx context.Context, userID string) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx, sqlinline.QSelectProjectsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateFiles replaces the project's files, optionally renaming it.
func (r *ProjectRepositoryPG) UpdateFiles(ctx context.Context, id, name string, files []domain.ProjectFile) error {
	payload, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	tag, err := r.db.Exec(ctx, sqlinline.QUpdateProjectFiles, id, payload, name, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateFixes replaces the files and appends to the fix history in one statement.
func (r *ProjectRepositoryPG) UpdateFixes(ctx context.Context, id string, files []domain.ProjectFile, fixes []string) error {
	filePayload, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	fixPayload, err := json.Marshal(emptyIfNil(fixes))
	if err != nil {
		return fmt.Errorf("marshal fixes: %w", err)
	}
	tag, err := r.db.Exec(ctx, sqlinline.QUpdateProjectFixes, id, filePayload, fixPayload, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProjectRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QDeleteProject, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p     domain.Project
		files []byte
		fixes []byte
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Prompt, &p.Framework, &p.ProjectType, &p.Theme,
		&files, &p.SetupInstructions, &p.DeploymentGuide, &fixes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(files, &p.Files); err != nil {
		return nil, fmt.Errorf("unmarshal files: %w", err)
	}
	if err := json.Unmarshal(fixes, &p.Fixes); err != nil {
		return nil, fmt.Errorf("unmarshal fixes: %w", err)
	}
	return &p, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ConversationRepositoryPG stores chat turns for conversation history.
type ConversationRepositoryPG struct {
	db infra.SQLExecutor
}

func NewConversationRepository(db infra.SQLExecutor) *ConversationRepositoryPG {
	return &ConversationRepositoryPG{db: db}
}

func (r *ConversationRepositoryPG) Insert(ctx context.Context, m *domain.ConversationMessage) error {
	_, err := r.db.Exec(ctx, sqlinline.QInsertConversationMessage,
		m.ID, m.ConversationID, m.UserID, m.Role, m.Content, m.Intent, m.CreatedAt)
	return err
}

func (r *ConversationRepositoryPG) List(ctx context.Context, conversationID string) ([]*domain.ConversationMessage, error) {
	rows, err := r.db.Query(ctx, sqlinline.QSelectConversationMessages, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ConversationMessage
	for rows.Next() {
		var m domain.ConversationMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &m.Role, &m.Content, &m.Intent, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
