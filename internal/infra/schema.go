package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables the service needs if they do not exist.
//
// The three date columns on users are TEXT on purpose: the quota subsystem
// stores ISO-8601 strings and owns their parsing, including records written
// before the service normalized on UTC.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    email TEXT NOT NULL DEFAULT '',
    plan TEXT NOT NULL DEFAULT 'free',
    max_daily_generations INT NOT NULL DEFAULT 3,
    daily_generations INT NOT NULL DEFAULT 0,
    first_generation_date TEXT,
    last_generation_date TEXT,
    plan_expiry TEXT
);

CREATE TABLE IF NOT EXISTS projects (
    id UUID PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL DEFAULT '',
    framework TEXT NOT NULL DEFAULT '',
    project_type TEXT NOT NULL DEFAULT 'single',
    theme TEXT NOT NULL DEFAULT 'default',
    files JSONB NOT NULL DEFAULT '[]'::jsonb,
    setup_instructions TEXT NOT NULL DEFAULT '',
    deployment_guide TEXT NOT NULL DEFAULT '',
    fixes JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS projects_user_id_idx ON projects (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS conversation_messages (
    id UUID PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    user_id TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    intent TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversation_messages_conversation_idx ON conversation_messages (conversation_id, created_at);
`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
