package sqlinline

// Inline SQL for the projects table. Every query starts with a --sql marker
// line carrying a stable UUID; the runner strips it and uses it as the log
// tag for the statement.

const QInsertProject = `--sql 7b1f1f62-0f0a-4a6e-9a3f-4c5d9b1f2a01
INSERT INTO projects (id, user_id, name, prompt, framework, project_type, theme,
                      files, setup_instructions, deployment_guide, fixes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
`

const QSelectProjectByID = `--sql 3e9ac2d4-6b71-4f0e-8c22-9d1e5a7f3b02
SELECT id, user_id, name, prompt, framework, project_type, theme,
       files, setup_instructions, deployment_guide, fixes, created_at, updated_at
FROM projects
WHERE id = $1
`

const QSelectProjectsByUser = `--sql 51c8e7a9-2d43-4b8f-a617-0f3b6c9d4e03
SELECT id, user_id, name, prompt, framework, project_type, theme,
       files, setup_instructions, deployment_guide, fixes, created_at, updated_at
FROM projects
WHERE user_id = $1
ORDER BY created_at DESC
`

const QUpdateProjectFiles = `--sql 9f4d2b17-8e65-4c3a-b0d9-2a7e5f1c6004
UPDATE projects
SET files = $2,
    name = COALESCE(NULLIF($3, ''), name),
    updated_at = $4
WHERE id = $1
`

const QUpdateProjectFixes = `--sql c2a6e8f0-1b3d-45c7-9e82-6d4f0a9b7105
UPDATE projects
SET files = $2,
    fixes = $3,
    updated_at = $4
WHERE id = $1
`

const QDeleteProject = `--sql e7d50c3b-4a29-4f81-b6e5-8c1d2f9a0206
DELETE FROM projects
WHERE id = $1
`
