package builder

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

// fileCategory buckets full-stack output for the setup and deployment
// guides.
type fileCategory string

const (
	catFrontend   fileCategory = "frontend"
	catBackend    fileCategory = "backend"
	catDatabase   fileCategory = "database"
	catDeployment fileCategory = "deployment"
	catDocs       fileCategory = "docs"
)

// finishFullstack completes a full-stack result: makes sure the deployment
// and database essentials exist, then derives setup and deployment guide
// text from what the project actually contains.
func (s *Service) finishFullstack(res Result, fw Framework) Result {
	res.Files = ensureFullstackEssentials(res.Files, fw)
	cats := categorize(res.Files)
	res.SetupInstructions = setupInstructions(cats, fw)
	res.DeploymentGuide = deploymentGuide(cats)
	return res
}

func categorize(files []domain.ProjectFile) map[fileCategory][]string {
	out := map[fileCategory][]string{}
	for _, f := range files {
		out[categoryOf(f.Path)] = append(out[categoryOf(f.Path)], f.Path)
	}
	return out
}

func categoryOf(path string) fileCategory {
	lower := strings.ToLower(path)
	base := lower
	if i := strings.LastIndex(lower, "/"); i >= 0 {
		base = lower[i+1:]
	}
	switch {
	case strings.HasPrefix(lower, "database/") || strings.HasSuffix(base, ".sql"):
		return catDatabase
	case base == "dockerfile" || base == "docker-compose.yml" || base == "docker-compose.yaml" ||
		strings.HasPrefix(lower, "deploy/") || strings.HasPrefix(lower, ".github/"):
		return catDeployment
	case strings.HasSuffix(base, ".md"):
		return catDocs
	case strings.HasPrefix(lower, "backend/") || strings.HasPrefix(lower, "server/") || strings.HasPrefix(lower, "api/"):
		return catBackend
	default:
		return catFrontend
	}
}

func ensureFullstackEssentials(files []domain.ProjectFile, fw Framework) []domain.ProjectFile {
	present := make(map[fileCategory]bool)
	paths := make(map[string]bool, len(files))
	for _, f := range files {
		present[categoryOf(f.Path)] = true
		paths[f.Path] = true
	}

	if !paths["docker-compose.yml"] && !paths["docker-compose.yaml"] {
		files = append(files, domain.ProjectFile{Path: "docker-compose.yml", Content: defaultCompose})
	}
	if !present[catDatabase] {
		files = append(files, domain.ProjectFile{Path: "database/schema.sql", Content: defaultSchema})
	}
	if !paths["README.md"] {
		files = append(files, domain.ProjectFile{
			Path:    "README.md",
			Content: fmt.Sprintf("# %s full-stack project\n\nSee docker-compose.yml to run the whole stack.\n", fw.DisplayName),
		})
	}
	return files
}

func setupInstructions(cats map[fileCategory][]string, fw Framework) string {
	var b strings.Builder
	b.WriteString("## Setup\n\n")
	fmt.Fprintf(&b, "1. Frontend (%s): install dependencies and start the dev server.\n", fw.DisplayName)
	if len(cats[catBackend]) > 0 {
		b.WriteString("2. Backend: install dependencies, copy .env.example to .env, start the server.\n")
	}
	if len(cats[catDatabase]) > 0 {
		fmt.Fprintf(&b, "3. Database: apply %s before first run.\n", strings.Join(cats[catDatabase], ", "))
	}
	b.WriteString("\nOr run everything at once:\n\n    docker compose up --build\n")
	return b.String()
}

func deploymentGuide(cats map[fileCategory][]string) string {
	var b strings.Builder
	b.WriteString("## Deployment\n\n")
	b.WriteString("- Build images with docker compose and push them to your registry.\n")
	if len(cats[catDatabase]) > 0 {
		b.WriteString("- Provision a managed database and apply the schema files before the first deploy.\n")
	}
	b.WriteString("- Point the frontend at the deployed API URL via environment variables.\n")
	return b.String()
}

const defaultCompose = `services:
  frontend:
    build: .
    ports:
      - "3000:3000"
  backend:
    build: ./backend
    ports:
      - "8000:8000"
    depends_on:
      - db
  db:
    image: postgres:16
    environment:
      POSTGRES_PASSWORD: postgres
    volumes:
      - dbdata:/var/lib/postgresql/data

volumes:
  dbdata:
`

const defaultSchema = `-- Initial schema. Extend per application needs.
CREATE TABLE IF NOT EXISTS app_users (
    id SERIAL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
