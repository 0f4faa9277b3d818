// Package github pushes generated projects to a GitHub repository by
// shelling out to the git binary.
package github

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// PushRequest describes one push of a project's files.
type PushRequest struct {
	Token     string
	RepoName  string
	Owner     string
	Files     []domain.ProjectFile
	CommitMsg string
}

// PushResult reports where the project landed.
type PushResult struct {
	RepoURL string
}

// Pusher pushes file sets to GitHub over git. The token never touches disk;
// it only appears in the remote URL of a temp clone that is removed after
// the push.
type Pusher struct {
	logger zerolog.Logger
}

func NewPusher(logger zerolog.Logger) *Pusher {
	return &Pusher{logger: logger}
}

// Push writes the files into a fresh temp repository and pushes it to
// github.com/<owner>/<repo> on branch main. The remote repository must
// already exist.
func (p *Pusher) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	if err := ValidateToken(req.Token); err != nil {
		return nil, err
	}
	owner := strings.TrimSpace(req.Owner)
	repo := strings.TrimSpace(req.RepoName)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: owner and repo name are required", domain.ErrInvalidRequest)
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: no files to push", domain.ErrInvalidRequest)
	}

	dir, err := os.MkdirTemp("", "ghpush-*")
	if err != nil {
		return nil, fmt.Errorf("github: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	for _, f := range req.Files {
		dst := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, fmt.Errorf("github: mkdir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dst, []byte(f.Content), 0o644); err != nil {
			return nil, fmt.Errorf("github: write %s: %w", f.Path, err)
		}
	}

	msg := req.CommitMsg
	if msg == "" {
		msg = "Initial commit"
	}
	remote := fmt.Sprintf("https://%s@github.com/%s/%s.git", req.Token, owner, repo)

	steps := [][]string{
		{"init"},
		{"config", "user.email", "bot@codefusion.local"},
		{"config", "user.name", "CodeFusion"},
		{"add", "."},
		{"commit", "-m", msg},
		{"branch", "-M", "main"},
		{"remote", "add", "origin", remote},
		{"push", "-u", "origin", "main", "--force"},
	}
	for _, args := range steps {
		if err := p.git(ctx, dir, args...); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf("https://github.com/%s/%s", owner, repo)
	p.logger.Info().Str("repo", url).Int("files", len(req.Files)).Msg("project pushed")
	return &PushResult{RepoURL: url}, nil
}

func (p *Pusher) git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := sanitizeGitOutput(string(out))
		p.logger.Error().Str("step", args[0]).Str("output", msg).Msg("git step failed")
		return fmt.Errorf("github: git %s failed: %s", args[0], msg)
	}
	return nil
}

// sanitizeGitOutput strips anything that looks like an embedded token from
// git error output before it reaches logs or API responses.
func sanitizeGitOutput(out string) string {
	out = strings.TrimSpace(out)
	for _, prefix := range []string{"ghp_", "github_pat_"} {
		for {
			i := strings.Index(out, prefix)
			if i < 0 {
				break
			}
			j := i
			for j < len(out) && !strings.ContainsRune(" @/\"'\n\t", rune(out[j])) {
				j++
			}
			out = out[:i] + "***" + out[j:]
		}
	}
	return out
}

// ValidateToken checks the shape of a GitHub personal access token.
// Classic tokens are ghp_ plus 36 characters; fine-grained tokens start
// with github_pat_ and are longer.
func ValidateToken(token string) error {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return fmt.Errorf("%w: github token is required", domain.ErrInvalidRequest)
	case strings.HasPrefix(token, "ghp_"):
		if len(token) != 40 {
			return fmt.Errorf("%w: malformed classic github token", domain.ErrInvalidRequest)
		}
	case strings.HasPrefix(token, "github_pat_"):
		if len(token) < 60 {
			return fmt.Errorf("%w: malformed fine-grained github token", domain.ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unrecognized github token format", domain.ErrInvalidRequest)
	}
	return nil
}
