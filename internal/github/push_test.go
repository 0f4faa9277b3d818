package github

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{"classic valid", "ghp_" + strings.Repeat("a", 36), true},
		{"classic too short", "ghp_abc", false},
		{"classic too long", "ghp_" + strings.Repeat("a", 40), false},
		{"fine grained valid", "github_pat_" + strings.Repeat("b", 60), true},
		{"fine grained too short", "github_pat_short", false},
		{"empty", "", false},
		{"garbage", "not-a-token", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToken(tt.token)
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestPushValidatesRequest(t *testing.T) {
	p := NewPusher(zerolog.Nop())
	ctx := context.Background()
	valid := "ghp_" + strings.Repeat("a", 36)

	if _, err := p.Push(ctx, PushRequest{Token: "bad"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected token rejection, got %v", err)
	}
	if _, err := p.Push(ctx, PushRequest{Token: valid, Owner: "", RepoName: "r"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected owner rejection, got %v", err)
	}
	if _, err := p.Push(ctx, PushRequest{Token: valid, Owner: "o", RepoName: "r"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected empty-files rejection, got %v", err)
	}
}

func TestSanitizeGitOutput(t *testing.T) {
	token := "ghp_" + strings.Repeat("a", 36)
	in := "fatal: unable to access 'https://" + token + "@github.com/o/r.git/'"
	out := sanitizeGitOutput(in)
	if strings.Contains(out, token) {
		t.Fatalf("token leaked: %q", out)
	}
	if !strings.Contains(out, "***") {
		t.Fatalf("expected redaction marker: %q", out)
	}
}
