package builder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

type stubGenerator struct {
	output string
	err    error
	prompt string
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func TestGenerateParsesAndBackfills(t *testing.T) {
	gen := &stubGenerator{output: "file: src/App.jsx\n```jsx\nexport default function App() {}\n```\n"}
	svc := NewService(gen, testCatalog(t), zerolog.Nop())

	res := svc.Generate(context.Background(), Request{Prompt: "todo app", Framework: "react"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	paths := map[string]bool{}
	for _, f := range res.Files {
		paths[f.Path] = true
	}
	if !paths["src/App.jsx"] {
		t.Fatal("parsed file missing")
	}
	// Required files backfilled from the catalog.
	for _, req := range []string{"package.json", "README.md", ".gitignore"} {
		if !paths[req] {
			t.Fatalf("required file %s not backfilled, got %v", req, paths)
		}
	}
	if !strings.Contains(gen.prompt, "todo app") || !strings.Contains(gen.prompt, "React") {
		t.Fatalf("prompt missing request data: %q", gen.prompt)
	}
}

func TestGenerateFailureIsNotAnError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	svc := NewService(gen, testCatalog(t), zerolog.Nop())

	res := svc.Generate(context.Background(), Request{Prompt: "x", Framework: "react"})
	if res.Success {
		t.Fatal("expected failure result")
	}
	if len(res.Files) != 0 {
		t.Fatalf("failure should carry no files, got %d", len(res.Files))
	}
	if res.Message == "" {
		t.Fatal("failure should carry a message")
	}
}

func TestGenerateBareMarkupFallback(t *testing.T) {
	gen := &stubGenerator{output: "<!DOCTYPE html>\n<html><body>hi</body></html>"}
	svc := NewService(gen, testCatalog(t), zerolog.Nop())

	res := svc.Generate(context.Background(), Request{Prompt: "landing page", Framework: "html"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Files[0].Path != "index.html" {
		t.Fatalf("bare markup should land in index.html, got %+v", res.Files)
	}
}

func TestGenerateEditMergesFiles(t *testing.T) {
	gen := &stubGenerator{output: "file: index.html\n```html\n<p>updated</p>\n```\n"}
	svc := NewService(gen, testCatalog(t), zerolog.Nop())

	existing := []domain.ProjectFile{
		{Path: "index.html", Content: "<p>old</p>"},
		{Path: "styles.css", Content: "body {}"},
	}
	res := svc.Generate(context.Background(), Request{
		Prompt:    "change the text",
		Framework: "html",
		Existing:  existing,
	})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	byPath := map[string]string{}
	for _, f := range res.Files {
		byPath[f.Path] = f.Content
	}
	if byPath["index.html"] != "<p>updated</p>" {
		t.Fatalf("edited file not replaced: %q", byPath["index.html"])
	}
	if byPath["styles.css"] != "body {}" {
		t.Fatal("untouched file should survive the merge")
	}
	if !strings.Contains(gen.prompt, "<p>old</p>") {
		t.Fatal("edit prompt should include existing files")
	}
}

func TestGenerateFullstackAddsEssentialsAndGuides(t *testing.T) {
	gen := &stubGenerator{output: "" +
		"file: index.html\n```html\n<html></html>\n```\n" +
		"file: backend/main.py\n```python\napp = None\n```\n"}
	svc := NewService(gen, testCatalog(t), zerolog.Nop())

	res := svc.Generate(context.Background(), Request{
		Prompt:      "shop",
		Framework:   "react",
		ProjectType: domain.ProjectTypeFullstack,
	})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	paths := map[string]bool{}
	for _, f := range res.Files {
		paths[f.Path] = true
	}
	if !paths["docker-compose.yml"] {
		t.Fatal("compose file should be ensured")
	}
	if !paths["database/schema.sql"] {
		t.Fatal("schema should be ensured")
	}
	if res.SetupInstructions == "" || res.DeploymentGuide == "" {
		t.Fatal("fullstack result should carry guides")
	}
	if !strings.Contains(res.SetupInstructions, "Backend") {
		t.Fatalf("setup should mention the backend: %q", res.SetupInstructions)
	}
}

func TestCatalogDisplayNames(t *testing.T) {
	c := testCatalog(t)
	tests := []struct {
		name string
		want string
	}{
		{"react", "React"},
		{"nextjs", "Next.js"},
		{"fastapi", "FastAPI"},
		{"go", "Go"},
	}
	for _, tt := range tests {
		if got := c.Lookup(tt.name).DisplayName; got != tt.want {
			t.Errorf("display name for %s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCatalogUnknownFrameworkFallsBack(t *testing.T) {
	fw := testCatalog(t).Lookup("cobol-web")
	if fw.Kind != KindFrontend {
		t.Fatalf("unknown framework should fall back to frontend html, got %+v", fw)
	}
}

func TestFixerAddsMissingPieces(t *testing.T) {
	f := NewFixer(testCatalog(t))

	files := []domain.ProjectFile{{Path: "src/App.jsx", Content: "x"}}
	fixed, fixes := f.Fix("react", files)
	if len(fixes) == 0 {
		t.Fatal("expected fixes for incomplete project")
	}
	paths := map[string]bool{}
	for _, file := range fixed {
		paths[file.Path] = true
	}
	if !paths["package.json"] || !paths["index.html"] {
		t.Fatalf("expected manifest and entrypoint, got %v", paths)
	}

	again, fixes2 := f.Fix("react", fixed)
	if len(fixes2) != 0 {
		t.Fatalf("second pass should be a no-op, got %v", fixes2)
	}
	if len(again) != len(fixed) {
		t.Fatal("second pass should not add files")
	}
}
