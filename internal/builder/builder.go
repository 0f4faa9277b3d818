// Package builder turns prompts into scaffolded projects through an LLM.
package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// TextGenerator is the slice of the LLM client the builder needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Request describes one generation run. Existing is non-empty for the edit
// flow: the prompt then describes a change against those files.
type Request struct {
	Prompt      string
	Framework   string
	ProjectType domain.ProjectType
	Theme       string
	Existing    []domain.ProjectFile
}

// Result is what a generation run produced. Success is false when the model
// call or parsing failed; the service never returns an error for that, the
// handler turns it into a response either way.
type Result struct {
	Files             []domain.ProjectFile
	SetupInstructions string
	DeploymentGuide   string
	Success           bool
	Message           string
}

// Service runs the generation pipeline: prompt assembly, model call, file
// parsing, required-file backfill.
type Service struct {
	gen     TextGenerator
	catalog *Catalog
	logger  zerolog.Logger
}

func NewService(gen TextGenerator, catalog *Catalog, logger zerolog.Logger) *Service {
	return &Service{gen: gen, catalog: catalog, logger: logger}
}

// Catalog exposes the loaded framework catalog.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Generate runs the full pipeline for a request.
func (s *Service) Generate(ctx context.Context, req Request) Result {
	fw := s.catalog.Lookup(req.Framework)
	prompt := s.buildPrompt(req, fw)

	output, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		s.logger.Error().Err(err).Str("framework", fw.Name).Msg("generation failed")
		return Result{Message: "generation failed: " + err.Error()}
	}

	files := ParseFiles(output)
	if len(files) == 0 {
		// Some models answer a small frontend prompt with one bare
		// document instead of file blocks.
		if fw.Kind == KindFrontend && looksLikeMarkup(output) {
			files = []domain.ProjectFile{{Path: "index.html", Content: output}}
		} else {
			s.logger.Warn().Str("framework", fw.Name).Msg("model output contained no file blocks")
			return Result{Message: "model output contained no files"}
		}
	}

	if len(req.Existing) > 0 {
		files = mergeFiles(req.Existing, files)
	}

	files, added := fw.EnsureRequired(files)
	if len(added) > 0 {
		s.logger.Debug().Strs("added", added).Msg("backfilled required files")
	}

	res := Result{Files: files, Success: true}
	if req.ProjectType == domain.ProjectTypeFullstack {
		res = s.finishFullstack(res, fw)
	}
	return res
}

func (s *Service) buildPrompt(req Request, fw Framework) string {
	var b strings.Builder

	if req.ProjectType == domain.ProjectTypeFullstack {
		fmt.Fprintf(&b, "Generate a complete full-stack web application with a %s frontend and a matching backend.\n", fw.DisplayName)
	} else if fw.Kind == KindBackend {
		fmt.Fprintf(&b, "Generate a complete %s backend project.\n", fw.DisplayName)
	} else {
		fmt.Fprintf(&b, "Generate a complete %s frontend project.\n", fw.DisplayName)
	}

	fmt.Fprintf(&b, "\nRequirements:\n%s\n", strings.TrimSpace(req.Prompt))

	if req.Theme != "" && req.Theme != "default" {
		fmt.Fprintf(&b, "\nVisual theme: %s.\n", req.Theme)
	}

	if len(req.Existing) > 0 {
		b.WriteString("\nThis is an edit of an existing project. Current files:\n")
		for _, f := range req.Existing {
			fmt.Fprintf(&b, "\nfile: %s\n```\n%s\n```\n", f.Path, f.Content)
		}
		b.WriteString("\nReturn only the files that change, in full.\n")
	}

	b.WriteString("\nOutput every file as:\nfile: <relative/path>\n```\n<complete file content>\n```\nNo explanations outside the file blocks.\n")
	return b.String()
}

// mergeFiles overlays updated files on the existing set, keeping untouched
// files in place.
func mergeFiles(existing, updated []domain.ProjectFile) []domain.ProjectFile {
	byPath := make(map[string]int, len(existing))
	out := make([]domain.ProjectFile, len(existing))
	copy(out, existing)
	for i, f := range out {
		byPath[f.Path] = i
	}
	for _, f := range updated {
		if i, ok := byPath[f.Path]; ok {
			out[i] = f
		} else {
			out = append(out, f)
		}
	}
	return out
}

func looksLikeMarkup(s string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html")
}
