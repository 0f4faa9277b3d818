package builder

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"server/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// FrameworkKind separates frontend scaffolds from backend ones.
type FrameworkKind string

const (
	KindFrontend FrameworkKind = "frontend"
	KindBackend  FrameworkKind = "backend"
)

// Framework is one catalog entry: what the scaffold must contain and the
// fallback content for required files the model forgot to emit.
type Framework struct {
	Name          string
	DisplayName   string
	Kind          FrameworkKind
	RequiredFiles []string
	Templates     map[string]string
}

// Catalog holds the supported framework entries. The contents are data,
// loaded from YAML; the embedded default can be overridden with a file.
type Catalog struct {
	frameworks map[string]Framework
}

type catalogFile struct {
	Frameworks map[string]struct {
		Display       string            `yaml:"display"`
		Kind          string            `yaml:"kind"`
		RequiredFiles []string          `yaml:"required_files"`
		Templates     map[string]string `yaml:"templates"`
	} `yaml:"frameworks"`
}

var titleCaser = cases.Title(language.English)

// LoadCatalog reads the framework catalog from path, or the embedded
// default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	raw := defaultCatalogYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("builder: read catalog: %w", err)
		}
		raw = data
	}

	var parsed catalogFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("builder: parse catalog: %w", err)
	}
	if len(parsed.Frameworks) == 0 {
		return nil, fmt.Errorf("builder: catalog has no frameworks")
	}

	frameworks := make(map[string]Framework, len(parsed.Frameworks))
	for name, entry := range parsed.Frameworks {
		key := strings.ToLower(strings.TrimSpace(name))
		kind := FrameworkKind(entry.Kind)
		switch kind {
		case KindFrontend, KindBackend:
		default:
			return nil, fmt.Errorf("builder: framework %q has invalid kind %q", name, entry.Kind)
		}
		display := entry.Display
		if display == "" {
			display = titleCaser.String(key)
		}
		frameworks[key] = Framework{
			Name:          key,
			DisplayName:   display,
			Kind:          kind,
			RequiredFiles: entry.RequiredFiles,
			Templates:     entry.Templates,
		}
	}
	return &Catalog{frameworks: frameworks}, nil
}

// Lookup resolves a framework by name, case-insensitively. Unknown names
// fall back to the plain html entry so generation still works.
func (c *Catalog) Lookup(name string) Framework {
	key := strings.ToLower(strings.TrimSpace(name))
	if fw, ok := c.frameworks[key]; ok {
		return fw
	}
	if fw, ok := c.frameworks["html"]; ok {
		return fw
	}
	return Framework{Name: key, DisplayName: titleCaser.String(key), Kind: KindFrontend}
}

// Names returns the catalog's framework names, for the banner endpoint.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.frameworks))
	for name := range c.frameworks {
		out = append(out, name)
	}
	return out
}

// EnsureRequired appends any required file the model did not produce,
// using the catalog template when one exists. Returns the completed list
// and the paths that were added.
func (fw Framework) EnsureRequired(files []domain.ProjectFile) ([]domain.ProjectFile, []string) {
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.Path] = true
	}
	var added []string
	for _, req := range fw.RequiredFiles {
		if present[req] {
			continue
		}
		content := fw.Templates[req]
		if content == "" {
			content = placeholderFor(fw, req)
		}
		files = append(files, domain.ProjectFile{Path: req, Content: content})
		added = append(added, req)
	}
	return files, added
}

func placeholderFor(fw Framework, path string) string {
	switch path {
	case "README.md":
		return fmt.Sprintf("# %s project\n\nGenerated scaffold.\n", fw.DisplayName)
	case "package.json":
		return fmt.Sprintf("{\n  \"name\": \"%s-app\",\n  \"version\": \"0.1.0\",\n  \"private\": true\n}\n", fw.Name)
	case ".env.example":
		return "PORT=8000\n"
	case "requirements.txt":
		return ""
	case "index.html":
		return "<!DOCTYPE html>\n<html>\n<head><title>App</title></head>\n<body></body>\n</html>\n"
	default:
		return ""
	}
}
