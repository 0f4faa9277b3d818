package builder

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

// Fixer repairs saved projects that are missing structural files: an
// entrypoint, a dependency manifest, a README. It works on the stored file
// list and reports what it changed.
type Fixer struct {
	catalog *Catalog
}

func NewFixer(catalog *Catalog) *Fixer {
	return &Fixer{catalog: catalog}
}

// Fix returns the repaired file list and a description of each applied fix.
// A project that needs nothing comes back unchanged with no fixes.
func (f *Fixer) Fix(framework string, files []domain.ProjectFile) ([]domain.ProjectFile, []string) {
	fw := f.catalog.Lookup(framework)
	var fixes []string

	files, added := fw.EnsureRequired(files)
	for _, path := range added {
		fixes = append(fixes, "added missing required file "+path)
	}

	if !hasEntrypoint(fw, files) {
		entry := entrypointFor(fw)
		files = append(files, entry)
		fixes = append(fixes, "added missing entrypoint "+entry.Path)
	}

	return files, fixes
}

func hasEntrypoint(fw Framework, files []domain.ProjectFile) bool {
	candidates := entrypointCandidates(fw)
	for _, f := range files {
		base := f.Path
		if i := strings.LastIndex(base, "/"); i >= 0 {
			base = base[i+1:]
		}
		for _, c := range candidates {
			if strings.EqualFold(base, c) {
				return true
			}
		}
	}
	return false
}

func entrypointCandidates(fw Framework) []string {
	if fw.Kind == KindBackend {
		return []string{"main.py", "app.py", "index.js", "server.js", "main.go", "manage.py"}
	}
	return []string{"index.html", "index.js", "index.jsx", "index.tsx", "main.js", "main.jsx", "app.vue"}
}

func entrypointFor(fw Framework) domain.ProjectFile {
	if fw.Kind == KindBackend {
		switch fw.Name {
		case "go":
			return domain.ProjectFile{Path: "main.go", Content: "package main\n\nfunc main() {}\n"}
		case "express":
			return domain.ProjectFile{Path: "index.js", Content: "const express = require('express')\nconst app = express()\napp.listen(process.env.PORT || 8000)\n"}
		default:
			return domain.ProjectFile{
				Path:    "main.py",
				Content: "def main():\n    pass\n\n\nif __name__ == \"__main__\":\n    main()\n",
			}
		}
	}
	return domain.ProjectFile{
		Path: "index.html",
		Content: fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head><title>%s app</title></head>\n<body>\n<h1>%s app</h1>\n</body>\n</html>\n",
			fw.DisplayName, fw.DisplayName),
	}
}
