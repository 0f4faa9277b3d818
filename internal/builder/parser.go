package builder

import (
	"strings"

	"server/internal/domain"
)

// ParseFiles splits model output into project files. The expected shape is
// repeated blocks of
//
//	file: path/to/name.ext
//	```lang
//	content
//	```
//
// The "file:" prefix is matched case-insensitively and the fence language
// tag is optional. Content outside recognized blocks is ignored. When the
// output contains no blocks at all, the caller decides what to do with the
// raw text.
func ParseFiles(output string) []domain.ProjectFile {
	var (
		files   []domain.ProjectFile
		path    string
		content []string
		inFence bool
	)

	flush := func() {
		if path != "" && inFence {
			files = append(files, domain.ProjectFile{
				Path:    path,
				Content: strings.Join(content, "\n"),
			})
		}
		path = ""
		content = nil
		inFence = false
	}

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inFence && isFileHeader(trimmed):
			path = extractPath(trimmed)
		case !inFence && path != "" && strings.HasPrefix(trimmed, "```"):
			inFence = true
		case inFence && trimmed == "```":
			files = append(files, domain.ProjectFile{
				Path:    path,
				Content: strings.Join(content, "\n"),
			})
			path = ""
			content = nil
			inFence = false
		case inFence:
			content = append(content, line)
		}
	}
	// Unterminated fence at EOF still yields the file.
	flush()

	return files
}

func isFileHeader(line string) bool {
	lower := strings.ToLower(line)
	lower = strings.TrimPrefix(lower, "**")
	return strings.HasPrefix(lower, "file:") || strings.HasPrefix(lower, "filename:")
}

func extractPath(line string) string {
	_, after, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	p := strings.TrimSpace(after)
	p = strings.Trim(p, "`*\" ")
	return p
}
