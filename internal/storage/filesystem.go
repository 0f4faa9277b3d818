package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"server/internal/domain"
)

// FileStore mirrors generated projects onto the local filesystem so they
// can be zipped for download, pushed to git, or patched by the fixer.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage: empty root dir")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

// ProjectDir returns the on-disk directory for a project id.
func (s *FileStore) ProjectDir(projectID string) (string, error) {
	key, err := sanitizeKey(projectID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, key), nil
}

// WriteProject writes all files of a project under its directory,
// replacing whatever was there.
func (s *FileStore) WriteProject(projectID string, files []domain.ProjectFile) error {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("storage: clear project dir: %w", err)
	}
	for _, f := range files {
		rel, err := sanitizeRelPath(f.Path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("storage: mkdir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dst, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("storage: write %s: %w", f.Path, err)
		}
	}
	return nil
}

// ReadProject walks the project directory and returns its files with
// slash-separated relative paths.
func (s *FileStore) ReadProject(projectID string) ([]domain.ProjectFile, error) {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return nil, err
	}
	var out []domain.ProjectFile
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, domain.ProjectFile{Path: filepath.ToSlash(rel), Content: string(data)})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// RemoveProject deletes the project directory. Missing directories are not
// an error.
func (s *FileStore) RemoveProject(projectID string) error {
	dir, err := s.ProjectDir(projectID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// sanitizeKey rejects project ids that could escape the root directory.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("storage: invalid project id %q", key)
	}
	if strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("storage: invalid project id %q", key)
	}
	return key, nil
}

// sanitizeRelPath rejects absolute paths and path traversal in generated
// file names. LLM output is untrusted input.
func sanitizeRelPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("storage: empty file path")
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: unsafe file path %q", p)
	}
	return clean, nil
}
