// package platform handles filesystem concerns for downloaded artifacts
package platform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jakson-Almeida/shortsgrab/internal/services"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

// FileStore saves retrieved artifacts under a single download directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "downloads"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the download directory.
func (f *FileStore) Dir() string {
	return f.dir
}

// SaveArtifact streams the artifact body to disk and returns the final path.
//
// The artifact's own filename wins over the fallback name. Names are
// sanitized to a single path element, and collisions get a numeric suffix
// instead of overwriting an earlier download.
func (f *FileStore) SaveArtifact(artifact *services.Artifact, fallbackName string) (string, error) {
	name := artifact.Filename
	if name == "" {
		name = fallbackName
	}
	name = sanitizeName(name)

	path, err := f.uniquePath(name)
	if err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, artifact.Body); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return path, nil
}

// uniquePath finds a path under the store that does not collide with an
// existing file, appending _1, _2, ... before the extension as needed.
func (f *FileStore) uniquePath(name string) (string, error) {
	path := filepath.Join(f.dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; i <= 1000; i++ {
		candidate := filepath.Join(f.dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not find a free filename for %s", name)
}

// sanitizeName reduces a filename to a safe single path element.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return shared.Slugify(name) + ".mp4"
	}
	return name
}
