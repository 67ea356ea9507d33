package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/interrail/forwarding/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MediaStore persists generated artifacts under the configured media
// root. Callers pass paths relative to the root; the store never lets
// a path escape it.
type MediaStore struct {
	holder *config.DocumentConfigHolder
	log    *zap.Logger
}

func NewMediaStore(holder *config.DocumentConfigHolder, log *zap.Logger) *MediaStore {
	return &MediaStore{holder: holder, log: log}
}

var Module = fx.Module("storage",
	fx.Provide(NewMediaStore),
)

func (s *MediaStore) root() string {
	return s.holder.Get().MediaRoot
}

func (s *MediaStore) resolve(relative string) (string, error) {
	clean := filepath.Clean(relative)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("media path %q escapes the media root", relative)
	}
	return filepath.Join(s.root(), clean), nil
}

// Save writes data at the relative path, creating parent directories.
func (s *MediaStore) Save(relative string, data []byte) error {
	full, err := s.resolve(relative)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return err
	}
	s.log.Debug("artifact saved", zap.String("path", relative), zap.Int("bytes", len(data)))
	return nil
}

// Remove deletes the artifact at the relative path. A missing file is
// not an error; the artifact may already be gone.
func (s *MediaStore) Remove(relative string) error {
	full, err := s.resolve(relative)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// TempPath returns an absolute path under the media temp directory,
// creating the directory when needed.
func (s *MediaStore) TempPath(name string) (string, error) {
	dir := filepath.Join(s.root(), "temp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Exists reports whether an artifact is present at the relative path.
func (s *MediaStore) Exists(relative string) bool {
	full, err := s.resolve(relative)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}
