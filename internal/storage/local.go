package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidRef = errors.New("invalid file reference")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalStore writes uploads below a root directory, bucketed by upload date.
// References are slash-separated paths relative to the root.
type LocalStore struct {
	root string
	now  func() time.Time
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root failed: %w", err)
	}
	return &LocalStore{root: root, now: time.Now}, nil
}

func (s *LocalStore) Save(fileName string, data []byte) (string, error) {
	ref := path.Join(
		"uploads",
		s.now().Format("2006/01/02"),
		uuid.NewString()+"-"+sanitizeName(fileName),
	)
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir failed: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload failed: %w", err)
	}
	return ref, nil
}

func (s *LocalStore) Read(ref string) ([]byte, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	return data, nil
}

// Delete removes a stored upload. A missing file is not an error.
func (s *LocalStore) Delete(ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete upload failed: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	clean := path.Clean(ref)
	if clean == "." || path.IsAbs(clean) || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "upload"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}
