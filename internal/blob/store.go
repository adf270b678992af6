// Package blob stores uploaded application documents on local disk, one
// directory per application UUID.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/google/uuid"
)

type DiskStore struct {
	root string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

func (s *DiskStore) Root() string {
	return s.root
}

// EnsureRoot creates the upload root. Safe to call repeatedly.
func (s *DiskStore) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create upload root %s: %w", s.root, err)
	}
	return nil
}

// Save writes r to <root>/<applicationUUID>/<prefix>_<name>, replacing any
// earlier file with the same name, and returns that path.
func (s *DiskStore) Save(applicationUUID, prefix, originalName string, r io.Reader) (string, error) {
	if _, err := uuid.Parse(applicationUUID); err != nil {
		return "", apperrors.Validation("Invalid application identifier", map[string]string{"uuid": "must be a UUID"})
	}

	name, err := SanitizeFilename(originalName)
	if err != nil {
		return "", apperrors.Validation("Invalid file name", map[string]string{prefix: err.Error()})
	}

	dir := filepath.Join(s.root, applicationUUID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create application dir: %w", err)
	}

	path := filepath.Join(dir, prefix+"_"+name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return path, nil
}

// SanitizeFilename keeps only the final path element of a client-supplied
// name, whichever separator the client used. Names that reduce to nothing
// usable are rejected.
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("file name is empty")
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("file name contains a NUL byte")
	}

	return name, nil
}
