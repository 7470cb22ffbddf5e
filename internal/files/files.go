// Package files keeps uploaded payment proofs and product images on local disk.
// A stored file is addressed by its reference, the generated base name.
package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/google/uuid"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

type DiskStore struct {
	dir      string
	maxBytes int64
}

func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes r under a fresh name built from prefix and the extension of
// the client filename and returns the reference.
func (s *DiskStore) Save(prefix, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", apperrors.Validation("file type %q is not allowed", ext)
	}

	ref := prefix + uuid.NewString() + ext
	path := filepath.Join(s.dir, ref)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", ref, err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	switch {
	case err != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", ref, err)
	case n == 0:
		_ = os.Remove(path)
		return "", apperrors.Validation("file is empty")
	case n > s.maxBytes:
		_ = os.Remove(path)
		return "", apperrors.Validation("file exceeds %d bytes", s.maxBytes)
	}
	return ref, nil
}

type Entry struct {
	Ref     string
	ModTime time.Time
}

// List returns the regular files in the upload directory.
func (s *DiskStore) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload dir %s: %w", s.dir, err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Ref: de.Name(), ModTime: info.ModTime()})
	}
	return entries, nil
}

func (s *DiskStore) Exists(ref string) bool {
	path, err := s.path(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (s *DiskStore) Delete(ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file %s: %w", ref, apperrors.ErrNotFound)
		}
		return err
	}
	return nil
}

// path maps a reference to a location inside dir, refusing anything that
// is not a plain base name.
func (s *DiskStore) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return "", apperrors.Validation("invalid file reference %q", ref)
	}
	return filepath.Join(s.dir, ref), nil
}
