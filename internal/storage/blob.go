package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidPath = errors.New("invalid blob path")

// BlobStore keeps uploaded files and hands back a URL for each
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
}

// LocalStore writes blobs under a directory served at baseURL
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates root if needed
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory blobs are written to
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Put(ctx context.Context, p string, data []byte) (string, error) {
	full, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}

	tmp := full + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to commit blob: %w", err)
	}
	return s.baseURL + "/" + path.Clean(p), nil
}

func (s *LocalStore) Delete(_ context.Context, p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(p string) (string, error) {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	clean := path.Clean("/" + p)
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// SanitizeFilename keeps letters, digits, dot, dash and underscore
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	safe := unsafeChars.ReplaceAllString(name, "_")
	if safe == "" || safe == "." || safe == "_" {
		return "photo.jpg"
	}
	return safe
}

// AttendancePhotoPath is attendance/{userId}/{unixMillis}_{recordId}_{filename}.
// The record id keeps two uploads in the same millisecond apart.
func AttendancePhotoPath(userID, recordID uuid.UUID, at time.Time, filename string) string {
	return fmt.Sprintf("attendance/%s/%d_%s_%s", userID, at.UnixMilli(), recordID, SanitizeFilename(filename))
}
