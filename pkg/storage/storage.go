// -----------------------------------------------------------------------------
// Storage
// -----------------------------------------------------------------------------
// File storage for generated artefacts (rendered ticket pass PNGs). Paths are
// relative, slash-separated and sandboxed below the driver root.
// -----------------------------------------------------------------------------

package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid file path")
)

// Storage is implemented by every driver.
type Storage interface {
	Put(ctx context.Context, path string, contents []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// Logger is the subset of *log.Logger the package uses.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// SanitizePath trims leading and trailing separators and rejects paths that
// could leave the storage root: any ".." segment, NUL bytes, or an empty
// result.
func SanitizePath(path string) (string, error) {
	if strings.ContainsRune(path, 0) || containsPathTraversal(path) {
		return "", ErrInvalidPath
	}

	path = strings.Trim(path, `/\`)
	if path == "" {
		return "", ErrInvalidPath
	}
	return path, nil
}

func containsPathTraversal(path string) bool {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	for _, segment := range segments {
		if segment == ".." {
			return true
		}
	}
	return false
}
