package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/SscSPs/issue_tracker/internal/core/ports/storage"
	"github.com/spf13/afero"
)

// ErrInvalidPath is returned for object paths that are empty, absolute or escape the store root.
var ErrInvalidPath = errors.New("invalid object path")

// AferoStore implements storage.BlobStore on top of an afero filesystem rooted at the store root.
// Production uses the OS filesystem, tests an in-memory one.
type AferoStore struct {
	fs            afero.Fs
	publicBaseURL string
	logger        *slog.Logger
}

var _ storage.BlobStore = (*AferoStore)(nil)

// NewAferoStore returns a store keeping objects below root on base.
func NewAferoStore(base afero.Fs, root string, publicBaseURL string, logger *slog.Logger) *AferoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AferoStore{
		fs:            afero.NewBasePathFs(base, root),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// NewOsStore returns a store keeping objects below root on the local disk.
func NewOsStore(root string, publicBaseURL string, logger *slog.Logger) (*AferoStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root %s: %w", root, err)
	}
	return NewAferoStore(osFs, root, publicBaseURL, logger), nil
}

// Upload writes content to objectPath, creating parent directories as needed.
func (s *AferoStore) Upload(ctx context.Context, objectPath string, content io.Reader, contentType string) error {
	clean, err := validatePath(objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := afero.WriteReader(s.fs, clean, content); err != nil {
		s.logger.Error("Failed to write blob",
			slog.String("path", clean),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to write blob %s: %w", clean, err)
	}

	s.logger.Debug("Blob written",
		slog.String("path", clean),
		slog.String("content_type", contentType))
	return nil
}

// Delete removes every listed object. It attempts all paths and joins the failures.
func (s *AferoStore) Delete(ctx context.Context, objectPaths []string) error {
	var errs []error
	for _, p := range objectPaths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		clean, err := validatePath(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.fs.Remove(clean); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to delete blob %s: %w", clean, err))
		}
	}
	return errors.Join(errs...)
}

// Exists reports whether a regular file is stored at objectPath.
func (s *AferoStore) Exists(ctx context.Context, objectPath string) (bool, error) {
	clean, err := validatePath(objectPath)
	if err != nil {
		return false, err
	}
	info, err := s.fs.Stat(clean)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob %s: %w", clean, err)
	}
	return info.Mode().IsRegular(), nil
}

// PublicURL joins the configured public base URL with the object path.
func (s *AferoStore) PublicURL(objectPath string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(objectPath, "/")
}

// FileSystem exposes stored objects for read-only HTTP serving. Directories are not listable.
func (s *AferoStore) FileSystem() http.FileSystem {
	return filesOnlyFS{afero.NewHttpFs(afero.NewReadOnlyFs(s.fs)).Dir("/")}
}

type filesOnlyFS struct {
	http.FileSystem
}

func (f filesOnlyFS) Open(name string) (http.File, error) {
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// validatePath checks that the object path is relative and stays within the store root.
func validatePath(objectPath string) (string, error) {
	if objectPath == "" || strings.HasPrefix(objectPath, "/") || strings.Contains(objectPath, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, objectPath)
	}
	clean := path.Clean(objectPath)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, objectPath)
	}
	return clean, nil
}
