// Package assets resolves requested asset paths to files inside the content
// tree. A path is validated segment by segment before the filesystem is
// touched, and the canonical result must stay below the canonical root.
package assets

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	TextCodeAssetNotFound = "ASSET_NOT_FOUND"
	TextCodePathTraversal = "ASSET_PATH_TRAVERSAL"
)

var (
	ErrNotFound      = errors.New("assets: not found")
	ErrPathTraversal = errors.New("assets: path escapes content root")
)

const defaultMIME = "application/octet-stream"

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// ContentType maps a file name to its MIME type using the fixed table.
func ContentType(name string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return defaultMIME
}

// FileSystem is the slice of the OS the resolver needs. Tests swap it for a
// spy to prove rejected requests never reach it.
type FileSystem interface {
	EvalSymlinks(path string) (string, error)
	Stat(path string) (fs.FileInfo, error)
	Open(path string) (io.ReadSeekCloser, error)
}

type osFileSystem struct{}

func (osFileSystem) EvalSymlinks(path string) (string, error) { return filepath.EvalSymlinks(path) }
func (osFileSystem) Stat(path string) (fs.FileInfo, error)    { return os.Stat(path) }
func (osFileSystem) Open(path string) (io.ReadSeekCloser, error) {
	return os.Open(path)
}

// OSFileSystem returns the default FileSystem backed by package os.
func OSFileSystem() FileSystem { return osFileSystem{} }

// Asset is a resolved file. Path is always a descendant of the canonical
// content root.
type Asset struct {
	Path     string
	Name     string
	MimeType string
	Size     int64
	ModTime  time.Time
}

type Option func(*Resolver)

func WithFileSystem(fsys FileSystem) Option {
	return func(r *Resolver) {
		if fsys != nil {
			r.fs = fsys
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type Resolver struct {
	root   string
	fs     FileSystem
	logger interfaces.Logger
}

func NewResolver(root string, opts ...Option) *Resolver {
	r := &Resolver{
		root:   filepath.Clean(root),
		fs:     osFileSystem{},
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps segments to an asset below the root.
func (r *Resolver) Resolve(segments []string) (Asset, error) {
	if err := validateSegments(segments); err != nil {
		r.logger.Warn("assets.traversal_rejected", "segments", strings.Join(segments, "/"), "error", err)
		return Asset{}, traversalError(segments)
	}
	if err := validateLeading(segments); err != nil {
		return Asset{}, notFoundError(segments, err)
	}

	root, err := r.canonicalRoot()
	if err != nil {
		return Asset{}, notFoundError(segments, err)
	}

	joined := filepath.Join(append([]string{root}, segments...)...)
	resolved, err := r.fs.EvalSymlinks(joined)
	if err != nil {
		return Asset{}, notFoundError(segments, err)
	}
	if !within(root, resolved) {
		r.logger.Warn("assets.traversal_rejected", "segments", strings.Join(segments, "/"), "resolved", resolved)
		return Asset{}, traversalError(segments)
	}

	info, err := r.fs.Stat(resolved)
	if err != nil {
		return Asset{}, notFoundError(segments, err)
	}
	if info.IsDir() {
		return Asset{}, notFoundError(segments, fs.ErrNotExist)
	}
	return Asset{
		Path:     resolved,
		Name:     info.Name(),
		MimeType: ContentType(resolved),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, nil
}

// Open resolves segments and opens the file for reading.
func (r *Resolver) Open(segments []string) (Asset, io.ReadSeekCloser, error) {
	asset, err := r.Resolve(segments)
	if err != nil {
		return Asset{}, nil, err
	}
	file, err := r.fs.Open(asset.Path)
	if err != nil {
		return Asset{}, nil, notFoundError(segments, err)
	}
	return asset, file, nil
}

// canonicalRoot is recomputed per call so a root created after startup is
// picked up.
func (r *Resolver) canonicalRoot() (string, error) {
	abs, err := filepath.Abs(r.root)
	if err != nil {
		return "", err
	}
	return r.fs.EvalSymlinks(abs)
}

// validateSegments rejects parent tokens and absolute segments. Separators
// inside a segment are rejected too, so "a/../b" cannot sneak through as one
// element.
func validateSegments(segments []string) error {
	for _, segment := range segments {
		switch {
		case segment == "..":
			return ErrPathTraversal
		case strings.ContainsAny(segment, "/\\\x00"):
			return ErrPathTraversal
		case filepath.IsAbs(segment) || filepath.VolumeName(segment) != "":
			return ErrPathTraversal
		}
	}
	return nil
}

func validateLeading(segments []string) error {
	if len(segments) == 0 {
		return fs.ErrNotExist
	}
	for _, segment := range segments {
		if segment == "" || segment == "." {
			return fs.ErrNotExist
		}
	}
	return nil
}

func within(root, candidate string) bool {
	if candidate == root {
		return false
	}
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func traversalError(segments []string) error {
	return goerrors.Wrap(ErrPathTraversal, goerrors.CategoryValidation, "asset path rejected").
		WithTextCode(TextCodePathTraversal).
		WithMetadata(map[string]any{"path": strings.Join(segments, "/")})
}

func notFoundError(segments []string, cause error) error {
	return goerrors.Wrap(ErrNotFound, goerrors.CategoryNotFound, "asset not found").
		WithTextCode(TextCodeAssetNotFound).
		WithMetadata(map[string]any{
			"path":  strings.Join(segments, "/"),
			"cause": cause.Error(),
		})
}

// IsTraversal reports whether err was a rejected path.
func IsTraversal(err error) bool {
	return errors.Is(err, ErrPathTraversal)
}
