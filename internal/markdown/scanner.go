package markdown

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

// contentFileNames is the priority order for the canonical markdown file of a
// folder. Any other *.md file is used only when none of these exist.
var contentFileNames = []string{"main.md", "index.md", "README.md", "writeup.md"}

var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {},
}

// ContentFolder is one discovered writeup folder.
type ContentFolder struct {
	ID   string
	Dir  string
	File string
	// Images lists image file names directly inside Dir, sorted.
	Images []string
}

// FilePath is the absolute path of the canonical markdown file.
func (f ContentFolder) FilePath() string {
	return filepath.Join(f.Dir, f.File)
}

// Scanner walks a content root looking for writeup folders.
type Scanner struct {
	root   string
	logger interfaces.Logger
}

func NewScanner(root string, logger interfaces.Logger) *Scanner {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Scanner{root: filepath.Clean(root), logger: logger}
}

func (s *Scanner) Root() string { return s.root }

// FindContentFolders returns every folder under root that directly contains
// a content file. Results are unordered. A missing root yields nil and a
// warning; unreadable subdirectories are skipped individually.
func (s *Scanner) FindContentFolders(ctx context.Context) []ContentFolder {
	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		s.logger.Warn("scanner.root_missing", "path", s.root, "error", err)
		return nil
	}
	var out []ContentFolder
	s.walk(ctx, s.root, &out)
	return out
}

func (s *Scanner) walk(ctx context.Context, dir string, out *[]ContentFolder) {
	if ctx.Err() != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("scanner.dir_unreadable", "path", dir, "error", err)
		return
	}
	if dir != s.root {
		if folder, ok := s.inspect(dir, entries); ok {
			*out = append(*out, folder)
		}
	}
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			s.walk(ctx, filepath.Join(dir, entry.Name()), out)
		}
	}
}

// Locate resolves id with a direct join onto root. The bool is false when
// the folder is missing, holds no content file or sits under a hidden
// directory the walk would skip.
func (s *Scanner) Locate(id string) (ContentFolder, bool, error) {
	dir, err := FolderPath(s.root, id)
	if err != nil {
		return ContentFolder{}, false, err
	}
	clean, _ := CleanID(id)
	if hiddenID(clean) {
		return ContentFolder{}, false, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrInvalid) {
			s.logger.Debug("scanner.locate_failed", "path", dir, "error", err)
		}
		return ContentFolder{}, false, nil
	}
	folder, ok := s.inspect(dir, entries)
	return folder, ok, nil
}

func hiddenID(id string) bool {
	for segment := range strings.SplitSeq(id, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

func (s *Scanner) inspect(dir string, entries []fs.DirEntry) (ContentFolder, bool) {
	file := pickContentFile(entries)
	if file == "" {
		return ContentFolder{}, false
	}
	id, err := FolderID(s.root, dir)
	if err != nil {
		s.logger.Warn("scanner.id_invalid", "path", dir, "error", err)
		return ContentFolder{}, false
	}
	return ContentFolder{
		ID:     id,
		Dir:    dir,
		File:   file,
		Images: imageNames(entries),
	}, true
}

func pickContentFile(entries []fs.DirEntry) string {
	files := map[string]struct{}{}
	var fallback []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		files[name] = struct{}{}
		if strings.EqualFold(filepath.Ext(name), ".md") {
			fallback = append(fallback, name)
		}
	}
	for _, name := range contentFileNames {
		if _, ok := files[name]; ok {
			return name
		}
	}
	if len(fallback) == 0 {
		return ""
	}
	return slices.Min(fallback)
}

func imageNames(entries []fs.DirEntry) []string {
	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsImage(entry.Name()) {
			images = append(images, entry.Name())
		}
	}
	slices.Sort(images)
	return images
}

// IsImage reports whether name has one of the served image extensions.
func IsImage(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
