package markdown

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidID reports an id that cannot map to a folder under the root.
var ErrInvalidID = errors.New("markdown: invalid writeup id")

// FolderID derives the id of folder relative to root. It is the only place
// OS separators become "/".
func FolderID(root, folder string) (string, error) {
	rel, err := filepath.Rel(root, folder)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return CleanID(filepath.ToSlash(rel))
}

// FolderPath maps an id back onto the filesystem. It is the inverse of
// FolderID and rejects ids that would leave root.
func FolderPath(root, id string) (string, error) {
	clean, err := CleanID(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// CleanID trims surrounding slashes and validates every segment. Empty, "."
// and ".." segments are rejected, as are backslashes and NUL bytes.
func CleanID(id string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(id), "/")
	if trimmed == "" || trimmed == "." {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(trimmed, "\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	for segment := range strings.SplitSeq(trimmed, "/") {
		switch segment {
		case "", ".", "..":
			return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return trimmed, nil
}

// JoinID builds an id from route segments, as received from a catch-all path.
func JoinID(segments ...string) (string, error) {
	return CleanID(strings.Join(segments, "/"))
}
