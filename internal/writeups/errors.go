package writeups

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-writeups/internal/markdown"
)

const (
	TextCodeWriteupNotFound = "WRITEUP_NOT_FOUND"
	TextCodeInvalidID       = "WRITEUP_ID_INVALID"
	TextCodeInvalidQuery    = "WRITEUP_QUERY_INVALID"
	TextCodeReadFailed      = "WRITEUP_READ_FAILED"
	TextCodeRenderFailed    = "WRITEUP_RENDER_FAILED"
)

var (
	ErrNotFound     = errors.New("writeups: not found")
	ErrInvalidID    = markdown.ErrInvalidID
	ErrRenderFailed = markdown.ErrRenderFailed
)

func notFoundError(id string) error {
	return goerrors.Wrap(ErrNotFound, goerrors.CategoryNotFound, "writeup not found").
		WithTextCode(TextCodeWriteupNotFound).
		WithMetadata(map[string]any{"id": id})
}

func invalidIDError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "writeup id is malformed").
		WithTextCode(TextCodeInvalidID)
}

func readError(id string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "writeup could not be read").
		WithTextCode(TextCodeReadFailed).
		WithMetadata(map[string]any{"id": id})
}

func renderError(id string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "writeup could not be rendered").
		WithTextCode(TextCodeRenderFailed).
		WithMetadata(map[string]any{"id": id})
}
