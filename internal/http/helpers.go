package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-writeups/internal/assets"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if baseClean == "/" {
		return joinPath("", trimmedSuffix)
	}
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

// mapError turns a categorised error into a status and body. Messages come
// from the public part of the error only; wrapped causes stay in the logs.
func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	// traversal attempts look exactly like a missing file to the caller
	if assets.IsTraversal(err) || errors.Is(err, assets.ErrNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "asset not found",
		}
	}

	message := publicMessage(err)
	switch {
	case goerrors.IsCategory(err, goerrors.CategoryNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: message}
	case goerrors.IsCategory(err, goerrors.CategoryBadInput):
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message}
	case goerrors.IsCategory(err, goerrors.CategoryValidation):
		return http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: message}
	}
	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: message,
	}
}

func publicMessage(err error) string {
	var typed *goerrors.Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	return "internal error"
}
