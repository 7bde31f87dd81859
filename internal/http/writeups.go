package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-writeups/internal/markdown"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	headerCacheControl = "Cache-Control"
	headerCacheStatus  = "X-Cache"

	listKey = "list"
	tagsKey = "tags"
)

// cachedResponse is an encoded JSON body reused across requests.
type cachedResponse struct {
	body []byte
}

func (api *API) registerWriteupRoutes(mux *http.ServeMux, base string) {
	root := joinPath(base, "writeups")
	mux.HandleFunc("GET "+root, api.handleWriteupList)
	mux.HandleFunc("GET "+root+"/tags", api.handleWriteupTags)
	mux.HandleFunc("GET "+root+"/{id...}", api.handleWriteupGet)
}

func (api *API) handleWriteupList(w http.ResponseWriter, r *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	query := listQueryFromRequest(r)
	key := listKey
	if query.Search != "" || len(query.Tags) > 0 {
		// filtered listings are never stored: the key would be client input
		key = ""
	}
	api.serveCached(w, r, key, func() (any, error) {
		return api.service.List(r.Context(), query)
	})
}

func (api *API) handleWriteupTags(w http.ResponseWriter, r *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	api.serveCached(w, r, tagsKey, func() (any, error) {
		return api.service.Tags(r.Context())
	})
}

func (api *API) handleWriteupGet(w http.ResponseWriter, r *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	id, err := markdown.JoinID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "writeup id is malformed",
		})
		return
	}
	record, err := api.service.Get(r.Context(), id)
	if err != nil {
		status, _ := mapError(err)
		if status >= http.StatusInternalServerError {
			api.logFailure(r.Context(), "http.writeup.failed", err)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// serveCached writes a JSON listing, reusing the encoded body while it is
// fresh. An empty key bypasses the cache. Errors are never cached.
func (api *API) serveCached(w http.ResponseWriter, r *http.Request, key string, load func() (any, error)) {
	w.Header().Set(headerCacheControl, api.listCacheControl)
	if key == "" {
		w.Header().Set(headerCacheStatus, "BYPASS")
	} else if cached, ok := api.responses.Get(key); ok {
		w.Header().Set(headerCacheStatus, "HIT")
		writeRawJSON(w, cached.body)
		return
	}

	payload, err := load()
	if err != nil {
		w.Header().Del(headerCacheControl)
		status, _ := mapError(err)
		if status >= http.StatusInternalServerError {
			api.logFailure(r.Context(), "http.listing.failed", err)
		}
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		w.Header().Del(headerCacheControl)
		api.logFailure(r.Context(), "http.listing.encode_failed", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "response could not be encoded"})
		return
	}
	if key != "" {
		api.responses.Put(key, cachedResponse{body: buf.Bytes()})
		w.Header().Set(headerCacheStatus, "MISS")
	}
	writeRawJSON(w, buf.Bytes())
}

func writeRawJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func listQueryFromRequest(r *http.Request) interfaces.ListQuery {
	values := r.URL.Query()
	var tags []string
	for _, raw := range values["tag"] {
		for tag := range strings.SplitSeq(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return interfaces.ListQuery{
		Search: strings.TrimSpace(values.Get("q")),
		Tags:   tags,
	}
}
