package http

import (
	"net/http"
	"strings"
)

// AssetPrefix returns the URL prefix under which content assets are served
// for the given API base path.
func AssetPrefix(base string) string {
	return joinPath(base, "writeup-assets")
}

func (api *API) registerAssetRoutes(mux *http.ServeMux, base string) {
	mux.HandleFunc("GET "+AssetPrefix(base)+"/{path...}", api.handleAsset)
}

// handleAsset streams a file from the content tree. Rejected and missing
// paths produce the same 404 body.
func (api *API) handleAsset(w http.ResponseWriter, r *http.Request) {
	if api.assets == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	segments := strings.Split(r.PathValue("path"), "/")
	asset, file, err := api.assets.Open(segments)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", asset.MimeType)
	w.Header().Set(headerCacheControl, api.assetCacheControl)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, asset.Name, asset.ModTime, file)
}
