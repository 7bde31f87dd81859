package http

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (api *API) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	items, err := api.service.List(r.Context(), interfaces.ListQuery{})
	if err != nil {
		api.logFailure(r.Context(), "http.sitemap.failed", err)
		writeError(w, err)
		return
	}

	base := strings.TrimRight(api.site.BaseURL, "/")
	set := sitemapURLSet{Xmlns: sitemapNamespace}
	for _, path := range api.site.StaticPaths {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + joinPath(path, "")})
	}
	for _, item := range items {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     base + "/writeups/" + escapeID(item.ID),
			LastMod: item.Date.UTC().Format("2006-01-02"),
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set(headerCacheControl, api.listCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		api.logFailure(r.Context(), "http.sitemap.encode_failed", err)
	}
}

func escapeID(id string) string {
	segments := strings.Split(id, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
