// Package http exposes the writeup query layer over net/http.
//
// Routes mount under the configured base path (default /api):
//   - Listing: /writeups (?tag=a&tag=b&q=text), /writeups/tags
//   - Detail: /writeups/{id...}
//   - Assets: /writeup-assets/{path...}
//   - OpenAPI document: /openapi.json
//
// and at the site root: /sitemap.xml, /healthz.
//
// Host applications can register the routes on their own mux or take the
// composed handler with CORS and request logging applied.
package http
