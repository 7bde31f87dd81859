package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-writeups/internal/assets"
	"github.com/goliatone/go-writeups/internal/writeups"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const heapOverflow = `---
title: Heap Overflow
ctfName: ExampleCTF
date: 2024-05-01
tags: [pwn, heap]
author: alice
---
# Intro
Some **bold** text.`

func writeContent(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

type spyFileSystem struct {
	inner assets.FileSystem
	calls atomic.Int32
}

func (s *spyFileSystem) EvalSymlinks(path string) (string, error) {
	s.calls.Add(1)
	return s.inner.EvalSymlinks(path)
}

func (s *spyFileSystem) Stat(path string) (fs.FileInfo, error) {
	s.calls.Add(1)
	return s.inner.Stat(path)
}

func (s *spyFileSystem) Open(path string) (io.ReadSeekCloser, error) {
	s.calls.Add(1)
	return s.inner.Open(path)
}

type fixture struct {
	api     *API
	handler http.Handler
	spy     *spyFileSystem
	root    string
}

func setupAPI(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	root := t.TempDir()
	writeContent(t, root, "ctf2024/chal1/main.md", heapOverflow)
	writeContent(t, root, "ctf2024/chal1/shot.png", "png-bytes")
	writeContent(t, root, "ctf2023/web/index.md", "---\ntitle: SQLi\ndate: 2023-01-02\ntags: web\n---\nbody")

	svc := writeups.NewService(writeups.Config{
		ContentDir:    root,
		ListTTL:       5 * time.Minute,
		DetailTTL:     30 * time.Minute,
		AssetBasePath: "/api/writeup-assets",
	})
	spy := &spyFileSystem{inner: assets.OSFileSystem()}
	base := []Option{
		WithWriteupService(svc),
		WithAssets(assets.NewResolver(root, assets.WithFileSystem(spy))),
		WithSite(Site{BaseURL: "https://team.example/", StaticPaths: []string{"/", "/about"}}),
	}
	api := NewAPI(append(base, opts...)...)
	handler, err := api.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return &fixture{api: api, handler: handler, spy: spy, root: root}
}

func doRequest(t *testing.T, handler http.Handler, path string, expectStatus int) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != expectStatus {
		t.Fatalf("GET %s: expected status %d got %d body=%s", path, expectStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
}

func TestAPI_ListWriteups(t *testing.T) {
	f := setupAPI(t)

	rec := doRequest(t, f.handler, "/api/writeups", http.StatusOK)
	if got := rec.Header().Get("Cache-Control"); got != defaultListCacheControl {
		t.Fatalf("unexpected cache control %q", got)
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected first response to miss")
	}

	var list []map[string]any
	decodeJSONBody(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("expected 2 writeups got %d", len(list))
	}
	if list[0]["id"] != "ctf2024/chal1" || list[1]["id"] != "ctf2023/web" {
		t.Fatalf("unexpected order %v, %v", list[0]["id"], list[1]["id"])
	}
	if list[0]["ctfName"] != "ExampleCTF" {
		t.Fatalf("unexpected ctfName %v", list[0]["ctfName"])
	}
	if _, ok := list[0]["renderedHtml"]; ok {
		t.Fatal("listing must not carry rendered html")
	}

	again := doRequest(t, f.handler, "/api/writeups", http.StatusOK)
	if again.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected second response to hit")
	}
	if again.Body.String() != rec.Body.String() {
		t.Fatal("cached body differs")
	}
}

func TestAPI_ListFilters(t *testing.T) {
	f := setupAPI(t)

	var list []map[string]any
	decodeJSONBody(t, doRequest(t, f.handler, "/api/writeups?tag=web", http.StatusOK), &list)
	if len(list) != 1 || list[0]["id"] != "ctf2023/web" {
		t.Fatalf("unexpected tag filter result %v", list)
	}

	decodeJSONBody(t, doRequest(t, f.handler, "/api/writeups?q=HEAP", http.StatusOK), &list)
	if len(list) != 1 || list[0]["id"] != "ctf2024/chal1" {
		t.Fatalf("unexpected search result %v", list)
	}

	decodeJSONBody(t, doRequest(t, f.handler, "/api/writeups?tag=nope", http.StatusOK), &list)
	if len(list) != 0 {
		t.Fatalf("expected empty result, got %v", list)
	}
}

func TestAPI_FilteredListingsBypassResponseCache(t *testing.T) {
	f := setupAPI(t)

	for i := range 50 {
		rec := doRequest(t, f.handler, fmt.Sprintf("/api/writeups?q=x%d", i), http.StatusOK)
		if rec.Header().Get("X-Cache") != "BYPASS" {
			t.Fatalf("expected filtered listing to bypass, got %q", rec.Header().Get("X-Cache"))
		}
	}
	doRequest(t, f.handler, "/api/writeups?tag=web", http.StatusOK)
	if n := f.api.responses.Len(); n != 0 {
		t.Fatalf("expected no cached filtered responses, got %d", n)
	}

	doRequest(t, f.handler, "/api/writeups", http.StatusOK)
	doRequest(t, f.handler, "/api/writeups/tags", http.StatusOK)
	if n := f.api.responses.Len(); n != 2 {
		t.Fatalf("expected listing and tags to be cached, got %d", n)
	}
}

func TestAPI_ListRejectsOversizedQuery(t *testing.T) {
	f := setupAPI(t)
	rec := doRequest(t, f.handler, "/api/writeups?q="+strings.Repeat("a", 201), http.StatusBadRequest)
	var body errorResponse
	decodeJSONBody(t, rec, &body)
	if body.Error != "validation_failed" {
		t.Fatalf("unexpected error body %+v", body)
	}
	if rec.Header().Get("Cache-Control") != "" {
		t.Fatal("errors must not be cacheable")
	}
}

func TestAPI_Tags(t *testing.T) {
	f := setupAPI(t)
	var tags []interfaces.TagCount
	decodeJSONBody(t, doRequest(t, f.handler, "/api/writeups/tags", http.StatusOK), &tags)
	if len(tags) != 3 || tags[0].Name != "heap" || tags[1].Name != "pwn" || tags[2].Name != "web" {
		t.Fatalf("unexpected tags %+v", tags)
	}
}

func TestAPI_GetWriteup(t *testing.T) {
	f := setupAPI(t)

	var detail map[string]any
	decodeJSONBody(t, doRequest(t, f.handler, "/api/writeups/ctf2024/chal1", http.StatusOK), &detail)
	html, _ := detail["renderedHtml"].(string)
	if !strings.Contains(html, `<h1 id="intro">Intro</h1>`) || !strings.Contains(html, "<strong>bold</strong>") {
		t.Fatalf("unexpected html %s", html)
	}
	if _, ok := detail["body"]; ok {
		t.Fatal("raw body must not be serialised")
	}
	images, _ := detail["images"].([]any)
	if len(images) != 1 || images[0] != "/api/writeup-assets/ctf2024/chal1/shot.png" {
		t.Fatalf("unexpected images %v", detail["images"])
	}
}

func TestAPI_GetWriteupErrors(t *testing.T) {
	f := setupAPI(t)

	var body errorResponse
	decodeJSONBody(t, doRequest(t, f.handler, "/api/writeups/ctf2024/missing", http.StatusNotFound), &body)
	if body.Error != "not_found" {
		t.Fatalf("unexpected not found body %+v", body)
	}

	decodeJSONBody(t, doRequest(t, f.handler, "/api/writeups/", http.StatusBadRequest), &body)
	if body.Error != "bad_request" {
		t.Fatalf("unexpected bad request body %+v", body)
	}
}

type failingService struct{}

func (failingService) List(context.Context, interfaces.ListQuery) ([]interfaces.Writeup, error) {
	return nil, goerrors.New("listing failed", goerrors.CategoryInternal)
}

func (failingService) Get(context.Context, string) (*interfaces.RenderedWriteup, error) {
	return nil, goerrors.Wrap(errors.New("/srv/content/secret path"), goerrors.CategoryInternal, "writeup could not be rendered")
}

func (failingService) Tags(context.Context) ([]interfaces.TagCount, error) { return nil, nil }

func (failingService) Purge() {}

func TestAPI_GetWriteupInternalError(t *testing.T) {
	api := NewAPI(WithWriteupService(failingService{}))
	handler, err := api.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	rec := doRequest(t, handler, "/api/writeups/any/id", http.StatusInternalServerError)
	var body errorResponse
	decodeJSONBody(t, rec, &body)
	if body.Error != "internal_error" || body.Message != "writeup could not be rendered" {
		t.Fatalf("unexpected body %+v", body)
	}
	if strings.Contains(rec.Body.String(), "/srv/content") {
		t.Fatal("internal cause leaked to the client")
	}

	doRequest(t, handler, "/healthz", http.StatusServiceUnavailable)
}

func TestAPI_ServesAssets(t *testing.T) {
	f := setupAPI(t)
	rec := doRequest(t, f.handler, "/api/writeup-assets/ctf2024/chal1/shot.png", http.StatusOK)
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Cache-Control") != defaultAssetCacheControl {
		t.Fatalf("unexpected cache control %q", rec.Header().Get("Cache-Control"))
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	var body errorResponse
	decodeJSONBody(t, doRequest(t, f.handler, "/api/writeup-assets/ctf2024/chal1/nope.png", http.StatusNotFound), &body)
	if body.Error != "not_found" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAPI_AssetTraversalNeverTouchesFilesystem(t *testing.T) {
	f := setupAPI(t)
	for _, path := range []string{"../../etc/passwd", "ctf2024/../../../etc/passwd", "/etc/passwd"} {
		req := httptest.NewRequest(http.MethodGet, "/api/writeup-assets/x", nil)
		req.SetPathValue("path", path)
		rec := httptest.NewRecorder()
		f.api.handleAsset(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404 got %d", path, rec.Code)
		}
		var body errorResponse
		decodeJSONBody(t, rec, &body)
		if body.Message != "asset not found" || strings.Contains(rec.Body.String(), "etc") {
			t.Fatalf("%s: response leaks detail: %s", path, rec.Body.String())
		}
	}
	if f.spy.calls.Load() != 0 {
		t.Fatalf("filesystem touched %d times", f.spy.calls.Load())
	}
}

func TestAPI_Sitemap(t *testing.T) {
	f := setupAPI(t)
	rec := doRequest(t, f.handler, "/sitemap.xml", http.StatusOK)
	body := rec.Body.String()
	for _, want := range []string{
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		"<loc>https://team.example/</loc>",
		"<loc>https://team.example/about</loc>",
		"<loc>https://team.example/writeups/ctf2024/chal1</loc>",
		"<lastmod>2024-05-01</lastmod>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("sitemap missing %q:\n%s", want, body)
		}
	}
}

func TestAPI_Health(t *testing.T) {
	f := setupAPI(t)
	var body map[string]any
	decodeJSONBody(t, doRequest(t, f.handler, "/healthz", http.StatusOK), &body)
	if body["status"] != "ok" || body["writeups"] != float64(2) {
		t.Fatalf("unexpected health body %v", body)
	}
}

func TestAPI_OpenAPIDocument(t *testing.T) {
	f := setupAPI(t, WithVersion("1.0.0"))
	var body map[string]any
	decodeJSONBody(t, doRequest(t, f.handler, "/api/openapi.json", http.StatusOK), &body)
	if body["openapi"] != "3.0.3" {
		t.Fatalf("unexpected openapi version %v", body["openapi"])
	}
	info := body["info"].(map[string]any)
	if info["version"] != "1.0.0" {
		t.Fatalf("expected configured version, got %v", info["version"])
	}
	paths := body["paths"].(map[string]any)
	for _, path := range []string{"/api/writeups", "/api/writeups/{id}", "/api/writeup-assets/{path}", "/healthz"} {
		if _, ok := paths[path]; !ok {
			t.Fatalf("expected %s in document paths", path)
		}
	}
}

func TestAPI_RequestIDAndCORS(t *testing.T) {
	f := setupAPI(t, WithCORSOrigins("https://team.example"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://team.example")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://team.example" {
		t.Fatalf("unexpected allow origin %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-1234")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "req-1234" {
		t.Fatalf("expected request id to be echoed, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestAPI_ResponseCachePurge(t *testing.T) {
	f := setupAPI(t)
	doRequest(t, f.handler, "/api/writeups", http.StatusOK)
	f.api.ResponseCache().Purge()
	rec := doRequest(t, f.handler, "/api/writeups", http.StatusOK)
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Fatal("expected purge to drop cached response")
	}
}

func TestJoinPath(t *testing.T) {
	cases := map[[2]string]string{
		{"", ""}:             "/",
		{"/api", ""}:         "/api",
		{"api/", "writeups"}: "/api/writeups",
		{"/", "writeups"}:    "/writeups",
		{"/about", ""}:       "/about",
	}
	for in, want := range cases {
		if got := joinPath(in[0], in[1]); got != want {
			t.Fatalf("joinPath(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
