package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-writeups/internal/assets"
	"github.com/goliatone/go-writeups/internal/cache"
	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/internal/openapi"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	defaultBasePath          = "/api"
	defaultListCacheControl  = "public, s-maxage=3600, stale-while-revalidate=86400"
	defaultAssetCacheControl = "public, max-age=3600"
	defaultResponseTTL       = 10 * time.Minute
	defaultVersion           = "dev"
	sitemapPath              = "/sitemap.xml"
	healthPath               = "/healthz"
)

// AssetOpener resolves and opens a content asset.
type AssetOpener interface {
	Open(segments []string) (assets.Asset, io.ReadSeekCloser, error)
}

// Site describes the public site used to build the sitemap.
type Site struct {
	BaseURL     string
	StaticPaths []string
}

// API serves writeups, their assets, the sitemap and a health probe.
type API struct {
	basePath          string
	service           interfaces.WriteupService
	assets            AssetOpener
	responses         *cache.TTL[cachedResponse]
	listCacheControl  string
	assetCacheControl string
	corsOrigins       []string
	site              Site
	logger            interfaces.Logger
	clock             interfaces.Clock
	responseTTL       time.Duration
	version           string
	maintenance       func() any
}

// Option mutates the API configuration.
type Option func(*API)

func NewAPI(opts ...Option) *API {
	api := &API{
		basePath:          defaultBasePath,
		listCacheControl:  defaultListCacheControl,
		assetCacheControl: defaultAssetCacheControl,
		logger:            logging.NoOp(),
		clock:             time.Now,
		responseTTL:       defaultResponseTTL,
		version:           defaultVersion,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	api.responses = cache.New[cachedResponse](api.responseTTL, cache.WithClock(api.clock))
	return api
}

// WithBasePath overrides the base API path (defaults to "/api").
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

func WithWriteupService(service interfaces.WriteupService) Option {
	return func(api *API) {
		api.service = service
	}
}

func WithAssets(opener AssetOpener) Option {
	return func(api *API) {
		api.assets = opener
	}
}

// WithCacheControl sets the Cache-Control values for listings and assets.
// Empty values keep the defaults.
func WithCacheControl(list, asset string) Option {
	return func(api *API) {
		if strings.TrimSpace(list) != "" {
			api.listCacheControl = list
		}
		if strings.TrimSpace(asset) != "" {
			api.assetCacheControl = asset
		}
	}
}

// WithResponseTTL sets how long encoded listing responses are reused.
func WithResponseTTL(ttl time.Duration) Option {
	return func(api *API) {
		if ttl > 0 {
			api.responseTTL = ttl
		}
	}
}

func WithCORSOrigins(origins ...string) Option {
	return func(api *API) {
		api.corsOrigins = append(api.corsOrigins, origins...)
	}
}

func WithSite(site Site) Option {
	return func(api *API) {
		api.site = site
	}
}

// WithVersion sets the version reported by the OpenAPI document.
func WithVersion(version string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(version); trimmed != "" {
			api.version = trimmed
		}
	}
}

// WithMaintenanceReport adds the value returned by report to the health
// response under "maintenance".
func WithMaintenanceReport(report func() any) Option {
	return func(api *API) {
		api.maintenance = report
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

func WithClock(clock interfaces.Clock) Option {
	return func(api *API) {
		if clock != nil {
			api.clock = clock
		}
	}
}

// ResponseCache exposes the encoded response cache so it can join the
// maintenance group.
func (api *API) ResponseCache() cache.Maintainable {
	return api.responses
}

// Register attaches every route to mux.
func (api *API) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: api is nil")
	}

	base := joinPath(api.basePath, "")
	api.registerWriteupRoutes(mux, base)
	api.registerAssetRoutes(mux, base)
	mux.HandleFunc("GET "+joinPath(base, "openapi.json"), api.handleOpenAPI)
	mux.HandleFunc("GET "+sitemapPath, api.handleSitemap)
	mux.HandleFunc("GET "+healthPath, api.handleHealth)
	return nil
}

// Handler returns a mux with every route registered, wrapped in request
// logging and, when origins are configured, CORS.
func (api *API) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		return nil, err
	}
	var handler http.Handler = mux
	handler = withCORS(handler, api.corsOrigins)
	handler = withRequestContext(handler, api.logger, api.clock)
	return handler, nil
}

func (api *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if api.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	items, err := api.service.List(r.Context(), interfaces.ListQuery{})
	if err != nil {
		api.logFailure(r.Context(), "http.health.failed", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
		return
	}
	body := map[string]any{
		"status":   "ok",
		"writeups": len(items),
	}
	if api.maintenance != nil {
		body["maintenance"] = api.maintenance()
	}
	writeJSON(w, http.StatusOK, body)
}

func (api *API) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	doc := openapi.WriteupsDocument(openapi.Routes{
		Writeups: joinPath(api.basePath, "writeups"),
		Assets:   AssetPrefix(api.basePath),
		Sitemap:  sitemapPath,
		Health:   healthPath,
	}, api.version)
	writeJSON(w, http.StatusOK, doc.AsMap())
}

func (api *API) logFailure(ctx context.Context, msg string, err error) {
	api.logger.WithContext(ctx).Error(msg, "error", err)
}
