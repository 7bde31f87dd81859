// Package writeups is the list/detail query layer over the content tree. It
// owns the metadata and rendered-detail caches and reconciles ids to folders.
package writeups

import (
	"cmp"
	"context"
	"net/url"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"

	"github.com/goliatone/go-writeups/internal/cache"
	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/internal/markdown"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const listKey = "all"

// Config carries the knobs the query layer needs from runtimeconfig.
type Config struct {
	ContentDir string
	ListTTL    time.Duration
	DetailTTL  time.Duration
	// AssetBasePath prefixes image URLs, e.g. "/api/writeup-assets".
	AssetBasePath string
}

type Option func(*Service)

func WithClock(clock interfaces.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(s *Service) {
		s.logger = logging.QueryLogger(provider)
		s.scanLogger = logging.ScannerLogger(provider)
	}
}

func WithRenderer(renderer interfaces.MarkdownRenderer) Option {
	return func(s *Service) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithReadFile swaps the function used to read content files.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.readFile = fn
		}
	}
}

// Service implements interfaces.WriteupService over a directory tree.
type Service struct {
	cfg        Config
	scanner    *markdown.Scanner
	renderer   interfaces.MarkdownRenderer
	list       *cache.TTL[[]interfaces.Writeup]
	detail     *cache.TTL[*interfaces.RenderedWriteup]
	group      singleflight.Group
	clock      interfaces.Clock
	readFile   func(string) ([]byte, error)
	logger     interfaces.Logger
	scanLogger interfaces.Logger
}

var _ interfaces.WriteupService = (*Service)(nil)

func NewService(cfg Config, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		clock:      time.Now,
		readFile:   os.ReadFile,
		logger:     logging.NoOp(),
		scanLogger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = markdown.NewRenderer()
	}
	s.scanner = markdown.NewScanner(cfg.ContentDir, s.scanLogger)
	s.list = cache.New[[]interfaces.Writeup](cfg.ListTTL, cache.WithClock(s.clock))
	s.detail = cache.New[*interfaces.RenderedWriteup](cfg.DetailTTL, cache.WithClock(s.clock))
	return s
}

// List returns writeup metadata newest first, ties ordered by id. The query
// filters the cached listing; it never triggers a render.
func (s *Service) List(ctx context.Context, query interfaces.ListQuery) ([]interfaces.Writeup, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}
	all, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, query), nil
}

// Tags aggregates tag usage across the listing, sorted by name.
func (s *Service) Tags(ctx context.Context) ([]interfaces.TagCount, error) {
	all, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, item := range all {
		for _, tag := range item.Tags {
			counts[tag]++
		}
	}
	out := make([]interfaces.TagCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, interfaces.TagCount{Name: name, Slug: TagSlug(name), Count: count})
	}
	slices.SortFunc(out, func(a, b interfaces.TagCount) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// Get resolves id and returns the rendered writeup. Concurrent misses for the
// same id share a single render.
func (s *Service) Get(ctx context.Context, id string) (*interfaces.RenderedWriteup, error) {
	clean, err := markdown.CleanID(id)
	if err != nil {
		return nil, invalidIDError(err)
	}
	if cached, ok := s.detail.Get(clean); ok {
		return cloneRendered(cached), nil
	}
	// a client going away must not discard a render others will reuse
	detached := context.WithoutCancel(ctx)
	value, err, shared := s.group.Do("detail:"+clean, func() (any, error) {
		return s.load(detached, clean)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.WithContext(ctx).Debug("query.detail.shared", "writeup_id", clean)
	}
	return cloneRendered(value.(*interfaces.RenderedWriteup)), nil
}

// Purge drops both caches.
func (s *Service) Purge() {
	s.list.Purge()
	s.detail.Purge()
}

// Sweep reclaims stale cache entries and reports how many were dropped.
func (s *Service) Sweep() int {
	return s.list.Sweep() + s.detail.Sweep()
}

// Prewarm rebuilds the listing cache and returns its size.
func (s *Service) Prewarm(ctx context.Context) (int, error) {
	s.list.Delete(listKey)
	all, err := s.listAll(ctx)
	return len(all), err
}

func (s *Service) listAll(ctx context.Context) ([]interfaces.Writeup, error) {
	if cached, ok := s.list.Get(listKey); ok {
		return cached, nil
	}
	value, err, _ := s.group.Do("list", func() (any, error) {
		items := s.scanAll(context.WithoutCancel(ctx))
		s.list.Put(listKey, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]interfaces.Writeup), nil
}

func (s *Service) scanAll(ctx context.Context) []interfaces.Writeup {
	started := s.clock()
	folders := s.scanner.FindContentFolders(ctx)
	items := make([]interfaces.Writeup, 0, len(folders))
	for _, folder := range folders {
		data, err := s.readFile(folder.FilePath())
		if err != nil {
			logging.WithWriteup(s.logger, folder.ID, folder.FilePath()).Warn("query.list.read_failed", "error", err)
			continue
		}
		fm := s.frontMatter(folder, data, started).FrontMatter
		items = append(items, s.project(folder, fm))
	}
	SortWriteups(items)
	s.logger.WithContext(ctx).Debug("query.list.scanned",
		"count", len(items),
		"elapsed", s.clock().Sub(started),
	)
	return items
}

func (s *Service) load(ctx context.Context, id string) (*interfaces.RenderedWriteup, error) {
	folder, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	logger := logging.WithWriteup(s.logger, folder.ID, folder.FilePath()).WithContext(ctx)

	data, err := s.readFile(folder.FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFoundError(id)
		}
		return nil, readError(id, err)
	}
	doc := s.frontMatter(folder, data, s.clock())
	result, err := s.renderer.Render(ctx, doc.Body)
	if err != nil {
		logger.Error("query.detail.render_failed", "error", err)
		return nil, renderError(id, err)
	}
	if result.Tier != "" && result.Tier != markdown.TierFull {
		logger.Warn("query.detail.degraded", "tier", result.Tier)
	}

	toc := result.TOC
	if toc == nil {
		toc = []interfaces.Heading{}
	}
	rendered := &interfaces.RenderedWriteup{
		Writeup:      s.project(folder, doc.FrontMatter),
		Body:         string(doc.Body),
		RenderedHTML: result.HTML,
		TOC:          toc,
		Images:       s.imageURLs(folder),
		RenderTier:   result.Tier,
	}
	s.detail.Put(id, rendered)
	logger.Debug("query.detail.rendered", "tier", result.Tier)
	return rendered, nil
}

// resolve maps id to a folder: a direct join first, then a full scan that
// compares ids after Unicode normalisation, since folders created on some
// filesystems store decomposed names.
func (s *Service) resolve(ctx context.Context, id string) (markdown.ContentFolder, error) {
	folder, ok, err := s.scanner.Locate(id)
	if err != nil {
		return markdown.ContentFolder{}, invalidIDError(err)
	}
	if ok {
		return folder, nil
	}
	want := norm.NFC.String(id)
	for _, candidate := range s.scanner.FindContentFolders(ctx) {
		if norm.NFC.String(candidate.ID) == want {
			s.logger.WithContext(ctx).Debug("query.detail.resolved_by_scan", "writeup_id", id, "folder_id", candidate.ID)
			return candidate, nil
		}
	}
	return markdown.ContentFolder{}, notFoundError(id)
}

// frontMatter parses data and fills defaults. Undated units take now, so a
// single scan hands every one of them the same date.
func (s *Service) frontMatter(folder markdown.ContentFolder, data []byte, now time.Time) markdown.Document {
	doc := markdown.ParseFrontMatter(data)
	if doc.Err != nil {
		logging.WithWriteup(s.logger, folder.ID, folder.FilePath()).Warn("query.frontmatter.malformed", "error", doc.Err)
	}
	doc.FrontMatter = markdown.ApplyDefaults(doc.FrontMatter, folder.ID, now)
	return doc
}

func (s *Service) project(folder markdown.ContentFolder, fm interfaces.FrontMatter) interfaces.Writeup {
	cover := fm.CoverImage
	switch {
	case cover != "" && isRelativeAsset(cover):
		cover = s.assetURL(folder.ID, strings.TrimPrefix(cover, "./"))
	case cover == "" && len(folder.Images) > 0:
		cover = s.assetURL(folder.ID, folder.Images[0])
	}
	return interfaces.Writeup{
		ID:             folder.ID,
		Title:          fm.Title,
		CollectionName: fm.CollectionName,
		Date:           fm.Date,
		Tags:           slices.Clone(fm.Tags),
		Description:    fm.Description,
		Author:         fm.Author,
		CoverImage:     cover,
	}
}

func (s *Service) imageURLs(folder markdown.ContentFolder) []string {
	urls := make([]string, 0, len(folder.Images))
	for _, name := range folder.Images {
		urls = append(urls, s.assetURL(folder.ID, name))
	}
	return urls
}

func (s *Service) assetURL(id, file string) string {
	segments := strings.Split(path.Join(id, file), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.TrimRight(s.cfg.AssetBasePath, "/") + "/" + strings.Join(segments, "/")
}

func isRelativeAsset(ref string) bool {
	if strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return false
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// SortWriteups orders by date descending, then id ascending.
func SortWriteups(items []interfaces.Writeup) {
	slices.SortStableFunc(items, func(a, b interfaces.Writeup) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func cloneRendered(src *interfaces.RenderedWriteup) *interfaces.RenderedWriteup {
	if src == nil {
		return nil
	}
	out := *src
	out.Tags = slices.Clone(src.Tags)
	out.TOC = slices.Clone(src.TOC)
	out.Images = slices.Clone(src.Images)
	return &out
}
