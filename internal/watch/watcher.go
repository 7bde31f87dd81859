// Package watch purges the writeup caches when the content tree changes.
// TTL expiry stays the contract; watching only shortens staleness while
// authoring locally.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fsnotify/fsnotify"
	command "github.com/goliatone/go-command"

	cachecmd "github.com/goliatone/go-writeups/internal/commands/cache"
	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	defaultDebounce  = 500 * time.Millisecond
	maxReportedPaths = 20
)

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher observes every directory below root and dispatches a purge after
// changes settle for the debounce window.
type Watcher struct {
	root     string
	debounce time.Duration
	purge    command.Commander[cachecmd.PurgeCachesCommand]
	logger   interfaces.Logger
	fsw      *fsnotify.Watcher

	ready     chan struct{}
	readyOnce sync.Once
	pending   mapset.Set[string]
}

func New(root string, purge command.Commander[cachecmd.PurgeCachesCommand], opts ...Option) (*Watcher, error) {
	if purge == nil {
		return nil, errors.New("watch: purge handler is nil")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     filepath.Clean(root),
		debounce: defaultDebounce,
		purge:    purge,
		logger:   logging.NoOp(),
		fsw:      fsw,
		ready:    make(chan struct{}),
		pending:  mapset.NewThreadUnsafeSet[string](),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Ready is closed once the initial directory tree is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is done. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.markReady()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.markReady()
	w.logger.Info("watch.started", "path", w.root, "directories", len(w.fsw.WatchList()))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch.error", "error", err)
		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handle records the event and reports whether it should (re)arm the
// debounce timer.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod || event.Name == "" {
		return false
	}
	if hidden(w.root, event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if err := w.addTree(event.Name); err != nil {
			w.logger.Warn("watch.add_failed", "path", event.Name, "error", err)
		}
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}
	w.pending.Add(filepath.ToSlash(rel))
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	if w.pending.IsEmpty() {
		return
	}
	paths := w.pending.ToSlice()
	slices.Sort(paths)
	w.pending.Clear()
	if len(paths) > maxReportedPaths {
		paths = paths[:maxReportedPaths]
	}
	err := w.purge.Execute(ctx, cachecmd.PurgeCachesCommand{
		Reason: cachecmd.ReasonWatch,
		Paths:  paths,
	})
	if err != nil {
		w.logger.Error("watch.purge_failed", "error", err)
		return
	}
	w.logger.Debug("watch.purged", "paths", len(paths))
}

// addTree watches dir and every non hidden directory below it. A path that
// is not a directory is ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			w.logger.Warn("watch.dir_unreadable", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) markReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for segment := range strings.SplitSeq(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(segment, ".") && segment != "." && segment != ".." {
			return true
		}
	}
	return false
}
