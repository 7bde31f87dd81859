package writeups_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-writeups"
	"github.com/goliatone/go-writeups/internal/logging/console"
)

const writeupTemplate = `---
title: %s
ctfName: ExampleCTF
date: 2024-05-01
tags: [pwn]
---
Body`

func addWriteup(t *testing.T, root, id, title string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := fmt.Sprintf(writeupTemplate, title)
	if err := os.WriteFile(filepath.Join(dir, "main.md"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newModule(t *testing.T, mutate func(*writeups.Config)) (*writeups.Module, string) {
	t.Helper()
	root := t.TempDir()
	cfg := writeups.DefaultConfig()
	cfg.ContentDir = root
	cfg.Cache.SweepSchedule = ""
	if mutate != nil {
		mutate(&cfg)
	}
	quiet := console.NewProvider(console.Options{Writer: &strings.Builder{}, MinLevel: console.LevelFatal})
	module, err := writeups.New(cfg, writeups.WithLoggerProvider(quiet))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return module, root
}

func TestModuleServesListing(t *testing.T) {
	module, root := newModule(t, nil)
	addWriteup(t, root, "ctf2024/chal1", "Heap Overflow")

	handler, err := module.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/writeups", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Heap Overflow") {
		t.Fatalf("expected listing to include writeup, got %s", rec.Body.String())
	}
}

func TestModulePurgeRefreshesListing(t *testing.T) {
	module, root := newModule(t, nil)
	addWriteup(t, root, "ctf2024/chal1", "First")
	ctx := context.Background()

	items, err := module.Writeups().List(ctx, writeups.ListQuery{})
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one writeup, got %d (%v)", len(items), err)
	}

	addWriteup(t, root, "ctf2024/chal2", "Second")
	items, _ = module.Writeups().List(ctx, writeups.ListQuery{})
	if len(items) != 1 {
		t.Fatalf("expected cached listing, got %d items", len(items))
	}

	if err := module.Purge(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	items, _ = module.Writeups().List(ctx, writeups.ListQuery{})
	if len(items) != 2 {
		t.Fatalf("expected purge to expose new writeup, got %d items", len(items))
	}
	if err := module.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
}

func TestModuleStartAndStop(t *testing.T) {
	module, root := newModule(t, func(cfg *writeups.Config) {
		cfg.Cache.SweepSchedule = "@every 1h"
		cfg.Cache.Prewarm = true
		cfg.Watch.Enabled = true
	})
	addWriteup(t, root, "ctf2024/chal1", "First")

	stop, err := module.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	stop()
	stop()
}
