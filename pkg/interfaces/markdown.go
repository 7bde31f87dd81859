package interfaces

import (
	"context"
	"time"
)

// MarkdownRenderer turns a writeup body into HTML. An error is returned only
// when every rendering strategy failed.
type MarkdownRenderer interface {
	Render(ctx context.Context, body []byte) (RenderResult, error)
}

// RenderResult is the output of a render pass. Tier names the strategy that
// produced the HTML so callers can tell when content degraded.
type RenderResult struct {
	HTML string
	TOC  []Heading
	Tier string
}

// Heading is one table-of-contents entry. ID matches the anchor emitted on
// the rendered heading element.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// FrontMatter is the typed metadata block of a writeup after defaults have
// been applied. Consumers never need nil checks on it.
type FrontMatter struct {
	Title          string
	CollectionName string
	Author         string
	Description    string
	Date           time.Time
	Tags           []string
	CoverImage     string
	// Extra carries keys the envelope does not model.
	Extra map[string]any
}
