package interfaces

import (
	"context"
	"time"
)

// Writeup is the listing projection of a content unit. It never carries the
// body or rendered HTML.
type Writeup struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	CollectionName string    `json:"ctfName"`
	Date           time.Time `json:"date"`
	Tags           []string  `json:"tags"`
	Description    string    `json:"description"`
	Author         string    `json:"author"`
	CoverImage     string    `json:"coverImage,omitempty"`
}

// RenderedWriteup is the detail projection returned for a single id.
type RenderedWriteup struct {
	Writeup
	Body         string    `json:"-"`
	RenderedHTML string    `json:"renderedHtml"`
	TOC          []Heading `json:"toc"`
	Images       []string  `json:"images"`
	RenderTier   string    `json:"renderTier,omitempty"`
}

// TagCount is one entry of the aggregate tag facet.
type TagCount struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// ListQuery narrows a listing. Zero value returns everything.
type ListQuery struct {
	// Search is matched case-insensitively against title, collection name,
	// description and author.
	Search string
	// Tags match when a writeup carries any of them.
	Tags []string
}

// WriteupService is the query surface consumed by transports.
type WriteupService interface {
	List(ctx context.Context, query ListQuery) ([]Writeup, error)
	Get(ctx context.Context, id string) (*RenderedWriteup, error)
	Tags(ctx context.Context) ([]TagCount, error)
	Purge()
}
