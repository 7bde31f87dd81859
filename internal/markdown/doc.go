// Package markdown turns a tree of writeup folders into typed documents and
// HTML. It owns folder discovery, id derivation, frontmatter extraction and
// the layered rendering pipeline; caching and HTTP live elsewhere.
package markdown
