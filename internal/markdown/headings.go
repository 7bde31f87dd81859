package markdown

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"

	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const maxTOCLevel = 4

var linkTarget = regexp.MustCompile(`\]\([^)]*\)`)

// Slugify lowercases text, turns whitespace runs into "-" and drops every
// character that is not a letter, digit, "-" or "_".
func Slugify(text string) string {
	text = linkTarget.ReplaceAllString(text, "]")
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsSpace(r):
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(r)
			dash = r == '-'
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// headingIDs hands out unique anchors for one document. A repeated slug gets
// "-1", "-2" and so on appended. It satisfies goldmark's parser.IDs so the
// AST and the regex tier agree on anchors.
type headingIDs struct {
	seen map[string]int
}

var _ parser.IDs = (*headingIDs)(nil)

func newHeadingIDs() *headingIDs {
	return &headingIDs{seen: map[string]int{}}
}

func (h *headingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	return []byte(h.next(string(value)))
}

func (h *headingIDs) Put(value []byte) {
	h.seen[string(value)]++
}

func (h *headingIDs) next(text string) string {
	base := Slugify(text)
	if base == "" {
		base = "heading"
	}
	id := base
	for n := h.seen[base]; ; n++ {
		if n > 0 {
			id = base + "-" + strconv.Itoa(n)
		}
		if _, taken := h.seen[id]; !taken {
			break
		}
	}
	h.seen[base]++
	if id != base {
		h.seen[id]++
	}
	return id
}

// collectTOC walks a parsed document and returns headings up to level four
// with the ids goldmark attached to them.
func collectTOC(doc ast.Node, source []byte) []interfaces.Heading {
	var toc []interfaces.Heading
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		heading, ok := node.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level > maxTOCLevel {
			return ast.WalkSkipChildren, nil
		}
		entry := interfaces.Heading{
			Level: heading.Level,
			Text:  strings.TrimSpace(string(heading.Text(source))),
		}
		if raw, ok := heading.AttributeString("id"); ok {
			if id, ok := raw.([]byte); ok {
				entry.ID = string(id)
			}
		}
		toc = append(toc, entry)
		return ast.WalkSkipChildren, nil
	})
	return toc
}
