package markdown

import (
	"bytes"
	"html/template"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// HighlightStyle is the chroma style used when CSS is generated for the
// highlighted blocks. Output uses classes, so it only matters for the sheet.
const HighlightStyle = "github-dark"

// FullStrategy is the primary tier: GFM, raw HTML, chroma highlighting with
// line numbers and heading anchors. It also yields the table of contents.
func FullStrategy() Strategy {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(HighlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.WithLineNumbers(true),
				),
				highlighting.WithWrapperRenderer(codeBlockWrapper),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return Strategy{
		Name: TierFull,
		Render: func(src []byte) (Output, error) {
			ctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
			doc := md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))
			var buf bytes.Buffer
			if err := md.Renderer().Render(&buf, src, doc); err != nil {
				return Output{}, err
			}
			return Output{HTML: buf.String(), TOC: collectTOC(doc, src)}, nil
		},
	}
}

// ReducedStrategy drops highlighting and anchors but keeps GFM and raw HTML.
func ReducedStrategy() Strategy {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return Strategy{
		Name: TierReduced,
		Render: func(src []byte) (Output, error) {
			var buf bytes.Buffer
			if err := md.Convert(src, &buf); err != nil {
				return Output{}, err
			}
			return Output{HTML: buf.String()}, nil
		},
	}
}

// codeBlockWrapper tags every fenced block with its language. goldmark-
// highlighting leaves the pre/code pair to the wrapper for blocks it could
// not highlight.
func codeBlockWrapper(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	lang, hasLang := ctx.Language()
	if entering {
		_, _ = w.WriteString(`<div class="code-block`)
		if hasLang && len(lang) > 0 {
			_, _ = w.WriteString(` language-`)
			_, _ = w.WriteString(template.HTMLEscapeString(string(lang)))
			_, _ = w.WriteString(`" data-language="`)
			_, _ = w.WriteString(template.HTMLEscapeString(string(lang)))
		}
		_, _ = w.WriteString(`">`)
		if !ctx.Highlighted() {
			_, _ = w.WriteString(`<pre><code>`)
		}
		return
	}
	if !ctx.Highlighted() {
		_, _ = w.WriteString(`</code></pre>`)
	}
	_, _ = w.WriteString("</div>\n")
}
