package markdown

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderer_HappyPath(t *testing.T) {
	r := NewRenderer()

	res, err := r.Render(context.Background(), []byte("# Intro\nSome **bold** text."))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Tier != TierFull {
		t.Fatalf("expected full tier, got %q", res.Tier)
	}
	if !strings.Contains(res.HTML, `<h1 id="intro">Intro</h1>`) {
		t.Fatalf("expected anchored heading, got %q", res.HTML)
	}
	if !strings.Contains(res.HTML, "<strong>bold</strong>") {
		t.Fatalf("expected bold markup, got %q", res.HTML)
	}
	if len(res.TOC) != 1 || res.TOC[0].ID != "intro" || res.TOC[0].Text != "Intro" || res.TOC[0].Level != 1 {
		t.Fatalf("unexpected toc: %#v", res.TOC)
	}
}

func TestRenderer_HeadingCollisionsAndTOC(t *testing.T) {
	src := "# Setup\n\n## Setup\n\n### Setup\n\n##### Deep\n\n## Using `gdb` **now**"

	res, err := NewRenderer().Render(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{`id="setup"`, `id="setup-1"`, `id="setup-2"`, `id="using-gdb-now"`} {
		if !strings.Contains(res.HTML, want) {
			t.Fatalf("expected %s in %q", want, res.HTML)
		}
	}
	if len(res.TOC) != 4 {
		t.Fatalf("expected level five heading excluded from toc, got %#v", res.TOC)
	}
	if res.TOC[2].ID != "setup-2" || res.TOC[2].Level != 3 {
		t.Fatalf("unexpected toc entry: %#v", res.TOC[2])
	}
	if res.TOC[3].Text != "Using gdb now" {
		t.Fatalf("expected plain heading text, got %q", res.TOC[3].Text)
	}
}

func TestRenderer_HighlightsFencedCode(t *testing.T) {
	src := "```go\nfunc main() {}\n```\n"

	res, err := NewRenderer().Render(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{`class="chroma"`, `class="ln"`, `language-go`} {
		if !strings.Contains(res.HTML, want) {
			t.Fatalf("expected %s in %q", want, res.HTML)
		}
	}
}

func TestRenderer_UnknownLanguageStillEscaped(t *testing.T) {
	src := "```nosuchlang\nif a < b {}\n```\n"

	res, err := NewRenderer().Render(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(res.HTML, "<pre><code>if a &lt; b {}") {
		t.Fatalf("expected escaped plain block, got %q", res.HTML)
	}
	if !strings.Contains(res.HTML, `data-language="nosuchlang"`) {
		t.Fatalf("expected language marker, got %q", res.HTML)
	}
}

func TestRenderer_GFMAndRawHTML(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~ https://example.com\n\n<kbd>Ctrl</kbd>"

	res, err := NewRenderer().Render(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"<table>", "<del>gone</del>", `<a href="https://example.com">`, "<kbd>Ctrl</kbd>"} {
		if !strings.Contains(res.HTML, want) {
			t.Fatalf("expected %s in %q", want, res.HTML)
		}
	}
}

func TestRenderer_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t", "\u200b\ufeff"} {
		res, err := NewRenderer().Render(context.Background(), []byte(input))
		if err != nil {
			t.Fatalf("expected no error for %q, got %v", input, err)
		}
		if res.HTML != "" || res.Tier != "" {
			t.Fatalf("expected empty result for %q, got %#v", input, res)
		}
	}
}

func TestRenderer_NeverFailsOnHostileInput(t *testing.T) {
	inputs := []string{
		"```python\nprint('never closed')\n",
		"\x00\xff\xfe garbage \x89PNG\r\n\x1a\n",
		strings.Repeat("[", 5000),
		"<div><span>unbalanced",
		"~~~\n```\n~~~~",
	}
	r := NewRenderer()
	for _, input := range inputs {
		res, err := r.Render(context.Background(), []byte(input))
		if err != nil {
			t.Fatalf("Render(%q) returned error %v", input, err)
		}
		if strings.TrimSpace(res.HTML) == "" {
			t.Fatalf("Render(%q) returned empty html", input)
		}
	}
}

func TestRenderer_FallsThroughTiers(t *testing.T) {
	panicking := Strategy{Name: "panics", Render: func([]byte) (Output, error) { panic("boom") }}
	failing := Strategy{Name: "fails", Render: func([]byte) (Output, error) { return Output{}, errors.New("nope") }}
	blank := Strategy{Name: "blank", Render: func([]byte) (Output, error) { return Output{HTML: "  "}, nil }}

	r := NewRenderer(WithStrategies(panicking, failing, blank, RegexStrategy(), EscapeStrategy()))

	res, err := r.Render(context.Background(), []byte("## Fallback\nwith **bold**"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Tier != TierRegex {
		t.Fatalf("expected regex tier, got %q", res.Tier)
	}
	if !strings.Contains(res.HTML, `<h2 id="fallback">Fallback</h2>`) {
		t.Fatalf("unexpected regex output %q", res.HTML)
	}
}

func TestRenderer_EscapeTierIsLastResort(t *testing.T) {
	failing := Strategy{Name: "fails", Render: func([]byte) (Output, error) { return Output{}, errors.New("nope") }}
	r := NewRenderer(WithStrategies(failing, EscapeStrategy()))

	res, err := r.Render(context.Background(), []byte("<script>x</script>"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Tier != TierEscape || res.HTML != "<pre>&lt;script&gt;x&lt;/script&gt;</pre>" {
		t.Fatalf("unexpected escape output %#v", res)
	}
}

func TestRenderer_AllStrategiesFail(t *testing.T) {
	failing := Strategy{Name: "fails", Render: func([]byte) (Output, error) { return Output{}, errors.New("nope") }}
	r := NewRenderer(WithStrategies(failing, Strategy{Name: "nil"}))

	if _, err := r.Render(context.Background(), []byte("text")); !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
}

func TestRegexStrategy(t *testing.T) {
	src := "# Title\n\nSome **bold** and *it* with `a<b` [link](http://x) ![alt](img.png)\nnext line\n\n```go\nx := 1 < 2\n```\n\n#### Title"

	out, err := RegexStrategy().Render(Preprocess([]byte(src)))
	if err != nil {
		t.Fatalf("regex strategy: %v", err)
	}
	for _, want := range []string{
		`<h1 id="title">Title</h1>`,
		`<h4 id="title-1">Title</h4>`,
		"<strong>bold</strong>",
		"<em>it</em>",
		"<code>a&lt;b</code>",
		`<a href="http://x">link</a>`,
		`<img src="img.png" alt="alt">`,
		"<br>\nnext line",
		`<pre><code class="language-go">x := 1 &lt; 2</code></pre>`,
	} {
		if !strings.Contains(out.HTML, want) {
			t.Fatalf("expected %s in %q", want, out.HTML)
		}
	}
	if strings.Contains(out.HTML, "\x00") {
		t.Fatalf("placeholder leaked into output %q", out.HTML)
	}
	if len(out.TOC) != 2 || out.TOC[1].ID != "title-1" {
		t.Fatalf("unexpected toc %#v", out.TOC)
	}
}

func TestPreprocess(t *testing.T) {
	src := "a\u200bb\ufeff\r\n```sh   \r\necho hi   \t\r\n```  \r\nafter  \rend"

	got := string(Preprocess([]byte(src)))
	want := "ab\n```sh\necho hi\n```\nafter  \nend"
	if got != want {
		t.Fatalf("Preprocess mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":         "hello-world",
		"  Multiple   spaces  ": "multiple-spaces",
		"[link](http://x) text": "link-text",
		"C++ & Go":              "c-go",
		"snake_case-ok":         "snake_case-ok",
		"!!!":                   "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHeadingIDsAvoidExistingSuffix(t *testing.T) {
	ids := newHeadingIDs()
	got := []string{ids.next("Intro 1"), ids.next("Intro"), ids.next("Intro"), ids.next("!!!")}
	want := []string{"intro-1", "intro", "intro-2", "heading"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("id %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
