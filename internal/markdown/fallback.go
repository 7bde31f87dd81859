package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-writeups/pkg/interfaces"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```([\\w+#.-]*)[^\\n]*\\n(.*?)\\n?```")
	inlineCode  = regexp.MustCompile("`([^`\\n]+)`")
	atxHeading  = regexp.MustCompile(`(?m)^(#{1,4})[ \t]+(.+?)[ \t#]*$`)
	imageLink   = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	plainLink   = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	boldText    = regexp.MustCompile(`\*\*([^*\n]+)\*\*|__([^_\n]+)__`)
	italicText  = regexp.MustCompile(`\*([^*\n]+)\*`)
	placeholder = regexp.MustCompile("\x00(\\d+)\x00")
)

// RegexStrategy is the third tier. It covers headings one to four, emphasis,
// fenced and inline code, images, links and line breaks with plain
// substitutions over escaped text, so raw HTML is not passed through.
func RegexStrategy() Strategy {
	return Strategy{Name: TierRegex, Render: renderRegex}
}

func renderRegex(src []byte) (Output, error) {
	text := html.EscapeString(string(src))

	var stash []string
	keep := func(fragment string) string {
		stash = append(stash, fragment)
		return "\x00" + strconv.Itoa(len(stash)-1) + "\x00"
	}

	text = fencedBlock.ReplaceAllStringFunc(text, func(m string) string {
		parts := fencedBlock.FindStringSubmatch(m)
		class := ""
		if parts[1] != "" {
			class = fmt.Sprintf(` class="language-%s"`, parts[1])
		}
		return "\n\n" + keep(fmt.Sprintf("<pre><code%s>%s</code></pre>", class, parts[2])) + "\n\n"
	})
	text = inlineCode.ReplaceAllStringFunc(text, func(m string) string {
		return keep("<code>" + inlineCode.FindStringSubmatch(m)[1] + "</code>")
	})

	ids := newHeadingIDs()
	var toc []interfaces.Heading
	text = atxHeading.ReplaceAllStringFunc(text, func(m string) string {
		parts := atxHeading.FindStringSubmatch(m)
		level := len(parts[1])
		expanded := placeholder.ReplaceAllStringFunc(parts[2], func(p string) string {
			return stash[stashIndex(p)]
		})
		label := html.UnescapeString(stripTags(inline(expanded)))
		id := ids.next(label)
		toc = append(toc, interfaces.Heading{Level: level, Text: label, ID: id})
		return "\n\n" + keep(fmt.Sprintf(`<h%d id="%s">%s</h%d>`, level, id, inline(parts[2]), level)) + "\n\n"
	})

	var blocks []string
	for block := range strings.SplitSeq(text, "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		if placeholder.MatchString(block) && placeholder.FindString(block) == block {
			blocks = append(blocks, block)
			continue
		}
		blocks = append(blocks, "<p>"+strings.ReplaceAll(inline(block), "\n", "<br>\n")+"</p>")
	}

	out := strings.Join(blocks, "\n")
	// headings stash inline fragments, so expand until no markers remain
	for range 3 {
		if !strings.Contains(out, "\x00") {
			break
		}
		out = placeholder.ReplaceAllStringFunc(out, func(p string) string {
			return stash[stashIndex(p)]
		})
	}
	return Output{HTML: out, TOC: toc}, nil
}

func inline(text string) string {
	text = imageLink.ReplaceAllString(text, `<img src="$2" alt="$1">`)
	text = plainLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = boldText.ReplaceAllString(text, `<strong>$1$2</strong>`)
	return italicText.ReplaceAllString(text, `<em>$1</em>`)
}

func stashIndex(marker string) int {
	n, _ := strconv.Atoi(strings.Trim(marker, "\x00"))
	return n
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func stripTags(fragment string) string {
	return tagPattern.ReplaceAllString(fragment, "")
}

// EscapeStrategy is the last tier and cannot fail: the text is escaped and
// wrapped in a pre block.
func EscapeStrategy() Strategy {
	return Strategy{
		Name: TierEscape,
		Render: func(src []byte) (Output, error) {
			return Output{HTML: "<pre>" + html.EscapeString(string(src)) + "</pre>"}, nil
		},
	}
}
