package markdown

import (
	"strings"
)

var invisibleReplacer = strings.NewReplacer(
	"\u200b", "",
	"\ufeff", "",
	"\ufffd", "",
	"\r\n", "\n",
	"\r", "\n",
)

// Preprocess normalises pasted content before any strategy sees it: invalid
// UTF-8 and invisible characters are dropped, line endings become "\n", and
// lines inside fenced code blocks lose trailing whitespace.
func Preprocess(body []byte) []byte {
	text := invisibleReplacer.Replace(strings.ToValidUTF8(string(body), ""))

	lines := strings.Split(text, "\n")
	var fence string
	for i, line := range lines {
		marker := fenceMarker(line)
		switch {
		case fence == "" && marker != "":
			fence = marker
			lines[i] = strings.TrimRight(line, " \t")
		case fence != "":
			lines[i] = strings.TrimRight(line, " \t")
			if marker != "" && strings.HasPrefix(marker, fence[:1]) && len(marker) >= len(fence) {
				fence = ""
			}
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

// fenceMarker returns the run of ``` or ~~~ opening line, or "".
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return ""
	}
	for _, ch := range []byte{'`', '~'} {
		n := 0
		for n < len(trimmed) && trimmed[n] == ch {
			n++
		}
		if n >= 3 {
			return trimmed[:n]
		}
	}
	return ""
}
