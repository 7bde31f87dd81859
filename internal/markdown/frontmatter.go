package markdown

import (
	"bytes"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	DefaultTitle      = "Untitled"
	DefaultCollection = "Unknown CTF"
	DefaultAuthor     = "Anonymous"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Document is a content file split into metadata and body.
type Document struct {
	FrontMatter interfaces.FrontMatter
	Body        []byte
	// Err is set when the metadata block was discarded. The document is still
	// usable: FrontMatter holds defaults and Body the full source.
	Err error
}

// ParseFrontMatter splits source into metadata and body. Missing or malformed
// frontmatter never fails; it yields empty metadata and the whole source as
// body. Defaults are not applied here, see ApplyDefaults.
func ParseFrontMatter(source []byte) Document {
	var env frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &env)
	if err != nil {
		return Document{Body: source, Err: fmt.Errorf("parse frontmatter: %w", err)}
	}
	return Document{FrontMatter: env.toFrontMatter(), Body: body}
}

// ApplyDefaults fills every empty field so downstream code never checks for
// zero values. id supplies the title fallback, now the date fallback.
func ApplyDefaults(fm interfaces.FrontMatter, id string, now time.Time) interfaces.FrontMatter {
	if strings.TrimSpace(fm.Title) == "" {
		fm.Title = HumanizeID(id)
	}
	if strings.TrimSpace(fm.CollectionName) == "" {
		fm.CollectionName = DefaultCollection
	}
	if strings.TrimSpace(fm.Author) == "" {
		fm.Author = DefaultAuthor
	}
	if fm.Date.IsZero() {
		fm.Date = now
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	if fm.Extra == nil {
		fm.Extra = map[string]any{}
	}
	return fm
}

var titleCaser = cases.Title(language.English)

// HumanizeID turns the last id segment into a display title, "heap-overflow"
// becoming "Heap Overflow". It returns DefaultTitle when nothing is left.
func HumanizeID(id string) string {
	base := path.Base(strings.Trim(id, "/"))
	if base == "." || base == "/" {
		return DefaultTitle
	}
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	if len(words) == 0 {
		return DefaultTitle
	}
	return titleCaser.String(strings.Join(words, " "))
}

type frontMatterEnvelope struct {
	Title          string         `yaml:"title" toml:"title" json:"title"`
	CTFName        string         `yaml:"ctfName" toml:"ctfName" json:"ctfName"`
	CollectionName string         `yaml:"collectionName" toml:"collectionName" json:"collectionName"`
	Author         string         `yaml:"author" toml:"author" json:"author"`
	Description    string         `yaml:"description" toml:"description" json:"description"`
	Date           any            `yaml:"date" toml:"date" json:"date"`
	Tags           any            `yaml:"tags" toml:"tags" json:"tags"`
	CoverImage     string         `yaml:"coverImage" toml:"coverImage" json:"coverImage"`
	Extra          map[string]any `yaml:",inline" toml:"-" json:"-"`
}

func (env frontMatterEnvelope) toFrontMatter() interfaces.FrontMatter {
	collection := env.CTFName
	if strings.TrimSpace(collection) == "" {
		collection = env.CollectionName
	}
	extra := make(map[string]any, len(env.Extra))
	for key, value := range env.Extra {
		extra[key] = value
	}
	date, ok := parseDate(env.Date)
	if !ok {
		// keep the unparsed value around, the date itself falls back to now
		extra["date"] = env.Date
	}
	return interfaces.FrontMatter{
		Title:          strings.TrimSpace(env.Title),
		CollectionName: strings.TrimSpace(collection),
		Author:         strings.TrimSpace(env.Author),
		Description:    strings.TrimSpace(env.Description),
		Date:           date,
		Tags:           parseTags(env.Tags),
		CoverImage:     strings.TrimSpace(env.CoverImage),
		Extra:          extra,
	}
}

// parseDate accepts native timestamps and the string layouts authors use.
// yaml.v2 hands dates to an `any` field as strings. Absent values report ok.
func parseDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, true
	case time.Time:
		return v.UTC(), true
	case string:
		value := strings.TrimSpace(v)
		if value == "" {
			return time.Time{}, true
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// parseTags accepts a list or a comma separated string. Output is trimmed
// and deduplicated, first occurrence wins.
func parseTags(raw any) []string {
	var candidates []string
	switch v := raw.(type) {
	case string:
		candidates = strings.Split(v, ",")
	case []string:
		candidates = v
	case []any:
		for _, item := range v {
			if item != nil {
				candidates = append(candidates, fmt.Sprint(item))
			}
		}
	}
	tags := make([]string, 0, len(candidates))
	for _, tag := range candidates {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}
