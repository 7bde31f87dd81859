package writeups

import (
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	goerrors "github.com/goliatone/go-errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-writeups/internal/markdown"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	maxSearchLength = 200
	maxTagFilters   = 20
	maxTagLength    = 64
)

// ValidateQuery bounds the user supplied filter so it can be applied to the
// cached listing without surprises.
func ValidateQuery(query interfaces.ListQuery) error {
	err := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&query,
			validation.Field(&query.Search, validation.RuneLength(0, maxSearchLength)),
			validation.Field(&query.Tags,
				validation.Length(0, maxTagFilters),
				validation.Each(validation.Required, validation.RuneLength(1, maxTagLength)),
			),
		)
	}, "writeup query is invalid")
	if err != nil {
		return err.WithTextCode(TextCodeInvalidQuery)
	}
	return nil
}

// TagSlug is the URL form of a tag. It falls back to the markdown slugger
// when go-slug rejects the value.
func TagSlug(tag string) string {
	if normalized, err := slug.Normalize(strings.ToLower(strings.TrimSpace(tag))); err == nil && normalized != "" {
		return normalized
	}
	return markdown.Slugify(tag)
}

// filter applies q to items. Tags match any-of, by name or slug, ignoring
// case; Search is a case-insensitive substring over the text fields. The
// result never shares tag slices with items.
func filter(items []interfaces.Writeup, q interfaces.ListQuery) []interfaces.Writeup {
	wanted := mapset.NewThreadUnsafeSet[string]()
	for _, tag := range q.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			wanted.Add(strings.ToLower(tag))
			wanted.Add(TagSlug(tag))
		}
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]interfaces.Writeup, 0, len(items))
	for _, item := range items {
		if !wanted.IsEmpty() && !matchesTags(item.Tags, wanted) {
			continue
		}
		if needle != "" && !matchesSearch(item, needle) {
			continue
		}
		item.Tags = slices.Clone(item.Tags)
		out = append(out, item)
	}
	return out
}

func matchesTags(tags []string, wanted mapset.Set[string]) bool {
	for _, tag := range tags {
		if wanted.ContainsAny(strings.ToLower(tag), TagSlug(tag)) {
			return true
		}
	}
	return false
}

func matchesSearch(item interfaces.Writeup, needle string) bool {
	for _, field := range []string{item.Title, item.CollectionName, item.Description, item.Author} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
