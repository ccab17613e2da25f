package tags

import (
	"strings"

	"github.com/er-ebrahimi/architecture-ai/internal/entity"
)

// Flatten converts an ImageFeatures value into an ordered, deduplicated list
// of normalized tags. Order is fixed: for each main object its type followed
// by its attributes, then the overall style entries. Tags are lowercased and
// trimmed; a duplicate keeps the position of its first occurrence. Empty
// features flatten to an empty, non-nil slice.
func Flatten(f entity.ImageFeatures) []string {
	out := make([]string, 0, len(f.MainObjects)*4+len(f.OverallStyle))
	seen := make(map[string]struct{})

	add := func(raw string) {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, obj := range f.MainObjects {
		add(obj.ObjectType)
		for _, attr := range obj.Attributes {
			add(attr)
		}
	}
	for _, style := range f.OverallStyle {
		add(style)
	}
	return out
}

// Set builds a membership set from a flattened tag list.
func Set(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}
