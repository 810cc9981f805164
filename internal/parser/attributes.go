package parser

import (
	"fmt"
	"strings"
)

// attribute is one NAME=value pair of a tag's attribute list, with the name
// normalised (lower case, hyphens as underscores) and quotes removed.
type attribute struct {
	name  string
	value string
}

// parseAttributes splits an attribute list on commas that are not inside a
// double-quoted value. Empty items are skipped; an item without '=' is an error.
func parseAttributes(list string) ([]attribute, error) {
	var attrs []attribute

	for _, item := range splitAttributeList(list) {
		if strings.TrimSpace(item) == "" {
			continue
		}

		name, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("attribute %q has no value", item)
		}

		attrs = append(attrs, attribute{
			name:  normalizeName(name),
			value: strings.ReplaceAll(value, `"`, ""),
		})
	}

	return attrs, nil
}

func splitAttributeList(list string) []string {
	var (
		items    []string
		start    int
		inQuotes bool
	)

	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				items = append(items, list[start:i])
				start = i + 1
			}
		}
	}

	return append(items, list[start:])
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}
