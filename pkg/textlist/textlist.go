// Package textlist splits free-text multi-value form fields into entries.
package textlist

import "strings"

// Parse splits every value on newlines, commas, semicolons and pipes and
// returns the trimmed, non-empty tokens in input order. Parsing its own
// output returns the same slice.
func Parse(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, token := range strings.FieldsFunc(value, isSeparator) {
			token = strings.TrimSpace(token)
			if token != "" {
				out = append(out, token)
			}
		}
	}
	return out
}

// Unique is Parse with case-sensitive duplicates removed, keeping the first
// occurrence.
func Unique(values ...string) []string {
	parsed := Parse(values...)
	seen := make(map[string]struct{}, len(parsed))
	out := parsed[:0]
	for _, token := range parsed {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

func isSeparator(r rune) bool {
	switch r {
	case '\n', '\r', ',', ';', '|':
		return true
	}
	return false
}
