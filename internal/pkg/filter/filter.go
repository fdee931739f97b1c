// Package filter implements the local banned-phrase check used as the first
// stage of the moderation pipeline.
package filter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// CompiledFilter matches text against the banned-phrase lists of all
// configured locales with a single alternation pattern compiled at
// construction. One combined pattern bounds worst-case regex work; many
// independent small patterns would not.
type CompiledFilter struct {
	re    *regexp.Regexp
	words map[string]struct{} // single-word entries, lowercased
	multi bool                // at least one multi-word phrase configured
}

// Compile builds a CompiledFilter from per-locale phrase lists. An empty
// input yields a filter that matches nothing.
func Compile(locales map[string][]string) (*CompiledFilter, error) {
	seen := make(map[string]struct{})
	var entries []string
	for _, phrases := range locales {
		for _, p := range phrases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			entries = append(entries, p)
		}
	}
	if len(entries) == 0 {
		return &CompiledFilter{}, nil
	}
	sort.Strings(entries)

	f := &CompiledFilter{words: make(map[string]struct{}, len(entries))}
	escaped := make([]string, len(entries))
	for i, e := range entries {
		escaped[i] = regexp.QuoteMeta(e)
		if strings.ContainsRune(e, ' ') {
			f.multi = true
		} else {
			f.words[e] = struct{}{}
		}
	}

	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
	if err != nil {
		return nil, err
	}
	f.re = re
	return f, nil
}

// Match reports whether text contains a banned phrase and returns the matched
// term. Single-word entries are prefiltered with an O(1) set lookup per token;
// the compiled pattern confirms word boundaries and covers multi-word phrases.
func (f *CompiledFilter) Match(text string) (string, bool) {
	if f == nil || f.re == nil {
		return "", false
	}
	if !f.multi && !f.anyTokenBanned(text) {
		return "", false
	}
	m := f.re.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToLower(m), true
}

func (f *CompiledFilter) anyTokenBanned(text string) bool {
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	}) {
		if _, ok := f.words[tok]; ok {
			return true
		}
	}
	return false
}
