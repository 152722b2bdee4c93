package search

import (
	"strings"
	"unicode"
)

const maxQueryVariants = 8

type QueryContext struct {
	Original   string   `json:"original"`
	Normalized string   `json:"normalized"`
	Variants   []string `json:"variants"`
}

// NormalizeQuery lower-cases input, keeps letters, digits and the punctuation
// that appears in occupation titles, and collapses whitespace.
func NormalizeQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	input = strings.ToLower(input)

	b := strings.Builder{}
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case r == '(' || r == ')' || r == '&' || r == '/' || r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ExpandQuery returns the normalized query followed by synonym variants.
// A leading phrase with synonyms is replaced while the rest of the query is kept.
func ExpandQuery(normalized string) []string {
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return []string{}
	}

	out := make([]string, 0, maxQueryVariants)
	seen := make(map[string]struct{}, maxQueryVariants)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(normalized)
	for _, syn := range GetSynonyms(normalized) {
		add(syn)
	}

	words := strings.Fields(normalized)
	replacePrefix := func(n int) {
		if len(words) <= n {
			return
		}
		rest := strings.Join(words[n:], " ")
		for _, syn := range GetSynonyms(strings.Join(words[:n], " ")) {
			add(syn + " " + rest)
		}
	}
	replacePrefix(1)
	replacePrefix(2)

	// "softwaredev" -> "software dev"
	if len(words) == 1 {
		for k, syns := range Synonyms {
			if !strings.Contains(k, " ") || strings.ReplaceAll(k, " ", "") != words[0] {
				continue
			}
			add(k)
			for _, syn := range syns {
				add(syn)
			}
			break
		}
	}

	if len(out) > maxQueryVariants {
		out = out[:maxQueryVariants]
	}
	return out
}

func ProcessQuery(input string) QueryContext {
	ctx := QueryContext{Original: input}
	ctx.Normalized = NormalizeQuery(input)
	if ctx.Normalized == "" {
		ctx.Variants = []string{}
		return ctx
	}
	ctx.Variants = ExpandQuery(ctx.Normalized)
	return ctx
}

func FallbackFirstWord(normalized string) string {
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}
