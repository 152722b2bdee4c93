package source

import (
	"bytes"
	"regexp"
	"strings"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"
)

// Embedded arrays are located by the assignment that precedes them; the
// array itself is cut out by bracket matching.
var embeddedArrayStarts = []*regexp.Regexp{
	regexp.MustCompile(`var\s+occupationData\s*=\s*\[`),
	regexp.MustCompile(`var\s+invitationData\s*=\s*\[`),
	regexp.MustCompile(`\boccupations\s*:\s*\[`),
	regexp.MustCompile(`"invitations"\s*:\s*\[`),
	regexp.MustCompile(`\bdata\s*:\s*\[`),
}

var envelopeKeys = []string{"occupations", "data", "records", "result", "items"}

// decodeItems reads a JSON (or JSON5) document that is either an array of
// objects or an object wrapping one under a well-known key.
func decodeItems(body []byte) []occupation.Raw {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	switch body[0] {
	case '[':
		var items []map[string]any
		if err := json5.Unmarshal(body, &items); err != nil {
			return nil
		}
		return toRaw(items)
	case '{':
		var env map[string]any
		if err := json5.Unmarshal(body, &env); err != nil {
			return nil
		}
		for _, k := range envelopeKeys {
			if arr, ok := env[k].([]any); ok {
				return anyToRaw(arr)
			}
			if inner, ok := env[k].(map[string]any); ok {
				if arr, ok := inner["records"].([]any); ok {
					return anyToRaw(arr)
				}
			}
		}
	}
	return nil
}

// extractEmbedded finds the first script-embedded occupation array in page.
func extractEmbedded(page string) []occupation.Raw {
	for _, re := range embeddedArrayStarts {
		loc := re.FindStringIndex(page)
		if loc == nil {
			continue
		}
		arr, ok := balancedArray(page, loc[1]-1)
		if !ok {
			continue
		}
		if items := decodeItems([]byte(arr)); len(items) > 0 {
			return items
		}
	}
	return nil
}

// balancedArray returns the bracketed array starting at s[start], skipping
// brackets inside quoted strings.
func balancedArray(s string, start int) (string, bool) {
	if start < 0 || start >= len(s) || s[start] != '[' {
		return "", false
	}
	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// extractTables reads HTML tables whose header row names an occupation or
// code column. Each body row becomes one item keyed by header text.
func extractTables(page string) []occupation.Raw {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var out []occupation.Raw
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		headers := tableHeaders(table)
		if !occupationTable(headers) {
			return
		}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() == 0 {
				return
			}
			item := occupation.Raw{}
			cells.Each(func(i int, td *goquery.Selection) {
				if i < len(headers) && headers[i] != "" {
					item[headers[i]] = strings.TrimSpace(td.Text())
				}
			})
			if len(item) > 0 {
				out = append(out, item)
			}
		})
	})
	return out
}

func tableHeaders(table *goquery.Selection) []string {
	var headers []string
	table.Find("tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, headerKey(cell.Text()))
	})
	return headers
}

// headerKey maps a table heading onto the raw key the adapters understand.
func headerKey(text string) string {
	t := strings.ToLower(strings.Join(strings.Fields(text), " "))
	switch {
	case strings.Contains(t, "anzsco") || strings.Contains(t, "code"):
		return "anzscoCode"
	case strings.Contains(t, "occupation") || strings.Contains(t, "title"):
		return "occupationName"
	case strings.Contains(t, "authority"):
		return "assessingAuthority"
	case strings.Contains(t, "visa"):
		return "visaSubclass"
	case strings.Contains(t, "point"):
		return "minimumPoints"
	case strings.Contains(t, "invitation"):
		return "invitationsIssued"
	case strings.Contains(t, "list"):
		return "list"
	}
	return t
}

func occupationTable(headers []string) bool {
	var code, name bool
	for _, h := range headers {
		code = code || h == "anzscoCode"
		name = name || h == "occupationName"
	}
	return code && name
}

func toRaw(items []map[string]any) []occupation.Raw {
	out := make([]occupation.Raw, 0, len(items))
	for _, it := range items {
		if len(it) > 0 {
			out = append(out, occupation.Raw(it))
		}
	}
	return out
}

func anyToRaw(items []any) []occupation.Raw {
	out := make([]occupation.Raw, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok && len(m) > 0 {
			out = append(out, occupation.Raw(m))
		}
	}
	return out
}
