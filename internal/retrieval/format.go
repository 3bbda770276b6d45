package retrieval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatPlain renders results as a human-readable ranked list, one
// "Rank N" block per result.
func FormatPlain(items []ResultItem) string {
	if len(items) == 0 {
		return "No matching fragments."
	}

	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Rank %d: %s (score=%.4f, id=%s)\n", i+1, item.Title, item.Score, item.FragmentID)
		sb.WriteString(item.Excerpt)
	}
	return sb.String()
}

// structuredResultPattern matches one tag-delimited result block.
var structuredResultPattern = regexp.MustCompile(
	`(?s)<result id="([^"]*)" score="([^"]*)">\n<title>(.*?)</title>\n<excerpt>(.*?)</excerpt>\n</result>`)

// FormatStructured renders results as tag-delimited blocks for
// machine consumption:
//
//	<result id="guide.md#2" score="3.1416">
//	<title>...</title>
//	<excerpt>...</excerpt>
//	</result>
func FormatStructured(items []ResultItem) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "<result id=%q score=%q>\n", item.FragmentID, strconv.FormatFloat(item.Score, 'f', 6, 64))
		fmt.Fprintf(&sb, "<title>%s</title>\n", item.Title)
		fmt.Fprintf(&sb, "<excerpt>%s</excerpt>\n", item.Excerpt)
		sb.WriteString("</result>")
	}
	return sb.String()
}

// ParseStructured parses FormatStructured output back into result
// items. The retriever round-trips its own structured output through
// this parser and surfaces a malformed-output error on failure rather
// than silently returning a degraded payload.
func ParseStructured(s string) ([]ResultItem, error) {
	if strings.TrimSpace(s) == "" {
		return []ResultItem{}, nil
	}

	matches := structuredResultPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no result blocks found")
	}

	items := make([]ResultItem, 0, len(matches))
	for _, m := range matches {
		score, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, fmt.Errorf("unparseable score %q: %w", m[2], err)
		}
		items = append(items, ResultItem{
			FragmentID: m[1],
			Title:      m[3],
			Excerpt:    m[4],
			Score:      score,
		})
	}
	return items, nil
}
