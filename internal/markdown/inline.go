package markdown

import (
	"regexp"
	"sort"
	"strings"
)

// SpanKind discriminates inline spans.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
	SpanLink
	SpanDownload
)

// Span is one inline run of text. Link spans carry a URL; download spans
// additionally carry the report id parsed out of the URL.
type Span struct {
	Kind     SpanKind
	Text     string
	URL      string
	ReportID string
}

// downloadPathSegment marks a link as a report-download action rather than a
// plain hyperlink.
const downloadPathSegment = "/reports/download/"

var (
	linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
)

type inlineMatch struct {
	start, end int
	kind       SpanKind
	text       string
	url        string
}

// parseSpans tokenizes one line of text into an ordered, non-overlapping span
// list. Link and bold matches are merged by start position; when two matches
// overlap, whichever starts first wins and the later one is dropped. Links
// collected before bold spans so a tie at the same offset goes to the link.
func parseSpans(text string) []Span {
	if text == "" {
		return nil
	}

	var matches []inlineMatch
	for _, loc := range linkPattern.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, inlineMatch{
			start: loc[0],
			end:   loc[1],
			kind:  SpanLink,
			text:  text[loc[2]:loc[3]],
			url:   text[loc[4]:loc[5]],
		})
	}
	for _, loc := range boldPattern.FindAllStringSubmatchIndex(text, -1) {
		inner := ""
		if loc[2] >= 0 {
			inner = text[loc[2]:loc[3]]
		} else if loc[4] >= 0 {
			inner = text[loc[4]:loc[5]]
		}
		matches = append(matches, inlineMatch{
			start: loc[0],
			end:   loc[1],
			kind:  SpanBold,
			text:  inner,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	var kept []inlineMatch
	currentEnd := 0
	for _, m := range matches {
		if m.start >= currentEnd {
			kept = append(kept, m)
			currentEnd = m.end
		}
	}

	var spans []Span
	last := 0
	for _, m := range kept {
		if m.start > last {
			spans = append(spans, Span{Kind: SpanText, Text: text[last:m.start]})
		}
		switch m.kind {
		case SpanLink:
			spans = append(spans, linkSpan(m))
		case SpanBold:
			spans = append(spans, Span{Kind: SpanBold, Text: m.text})
		}
		last = m.end
	}
	if last < len(text) {
		spans = append(spans, Span{Kind: SpanText, Text: text[last:]})
	}

	return spans
}

// linkSpan classifies a link match as a plain hyperlink or a report-download
// control keyed by the id that follows the download path segment.
func linkSpan(m inlineMatch) Span {
	if idx := strings.Index(m.url, downloadPathSegment); idx >= 0 {
		return Span{
			Kind:     SpanDownload,
			Text:     m.text,
			URL:      m.url,
			ReportID: m.url[idx+len(downloadPathSegment):],
		}
	}
	return Span{Kind: SpanLink, Text: m.text, URL: m.url}
}
