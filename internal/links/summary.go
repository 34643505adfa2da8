package links

import (
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	maxHighlights     = 3
	maxHighlightChars = 240

	NoteNoLinks     = "No external profile links were provided for additional hiring context."
	NoteRestricted  = "External links were reachable but mostly restricted/auth-gated, so recommendation stays mostly weighted toward GitHub evidence."
	NoteUnreachable = "External links could not be fetched from the server, so recommendation is based on GitHub evidence only."
	noteConsidered  = "External context considered: "
)

// Signals renders one line per resolved link for the report
func Signals(contexts []types.ExternalContext) []string {
	out := make([]string, 0, len(contexts))
	for _, c := range contexts {
		switch {
		case !c.Reachable:
			out = append(out, c.Label+": "+c.Note)
		case c.Restricted:
			detail := firstNonEmpty(c.Title, c.Description, "Limited public details available.")
			out = append(out, c.Label+": restricted public view. "+detail)
		default:
			var parts []string
			if c.Title != "" {
				parts = append(parts, "title: "+c.Title)
			}
			if c.Description != "" {
				parts = append(parts, "description: "+c.Description)
			}
			if len(parts) == 0 && c.Snippet != "" {
				parts = append(parts, "snippet: "+c.Snippet)
			}
			text := strings.Join(parts, " | ")
			if text == "" {
				text = "Public link reachable but no clear summary text."
			}
			out = append(out, c.Label+": "+text)
		}
	}
	return out
}

// Summarize digests the resolved links into a recommendation note, up to
// three highlights from usable pages, and outcome totals.
func Summarize(contexts []types.ExternalContext) types.ExternalContextSummary {
	if len(contexts) == 0 {
		return types.ExternalContextSummary{Note: NoteNoLinks, Highlights: []string{}}
	}

	summary := types.ExternalContextSummary{Highlights: []string{}}
	summary.Totals.Total = len(contexts)

	for _, c := range contexts {
		if !c.Reachable {
			continue
		}
		summary.Totals.Reachable++
		if c.Restricted {
			continue
		}
		summary.Totals.Usable++

		if len(summary.Highlights) >= maxHighlights {
			continue
		}
		segments := dedupe([]string{c.Title, c.Description, c.Heading})
		if len(segments) > 2 {
			segments = segments[:2]
		}
		if len(segments) == 0 {
			continue
		}
		summary.Highlights = append(summary.Highlights, truncate(c.Label+": "+strings.Join(segments, " | "), maxHighlightChars))
	}

	switch {
	case len(summary.Highlights) > 0:
		summary.Note = noteConsidered + strings.Join(summary.Highlights, " || ")
	case summary.Totals.Reachable > 0:
		summary.Note = NoteRestricted
	default:
		summary.Note = NoteUnreachable
	}
	return summary
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
