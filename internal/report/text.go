// Package report turns deterministic evidence into the qualitative hiring
// report: prompt construction, the fallback narrative, recommendation
// normalization and role-fit inference.
package report

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	trailingPunct  = regexp.MustCompile(`[\s,;:.-]+$`)
	sentencePiece  = regexp.MustCompile(`[^.!?]+[.!?]`)
	labelSeparator = regexp.MustCompile(`[\s_-]+`)

	knownLanguageLabels = map[string]string{
		"javascript":       "JavaScript",
		"typescript":       "TypeScript",
		"c#":               "C#",
		"c++":              "C++",
		"objective-c":      "Objective-C",
		"objective-c++":    "Objective-C++",
		"jupyter notebook": "Jupyter Notebook",
		"html":             "HTML",
		"css":              "CSS",
		"sql":              "SQL",
	}
)

// CompactLine collapses whitespace and cuts the text to max characters,
// marking a cut with "...".
func CompactLine(value string, max int) string {
	normalized := strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
	r := []rune(normalized)
	if len(r) <= max {
		return normalized
	}
	return trailingPunct.ReplaceAllString(string(r[:max]), "") + "..."
}

// SentenceCount counts terminated sentences; unterminated text counts as one
func SentenceCount(value string) int {
	text := CompactLine(value, 2000)
	if text == "" {
		return 0
	}
	if n := len(sentencePiece.FindAllString(text, -1)); n > 0 {
		return n
	}
	return 1
}

// FormatLanguageLabel renders a lowercased GitHub language for display
func FormatLanguageLabel(language string) string {
	normalized := strings.ToLower(strings.TrimSpace(language))
	if normalized == "" {
		return "Unknown"
	}
	if label, ok := knownLanguageLabels[normalized]; ok {
		return label
	}
	parts := labelSeparator.Split(normalized, -1)
	for i, p := range parts {
		if p != "" {
			r := []rune(p)
			parts[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(parts, " ")
}

func selectionWeight(ev types.SelectedRepoEvidence) float64 {
	if ev.SelectionScore < 1 {
		return 1
	}
	return float64(ev.SelectionScore)
}

type languageShare struct {
	language string
	weight   float64
}

// languageWeights sums selection weights per lowercased declared language
func languageWeights(repos []types.SelectedRepoEvidence) (map[string]float64, float64) {
	weights := map[string]float64{}
	var total float64
	for _, ev := range repos {
		w := selectionWeight(ev)
		total += w
		lang := strings.ToLower(strings.TrimSpace(ev.Repo.Language))
		if lang != "" && lang != "unknown" {
			weights[lang] += w
		}
	}
	return weights, total
}

// topLanguages orders languages by weight, ties by first appearance
func topLanguages(repos []types.SelectedRepoEvidence, weights map[string]float64, n int) []languageShare {
	var order []languageShare
	seen := map[string]bool{}
	for _, ev := range repos {
		lang := strings.ToLower(strings.TrimSpace(ev.Repo.Language))
		if w, ok := weights[lang]; ok && !seen[lang] {
			seen[lang] = true
			order = append(order, languageShare{lang, w})
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].weight > order[j].weight })
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func reposWithTests(repos []types.SelectedRepoEvidence) int {
	n := 0
	for _, ev := range repos {
		if ev.Signals.Tests.HasTests {
			n++
		}
	}
	return n
}
