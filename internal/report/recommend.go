package report

import (
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// Hiring decisions
const (
	DecisionStrongHire = "Strong Hire"
	DecisionInterview  = "Interview"
	DecisionNotAFit    = "Not a fit"
)

const (
	defaultRoleFit         = "Needs deeper role-matched project evidence."
	defaultSeniority       = "Seniority signal inferred from repository quality and activity patterns."
	defaultReasoning       = "Recommendation defaults to deterministic score thresholds due to limited AI response quality."
	externalSentencePrefix = "External context: "
)

var (
	keyUnreachable = regexp.MustCompile(`(?i)external links?.*(could not be fetched|unable to fetch|timed out|could not access)`)
	keyLimited     = regexp.MustCompile(`(?i)(external links?|external context).*(restricted|auth-gated|limited public)`)
	keyConsidered  = regexp.MustCompile(`(?i)(external context considered|considered public signals from)`)
	keyProvided    = regexp.MustCompile(`(?i)user provided \d+ external link`)
	nonAlnumRun    = regexp.MustCompile(`[^a-z0-9]+`)

	externalPrefix  = regexp.MustCompile(`(?i)^external context:`)
	externalMention = regexp.MustCompile(`(?i)external context:`)
	externalRoleFit = regexp.MustCompile(`(?i)external context|external links|linkedin`)
)

// DefaultDecision maps an overall score to a decision
func DefaultDecision(overall int) string {
	switch {
	case overall >= 78:
		return DecisionStrongHire
	case overall >= 60:
		return DecisionInterview
	default:
		return DecisionNotAFit
	}
}

// NormalizeRecommendation fills every missing or invalid field of a
// synthesized recommendation with a deterministic default.
func NormalizeRecommendation(rec *types.Recommendation, overall int) types.Recommendation {
	if rec == nil {
		rec = &types.Recommendation{}
	}
	out := types.Recommendation{
		Decision:        DefaultDecision(overall),
		Reasoning:       rec.Reasoning,
		SenioritySignal: rec.SenioritySignal,
		RoleFit:         rec.RoleFit,
	}
	switch strings.ToLower(strings.TrimSpace(rec.Decision)) {
	case "strong hire", "interview", "not a fit":
		out.Decision = rec.Decision
	}
	if out.RoleFit == nil {
		out.RoleFit = []string{defaultRoleFit}
	}
	if out.SenioritySignal == "" {
		out.SenioritySignal = defaultSeniority
	}
	if out.Reasoning == "" {
		out.Reasoning = defaultReasoning
	}
	return out
}

// LineKey is the dedupe key of a recommendation line. The external-context
// notes collapse to one key per outcome so differently worded copies of the
// same note count once.
func LineKey(value string) string {
	text := strings.ToLower(strings.TrimSpace(value))
	if text == "" {
		return ""
	}
	switch {
	case keyUnreachable.MatchString(text):
		return "external-unreachable"
	case keyLimited.MatchString(text):
		return "external-limited"
	case keyConsidered.MatchString(text):
		return "external-considered"
	case keyProvided.MatchString(text):
		return "external-provided"
	}
	return strings.TrimSpace(nonAlnumRun.ReplaceAllString(text, " "))
}

// DedupeLines drops blank lines and lines whose key was already seen
func DedupeLines(items []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, raw := range items {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		key := LineKey(value)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, value)
	}
	return out
}

// MergeReasoning appends the external-context note to the reasoning as an
// "External context:" sentence unless the reasoning already carries one.
func MergeReasoning(base, note string) string {
	base = strings.TrimSpace(base)
	note = strings.TrimSpace(note)
	if note == "" {
		return base
	}

	sentence := note
	if !externalPrefix.MatchString(note) {
		sentence = externalSentencePrefix + note
	}
	if base == "" {
		return sentence
	}
	if externalMention.MatchString(base) {
		return base
	}
	baseKey, noteKey := LineKey(base), LineKey(note)
	if baseKey != "" && noteKey != "" && strings.Contains(baseKey, noteKey) {
		return base
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(base+" "+sentence, " "))
}

func mentionsExternalContext(lines []string) bool {
	for _, l := range lines {
		if externalRoleFit.MatchString(l) {
			return true
		}
	}
	return false
}
