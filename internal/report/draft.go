package report

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// Synthesizer writes a narrative draft from a prompt. It may be unavailable;
// callers fall back to the deterministic report on any error.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string) (types.Draft, error)
}

// ExtractFirstJSON returns text when it is a JSON object, otherwise the span
// from its first '{' to its last '}' when that parses as one.
func ExtractFirstJSON(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if isObject(text) {
		return text, true
	}
	first, last := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if first == -1 || last <= first {
		return "", false
	}
	candidate := text[first : last+1]
	if !isObject(candidate) {
		return "", false
	}
	return candidate, true
}

func isObject(text string) bool {
	return gjson.Valid(text) && gjson.Parse(text).IsObject()
}

func stringField(r gjson.Result, path string) string {
	if v := r.Get(path); v.Type == gjson.String {
		return v.String()
	}
	return ""
}

// stringList returns nil unless path is an array; non-string items are skipped
func stringList(r gjson.Result, path string) []string {
	v := r.Get(path)
	if !v.IsArray() {
		return nil
	}
	out := []string{}
	for _, item := range v.Array() {
		if item.Type == gjson.String {
			out = append(out, item.String())
		}
	}
	return out
}

// DecodeDraft reads a synthesized report leniently: fields of the wrong type
// count as missing rather than failing the whole draft.
func DecodeDraft(raw string) types.Draft {
	doc := gjson.Parse(raw)
	d := types.Draft{
		Summary:                stringField(doc, "summary"),
		Strengths:              stringList(doc, "strengths"),
		Weaknesses:             stringList(doc, "weaknesses"),
		TechnicalHighlights:    stringList(doc, "technicalHighlights"),
		GrowthAreas:            stringList(doc, "growthAreas"),
		ExternalContextSignals: stringList(doc, "externalContextSignals"),
		EvaluationModeBlurb:    stringField(doc, "evaluationModeBlurb"),
		ImprovementChecklist:   stringList(doc, "improvementChecklist"),
		RoleImpact:             strings.TrimSpace(stringField(doc, "roleImpact")),
	}
	if d.Weaknesses == nil {
		d.Weaknesses = stringList(doc, "gaps")
	}

	if findings := doc.Get("repoFindings"); findings.IsArray() {
		d.RepoFindings = []types.RepoFinding{}
		for _, f := range findings.Array() {
			if !f.IsObject() {
				continue
			}
			d.RepoFindings = append(d.RepoFindings, types.RepoFinding{
				Repo:               stringField(f, "repo"),
				QualityScore:       int(f.Get("qualityScore").Int()),
				ProjectIntent:      stringField(f, "projectIntent"),
				ArchitectureSignal: stringField(f, "architectureSignal"),
				Risk:               stringField(f, "risk"),
			})
		}
	}

	rec := doc.Get("hiringRecommendation")
	if !rec.IsObject() {
		rec = doc.Get("recommendation")
	}
	if rec.IsObject() {
		d.Recommendation = &types.Recommendation{
			Decision:        stringField(rec, "decision"),
			Reasoning:       stringField(rec, "reasoning"),
			SenioritySignal: stringField(rec, "senioritySignal"),
			RoleFit:         stringList(rec, "roleFit"),
		}
	}
	return d
}
