package report

import (
	"encoding/json"
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/links"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

type promptSignals struct {
	ReadmePresent    bool     `json:"readmePresent"`
	ReadmeLength     int      `json:"readmeLength"`
	TestsDetected    bool     `json:"testsDetected"`
	TestFiles        int      `json:"testFiles"`
	LOCEstimate      int      `json:"locEstimate"`
	TotalFiles       int      `json:"totalFiles"`
	TotalDirs        int      `json:"totalDirs"`
	RecentCommits90d int      `json:"recentCommits90d"`
	TotalCommits     int      `json:"totalCommits"`
	TopLevel         []string `json:"topLevel"`
}

type promptRepo struct {
	Repo                 string         `json:"repo"`
	SelectedBecause      string         `json:"selectedBecause"`
	DeterministicSignals promptSignals  `json:"deterministicSignals"`
	DeterministicScores  types.ScoreSet `json:"deterministicScores"`
}

const responseSchema = `{
  "summary": "string (2-4 sentences executive summary)",
  "strengths": ["string"],
  "weaknesses": ["string"],
  "technicalHighlights": ["string"],
  "growthAreas": ["string"],
  "repoFindings": [
    {
      "repo": "string",
      "projectIntent": "string",
      "architectureSignal": "string",
      "risk": "string"
    }
  ],
  "externalContextSignals": ["string"],
  "hiringRecommendation": {
    "decision": "Strong Hire | Interview | Not a fit",
    "reasoning": "string",
    "senioritySignal": "string",
    "roleFit": ["string"]
  },
  "evaluationModeBlurb": "string (3-4 sentence intro, must mention how context box input affected interpretation)",
  "improvementChecklist": ["string"],
  "roleImpact": "string"
}`

const promptRules = `Rules:
- Every major claim must tie back to explicit evidence.
- Mention missing evidence directly when applicable.
- Keep writing concrete and recruiter-readable.
- Avoid generic praise.
- Hiring recommendation reasoning must explicitly reference external context results when available.
- In hiringRecommendation.reasoning, include one sentence prefixed with "External context:" that explains how external links changed (or did not change) the decision.
- If external links are restricted/unreachable, state that limitation and fall back to GitHub evidence.
- evaluationModeBlurb must be exactly 3-4 sentences and explicitly mention how user context changed analysis (or explicitly state that no context was provided).`

func pretty(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

func compact(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// BuildPrompt renders the synthesis prompt embedding all deterministic evidence
func BuildPrompt(in Input) string {
	guidance := strings.TrimSpace(in.Context)
	if guidance == "" {
		guidance = "No extra context provided."
	}

	linkSummary := "No external context links provided."
	if len(in.Links) > 0 {
		linkSummary = pretty(in.Links)
	}
	fetched := "No external context fetch results available."
	if len(in.External) > 0 {
		fetched = pretty(in.External)
	}

	repos := make([]promptRepo, 0, len(in.Repos))
	for _, ev := range in.Repos {
		top := ev.Signals.TopLevelEntries
		if top == nil {
			top = []string{}
		}
		repos = append(repos, promptRepo{
			Repo:            ev.Repo.Name,
			SelectedBecause: ev.Justification,
			DeterministicSignals: promptSignals{
				ReadmePresent:    ev.Signals.Readme.Present,
				ReadmeLength:     ev.Signals.Readme.Length,
				TestsDetected:    ev.Signals.Tests.HasTests,
				TestFiles:        ev.Signals.Tests.TestFileCount,
				LOCEstimate:      ev.Signals.LOCEstimate,
				TotalFiles:       ev.Signals.TotalFiles,
				TotalDirs:        ev.Signals.TotalDirs,
				RecentCommits90d: ev.Signals.RecentCommits90d,
				TotalCommits:     ev.Signals.TotalCommits,
				TopLevel:         top,
			},
			DeterministicScores: ev.Scores,
		})
	}

	var b strings.Builder
	section := func(title, body string) {
		b.WriteString(title)
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	b.WriteString("You are a senior software engineer writing a hiring-ready review.\n")
	b.WriteString("Use deterministic evidence and fetched external context exactly as provided. Do not invent measurements.\n\n")
	b.WriteString("Role focus:\n" + in.Role.Label + "\n")
	b.WriteString("Role weighting:\n" + compact(in.Role.Weights) + "\n")
	section("Role impact note:", in.Role.ImpactNote)
	section("Extra context from user:", guidance)
	section("External context links from user:", linkSummary)
	section("External context fetch results (public-page fetch only):", fetched)
	section("External context recommendation cues:", pretty(links.Summarize(in.External)))
	section("Candidate profile:", pretty(in.Profile))
	section("Deterministic repo evidence:", pretty(repos))
	section("Deterministic profile scores:", pretty(in.Scores))
	section("Return ONLY valid JSON with this exact schema:", responseSchema)
	b.WriteString(promptRules)

	return b.String()
}
