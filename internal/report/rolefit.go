package report

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	roleSignalFloor = 0.24
	maxInferredRole = 3
)

var rolePatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{"frontend", regexp.MustCompile(`(?i)(front[-\s]?end|react|next\.?js|vue|angular|svelte|ui|ux|client|webapp|web-app|component)`)},
	{"backend", regexp.MustCompile(`(?i)(back[-\s]?end|api|server|service|microservice|graphql|database|db|express|fastapi|django|flask|spring|nestjs|auth)`)},
	{"mobile", regexp.MustCompile(`(?i)(mobile|android|ios|react[-\s]?native|flutter|swiftui|xcode)`)},
	{"data", regexp.MustCompile(`(?i)(data|etl|pipeline|analytics|notebook|ml|machine learning|model|pytorch|tensorflow|scikit|spark)`)},
	{"devops", regexp.MustCompile(`(?i)(devops|infra|terraform|kubernetes|k8s|helm|ansible|docker|ci/cd|ci-cd|workflow|deployment|sre|platform)`)},
}

type roleSignal struct {
	label  string
	signal float64
}

func signalTier(signal float64) string {
	switch {
	case signal >= 0.6:
		return "strong"
	case signal >= 0.38:
		return "moderate"
	default:
		return "emerging"
	}
}

// InferRoleFit derives up to three likely engineering roles from the
// languages and keywords of the analyzed repositories, plus one line of
// supporting evidence. It returns nil when there is no evidence.
func InferRoleFit(repos []types.SelectedRepoEvidence) []string {
	if len(repos) == 0 {
		return nil
	}

	languages, total := languageWeights(repos)
	keywords := map[string]float64{}
	for _, ev := range repos {
		parts := []string{ev.Repo.Name, ev.Repo.Description}
		parts = append(parts, ev.Signals.TopLevelEntries...)
		var kept []string
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				kept = append(kept, p)
			}
		}
		text := strings.ToLower(strings.Join(kept, " "))
		if text == "" {
			continue
		}
		for _, rp := range rolePatterns {
			if rp.pattern.MatchString(text) {
				keywords[rp.key] += selectionWeight(ev)
			}
		}
	}
	if total <= 0 {
		return nil
	}

	share := func(langs ...string) float64 {
		var sum float64
		for _, l := range langs {
			sum += languages[l]
		}
		return sum / total
	}
	kw := func(key string) float64 { return keywords[key] / total }

	frontend := share("javascript", "typescript", "html", "css", "vue", "svelte")*0.75 + kw("frontend")*0.25
	backend := share("python", "java", "go", "rust", "c#", "php", "ruby", "kotlin", "scala", "c++", "javascript", "typescript")*0.7 +
		kw("backend")*0.3
	mobile := share("swift", "kotlin", "objective-c", "objective-c++", "dart", "java")*0.65 + kw("mobile")*0.35
	data := share("python", "jupyter notebook", "r", "scala", "sql")*0.7 + kw("data")*0.3
	devops := share("shell", "dockerfile", "hcl", "makefile", "powershell")*0.65 + kw("devops")*0.35
	fullStack := math.Min(frontend, backend)*0.85 + share("javascript", "typescript")*0.15

	signals := []roleSignal{
		{"Full-Stack Engineer", fullStack},
		{"Backend Engineer", backend},
		{"Frontend Engineer", frontend},
		{"Mobile Engineer", mobile},
		{"Data/ML Engineer", data},
		{"DevOps/Platform Engineer", devops},
	}
	for i := range signals {
		signals[i].signal = math.Max(0, math.Min(1, signals[i].signal))
	}
	sort.SliceStable(signals, func(i, j int) bool { return signals[i].signal > signals[j].signal })

	var selected []roleSignal
	for _, s := range signals {
		if s.signal >= roleSignalFloor && len(selected) < maxInferredRole {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 && signals[0].signal > 0 {
		selected = signals[:1]
	}

	var evidence []string
	if top := topLanguages(repos, languages, 3); len(top) > 0 {
		notes := make([]string, len(top))
		for i, l := range top {
			notes[i] = fmt.Sprintf("%s %d%%", FormatLanguageLabel(l.language), percent(l.weight, total))
		}
		evidence = append(evidence, "dominant languages: "+strings.Join(notes, ", "))
	}
	evidence = append(evidence, fmt.Sprintf("tests detected in %d/%d sampled repos", reposWithTests(repos), len(repos)))
	evidenceLine := "Role-path evidence: " + strings.Join(evidence, "; ") + "."

	if len(selected) == 0 {
		return []string{
			"Possible roles from repository signals: General Software Engineer (specialization signal is limited).",
			evidenceLine,
		}
	}

	summary := make([]string, len(selected))
	for i, s := range selected {
		summary[i] = fmt.Sprintf("%s (%s signal)", s.label, signalTier(s.signal))
	}
	return []string{
		"Possible roles from repository signals: " + strings.Join(summary, ", ") + ".",
		evidenceLine,
	}
}

func percent(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(part/total*100 + 0.5))
}
