package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/links"
	"github.com/ZanzyTHEbar/hirescope/internal/report"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	contextKeyChars = 180
	linksKeyChars   = 220

	msgSynthesizerMissing     = "GEMINI_API_KEY is missing; generated deterministic fallback report."
	msgSynthesizerUnavailable = "AI synthesis unavailable."
)

// ResultKey identifies an analyze request in the result cache
func ResultKey(username, role, roleOther, context string, contextLinks []types.ContextLink) string {
	parts := make([]string, len(contextLinks))
	for i, l := range contextLinks {
		parts[i] = l.Label + ":" + l.URL
	}
	return strings.Join([]string{
		username,
		role,
		strings.ToLower(roleOther),
		truncate(strings.ToLower(strings.TrimSpace(context)), contextKeyChars),
		truncate(strings.ToLower(strings.Join(parts, "|")), linksKeyChars),
	}, "|")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// Analyze answers one analyze request. Account-level failures (invalid
// username, unknown account, GitHub quota) are returned; everything else
// degrades inside the result.
func (s *Service) Analyze(ctx context.Context, req types.AnalyzeRequest) (types.AnalysisResult, error) {
	start := time.Now()

	username, err := analysis.ParseGitHubUsername(req.Username)
	if err != nil {
		return types.AnalysisResult{}, err
	}
	roleKey := analysis.NormalizeRole(req.Role)
	roleOther := analysis.NormalizeRoleOther(req.RoleOther)
	role := analysis.ResolveRole(roleKey, roleOther)
	contextLinks := links.Normalize(req.ContextLinks, s.maxLinks)

	key := ResultKey(username, roleKey, roleOther, req.Context, contextLinks)
	if cached, ok := s.caches.Result.Get(key); ok {
		s.metrics.IncrementCacheHit()
		s.logger.CacheLogger(s.caches.Result.Name(), key, true, s.caches.Result.Size())
		cached.Cache = types.CacheInfo{Source: types.CacheSourceResult, Hit: true}
		return cached, nil
	}
	s.metrics.IncrementCacheMiss()

	base, source, err := s.profileAnalysis(ctx, username)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	repos := base.Evidence.Repos
	in := report.Input{
		Profile: base.Profile,
		Role:    role,
		Context: req.Context,
		Links:   contextLinks,
		Repos:   repos,
		Scores:  analysis.AggregateProfileScores(repos, role.Weights),
	}
	in.External, err = s.links.Resolve(ctx, contextLinks)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	draft, aiMessage := s.synthesize(ctx, in)
	result := types.AnalysisResult{
		ID:           s.newID(),
		Profile:      base.Profile,
		Role:         roleSelection(roleKey, roleOther, role),
		SampledRepos: sampledRepos(repos),
		Evidence:     base.Evidence,
		Report:       report.Assemble(in, draft),
		Diagnostics: types.Diagnostics{
			AIFallbackUsed: aiMessage != "",
			AIMessage:      aiMessage,
		},
		InputContext: types.InputContext{
			ExtraContext:    req.Context,
			ContextLinks:    contextLinks,
			ExternalContext: in.External,
		},
		Cache:       types.CacheInfo{Source: source},
		GeneratedAt: s.now().UTC(),
	}

	// a synthesis cut short by the caller leaving is not worth keeping
	if err := ctx.Err(); err != nil {
		return types.AnalysisResult{}, err
	}
	s.caches.Result.Set(key, result)
	s.metrics.IncrementAnalyses()
	s.logger.AnalysisLogger(username, roleKey, result.Report.Scores.Overall, len(repos), time.Since(start), source)
	s.recordHistory(ctx, result)

	return result, nil
}

// synthesize returns the synthesizer's draft, or the deterministic fallback
// with the reason it was used.
func (s *Service) synthesize(ctx context.Context, in report.Input) (types.Draft, string) {
	if s.synthesizer == nil {
		s.metrics.RecordSynthesis(true)
		return report.Fallback(in), msgSynthesizerMissing
	}

	draft, err := s.synthesizer.Synthesize(ctx, report.BuildPrompt(in))
	if err != nil {
		s.metrics.RecordSynthesis(true)
		s.logger.DegradeLogger("synthesis", in.Profile.Login, err)
		return report.Fallback(in), synthesisMessage(err)
	}
	s.metrics.RecordSynthesis(false)
	return draft, ""
}

func synthesisMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if msg := appErr.Message(); msg != "" {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgSynthesizerUnavailable
}

func (s *Service) recordHistory(ctx context.Context, result types.AnalysisResult) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, result); err != nil {
		s.logger.DegradeLogger("history", result.Profile.Login, err)
	}
}

func roleSelection(key, roleOther string, role types.RoleConfig) types.RoleSelection {
	sel := types.RoleSelection{
		SelectedRole: key,
		Label:        role.Label,
		Weights:      role.Weights,
		ImpactNote:   role.ImpactNote,
	}
	if roleOther != "" {
		sel.CustomRole = &roleOther
	}
	return sel
}

func sampledRepos(repos []types.SelectedRepoEvidence) []types.SampledRepo {
	out := make([]types.SampledRepo, len(repos))
	for i, ev := range repos {
		out[i] = types.SampledRepo{
			Name:      ev.Repo.Name,
			HTMLURL:   ev.Repo.HTMLURL,
			Stars:     ev.Repo.Stars,
			Language:  ev.Repo.Language,
			UpdatedAt: ev.Repo.UpdatedAt,
		}
	}
	return out
}
