package inspect

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/analysis"
	"github.com/ZanzyTHEbar/hirescope/internal/bounded"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ReadmeSource fetches README text from the hosting API
type ReadmeSource interface {
	FetchReadme(ctx context.Context, owner, repo string) (string, bool, error)
}

// Options configures an Inspector
type Options struct {
	Cloner Cloner
	Readme ReadmeSource
	Limits Limits

	// MaxRepoSizeKB skips cloning repositories reported larger than this
	MaxRepoSizeKB int
	Workers       int

	// TempDir is the parent of every clone workdir; empty means os.TempDir
	TempDir string

	Metrics *monitoring.Metrics
	Logger  *monitoring.Logger
}

// Inspector turns selected candidates into scored evidence
type Inspector struct {
	cloner        Cloner
	readme        ReadmeSource
	limits        Limits
	maxRepoSizeKB int
	workers       int
	tempDir       string
	metrics       *monitoring.Metrics
	logger        *monitoring.Logger
}

// NewInspector creates an inspector
func NewInspector(opts Options) *Inspector {
	if opts.Limits.Budget <= 0 {
		opts.Limits = DefaultLimits()
	}
	if opts.MaxRepoSizeKB <= 0 {
		opts.MaxRepoSizeKB = 250000
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Logger == nil {
		opts.Logger = monitoring.NewLoggerTo(io.Discard, 0)
	}
	return &Inspector{
		cloner:        opts.Cloner,
		readme:        opts.Readme,
		limits:        opts.Limits,
		maxRepoSizeKB: opts.MaxRepoSizeKB,
		workers:       opts.Workers,
		tempDir:       opts.TempDir,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
	}
}

// InspectAll inspects every selection with bounded concurrency, in input order.
// Per-repository failures degrade inside the evidence; a cancelled ctx is
// returned instead, since clones it interrupted say nothing about the repository.
func (i *Inspector) InspectAll(ctx context.Context, selected []types.Selection) ([]types.SelectedRepoEvidence, error) {
	out, err := bounded.Map(ctx, selected, i.workers, func(ctx context.Context, _ int, sel types.Selection) (types.SelectedRepoEvidence, error) {
		return i.Inspect(ctx, sel), nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Inspect clones and scans one repository and scores it. Clone, scan and
// README failures degrade to empty signals.
func (i *Inspector) Inspect(ctx context.Context, sel types.Selection) types.SelectedRepoEvidence {
	repo := sel.Repo

	readme := make(chan string, 1)
	go func() {
		readme <- i.fetchReadme(ctx, repo)
	}()

	structure, cloned := i.snapshot(ctx, repo)

	if text := <-readme; !structure.Readme.Present && text != "" {
		structure.Readme = types.ReadmeSignal{Present: true, Length: TextLength(text)}
	}
	structure.Tests.HasTests = structure.Tests.HasTests ||
		structure.Tests.TestDirCount > 0 || structure.Tests.TestFileCount > 0

	signals := types.RepoSignals{
		RepoStructure:  structure,
		CommitMetrics:  sel.Metrics,
		RecencyDays:    sel.Factors.RecencyDays,
		HasIssues:      repo.HasIssues,
		HasWiki:        repo.HasWiki,
		Archived:       repo.Archived,
		CloneSucceeded: cloned,
	}

	return types.SelectedRepoEvidence{
		Repo:           Summarize(repo),
		Factors:        sel.Factors,
		Metrics:        sel.Metrics,
		BaseScore:      sel.BaseScore,
		SelectionScore: sel.SelectionScore,
		Justification:  sel.Justification,
		Signals:        signals,
		Scores:         analysis.ScoreRepo(signals),
	}
}

func (i *Inspector) fetchReadme(ctx context.Context, repo types.RepoCandidate) string {
	if i.readme == nil {
		return ""
	}
	r := apperrors.Try(func() (string, error) {
		text, _, err := i.readme.FetchReadme(ctx, repo.Owner, repo.Name)
		return text, err
	})
	return apperrors.Collapse(r, "", func(err error) {
		i.logger.DegradeLogger("readme", repo.FullName, err)
	})
}

// snapshot returns the scanned structure and whether the clone succeeded.
// The workdir is gone by the time it returns.
func (i *Inspector) snapshot(ctx context.Context, repo types.RepoCandidate) (types.RepoStructure, bool) {
	structure := EmptyStructure()
	if i.cloner == nil || repo.CloneURL == "" || repo.Size > i.maxRepoSizeKB {
		return structure, false
	}

	cloned := false
	start := time.Now()
	err := WithWorkdir(i.tempDir, func(dir string) error {
		dest := filepath.Join(dir, unsafePathChars.ReplaceAllString(repo.Name, "_"))
		if err := i.cloner.Clone(ctx, repo.CloneURL, dest); err != nil {
			return err
		}
		cloned = true
		structure = Scan(dest, i.limits)
		return nil
	})

	i.logger.CloneLogger(repo.FullName, cloned, time.Since(start), err)
	if i.metrics != nil {
		i.metrics.RecordClone(cloned)
	}
	if !cloned {
		return EmptyStructure(), false
	}
	return structure, true
}

// Summarize trims a candidate to the record carried in the evidence
func Summarize(r types.RepoCandidate) types.RepoSummary {
	language := r.Language
	if language == "" {
		language = "Unknown"
	}
	return types.RepoSummary{
		Name:          r.Name,
		FullName:      r.FullName,
		HTMLURL:       r.HTMLURL,
		Description:   r.Description,
		Language:      language,
		Stars:         r.StargazersCount,
		Forks:         r.ForksCount,
		OpenIssues:    r.OpenIssuesCount,
		Size:          r.Size,
		DefaultBranch: r.DefaultBranch,
		PushedAt:      r.PushedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
