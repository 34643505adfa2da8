package main

import (
	"github.com/ZanzyTHEbar/hirescope/internal/adapters"
	"github.com/ZanzyTHEbar/hirescope/internal/analysis"
	"github.com/ZanzyTHEbar/hirescope/internal/config"
	"github.com/ZanzyTHEbar/hirescope/internal/inspect"
	"github.com/ZanzyTHEbar/hirescope/internal/links"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/service"
)

// pipeline is the analysis stack shared by the server and the analyze command
type pipeline struct {
	github  *adapters.GitHubClient
	service *service.Service
}

// newPipeline wires the GitHub client, selector, inspector, link fetcher and
// the optional synthesizer around caches. history may be nil.
func newPipeline(cfg *config.Config, caches *service.Caches, history service.HistoryRecorder, metrics *monitoring.Metrics, logger *monitoring.Logger) *pipeline {
	github := adapters.NewGitHubClient(adapters.GitHubOptions{
		BaseURL:           cfg.GitHub.BaseURL,
		Token:             cfg.GitHub.Token,
		UserAgent:         cfg.GitHub.UserAgent,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
		Timeout:           cfg.GitHub.Timeout,
		RetryMax:          cfg.GitHub.RetryMax,
		ReadmeMaxChars:    cfg.GitHub.ReadmeMaxChars,
		Cache:             caches.API,
		Metrics:           metrics,
		Logger:            logger,
	})

	selector := analysis.NewSelector(
		analysis.NewCommitEstimator(github, caches.API, metrics),
		analysis.SelectorConfig{
			MinSelected:   cfg.Selection.MinSelected,
			MaxSelected:   cfg.Selection.MaxSelected,
			CandidateCap:  cfg.Selection.CandidateCap,
			CommitWorkers: cfg.Selection.CommitWorkers,
		},
	)

	inspector := inspect.NewInspector(inspect.Options{
		Cloner: inspect.NewGitCloner(cfg.Inspect.CloneTimeout, cfg.Inspect.CloneMaxOutput),
		Readme: github,
		Limits: inspect.Limits{
			Budget:      cfg.Inspect.ScanBudget,
			MaxDepth:    cfg.Inspect.MaxDepth,
			TreePreview: cfg.Inspect.TreePreview,
		},
		MaxRepoSizeKB: cfg.Inspect.MaxRepoSizeKB,
		Workers:       cfg.Inspect.Workers,
		Metrics:       metrics,
		Logger:        logger,
	})

	fetcher := links.NewFetcher(links.FetcherOptions{
		Timeout:      cfg.Links.Timeout,
		SnippetChars: cfg.Links.SnippetChars,
		Workers:      cfg.Links.Workers,
		UserAgent:    cfg.GitHub.UserAgent,
		Cache:        caches.External,
		Metrics:      metrics,
		Logger:       logger,
	})

	opts := service.Options{
		GitHub:    github,
		Selector:  selector,
		Inspector: inspector,
		Links:     fetcher,
		History:   history,
		Caches:    caches,
		MaxLinks:  cfg.Links.MaxLinks,
		Metrics:   metrics,
		Logger:    logger,

		BuildTimeout: cfg.Server.RequestTimeout,
	}
	// A nil *GeminiClient must not land in the interface
	if cfg.Gemini.APIKey != "" {
		opts.Synthesizer = adapters.NewGeminiClient(adapters.GeminiOptions{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.Gemini.Timeout,
			Metrics: metrics,
			Logger:  logger,
		})
	}

	return &pipeline{github: github, service: service.New(opts)}
}
