package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/service"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const maxTableNameWidth = 32

var analyzeFlags struct {
	role      string
	roleOther string
	context   string
	links     []string
	json      bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <username|profile-url>",
	Short: "Analyze one GitHub account and print the scores.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd.Context(), os.Stderr)
		if err != nil {
			return err
		}

		caches := service.NewCaches(cfg.Cache)
		p := newPipeline(cfg, caches, nil, monitoring.NewMetrics(), logger)

		result, err := p.service.Analyze(cmd.Context(), analyzeRequest(args[0]))
		if err != nil {
			return err
		}

		if analyzeFlags.json {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		return writeSummary(cmd.OutOrStdout(), result)
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.role, "role", "recruiter", "evaluation role: recruiter, developer or other")
	f.StringVar(&analyzeFlags.roleOther, "role-other", "", "custom role label used with --role other")
	f.StringVar(&analyzeFlags.context, "context", "", "free-text hiring context")
	f.StringSliceVar(&analyzeFlags.links, "link", nil, "context link, optionally label=url (repeatable)")
	f.BoolVar(&analyzeFlags.json, "json", false, "print the full result as JSON")
}

func analyzeRequest(username string) types.AnalyzeRequest {
	req := types.AnalyzeRequest{
		Username:  username,
		Role:      analyzeFlags.role,
		RoleOther: analyzeFlags.roleOther,
		Context:   analyzeFlags.context,
	}
	for _, raw := range analyzeFlags.links {
		req.ContextLinks = append(req.ContextLinks, parseLinkFlag(raw))
	}
	return req
}

// parseLinkFlag splits "label=url"; a bare URL keeps the derived label
func parseLinkFlag(raw string) types.ContextLinkInput {
	raw = strings.TrimSpace(raw)
	if label, u, ok := strings.Cut(raw, "="); ok && !strings.Contains(label, "://") {
		return types.ContextLinkInput{Label: strings.TrimSpace(label), URL: strings.TrimSpace(u)}
	}
	return types.ContextLinkInput{URL: raw}
}

func writeJSON(w io.Writer, result types.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// writeSummary prints the account scores followed by one row per analyzed repository
func writeSummary(w io.Writer, result types.AnalysisResult) error {
	s := result.Report.Scores
	fmt.Fprintf(w, "%s (%s) - %s\n", result.Profile.Login, result.Role.Label, result.Report.Recommendation.Decision)
	fmt.Fprintf(w, "overall %d | code organization %d | project maturity %d | consistency %d\n\n",
		s.Overall, s.CodeOrganization, s.ProjectMaturity, s.ConsistencyActivity)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Repo", "Language", "Selection", "Commits 90d", "Tests", "LOC", "Overall"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, ev := range result.Evidence.Repos {
		data = append(data, []string{
			truncateName(ev.Repo.Name),
			ev.Repo.Language,
			strconv.Itoa(ev.SelectionScore),
			strconv.Itoa(ev.Metrics.RecentCommits90d),
			strconv.Itoa(ev.Signals.Tests.TestFileCount),
			strconv.Itoa(ev.Signals.LOCEstimate),
			strconv.Itoa(ev.Scores.Overall),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if result.Diagnostics.AIFallbackUsed {
		fmt.Fprintf(w, "\n%s\n", result.Diagnostics.AIMessage)
	}
	return nil
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) <= maxTableNameWidth {
		return name
	}
	return string(r[:maxTableNameWidth-3]) + "..."
}
