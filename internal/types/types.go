package types

import (
	"encoding/json"
	"time"
)

// RepoCandidate represents one repository as reported by the GitHub repo listing
type RepoCandidate struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Owner           string    `json:"owner"`
	HTMLURL         string    `json:"html_url"`
	CloneURL        string    `json:"clone_url"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	DefaultBranch   string    `json:"default_branch"`
	Size            int       `json:"size"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Fork            bool      `json:"fork"`
	Archived        bool      `json:"archived"`
	HasIssues       bool      `json:"has_issues"`
	HasWiki         bool      `json:"has_wiki"`
	PushedAt        time.Time `json:"pushed_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SelectionFactors is the cheap, metadata-only breakdown of a candidate's base score
type SelectionFactors struct {
	RecencyDays   int    `json:"recencyDays"`
	Stars         int    `json:"stars"`
	Language      string `json:"language"`
	SizeKB        int    `json:"sizeKb"`
	RecencyScore  int    `json:"recencyScore"`
	StarsScore    int    `json:"starsScore"`
	LanguageScore int    `json:"languageScore"`
	SizeScore     int    `json:"sizeScore"`
}

// CommitMetrics is an estimate of commit activity derived from pagination metadata
type CommitMetrics struct {
	TotalCommits       int     `json:"totalCommits"`
	RecentCommits90d   int     `json:"recentCommits90d"`
	CommitsPerMonth90d float64 `json:"commitsPerMonth90d"`
}

// ReadmeSignal captures README presence and content length
type ReadmeSignal struct {
	Present bool `json:"present"`
	Length  int  `json:"length"`
}

// TestSignal captures test directories and files found in a snapshot
type TestSignal struct {
	HasTests      bool `json:"hasTests"`
	TestDirCount  int  `json:"testDirectoryCount"`
	TestFileCount int  `json:"testFileCount"`
}

// RepoStructure holds the filesystem-level findings for one repository snapshot
type RepoStructure struct {
	TopLevelEntries []string     `json:"topLevelEntries"`
	TreePreview     []string     `json:"treePreview"`
	TotalFiles      int          `json:"totalFiles"`
	TotalDirs       int          `json:"totalDirs"`
	SourceFileCount int          `json:"sourceFileCount"`
	LOCEstimate     int          `json:"locEstimate"`
	Readme          ReadmeSignal `json:"readme"`
	LicensePresent  bool         `json:"licensePresent"`
	Tests           TestSignal   `json:"tests"`
	ScannedEntries  int          `json:"scannedEntries"`
	Truncated       bool         `json:"truncated"`
}

// RepoSignals is everything the scoring rubric reads about one repository
type RepoSignals struct {
	RepoStructure
	CommitMetrics
	RecencyDays    int  `json:"recencyDays"`
	HasIssues      bool `json:"hasIssues"`
	HasWiki        bool `json:"hasWiki"`
	Archived       bool `json:"archived"`
	CloneSucceeded bool `json:"cloneSucceeded"`
}

// ScoreSet is a set of integer scores, each within [0, 100]
type ScoreSet struct {
	Overall             int `json:"overall"`
	CodeOrganization    int `json:"codeOrganization"`
	ProjectMaturity     int `json:"projectMaturity"`
	ConsistencyActivity int `json:"consistencyActivity"`
}

// ProfileScores is the account-level score set with the derived headline metrics
type ProfileScores struct {
	ScoreSet
	CodeQuality         int `json:"codeQuality"`
	ProjectCompleteness int `json:"projectCompleteness"`
	ProfessionalSignal  int `json:"professionalSignal"`
}

// Selection is a shortlisted candidate with its scoring context
type Selection struct {
	Repo           RepoCandidate    `json:"repo"`
	Factors        SelectionFactors `json:"factors"`
	Metrics        CommitMetrics    `json:"metrics"`
	BaseScore      int              `json:"baseScore"`
	ActivityBonus  int              `json:"activityBonus"`
	SelectionScore int              `json:"selectionScore"`
	Justification  string           `json:"justification"`
}

// RepoSummary is the trimmed repository record carried in the evidence
type RepoSummary struct {
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	HTMLURL       string    `json:"htmlUrl"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	OpenIssues    int       `json:"openIssues"`
	Size          int       `json:"size"`
	DefaultBranch string    `json:"defaultBranch"`
	PushedAt      time.Time `json:"pushedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SelectedRepoEvidence is the per-repository unit handed downstream
type SelectedRepoEvidence struct {
	Repo           RepoSummary      `json:"repo"`
	Factors        SelectionFactors `json:"factors"`
	Metrics        CommitMetrics    `json:"metrics"`
	BaseScore      int              `json:"baseScore"`
	SelectionScore int              `json:"selectionScore"`
	Justification  string           `json:"justification"`
	Signals        RepoSignals      `json:"signals"`
	Scores         ScoreSet         `json:"scores"`
}

// SelectionMeta records how many repositories each selection phase saw
type SelectionMeta struct {
	TotalRepos      int `json:"totalRepos"`
	EligibleRepos   int `json:"eligibleRepos"`
	ConsideredRepos int `json:"consideredRepos"`
}

// Evidence is the deterministic evidence base for one account
type Evidence struct {
	SelectionMeta SelectionMeta          `json:"selectionMeta"`
	Repos         []SelectedRepoEvidence `json:"repos"`
}

// Profile is the subset of the GitHub user record the service keeps
type Profile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Blog        string    `json:"blog"`
	AvatarURL   string    `json:"avatarUrl"`
	HTMLURL     string    `json:"htmlUrl"`
	PublicRepos int       `json:"publicRepos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProfileAnalysis is what the profile cache stores per username
type ProfileAnalysis struct {
	Profile  Profile  `json:"profile"`
	Evidence Evidence `json:"evidence"`
}

// RoleWeights are the role-specific weights applied to the three sub-scores
type RoleWeights struct {
	CodeOrganization    float64 `json:"codeOrganization"`
	ProjectMaturity     float64 `json:"projectMaturity"`
	ConsistencyActivity float64 `json:"consistencyActivity"`
}

// RoleConfig describes an evaluation role
type RoleConfig struct {
	Key        string      `json:"key"`
	Label      string      `json:"label"`
	Weights    RoleWeights `json:"weights"`
	ImpactNote string      `json:"impactNote"`
}

// ContextLinkInput accepts either a bare URL string or a {label, url} object
type ContextLinkInput struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url"`
}

// UnmarshalJSON implements json.Unmarshaler
func (c *ContextLinkInput) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*c = ContextLinkInput{URL: raw}
		return nil
	}
	type plain ContextLinkInput
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = ContextLinkInput(obj)
	return nil
}

// AnalyzeRequest represents the request structure for the analyze endpoint
type AnalyzeRequest struct {
	Username     string             `json:"username" binding:"required"`
	Role         string             `json:"role"`
	RoleOther    string             `json:"roleOther"`
	Context      string             `json:"context"`
	ContextLinks []ContextLinkInput `json:"contextLinks"`
}

// ContextLink is a normalized, fetchable context link
type ContextLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ExternalContext is what was learned from one context link
type ExternalContext struct {
	Label       string `json:"label"`
	URL         string `json:"url"`
	FinalURL    string `json:"finalUrl,omitempty"`
	Reachable   bool   `json:"reachable"`
	Restricted  bool   `json:"restricted,omitempty"`
	Status      int    `json:"status,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Heading     string `json:"heading,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	Note        string `json:"note,omitempty"`
}

// ExternalContextTotals counts links by outcome
type ExternalContextTotals struct {
	Total     int `json:"total"`
	Reachable int `json:"reachable"`
	Usable    int `json:"usable"`
}

// ExternalContextSummary is a short digest of the resolved links
type ExternalContextSummary struct {
	Note       string                `json:"note"`
	Highlights []string              `json:"highlights"`
	Totals     ExternalContextTotals `json:"totals"`
}

// RepoFinding is a per-repository note in a report
type RepoFinding struct {
	Repo               string `json:"repo"`
	QualityScore       int    `json:"qualityScore,omitempty"`
	ProjectIntent      string `json:"projectIntent"`
	ArchitectureSignal string `json:"architectureSignal"`
	Risk               string `json:"risk"`
}

// Recommendation is the hiring recommendation of a report
type Recommendation struct {
	Decision        string   `json:"decision"`
	Reasoning       string   `json:"reasoning"`
	SenioritySignal string   `json:"senioritySignal"`
	RoleFit         []string `json:"roleFit"`
}

// Draft is a report as produced by a synthesizer or the deterministic
// fallback. Nil slices and empty strings mean the field was not supplied.
type Draft struct {
	Summary                string
	Strengths              []string
	Weaknesses             []string
	TechnicalHighlights    []string
	GrowthAreas            []string
	RepoFindings           []RepoFinding
	ExternalContextSignals []string
	Recommendation         *Recommendation
	EvaluationModeBlurb    string
	ImprovementChecklist   []string
	RoleImpact             string
}

// Report is the finished qualitative report returned to callers
type Report struct {
	Summary                string         `json:"summary"`
	Scores                 ProfileScores  `json:"scores"`
	Strengths              []string       `json:"strengths"`
	Gaps                   []string       `json:"gaps"`
	TechnicalHighlights    []string       `json:"technicalHighlights"`
	GrowthAreas            []string       `json:"growthAreas"`
	RepoFindings           []RepoFinding  `json:"repoFindings"`
	ExternalContextSignals []string       `json:"externalContextSignals"`
	EvaluationModeBlurb    string         `json:"evaluationModeBlurb"`
	Recommendation         Recommendation `json:"recommendation"`
	ImprovementChecklist   []string       `json:"improvementChecklist"`
	RoleImpact             string         `json:"roleImpact"`
}

// RoleSelection echoes the evaluation role applied to a request
type RoleSelection struct {
	SelectedRole string      `json:"selectedRole"`
	CustomRole   *string     `json:"customRole"`
	Label        string      `json:"label"`
	Weights      RoleWeights `json:"weights"`
	ImpactNote   string      `json:"impactNote"`
}

// SampledRepo is the short listing of an analyzed repository
type SampledRepo struct {
	Name      string    `json:"name"`
	HTMLURL   string    `json:"htmlUrl"`
	Stars     int       `json:"stars"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InputContext echoes the caller-supplied context with what was fetched for it
type InputContext struct {
	ExtraContext    string            `json:"extraContext"`
	ContextLinks    []ContextLink     `json:"contextLinks"`
	ExternalContext []ExternalContext `json:"externalContext"`
}

// CacheInfo tells the caller which cache layer served the result
type CacheInfo struct {
	Source string `json:"source"`
	Hit    bool   `json:"hit"`
}

// Cache sources reported in CacheInfo
const (
	CacheSourceResult  = "analysis-cache"
	CacheSourceProfile = "profile-cache"
	CacheSourceFresh   = "fresh"
)

// Diagnostics reports whether the deterministic fallback replaced the synthesizer
type Diagnostics struct {
	AIFallbackUsed bool   `json:"aiFallbackUsed"`
	AIMessage      string `json:"aiMessage,omitempty"`
}

// AnalysisResult is the full response for one analyze request
type AnalysisResult struct {
	ID           string        `json:"id"`
	Profile      Profile       `json:"profile"`
	Role         RoleSelection `json:"role"`
	SampledRepos []SampledRepo `json:"sampledRepos"`
	Evidence     Evidence      `json:"evidence"`
	Report       Report        `json:"report"`
	Diagnostics  Diagnostics   `json:"diagnostics"`
	InputContext InputContext  `json:"inputContext"`
	Cache        CacheInfo     `json:"cache"`
	GeneratedAt  time.Time     `json:"generatedAt"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK         bool   `json:"ok"`
	GitHubAuth string `json:"github_auth"`
	Version    string `json:"version"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
