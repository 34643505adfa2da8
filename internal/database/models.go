package database

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// AnalysisRecord is one persisted analysis outcome
type AnalysisRecord struct {
	ID                  string    `json:"id" db:"id"`
	Username            string    `json:"username" db:"username"`
	Role                string    `json:"role" db:"role"`
	Overall             int       `json:"overall" db:"overall"`
	CodeOrganization    int       `json:"codeOrganization" db:"code_organization"`
	ProjectMaturity     int       `json:"projectMaturity" db:"project_maturity"`
	ConsistencyActivity int       `json:"consistencyActivity" db:"consistency_activity"`
	RepoCount           int       `json:"repoCount" db:"repo_count"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
}

// NewAnalysisRecord creates a record with a generated ID. Usernames are
// stored lowercased since GitHub logins are case-insensitive.
func NewAnalysisRecord(username, role string, scores types.ScoreSet, repoCount int) *AnalysisRecord {
	return &AnalysisRecord{
		ID:                  uuid.New().String(),
		Username:            strings.ToLower(username),
		Role:                role,
		Overall:             scores.Overall,
		CodeOrganization:    scores.CodeOrganization,
		ProjectMaturity:     scores.ProjectMaturity,
		ConsistencyActivity: scores.ConsistencyActivity,
		RepoCount:           repoCount,
		CreatedAt:           time.Now().UTC(),
	}
}
