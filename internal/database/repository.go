package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const maxQueryLimit = 100

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}

// SaveAnalysis inserts one analysis record
func (r *Repository) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	stmt, err := r.db.GetPreparedStatement("insert_analysis")
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		rec.ID, rec.Username, rec.Role, rec.Overall, rec.CodeOrganization,
		rec.ProjectMaturity, rec.ConsistencyActivity, rec.RepoCount, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// RecentForUser returns the newest analyses of username, newest first
func (r *Repository) RecentForUser(ctx context.Context, username string, limit int) ([]AnalysisRecord, error) {
	stmt, err := r.db.GetPreparedStatement("recent_for_user")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, strings.ToLower(username), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return scanRecords(rows)
}

// TopByRole ranks the latest analysis of each username under role by overall score
func (r *Repository) TopByRole(ctx context.Context, role string, limit int) ([]AnalysisRecord, error) {
	stmt, err := r.db.GetPreparedStatement("top_by_role")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, role, role, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]AnalysisRecord, error) {
	defer rows.Close()

	records := []AnalysisRecord{}
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(
			&rec.ID, &rec.Username, &rec.Role, &rec.Overall, &rec.CodeOrganization,
			&rec.ProjectMaturity, &rec.ConsistencyActivity, &rec.RepoCount, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analyses: %w", err)
	}
	return records, nil
}
