package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/litverse/server/internal/model"
)

// TestResultRepo defines the interface for test result repository operations
type TestResultRepo interface {
	Create(ctx context.Context, result model.TestResult) (model.TestResult, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TestResult, error)
}

type testResultRepo struct {
	db *sql.DB
}

// NewTestResultRepo creates a new TestResultRepo instance
func NewTestResultRepo(db *sql.DB) TestResultRepo {
	return &testResultRepo{db: db}
}

const resultColumns = `
	id, user_id, test_id, answers, total_score, percentage, time_taken,
	is_passed, start_time, end_time, submitted_at`

// Create inserts a completed test attempt.
func (r *testResultRepo) Create(ctx context.Context, result model.TestResult) (model.TestResult, error) {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return model.TestResult{}, fmt.Errorf("encode answers: %w", err)
	}
	query := `
		INSERT INTO test_results (
			user_id, test_id, answers, total_score, percentage, time_taken,
			is_passed, start_time, end_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING` + resultColumns
	var created model.TestResult
	var rawAnswers []byte
	err = r.db.QueryRowContext(ctx, query,
		result.UserID, result.TestID, answers, result.TotalScore,
		result.Percentage, result.TimeTaken, result.IsPassed,
		result.StartTime, result.EndTime,
	).Scan(
		&created.ID, &created.UserID, &created.TestID, &rawAnswers,
		&created.TotalScore, &created.Percentage, &created.TimeTaken,
		&created.IsPassed, &created.StartTime, &created.EndTime, &created.SubmittedAt,
	)
	if err != nil {
		return model.TestResult{}, fmt.Errorf("insert test result: %w", err)
	}
	if err := json.Unmarshal(rawAnswers, &created.Answers); err != nil {
		return model.TestResult{}, fmt.Errorf("decode answers: %w", err)
	}
	return created, nil
}

// ListByUser returns all results of one user, newest first.
func (r *testResultRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TestResult, error) {
	query := `SELECT` + resultColumns + ` FROM test_results
		WHERE user_id = $1
		ORDER BY submitted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query test results: %w", err)
	}
	defer rows.Close()

	var results []model.TestResult
	for rows.Next() {
		var res model.TestResult
		var rawAnswers []byte
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.TestID, &rawAnswers, &res.TotalScore,
			&res.Percentage, &res.TimeTaken, &res.IsPassed, &res.StartTime,
			&res.EndTime, &res.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan test result row: %w", err)
		}
		if err := json.Unmarshal(rawAnswers, &res.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test results: %w", err)
	}
	return results, nil
}
