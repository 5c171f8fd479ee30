package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/litverse/server/internal/model"
)

// MockTestRepo defines the interface for mock test repository operations
type MockTestRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.MockTest, error)
	Create(ctx context.Context, test model.MockTest) (model.MockTest, error)
	Update(ctx context.Context, test model.MockTest) (model.MockTest, error)
	List(ctx context.Context, page, limit int, activeOnly bool) ([]model.MockTest, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type mockTestRepo struct {
	db *sql.DB
}

// NewMockTestRepo creates a new MockTestRepo instance
func NewMockTestRepo(db *sql.DB) MockTestRepo {
	return &mockTestRepo{db: db}
}

const mockTestColumns = `
	id, title, description, category, duration, total_questions, total_marks,
	passing_marks, questions, is_active, is_free, price, difficulty, tags,
	created_by, created_at, updated_at`

type mockTestRow interface {
	Scan(dest ...interface{}) error
}

func scanMockTest(row mockTestRow) (model.MockTest, error) {
	var t model.MockTest
	var questions []byte
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Duration,
		&t.TotalQuestions, &t.TotalMarks, &t.PassingMarks, &questions,
		&t.IsActive, &t.IsFree, &t.Price, &t.Difficulty, pq.Array(&t.Tags),
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.MockTest{}, ErrNotFound
		}
		return model.MockTest{}, fmt.Errorf("scan mock test: %w", err)
	}
	if err := json.Unmarshal(questions, &t.Questions); err != nil {
		return model.MockTest{}, fmt.Errorf("decode questions: %w", err)
	}
	return t, nil
}

// GetByID retrieves a mock test by ID
func (r *mockTestRepo) GetByID(ctx context.Context, id uuid.UUID) (model.MockTest, error) {
	query := `SELECT` + mockTestColumns + ` FROM mock_tests WHERE id = $1`
	return scanMockTest(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts a new mock test.
func (r *mockTestRepo) Create(ctx context.Context, test model.MockTest) (model.MockTest, error) {
	questions, err := json.Marshal(test.Questions)
	if err != nil {
		return model.MockTest{}, fmt.Errorf("encode questions: %w", err)
	}
	query := `
		INSERT INTO mock_tests (
			title, description, category, duration, total_questions,
			total_marks, passing_marks, questions, is_active, is_free, price,
			difficulty, tags, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING` + mockTestColumns
	created, err := scanMockTest(r.db.QueryRowContext(ctx, query,
		test.Title, test.Description, test.Category, test.Duration,
		test.TotalQuestions, test.TotalMarks, test.PassingMarks, questions,
		test.IsActive, test.IsFree, test.Price, test.Difficulty,
		pq.Array(test.Tags), test.CreatedBy,
	))
	if err != nil {
		return model.MockTest{}, fmt.Errorf("insert mock test: %w", err)
	}
	return created, nil
}

// Update persists all mutable fields of the mock test.
func (r *mockTestRepo) Update(ctx context.Context, test model.MockTest) (model.MockTest, error) {
	questions, err := json.Marshal(test.Questions)
	if err != nil {
		return model.MockTest{}, fmt.Errorf("encode questions: %w", err)
	}
	query := `
		UPDATE mock_tests SET
			title = $2, description = $3, category = $4, duration = $5,
			total_questions = $6, total_marks = $7, passing_marks = $8,
			questions = $9, is_active = $10, is_free = $11, price = $12,
			difficulty = $13, tags = $14, updated_at = now()
		WHERE id = $1
		RETURNING` + mockTestColumns
	updated, err := scanMockTest(r.db.QueryRowContext(ctx, query,
		test.ID, test.Title, test.Description, test.Category, test.Duration,
		test.TotalQuestions, test.TotalMarks, test.PassingMarks, questions,
		test.IsActive, test.IsFree, test.Price, test.Difficulty,
		pq.Array(test.Tags),
	))
	if err != nil {
		return model.MockTest{}, err
	}
	return updated, nil
}

// List returns a page of mock tests, newest first; activeOnly restricts the
// page to active tests for the public catalog.
func (r *mockTestRepo) List(ctx context.Context, page, limit int, activeOnly bool) ([]model.MockTest, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	query := `SELECT` + mockTestColumns + ` FROM mock_tests
		WHERE ($3 = FALSE OR is_active)
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, (page-1)*limit, activeOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("query mock tests: %w", err)
	}
	defer rows.Close()

	var tests []model.MockTest
	for rows.Next() {
		t, err := scanMockTest(rows)
		if err != nil {
			return nil, 0, err
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate mock tests: %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM mock_tests WHERE ($1 = FALSE OR is_active)`
	if err := r.db.QueryRowContext(ctx, countQuery, activeOnly).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count mock tests: %w", err)
	}

	return tests, total, nil
}

// Delete removes a mock test by ID.
func (r *mockTestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM mock_tests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mock test: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
