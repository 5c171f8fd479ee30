package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/litverse/server/internal/model"
)

// BookRepo defines the interface for book repository operations
type BookRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Book, error)
	Create(ctx context.Context, book model.Book) (model.Book, error)
	Update(ctx context.Context, book model.Book) (model.Book, error)
	List(ctx context.Context, page, limit int, search, category string) ([]model.Book, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type bookRepo struct {
	db *sql.DB
}

// NewBookRepo creates a new BookRepo instance
func NewBookRepo(db *sql.DB) BookRepo {
	return &bookRepo{db: db}
}

const bookColumns = `
	id, title, author, category, description, cover_image, file_url, type,
	price, created_at, updated_at`

func scanBook(row *sql.Row) (model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Category, &b.Description, &b.CoverImage,
		&b.FileURL, &b.Type, &b.Price, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Book{}, ErrNotFound
		}
		return model.Book{}, fmt.Errorf("scan book: %w", err)
	}
	return b, nil
}

// GetByID retrieves a book by ID
func (r *bookRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Book, error) {
	query := `SELECT` + bookColumns + ` FROM books WHERE id = $1`
	return scanBook(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts a new book.
func (r *bookRepo) Create(ctx context.Context, book model.Book) (model.Book, error) {
	query := `
		INSERT INTO books (title, author, category, description, cover_image, file_url, type, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING` + bookColumns
	created, err := scanBook(r.db.QueryRowContext(ctx, query,
		book.Title, book.Author, book.Category, book.Description,
		book.CoverImage, book.FileURL, book.Type, book.Price,
	))
	if err != nil {
		return model.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return created, nil
}

// Update persists all mutable fields of the book.
func (r *bookRepo) Update(ctx context.Context, book model.Book) (model.Book, error) {
	query := `
		UPDATE books SET
			title = $2, author = $3, category = $4, description = $5,
			cover_image = $6, file_url = $7, type = $8, price = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING` + bookColumns
	updated, err := scanBook(r.db.QueryRowContext(ctx, query,
		book.ID, book.Title, book.Author, book.Category, book.Description,
		book.CoverImage, book.FileURL, book.Type, book.Price,
	))
	if err != nil {
		return model.Book{}, err
	}
	return updated, nil
}

// List returns a page of books, newest first, with optional title/author
// search and category filter, plus the total match count.
func (r *bookRepo) List(ctx context.Context, page, limit int, search, category string) ([]model.Book, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	where := `WHERE ($3 = '' OR title ILIKE '%' || $3 || '%' OR author ILIKE '%' || $3 || '%')
		AND ($4 = '' OR category = $4)`
	query := `SELECT` + bookColumns + ` FROM books ` + where + `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, (page-1)*limit, search, category)
	if err != nil {
		return nil, 0, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.Category, &b.Description,
			&b.CoverImage, &b.FileURL, &b.Type, &b.Price, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate books: %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM books ` + `WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%')
		AND ($2 = '' OR category = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, search, category).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	return books, total, nil
}

// Delete removes a book by ID.
func (r *bookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
