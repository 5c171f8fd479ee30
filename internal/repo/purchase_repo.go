package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/litverse/server/internal/model"
)

// PurchaseSummary joins a purchase with buyer and book details for listings.
type PurchaseSummary struct {
	Purchase  model.Purchase
	UserName  string
	UserEmail string
	BookTitle string
}

// PurchaseRepo defines the interface for purchase repository operations
type PurchaseRepo interface {
	// Create inserts the purchase; a duplicate transaction id surfaces as
	// ErrDuplicate.
	Create(ctx context.Context, p model.Purchase) (model.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Purchase, error)
	List(ctx context.Context, page, limit int) ([]PurchaseSummary, int, error)
}

type purchaseRepo struct {
	db *sql.DB
}

// NewPurchaseRepo creates a new PurchaseRepo instance
func NewPurchaseRepo(db *sql.DB) PurchaseRepo {
	return &purchaseRepo{db: db}
}

const purchaseColumns = `
	id, user_id, book_id, amount, payment_method, payment_status,
	transaction_id, purchase_date, download_count, max_downloads`

// Create inserts a new purchase row.
func (r *purchaseRepo) Create(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	query := `
		INSERT INTO purchases (user_id, book_id, amount, payment_method, payment_status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING` + purchaseColumns
	var created model.Purchase
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.BookID, p.Amount, p.PaymentMethod, p.PaymentStatus, p.TransactionID,
	).Scan(
		&created.ID, &created.UserID, &created.BookID, &created.Amount,
		&created.PaymentMethod, &created.PaymentStatus, &created.TransactionID,
		&created.PurchaseDate, &created.DownloadCount, &created.MaxDownloads,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Purchase{}, ErrDuplicate
		}
		return model.Purchase{}, fmt.Errorf("insert purchase: %w", err)
	}
	return created, nil
}

// ListByUser returns all purchases of one user, newest first.
func (r *purchaseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Purchase, error) {
	query := `SELECT` + purchaseColumns + ` FROM purchases
		WHERE user_id = $1
		ORDER BY purchase_date DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.BookID, &p.Amount, &p.PaymentMethod,
			&p.PaymentStatus, &p.TransactionID, &p.PurchaseDate,
			&p.DownloadCount, &p.MaxDownloads,
		); err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return purchases, nil
}

// List returns a page of all purchases with buyer and book details, newest
// first, plus the total count.
func (r *purchaseRepo) List(ctx context.Context, page, limit int) ([]PurchaseSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	query := `
		SELECT p.id, p.user_id, p.book_id, p.amount, p.payment_method,
		       p.payment_status, p.transaction_id, p.purchase_date,
		       p.download_count, p.max_downloads,
		       u.first_name || ' ' || u.last_name, u.email, b.title
		FROM purchases p
		JOIN users u ON u.id = p.user_id
		JOIN books b ON b.id = p.book_id
		ORDER BY p.purchase_date DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var summaries []PurchaseSummary
	for rows.Next() {
		var s PurchaseSummary
		if err := rows.Scan(
			&s.Purchase.ID, &s.Purchase.UserID, &s.Purchase.BookID,
			&s.Purchase.Amount, &s.Purchase.PaymentMethod, &s.Purchase.PaymentStatus,
			&s.Purchase.TransactionID, &s.Purchase.PurchaseDate,
			&s.Purchase.DownloadCount, &s.Purchase.MaxDownloads,
			&s.UserName, &s.UserEmail, &s.BookTitle,
		); err != nil {
			return nil, 0, fmt.Errorf("scan purchase row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate purchases: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}

	return summaries, total, nil
}
