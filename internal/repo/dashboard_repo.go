package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/litverse/server/internal/model"
)

// DashboardStats are the admin dashboard aggregates. Purchase figures only
// count completed payments.
type DashboardStats struct {
	TotalUsers      int
	TotalBooks      int
	TotalPurchases  int
	TotalTests      int
	TotalRevenue    float64
	RecentUsers     []model.User
	RecentPurchases []PurchaseSummary
	TopBooks        []TopBook
}

// TopBook is a best-seller row: completed purchase count and revenue per book.
type TopBook struct {
	BookID  uuid.UUID
	Title   string
	Count   int
	Revenue float64
}

// DashboardRepo computes admin dashboard aggregates
type DashboardRepo interface {
	Stats(ctx context.Context) (DashboardStats, error)
}

type dashboardRepo struct {
	db *sql.DB
}

// NewDashboardRepo creates a new DashboardRepo instance
func NewDashboardRepo(db *sql.DB) DashboardRepo {
	return &dashboardRepo{db: db}
}

// Stats gathers totals, completed revenue, the five newest users, the five
// newest completed purchases, and the five best-selling books.
func (r *dashboardRepo) Stats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats

	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM purchases WHERE payment_status = 'completed'),
			(SELECT COUNT(*) FROM mock_tests),
			(SELECT COALESCE(SUM(amount), 0) FROM purchases WHERE payment_status = 'completed')
	`).Scan(&stats.TotalUsers, &stats.TotalBooks, &stats.TotalPurchases,
		&stats.TotalTests, &stats.TotalRevenue)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("query totals: %w", err)
	}

	if stats.RecentUsers, err = r.recentUsers(ctx); err != nil {
		return DashboardStats{}, err
	}
	if stats.RecentPurchases, err = r.recentPurchases(ctx); err != nil {
		return DashboardStats{}, err
	}
	if stats.TopBooks, err = r.topBooks(ctx); err != nil {
		return DashboardStats{}, err
	}

	return stats, nil
}

func (r *dashboardRepo) recentUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, email_verified, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("query recent users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email,
			&u.EmailVerified, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *dashboardRepo) recentPurchases(ctx context.Context) ([]PurchaseSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.book_id, p.amount, p.purchase_date,
		       u.first_name || ' ' || u.last_name, u.email, b.title
		FROM purchases p
		JOIN users u ON u.id = p.user_id
		JOIN books b ON b.id = p.book_id
		WHERE p.payment_status = 'completed'
		ORDER BY p.purchase_date DESC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("query recent purchases: %w", err)
	}
	defer rows.Close()

	var summaries []PurchaseSummary
	for rows.Next() {
		var s PurchaseSummary
		if err := rows.Scan(&s.Purchase.ID, &s.Purchase.UserID, &s.Purchase.BookID,
			&s.Purchase.Amount, &s.Purchase.PurchaseDate,
			&s.UserName, &s.UserEmail, &s.BookTitle); err != nil {
			return nil, fmt.Errorf("scan recent purchase: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *dashboardRepo) topBooks(ctx context.Context) ([]TopBook, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.book_id, b.title, COUNT(*), SUM(p.amount)
		FROM purchases p
		JOIN books b ON b.id = p.book_id
		WHERE p.payment_status = 'completed'
		GROUP BY p.book_id, b.title
		ORDER BY COUNT(*) DESC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("query top books: %w", err)
	}
	defer rows.Close()

	var top []TopBook
	for rows.Next() {
		var t TopBook
		if err := rows.Scan(&t.BookID, &t.Title, &t.Count, &t.Revenue); err != nil {
			return nil, fmt.Errorf("scan top book: %w", err)
		}
		top = append(top, t)
	}
	return top, rows.Err()
}
