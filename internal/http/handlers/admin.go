package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/litverse/server/internal/auth"
	"github.com/litverse/server/internal/repo"
)

// AdminHandler handles admin login, dashboard and user management.
type AdminHandler struct {
	service   *auth.Service
	users     repo.UserRepo
	dashboard repo.DashboardRepo
	purchases repo.PurchaseRepo
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	service *auth.Service,
	users repo.UserRepo,
	dashboard repo.DashboardRepo,
	purchases repo.PurchaseRepo,
) *AdminHandler {
	return &AdminHandler{
		service:   service,
		users:     users,
		dashboard: dashboard,
		purchases: purchases,
	}
}

// adminLoginRequest is the request body for POST /admin/login
type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /admin/login
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	admin, token, err := h.service.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "admin login successful",
		"token":      token,
		"token_type": "bearer",
		"admin": map[string]string{
			"id":    admin.ID.String(),
			"email": admin.Email,
			"role":  admin.Role,
		},
	})
}

// HandleDashboardStats handles GET /admin/dashboard/stats
func (h *AdminHandler) HandleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	recentUsers := make([]userResponse, 0, len(stats.RecentUsers))
	for _, u := range stats.RecentUsers {
		recentUsers = append(recentUsers, toUserResponse(u))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stats": map[string]interface{}{
			"total_users":     stats.TotalUsers,
			"total_books":     stats.TotalBooks,
			"total_purchases": stats.TotalPurchases,
			"total_tests":     stats.TotalTests,
			"total_revenue":   stats.TotalRevenue,
		},
		"recent_users":     recentUsers,
		"recent_purchases": toPurchaseSummaries(stats.RecentPurchases),
		"top_books":        toTopBooks(stats.TopBooks),
	})
}

// HandleListUsers handles GET /admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	search := r.URL.Query().Get("search")

	users, total, err := h.users.List(r.Context(), page, limit, search)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users":        out,
		"total":        total,
		"current_page": page,
		"total_pages":  totalPages(total, limit),
	})
}

// adminUpdateUserRequest is the request body for PUT /admin/users/{id}.
// Pointers distinguish "absent" from zero values.
type adminUpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Password  *string `json:"password"`
	IsActive  *bool   `json:"is_active"`
}

// HandleUpdateUser handles PUT /admin/users/{id}
func (h *AdminHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req adminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			respondServiceError(w, err)
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		user.PasswordHash = hash
	}

	updated, err := h.users.Update(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "user updated successfully",
		"user":    toUserResponse(updated),
	})
}

// HandleDeleteUser handles DELETE /admin/users/{id}
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})
}

// HandleListPurchases handles GET /admin/purchases
func (h *AdminHandler) HandleListPurchases(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	purchases, total, err := h.purchases.List(r.Context(), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"purchases":    toPurchaseSummaries(purchases),
		"total":        total,
		"current_page": page,
		"total_pages":  totalPages(total, limit),
	})
}

// purchaseSummaryResponse is a purchase joined with buyer and book details.
type purchaseSummaryResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name,omitempty"`
	UserEmail     string    `json:"user_email,omitempty"`
	BookID        string    `json:"book_id"`
	BookTitle     string    `json:"book_title,omitempty"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	PurchaseDate  time.Time `json:"purchase_date"`
}

func toPurchaseSummaries(in []repo.PurchaseSummary) []purchaseSummaryResponse {
	out := make([]purchaseSummaryResponse, 0, len(in))
	for _, s := range in {
		out = append(out, purchaseSummaryResponse{
			ID:            s.Purchase.ID.String(),
			UserID:        s.Purchase.UserID.String(),
			UserName:      s.UserName,
			UserEmail:     s.UserEmail,
			BookID:        s.Purchase.BookID.String(),
			BookTitle:     s.BookTitle,
			Amount:        s.Purchase.Amount,
			PaymentMethod: s.Purchase.PaymentMethod,
			PaymentStatus: s.Purchase.PaymentStatus,
			TransactionID: s.Purchase.TransactionID,
			PurchaseDate:  s.Purchase.PurchaseDate,
		})
	}
	return out
}

type topBookResponse struct {
	BookID  string  `json:"book_id"`
	Title   string  `json:"title"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

func toTopBooks(in []repo.TopBook) []topBookResponse {
	out := make([]topBookResponse, 0, len(in))
	for _, t := range in {
		out = append(out, topBookResponse{
			BookID:  t.BookID.String(),
			Title:   t.Title,
			Count:   t.Count,
			Revenue: t.Revenue,
		})
	}
	return out
}

// pagination reads page/limit query params with the usual defaults.
func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

func totalPages(total, limit int) int {
	if limit < 1 {
		return 0
	}
	return (total + limit - 1) / limit
}
