package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/litverse/server/internal/middleware"
	"github.com/litverse/server/internal/model"
	"github.com/litverse/server/internal/repo"
)

// CatalogHandler serves the public book/test catalog and the admin-side
// catalog management.
type CatalogHandler struct {
	books repo.BookRepo
	tests repo.MockTestRepo
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(books repo.BookRepo, tests repo.MockTestRepo) *CatalogHandler {
	return &CatalogHandler{books: books, tests: tests}
}

type bookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	FileURL     string    `json:"file_url,omitempty"`
	Type        string    `json:"type"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBookResponse(b model.Book) bookResponse {
	return bookResponse{
		ID:          b.ID.String(),
		Title:       b.Title,
		Author:      b.Author,
		Category:    b.Category,
		Description: b.Description,
		CoverImage:  b.CoverImage,
		FileURL:     b.FileURL,
		Type:        b.Type,
		Price:       b.Price,
		CreatedAt:   b.CreatedAt,
	}
}

// HandleListBooks handles GET /books and GET /admin/books
func (h *CatalogHandler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	search := r.URL.Query().Get("search")
	category := r.URL.Query().Get("category")

	books, total, err := h.books.List(r.Context(), page, limit, search, category)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"books":        out,
		"total":        total,
		"current_page": page,
		"total_pages":  totalPages(total, limit),
	})
}

// HandleGetBook handles GET /books/{id}
func (h *CatalogHandler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toBookResponse(book))
}

// bookRequest is the request body for creating and updating books.
type bookRequest struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	CoverImage  string  `json:"cover_image"`
	FileURL     string  `json:"file_url"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
}

func (req *bookRequest) validate() string {
	if req.Title == "" || req.Author == "" {
		return "title and author are required"
	}
	switch req.Type {
	case "", "ebook", "audiobook", "physical":
		return ""
	}
	return "type must be ebook, audiobook or physical"
}

// HandleCreateBook handles POST /admin/books
func (h *CatalogHandler) HandleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Type == "" {
		req.Type = "ebook"
	}

	book, err := h.books.Create(r.Context(), model.Book{
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		FileURL:     req.FileURL,
		Type:        req.Type,
		Price:       req.Price,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "book created successfully",
		"book":    toBookResponse(book),
	})
}

// HandleUpdateBook handles PUT /admin/books/{id}
func (h *CatalogHandler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Category = req.Category
	book.Description = req.Description
	book.CoverImage = req.CoverImage
	book.FileURL = req.FileURL
	if req.Type != "" {
		book.Type = req.Type
	}
	book.Price = req.Price

	updated, err := h.books.Update(r.Context(), book)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "book updated successfully",
		"book":    toBookResponse(updated),
	})
}

// HandleDeleteBook handles DELETE /admin/books/{id}
func (h *CatalogHandler) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "book deleted successfully"})
}

type mockTestResponse struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Category       string           `json:"category"`
	Duration       int              `json:"duration"`
	TotalQuestions int              `json:"total_questions"`
	TotalMarks     int              `json:"total_marks"`
	PassingMarks   int              `json:"passing_marks"`
	Questions      []model.Question `json:"questions,omitempty"`
	IsActive       bool             `json:"is_active"`
	IsFree         bool             `json:"is_free"`
	Price          float64          `json:"price"`
	Difficulty     string           `json:"difficulty"`
	Tags           []string         `json:"tags,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// toMockTestResponse shapes a test for API output; withQuestions is false on
// the public catalog so answers never leak before an attempt.
func toMockTestResponse(t model.MockTest, withQuestions bool) mockTestResponse {
	resp := mockTestResponse{
		ID:             t.ID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Category:       t.Category,
		Duration:       t.Duration,
		TotalQuestions: t.TotalQuestions,
		TotalMarks:     t.TotalMarks,
		PassingMarks:   t.PassingMarks,
		IsActive:       t.IsActive,
		IsFree:         t.IsFree,
		Price:          t.Price,
		Difficulty:     t.Difficulty,
		Tags:           t.Tags,
		CreatedAt:      t.CreatedAt,
	}
	if withQuestions {
		resp.Questions = t.Questions
	}
	return resp
}

// HandleListTests handles GET /tests (public, active only, no questions).
func (h *CatalogHandler) HandleListTests(w http.ResponseWriter, r *http.Request) {
	h.listTests(w, r, true, false)
}

// HandleAdminListTests handles GET /admin/tests (all tests, with questions).
func (h *CatalogHandler) HandleAdminListTests(w http.ResponseWriter, r *http.Request) {
	h.listTests(w, r, false, true)
}

func (h *CatalogHandler) listTests(w http.ResponseWriter, r *http.Request, activeOnly, withQuestions bool) {
	page, limit := pagination(r)

	tests, total, err := h.tests.List(r.Context(), page, limit, activeOnly)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]mockTestResponse, 0, len(tests))
	for _, t := range tests {
		out = append(out, toMockTestResponse(t, withQuestions))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tests":        out,
		"total":        total,
		"current_page": page,
		"total_pages":  totalPages(total, limit),
	})
}

// mockTestRequest is the request body for creating and updating mock tests.
type mockTestRequest struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Category       string           `json:"category"`
	Duration       int              `json:"duration"`
	TotalQuestions int              `json:"total_questions"`
	TotalMarks     int              `json:"total_marks"`
	PassingMarks   int              `json:"passing_marks"`
	Questions      []model.Question `json:"questions"`
	IsActive       *bool            `json:"is_active"`
	IsFree         bool             `json:"is_free"`
	Price          float64          `json:"price"`
	Difficulty     string           `json:"difficulty"`
	Tags           []string         `json:"tags"`
}

func (req *mockTestRequest) validate() string {
	if req.Title == "" || req.Description == "" || req.Category == "" {
		return "title, description and category are required"
	}
	if req.Duration <= 0 {
		return "duration must be positive"
	}
	for _, q := range req.Questions {
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return "question correct_answer must index an option"
		}
	}
	return ""
}

// HandleCreateTest handles POST /admin/tests
func (h *CatalogHandler) HandleCreateTest(w http.ResponseWriter, r *http.Request) {
	var req mockTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	adminID, ok := middleware.GetSubjectID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	if req.Difficulty == "" {
		req.Difficulty = "intermediate"
	}

	test, err := h.tests.Create(r.Context(), model.MockTest{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Duration:       req.Duration,
		TotalQuestions: req.TotalQuestions,
		TotalMarks:     req.TotalMarks,
		PassingMarks:   req.PassingMarks,
		Questions:      req.Questions,
		IsActive:       isActive,
		IsFree:         req.IsFree,
		Price:          req.Price,
		Difficulty:     req.Difficulty,
		Tags:           req.Tags,
		CreatedBy:      adminID,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "mock test created successfully",
		"test":    toMockTestResponse(test, true),
	})
}

// HandleUpdateTest handles PUT /admin/tests/{id}
func (h *CatalogHandler) HandleUpdateTest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid test id")
		return
	}

	var req mockTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	test, err := h.tests.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	test.Title = req.Title
	test.Description = req.Description
	test.Category = req.Category
	test.Duration = req.Duration
	test.TotalQuestions = req.TotalQuestions
	test.TotalMarks = req.TotalMarks
	test.PassingMarks = req.PassingMarks
	test.Questions = req.Questions
	if req.IsActive != nil {
		test.IsActive = *req.IsActive
	}
	test.IsFree = req.IsFree
	test.Price = req.Price
	if req.Difficulty != "" {
		test.Difficulty = req.Difficulty
	}
	test.Tags = req.Tags

	updated, err := h.tests.Update(r.Context(), test)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "mock test updated successfully",
		"test":    toMockTestResponse(updated, true),
	})
}

// HandleDeleteTest handles DELETE /admin/tests/{id}
func (h *CatalogHandler) HandleDeleteTest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid test id")
		return
	}

	if err := h.tests.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "mock test deleted successfully"})
}
