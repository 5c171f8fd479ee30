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

// PurchaseHandler handles user purchases and mock-test result submission.
type PurchaseHandler struct {
	purchases repo.PurchaseRepo
	results   repo.TestResultRepo
	books     repo.BookRepo
	tests     repo.MockTestRepo
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(
	purchases repo.PurchaseRepo,
	results repo.TestResultRepo,
	books repo.BookRepo,
	tests repo.MockTestRepo,
) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
		results:   results,
		books:     books,
		tests:     tests,
	}
}

// createPurchaseRequest is the request body for POST /purchases
type createPurchaseRequest struct {
	BookID        string `json:"book_id"`
	PaymentMethod string `json:"payment_method"`
}

// HandleCreatePurchase handles POST /purchases. The amount is taken from the
// book's current price; payment settlement is out of band, so the purchase
// starts pending.
func (h *PurchaseHandler) HandleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetSubjectID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	switch req.PaymentMethod {
	case "card", "paypal", "wallet":
	default:
		respondWithError(w, http.StatusBadRequest, "payment_method must be card, paypal or wallet")
		return
	}

	book, err := h.books.GetByID(r.Context(), bookID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	purchase, err := h.purchases.Create(r.Context(), model.Purchase{
		UserID:        userID,
		BookID:        book.ID,
		Amount:        book.Price,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: "pending",
		TransactionID: uuid.NewString(),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "purchase created successfully",
		"purchase": toPurchaseResponse(purchase),
	})
}

// HandleListMyPurchases handles GET /purchases
func (h *PurchaseHandler) HandleListMyPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetSubjectID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	purchases, err := h.purchases.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"purchases": out})
}

type purchaseResponse struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	TransactionID string    `json:"transaction_id"`
	PurchaseDate  time.Time `json:"purchase_date"`
	DownloadCount int       `json:"download_count"`
	MaxDownloads  int       `json:"max_downloads"`
}

func toPurchaseResponse(p model.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:            p.ID.String(),
		BookID:        p.BookID.String(),
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		PaymentStatus: p.PaymentStatus,
		TransactionID: p.TransactionID,
		PurchaseDate:  p.PurchaseDate,
		DownloadCount: p.DownloadCount,
		MaxDownloads:  p.MaxDownloads,
	}
}

// submitResultRequest is the request body for POST /tests/{id}/results.
type submitResultRequest struct {
	Answers   []answerSubmission `json:"answers"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
}

type answerSubmission struct {
	QuestionIndex  int `json:"question_index"`
	SelectedAnswer int `json:"selected_answer"`
	TimeTaken      int `json:"time_taken"`
}

// HandleSubmitResult handles POST /tests/{id}/results. Answers are graded
// server-side against the stored questions.
func (h *PurchaseHandler) HandleSubmitResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetSubjectID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	testID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid test id")
		return
	}

	var req submitResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EndTime.Before(req.StartTime) {
		respondWithError(w, http.StatusBadRequest, "end_time must not precede start_time")
		return
	}

	test, err := h.tests.GetByID(r.Context(), testID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	answers := make([]model.Answer, 0, len(req.Answers))
	score := 0
	for _, a := range req.Answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(test.Questions) {
			respondWithError(w, http.StatusBadRequest, "answer question_index out of range")
			return
		}
		q := test.Questions[a.QuestionIndex]
		correct := a.SelectedAnswer == q.CorrectAnswer
		points := 0
		if correct {
			points = q.Points
			score += points
		}
		answers = append(answers, model.Answer{
			QuestionIndex:  a.QuestionIndex,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      correct,
			TimeTaken:      a.TimeTaken,
			Points:         points,
		})
	}

	percentage := 0.0
	if test.TotalMarks > 0 {
		percentage = float64(score) / float64(test.TotalMarks) * 100
	}

	result, err := h.results.Create(r.Context(), model.TestResult{
		UserID:     userID,
		TestID:     testID,
		Answers:    answers,
		TotalScore: score,
		Percentage: percentage,
		TimeTaken:  int(req.EndTime.Sub(req.StartTime).Minutes()),
		IsPassed:   score >= test.PassingMarks,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "test result submitted successfully",
		"result": map[string]interface{}{
			"id":          result.ID.String(),
			"total_score": result.TotalScore,
			"percentage":  result.Percentage,
			"is_passed":   result.IsPassed,
			"time_taken":  result.TimeTaken,
		},
	})
}
