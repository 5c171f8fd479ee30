package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litverse/server/internal/auth"
	"github.com/litverse/server/internal/middleware"
	"github.com/litverse/server/internal/model"
	"github.com/litverse/server/internal/repo"
)

type memBooks struct{ books map[uuid.UUID]model.Book }

func (m *memBooks) GetByID(_ context.Context, id uuid.UUID) (model.Book, error) {
	b, ok := m.books[id]
	if !ok {
		return model.Book{}, repo.ErrNotFound
	}
	return b, nil
}
func (m *memBooks) Create(_ context.Context, b model.Book) (model.Book, error) { return b, nil }
func (m *memBooks) Update(_ context.Context, b model.Book) (model.Book, error) { return b, nil }
func (m *memBooks) List(context.Context, int, int, string, string) ([]model.Book, int, error) {
	return nil, 0, nil
}
func (m *memBooks) Delete(context.Context, uuid.UUID) error { return nil }

type memTests struct{ tests map[uuid.UUID]model.MockTest }

func (m *memTests) GetByID(_ context.Context, id uuid.UUID) (model.MockTest, error) {
	tst, ok := m.tests[id]
	if !ok {
		return model.MockTest{}, repo.ErrNotFound
	}
	return tst, nil
}
func (m *memTests) Create(_ context.Context, t model.MockTest) (model.MockTest, error) { return t, nil }
func (m *memTests) Update(_ context.Context, t model.MockTest) (model.MockTest, error) { return t, nil }
func (m *memTests) List(context.Context, int, int, bool) ([]model.MockTest, int, error) {
	return nil, 0, nil
}
func (m *memTests) Delete(context.Context, uuid.UUID) error { return nil }

type memPurchases struct{ created []model.Purchase }

func (m *memPurchases) Create(_ context.Context, p model.Purchase) (model.Purchase, error) {
	p.ID = uuid.New()
	p.PurchaseDate = time.Now()
	m.created = append(m.created, p)
	return p, nil
}
func (m *memPurchases) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Purchase, error) {
	var out []model.Purchase
	for _, p := range m.created {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *memPurchases) List(context.Context, int, int) ([]repo.PurchaseSummary, int, error) {
	return nil, 0, nil
}

type memResults struct{ created []model.TestResult }

func (m *memResults) Create(_ context.Context, r model.TestResult) (model.TestResult, error) {
	r.ID = uuid.New()
	r.SubmittedAt = time.Now()
	m.created = append(m.created, r)
	return r, nil
}
func (m *memResults) ListByUser(context.Context, uuid.UUID) ([]model.TestResult, error) {
	return nil, nil
}

type purchaseFixture struct {
	router    *chi.Mux
	token     string
	userID    uuid.UUID
	books     *memBooks
	tests     *memTests
	purchases *memPurchases
	results   *memResults
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	jwtService := auth.NewJWTService("test-secret-at-least-32-characters-long")
	userID := uuid.New()
	token, err := jwtService.Issue(userID.String(), "Jane Doe", "")
	require.NoError(t, err)

	fx := &purchaseFixture{
		userID:    userID,
		token:     token,
		books:     &memBooks{books: make(map[uuid.UUID]model.Book)},
		tests:     &memTests{tests: make(map[uuid.UUID]model.MockTest)},
		purchases: &memPurchases{},
		results:   &memResults{},
	}

	h := NewPurchaseHandler(fx.purchases, fx.results, fx.books, fx.tests)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtService))
		r.Post("/purchases", h.HandleCreatePurchase)
		r.Get("/purchases", h.HandleListMyPurchases)
		r.Post("/tests/{id}/results", h.HandleSubmitResult)
	})
	fx.router = r
	return fx
}

func (fx *purchaseFixture) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	r.Header.Set("Authorization", "Bearer "+fx.token)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, r)
	return w
}

func TestCreatePurchase(t *testing.T) {
	fx := newPurchaseFixture(t)
	bookID := uuid.New()
	fx.books.books[bookID] = model.Book{ID: bookID, Title: "Some Book", Price: 24.50}

	w := fx.post(t, "/purchases", map[string]string{
		"book_id": bookID.String(), "payment_method": "card",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, fx.purchases.created, 1)
	p := fx.purchases.created[0]
	assert.Equal(t, fx.userID, p.UserID)
	assert.Equal(t, bookID, p.BookID)
	assert.Equal(t, 24.50, p.Amount, "amount must come from the stored price")
	assert.Equal(t, "pending", p.PaymentStatus)
	assert.NotEmpty(t, p.TransactionID)
}

func TestCreatePurchase_rejectsUnknownPaymentMethod(t *testing.T) {
	fx := newPurchaseFixture(t)
	bookID := uuid.New()
	fx.books.books[bookID] = model.Book{ID: bookID, Price: 10}

	w := fx.post(t, "/purchases", map[string]string{
		"book_id": bookID.String(), "payment_method": "iou",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, fx.purchases.created)
}

func TestCreatePurchase_unknownBook(t *testing.T) {
	fx := newPurchaseFixture(t)
	w := fx.post(t, "/purchases", map[string]string{
		"book_id": uuid.NewString(), "payment_method": "card",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePurchase_requiresToken(t *testing.T) {
	fx := newPurchaseFixture(t)
	r := httptest.NewRequest(http.MethodPost, "/purchases", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func questionsForGrading() []model.Question {
	return []model.Question{
		{Question: "Q1", Options: []string{"a", "b", "c"}, CorrectAnswer: 0, Points: 2},
		{Question: "Q2", Options: []string{"a", "b", "c"}, CorrectAnswer: 1, Points: 2},
		{Question: "Q3", Options: []string{"a", "b", "c"}, CorrectAnswer: 2, Points: 1},
	}
}

func TestSubmitResult_gradedServerSide(t *testing.T) {
	fx := newPurchaseFixture(t)
	testID := uuid.New()
	fx.tests.tests[testID] = model.MockTest{
		ID: testID, Questions: questionsForGrading(),
		TotalMarks: 5, PassingMarks: 3, IsActive: true,
	}

	start := time.Now().Add(-30 * time.Minute)
	w := fx.post(t, "/tests/"+testID.String()+"/results", map[string]interface{}{
		"start_time": start,
		"end_time":   start.Add(25 * time.Minute),
		"answers": []map[string]int{
			{"question_index": 0, "selected_answer": 0},
			{"question_index": 1, "selected_answer": 2},
			{"question_index": 2, "selected_answer": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, fx.results.created, 1)
	res := fx.results.created[0]
	assert.Equal(t, 3, res.TotalScore)
	assert.InDelta(t, 60.0, res.Percentage, 0.01)
	assert.True(t, res.IsPassed)
	assert.Equal(t, 25, res.TimeTaken)
	require.Len(t, res.Answers, 3)
	assert.True(t, res.Answers[0].IsCorrect)
	assert.False(t, res.Answers[1].IsCorrect)
	assert.Zero(t, res.Answers[1].Points)
}

func TestSubmitResult_failingScore(t *testing.T) {
	fx := newPurchaseFixture(t)
	testID := uuid.New()
	fx.tests.tests[testID] = model.MockTest{
		ID: testID, Questions: questionsForGrading(),
		TotalMarks: 5, PassingMarks: 3, IsActive: true,
	}

	start := time.Now().Add(-10 * time.Minute)
	w := fx.post(t, "/tests/"+testID.String()+"/results", map[string]interface{}{
		"start_time": start,
		"end_time":   start.Add(5 * time.Minute),
		"answers": []map[string]int{
			{"question_index": 2, "selected_answer": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, fx.results.created, 1)
	assert.Equal(t, 1, fx.results.created[0].TotalScore)
	assert.False(t, fx.results.created[0].IsPassed)
}

func TestSubmitResult_outOfRangeAnswer(t *testing.T) {
	fx := newPurchaseFixture(t)
	testID := uuid.New()
	fx.tests.tests[testID] = model.MockTest{
		ID: testID, Questions: questionsForGrading(), TotalMarks: 5,
	}

	start := time.Now().Add(-10 * time.Minute)
	w := fx.post(t, "/tests/"+testID.String()+"/results", map[string]interface{}{
		"start_time": start,
		"end_time":   start.Add(5 * time.Minute),
		"answers": []map[string]int{
			{"question_index": 9, "selected_answer": 0},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, fx.results.created)
}

func TestSubmitResult_endBeforeStart(t *testing.T) {
	fx := newPurchaseFixture(t)
	testID := uuid.New()
	fx.tests.tests[testID] = model.MockTest{ID: testID, Questions: questionsForGrading()}

	now := time.Now()
	w := fx.post(t, "/tests/"+testID.String()+"/results", map[string]interface{}{
		"start_time": now,
		"end_time":   now.Add(-time.Minute),
		"answers":    []map[string]int{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
