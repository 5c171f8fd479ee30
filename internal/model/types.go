package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical identity all authentication paths resolve to.
// PasswordHash is always set; federated and OTP-only signups get a random
// unusable password so the column invariant holds.
type User struct {
	ID               uuid.UUID
	FirstName        string
	SecondName       string
	LastName         string
	Email            string
	Phone            string
	PasswordHash     string
	GoogleID         string
	FacebookID       string
	IsActive         bool
	EmailVerified    bool
	EmailVerifiedAt  *time.Time
	ResetToken       string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Admin lives in a separate identity space from User.
type Admin struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// PendingRegistration is a not-yet-committed signup held in the cache until
// the email is verified. It is never written to the database.
type PendingRegistration struct {
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"created_at"`
}

// Book is a catalog item.
type Book struct {
	ID          uuid.UUID
	Title       string
	Author      string
	Category    string
	Description string
	CoverImage  string
	FileURL     string
	Type        string // ebook, audiobook, physical
	Price       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question is embedded in a mock test and stored as JSONB.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Points        int      `json:"points"`
}

// MockTest is an exam with embedded questions.
type MockTest struct {
	ID             uuid.UUID
	Title          string
	Description    string
	Category       string
	Duration       int // minutes
	TotalQuestions int
	TotalMarks     int
	PassingMarks   int
	Questions      []Question
	IsActive       bool
	IsFree         bool
	Price          float64
	Difficulty     string
	Tags           []string
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Purchase records a book sale.
type Purchase struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	BookID        uuid.UUID
	Amount        float64
	PaymentMethod string // card, paypal, wallet
	PaymentStatus string // pending, completed, failed, refunded
	TransactionID string
	PurchaseDate  time.Time
	DownloadCount int
	MaxDownloads  int
}

// Answer is one answered question inside a test result, stored as JSONB.
type Answer struct {
	QuestionIndex  int  `json:"question_index"`
	SelectedAnswer int  `json:"selected_answer"`
	IsCorrect      bool `json:"is_correct"`
	TimeTaken      int  `json:"time_taken,omitempty"` // seconds
	Points         int  `json:"points"`
}

// TestResult is a completed mock-test attempt.
type TestResult struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TestID      uuid.UUID
	Answers     []Answer
	TotalScore  int
	Percentage  float64
	TimeTaken   int // minutes
	IsPassed    bool
	StartTime   time.Time
	EndTime     time.Time
	SubmittedAt time.Time
}
