package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date wire format used by every intent schema
// and by the persistence layer.
const DateLayout = "2006-01-02"

// Enumerated values published in the intent schemas. Malformed values are
// rejected by the validators, never silently defaulted.
var (
	LocationTypes = []string{"city", "urban", "village"}
	Currencies    = []string{"USD", "EUR", "INR", "GBP"}
	Frequencies   = []string{"daily", "weekly", "monthly", "yearly"}
)

// User is the financial profile for one chat user. Salary is nil until the
// profile has been collected via create_user_profile.
type User struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Salary       *decimal.Decimal `json:"salary,omitempty"`
	LocationType string           `json:"location_type,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// HasProfile reports whether the profile fields have been collected.
func (u *User) HasProfile() bool {
	return u != nil && u.Salary != nil && u.Currency != ""
}

type Category struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Expense struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryID   int             `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Description  string          `json:"description,omitempty"`
	ExpenseDate  time.Time       `json:"expense_date"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Budget struct {
	UserID     string          `json:"user_id"`
	CategoryID int             `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
}

type Goal struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
}

type RecurringExpense struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int             `json:"category_id"`
	Description string          `json:"description,omitempty"`
	NextDueDate time.Time       `json:"next_due_date"`
	Frequency   string          `json:"frequency"`
}

// CategoryFilter selects which categories an expense fetch covers.
// All=true means no category restriction.
type CategoryFilter struct {
	All        bool
	CategoryID int
}
