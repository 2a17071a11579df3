package domain

import (
	"context"
	"time"
)

// FinanceStore handles persistent storage of the financial aggregates. Every
// operation is an atomic single-aggregate write or read; cross-aggregate
// transactions are not required by the dialog core.
type FinanceStore interface {
	EnsureUser(ctx context.Context, id, name, email string) error
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, user User) error

	ListCategories(ctx context.Context) ([]Category, error)

	AddExpense(ctx context.Context, e Expense) error
	AddRecurringExpense(ctx context.Context, r RecurringExpense) error

	// CreateOrUpdateBudget upserts by (user, category): an existing budget's
	// amount is overwritten, never duplicated.
	CreateOrUpdateBudget(ctx context.Context, b Budget) error
	ListBudgets(ctx context.Context, userID string) ([]Budget, error)

	AddGoal(ctx context.Context, g Goal) error
	ListActiveGoals(ctx context.Context, userID string) ([]Goal, error)

	// FetchExpenses returns the user's expenses within [start, end] matching
	// the category filter, ordered by expense date then insertion order.
	FetchExpenses(ctx context.Context, userID string, start, end time.Time, filter CategoryFilter) ([]Expense, error)

	Close() error
}
