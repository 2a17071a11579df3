package dispatch

import (
	"time"

	"github.com/shopspring/decimal"
)

// Typed commands produced by the validators. A command is only ever
// constructed when every required field parsed; handlers never see the raw
// parameter map.

type ProfileCommand struct {
	Salary       decimal.Decimal
	LocationType string
	Currency     string
}

type ExpenseCommand struct {
	Amount      decimal.Decimal
	CategoryID  int
	Description string
	ExpenseDate time.Time
}

type BudgetItem struct {
	CategoryID int
	Amount     decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
}

type BudgetCommand struct {
	Items []BudgetItem
}

type GoalCommand struct {
	Name         string
	TargetAmount decimal.Decimal
	TargetDate   time.Time
}

type RecurringCommand struct {
	Amount      decimal.Decimal
	CategoryID  int
	Description string
	NextDueDate time.Time
	Frequency   string
}

type SummaryCommand struct {
	StartDate   time.Time
	EndDate     time.Time
	CategoryIDs []int
	IncludeAll  bool
}

type RefineCommand struct {
	Query string
}
