package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"spendwise/internal/domain"
)

// Domain handlers. Each takes a validated command, invokes the persistence
// collaborator, and produces the user-facing outcome.

func (d *Dispatcher) handleProfile(ctx context.Context, userID string, cmd *ProfileCommand) (domain.Outcome, error) {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		user = &domain.User{ID: userID}
	}
	user.Salary = &cmd.Salary
	user.LocationType = cmd.LocationType
	user.Currency = cmd.Currency

	if err := d.store.UpdateUser(ctx, *user); err != nil {
		return domain.Outcome{}, fmt.Errorf("update user: %w", err)
	}
	return domain.Outcome{Text: "Profile updated successfully!", Tag: domain.TagProfileUpdated}, nil
}

func (d *Dispatcher) handleExpense(ctx context.Context, userID string, cmd *ExpenseCommand) (domain.Outcome, error) {
	expense := domain.Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      cmd.Amount,
		CategoryID:  cmd.CategoryID,
		Description: cmd.Description,
		ExpenseDate: cmd.ExpenseDate,
		CreatedAt:   d.now(),
	}
	if err := d.store.AddExpense(ctx, expense); err != nil {
		return domain.Outcome{}, fmt.Errorf("add expense: %w", err)
	}
	return domain.Outcome{Text: "Expense logged.", Tag: domain.TagExpenseLogged}, nil
}

func (d *Dispatcher) handleBudgets(ctx context.Context, userID string, cmd *BudgetCommand) (domain.Outcome, error) {
	for _, item := range cmd.Items {
		budget := domain.Budget{
			UserID:     userID,
			CategoryID: item.CategoryID,
			Amount:     item.Amount,
			StartDate:  item.StartDate,
			EndDate:    item.EndDate,
		}
		if err := d.store.CreateOrUpdateBudget(ctx, budget); err != nil {
			return domain.Outcome{}, fmt.Errorf("upsert budget for category %d: %w", item.CategoryID, err)
		}
	}
	return domain.Outcome{Text: "Budgets updated successfully!", Tag: domain.TagBudgetsUpdated}, nil
}

func (d *Dispatcher) handleGoal(ctx context.Context, userID string, cmd *GoalCommand) (domain.Outcome, error) {
	goal := domain.Goal{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         cmd.Name,
		TargetAmount: cmd.TargetAmount,
		StartDate:    d.now(),
		EndDate:      cmd.TargetDate,
	}
	if err := d.store.AddGoal(ctx, goal); err != nil {
		return domain.Outcome{}, fmt.Errorf("add goal: %w", err)
	}
	return domain.Outcome{Text: "Goal set successfully!", Tag: domain.TagGoalSet}, nil
}

func (d *Dispatcher) handleRecurring(ctx context.Context, userID string, cmd *RecurringCommand) (domain.Outcome, error) {
	recurring := domain.RecurringExpense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      cmd.Amount,
		CategoryID:  cmd.CategoryID,
		Description: cmd.Description,
		NextDueDate: cmd.NextDueDate,
		Frequency:   cmd.Frequency,
	}
	if err := d.store.AddRecurringExpense(ctx, recurring); err != nil {
		return domain.Outcome{}, fmt.Errorf("add recurring expense: %w", err)
	}
	return domain.Outcome{Text: "Recurring expense added.", Tag: domain.TagRecurringAdded}, nil
}

// handleSummary fetches one filtered result set per requested category id
// (concatenated category-major, date-minor) or a single unfiltered set when
// include-all is forced or no ids were given. Zero rows is still a summary.
func (d *Dispatcher) handleSummary(ctx context.Context, userID string, cmd *SummaryCommand) (domain.Outcome, error) {
	var expenses []domain.Expense

	if len(cmd.CategoryIDs) > 0 && !cmd.IncludeAll {
		for _, id := range cmd.CategoryIDs {
			part, err := d.store.FetchExpenses(ctx, userID, cmd.StartDate, cmd.EndDate,
				domain.CategoryFilter{CategoryID: id})
			if err != nil {
				return domain.Outcome{}, fmt.Errorf("fetch expenses for category %d: %w", id, err)
			}
			expenses = append(expenses, part...)
		}
	} else {
		all, err := d.store.FetchExpenses(ctx, userID, cmd.StartDate, cmd.EndDate,
			domain.CategoryFilter{All: true})
		if err != nil {
			return domain.Outcome{}, fmt.Errorf("fetch expenses: %w", err)
		}
		expenses = all
	}

	return domain.Outcome{
		Text:     "Expense summary generated.",
		Tag:      domain.TagExpenseSummary,
		Expenses: expenses,
	}, nil
}

func (d *Dispatcher) handleRefine(ctx context.Context, cmd *RefineCommand) (domain.Outcome, error) {
	refined, err := d.gateway.Refine(ctx, cmd.Query)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("refine query: %w", err)
	}
	return domain.Outcome{Text: refined, Tag: domain.TagQueryRefined}, nil
}
