package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewSQLiteStore(filepath.Join(dir, "finance.db"), "", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func TestEnsureAndUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.EnsureUser(ctx, "u1", "alex", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	// Second ensure must not reset anything.
	if err := s.EnsureUser(ctx, "u1", "other", ""); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}

	user, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user == nil || user.Name != "alex" {
		t.Fatalf("user %+v", user)
	}
	if user.HasProfile() {
		t.Fatal("fresh user must not have a profile")
	}

	salary := decimal.RequireFromString("4200.50")
	user.Salary = &salary
	user.LocationType = "city"
	user.Currency = "EUR"
	if err := s.UpdateUser(ctx, *user); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if !got.HasProfile() || !got.Salary.Equal(salary) || got.Currency != "EUR" {
		t.Fatalf("profile not persisted: %+v", got)
	}
}

func TestGetUserUnknownIsNil(t *testing.T) {
	s := newTestStore(t)
	user, err := s.GetUser(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil, got %+v", user)
	}
}

func TestDefaultCategoriesSeeded(t *testing.T) {
	s := newTestStore(t)
	categories, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(categories) != len(defaultCategories) {
		t.Fatalf("expected %d categories, got %d", len(defaultCategories), len(categories))
	}
	if categories[0].ID != 1 || categories[0].Name != "Food" {
		t.Fatalf("first category %+v", categories[0])
	}
}

func TestCategoriesSeedFile(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "categories.yaml")
	content := "categories:\n  - id: 1\n    name: Groceries\n  - id: 2\n    name: Rent\n"
	if err := os.WriteFile(seed, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewSQLiteStore(filepath.Join(dir, "finance.db"), seed, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	categories, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(categories) != 2 || categories[0].Name != "Groceries" {
		t.Fatalf("categories %+v", categories)
	}
}

func TestBudgetUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.EnsureUser(ctx, "u1", "", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	first := domain.Budget{
		UserID: "u1", CategoryID: 1,
		Amount:    decimal.NewFromInt(300),
		StartDate: date(t, "2026-03-01"), EndDate: date(t, "2026-03-31"),
	}
	if err := s.CreateOrUpdateBudget(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := first
	second.Amount = decimal.NewFromInt(450)
	if err := s.CreateOrUpdateBudget(ctx, second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	budgets, err := s.ListBudgets(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("upsert created a duplicate: %d rows", len(budgets))
	}
	if !budgets[0].Amount.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("amount not overwritten: %s", budgets[0].Amount)
	}
}

func TestFetchExpensesFilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.EnsureUser(ctx, "u1", "", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	add := func(id, amount, day string, category int, desc string) {
		t.Helper()
		err := s.AddExpense(ctx, domain.Expense{
			ID: id, UserID: "u1",
			Amount:      decimal.RequireFromString(amount),
			CategoryID:  category,
			Description: desc,
			ExpenseDate: date(t, day),
		})
		if err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	// Inserted out of date order on purpose; same-day rows must keep
	// insertion order.
	add("e1", "20.00", "2026-02-12", 1, "dinner")
	add("e2", "5.00", "2026-02-10", 3, "bus")
	add("e3", "12.50", "2026-02-10", 1, "lunch")
	add("e4", "99.00", "2026-03-05", 1, "outside range")

	all, err := s.FetchExpenses(ctx, "u1",
		date(t, "2026-02-01"), date(t, "2026-02-28"), domain.CategoryFilter{All: true})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	wantOrder := []string{"e2", "e3", "e1"}
	if len(all) != len(wantOrder) {
		t.Fatalf("expected %d rows, got %d", len(wantOrder), len(all))
	}
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Fatalf("row %d: expected %s, got %s", i, id, all[i].ID)
		}
	}
	if all[0].CategoryName != "Transport" {
		t.Fatalf("category name not joined: %+v", all[0])
	}

	food, err := s.FetchExpenses(ctx, "u1",
		date(t, "2026-02-01"), date(t, "2026-02-28"), domain.CategoryFilter{CategoryID: 1})
	if err != nil {
		t.Fatalf("fetch filtered: %v", err)
	}
	if len(food) != 2 || food[0].ID != "e3" || food[1].ID != "e1" {
		t.Fatalf("filtered rows %+v", food)
	}
	if !food[0].Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("amount round-trip lost precision: %s", food[0].Amount)
	}
}

func TestGoalsAndRecurringRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.EnsureUser(ctx, "u1", "", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	goal := domain.Goal{
		ID: "g1", UserID: "u1", Name: "Emergency fund",
		TargetAmount: decimal.NewFromInt(5000),
		StartDate:    date(t, "2026-03-01"),
		EndDate:      date(t, "2099-12-31"),
	}
	if err := s.AddGoal(ctx, goal); err != nil {
		t.Fatalf("add goal: %v", err)
	}
	expired := goal
	expired.ID = "g2"
	expired.EndDate = date(t, "2020-01-01")
	if err := s.AddGoal(ctx, expired); err != nil {
		t.Fatalf("add expired goal: %v", err)
	}

	goals, err := s.ListActiveGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 || goals[0].ID != "g1" {
		t.Fatalf("active goals %+v", goals)
	}

	rec := domain.RecurringExpense{
		ID: "r1", UserID: "u1",
		Amount:      decimal.RequireFromString("15.99"),
		CategoryID:  6,
		Description: "streaming",
		NextDueDate: date(t, "2026-04-01"),
		Frequency:   "monthly",
	}
	if err := s.AddRecurringExpense(ctx, rec); err != nil {
		t.Fatalf("add recurring: %v", err)
	}
}
