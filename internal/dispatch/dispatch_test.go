package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/domain"
)

// fakeGateway returns scripted intents in order, or a scripted error.
type fakeGateway struct {
	intents []*domain.Intent
	err     error
	calls   int

	lastHistory []domain.Exchange
	refined     string
}

func (g *fakeGateway) Complete(_ context.Context, _ string, _ string, history []domain.Exchange) (*domain.Intent, error) {
	g.lastHistory = history
	if g.err != nil {
		return nil, g.err
	}
	if g.calls >= len(g.intents) {
		return &domain.Intent{Reply: "out of script"}, nil
	}
	i := g.intents[g.calls]
	g.calls++
	return i, nil
}

func (g *fakeGateway) Classify(_ context.Context, text string) (domain.Continuation, error) {
	return domain.ContinuationContinue, nil
}

func (g *fakeGateway) Refine(_ context.Context, query string) (string, error) {
	if g.refined != "" {
		return g.refined, nil
	}
	return "refined: " + query, nil
}

// fakeStore records every write; fetches are served from the per-category map.
type fakeStore struct {
	users      map[string]*domain.User
	expenses   []domain.Expense
	recurring  []domain.RecurringExpense
	budgets    map[int]domain.Budget
	goals      []domain.Goal
	byCategory map[int][]domain.Expense
	all        []domain.Expense
	failWith   error
	fetchLog   []domain.CategoryFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]*domain.User),
		budgets:    make(map[int]domain.Budget),
		byCategory: make(map[int][]domain.Expense),
	}
}

func (s *fakeStore) EnsureUser(_ context.Context, id, name, email string) error {
	if _, ok := s.users[id]; !ok {
		s.users[id] = &domain.User{ID: id, Name: name, Email: email}
	}
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	return s.users[id], nil
}

func (s *fakeStore) UpdateUser(_ context.Context, user domain.User) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.users[user.ID] = &user
	return nil
}

func (s *fakeStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "Food"}, {ID: 2, Name: "Transport"}}, nil
}

func (s *fakeStore) AddExpense(_ context.Context, e domain.Expense) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *fakeStore) AddRecurringExpense(_ context.Context, r domain.RecurringExpense) error {
	s.recurring = append(s.recurring, r)
	return nil
}

func (s *fakeStore) CreateOrUpdateBudget(_ context.Context, b domain.Budget) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.budgets[b.CategoryID] = b
	return nil
}

func (s *fakeStore) ListBudgets(_ context.Context, _ string) ([]domain.Budget, error) {
	return nil, nil
}

func (s *fakeStore) AddGoal(_ context.Context, g domain.Goal) error {
	s.goals = append(s.goals, g)
	return nil
}

func (s *fakeStore) ListActiveGoals(_ context.Context, _ string) ([]domain.Goal, error) {
	return nil, nil
}

func (s *fakeStore) FetchExpenses(_ context.Context, _ string, _, _ time.Time, filter domain.CategoryFilter) ([]domain.Expense, error) {
	s.fetchLog = append(s.fetchLog, filter)
	if filter.All {
		return s.all, nil
	}
	return s.byCategory[filter.CategoryID], nil
}

func (s *fakeStore) Close() error { return nil }

func testDispatcher(g *fakeGateway, s *fakeStore) *Dispatcher {
	d := New(g, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func call(name string, params map[string]any) *domain.Intent {
	return &domain.Intent{Call: &domain.StructuredCall{Name: name, Parameters: params}}
}

func testSession() *domain.Session {
	return &domain.Session{ID: "cli:direct", UserID: "user-1"}
}

func TestDispatch_DirectReplyAppendsHistory(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{{Reply: "Sure, how much was it?"}}}
	d := testDispatcher(g, newFakeStore())
	sess := testSession()

	out := d.Dispatch(context.Background(), sess, "I spent something")
	if out.Tag != "" {
		t.Fatalf("direct reply must have empty tag, got %q", out.Tag)
	}
	if out.Text != "Sure, how much was it?" {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if len(sess.History) != 1 || sess.History[0].BotMessage != "Sure, how much was it?" {
		t.Fatalf("exchange not recorded: %+v", sess.History)
	}
}

func TestDispatch_ExpenseLoggedPersistsExactlyOne(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentLogExpense, map[string]any{
		"amount":       json.Number("120.50"),
		"category_id":  json.Number("2"),
		"expense_date": "2026-02-18",
		"description":  "train ticket",
	})}}
	store := newFakeStore()
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "log it")
	if out.Tag != domain.TagExpenseLogged {
		t.Fatalf("expected expense_logged, got %q (%q)", out.Tag, out.Text)
	}
	if len(store.expenses) != 1 {
		t.Fatalf("expected exactly one expense, got %d", len(store.expenses))
	}
	e := store.expenses[0]
	if !e.Amount.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("amount mismatch: %s", e.Amount)
	}
	if e.CategoryID != 2 || e.Description != "train ticket" {
		t.Fatalf("field mismatch: %+v", e)
	}
	if e.ExpenseDate.Format(domain.DateLayout) != "2026-02-18" {
		t.Fatalf("date mismatch: %v", e.ExpenseDate)
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("creation timestamp not set")
	}
}

func TestDispatch_ExpenseInvalidAmountFailsFast(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentLogExpense, map[string]any{
		"amount":       "not-a-number",
		"category_id":  "also-bad",
		"expense_date": "nope",
	})}}
	store := newFakeStore()
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "log it")
	if out.Tag != domain.TagError {
		t.Fatalf("expected error tag, got %q", out.Tag)
	}
	if out.Text != "Invalid amount value." {
		t.Fatalf("fail-fast should report the amount first, got %q", out.Text)
	}
	if len(store.expenses) != 0 {
		t.Fatal("nothing may be persisted on validation failure")
	}
}

func TestDispatch_BudgetBatchIsAtomic(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentCreateBudget, map[string]any{
		"budgets": []any{
			map[string]any{"category_id": json.Number("1"), "amount": json.Number("300"), "start_date": "2026-03-01", "end_date": "2026-03-31"},
			map[string]any{"category_id": json.Number("2"), "amount": "bogus", "start_date": "2026-03-01", "end_date": "2026-03-31"},
		},
	})}}
	store := newFakeStore()
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "budgets")
	if out.Tag != domain.TagError {
		t.Fatalf("expected error tag, got %q", out.Tag)
	}
	if len(store.budgets) != 0 {
		t.Fatalf("atomic batch violated: %d budgets persisted", len(store.budgets))
	}
}

func TestDispatch_BudgetBatchUpserts(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentCreateBudget, map[string]any{
		"budgets": []any{
			map[string]any{"category_id": json.Number("1"), "amount": json.Number("300"), "start_date": "2026-03-01", "end_date": "2026-03-31"},
			map[string]any{"category_id": json.Number("1"), "amount": json.Number("450"), "start_date": "2026-03-01", "end_date": "2026-03-31"},
		},
	})}}
	store := newFakeStore()
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "budgets")
	if out.Tag != domain.TagBudgetsUpdated {
		t.Fatalf("expected budgets_updated, got %q (%q)", out.Tag, out.Text)
	}
	if len(store.budgets) != 1 {
		t.Fatalf("duplicate (user, category) must overwrite, got %d entries", len(store.budgets))
	}
	if !store.budgets[1].Amount.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("overwrite should keep the last amount, got %s", store.budgets[1].Amount)
	}
}

func TestDispatch_GoalStartDateDefaultsToToday(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentSetGoal, map[string]any{
		"goal_name":     "Emergency fund",
		"target_amount": json.Number("5000"),
		"target_date":   "2026-12-31",
	})}}
	store := newFakeStore()
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "goal")
	if out.Tag != domain.TagGoalSet {
		t.Fatalf("expected goal_set, got %q (%q)", out.Tag, out.Text)
	}
	if len(store.goals) != 1 {
		t.Fatalf("expected one goal, got %d", len(store.goals))
	}
	if store.goals[0].StartDate.Format(domain.DateLayout) != "2026-03-01" {
		t.Fatalf("start date should default to the current date, got %v", store.goals[0].StartDate)
	}
}

func TestDispatch_SummaryPerCategoryOrder(t *testing.T) {
	store := newFakeStore()
	store.byCategory[2] = []domain.Expense{{Description: "bus"}, {Description: "train"}}
	store.byCategory[1] = []domain.Expense{{Description: "lunch"}}

	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentExpenseSummary, map[string]any{
		"start_date":   "2026-02-01",
		"end_date":     "2026-02-28",
		"category_ids": []any{json.Number("2"), json.Number("1")},
	})}}
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "summary")
	if out.Tag != domain.TagExpenseSummary {
		t.Fatalf("expected expense_summary, got %q (%q)", out.Tag, out.Text)
	}
	if len(store.fetchLog) != 2 || store.fetchLog[0].CategoryID != 2 || store.fetchLog[1].CategoryID != 1 {
		t.Fatalf("expected one fetch per category in request order, got %+v", store.fetchLog)
	}
	want := []string{"bus", "train", "lunch"}
	if len(out.Expenses) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(out.Expenses))
	}
	for i, w := range want {
		if out.Expenses[i].Description != w {
			t.Fatalf("row %d: expected %q, got %q (category-major order violated)", i, w, out.Expenses[i].Description)
		}
	}
}

func TestDispatch_SummaryIncludeAllSingleFetch(t *testing.T) {
	store := newFakeStore()
	store.all = []domain.Expense{{Description: "everything"}}

	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentExpenseSummary, map[string]any{
		"start_date":             "2026-02-01",
		"end_date":               "2026-02-28",
		"category_ids":           []any{json.Number("2")},
		"include_all_categories": true,
	})}}
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "summary")
	if out.Tag != domain.TagExpenseSummary {
		t.Fatalf("expected expense_summary, got %q", out.Tag)
	}
	if len(store.fetchLog) != 1 || !store.fetchLog[0].All {
		t.Fatalf("include-all must issue a single unfiltered fetch, got %+v", store.fetchLog)
	}
}

func TestDispatch_SummaryZeroRowsStillSummary(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentExpenseSummary, map[string]any{
		"start_date": "2026-02-01",
		"end_date":   "2026-02-28",
	})}}
	d := testDispatcher(g, newFakeStore())

	out := d.Dispatch(context.Background(), testSession(), "summary")
	if out.Tag != domain.TagExpenseSummary {
		t.Fatalf("zero rows must still be a summary, got %q", out.Tag)
	}
	if len(out.Expenses) != 0 {
		t.Fatalf("expected zero rows, got %d", len(out.Expenses))
	}
}

func TestDispatch_UnknownIntent(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call("delete_account", nil)}}
	d := testDispatcher(g, newFakeStore())

	out := d.Dispatch(context.Background(), testSession(), "whatever")
	if out.Text != "Unknown operation requested." {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if out.Tag != "delete_account" {
		t.Fatalf("unknown-intent tag should carry the intent name, got %q", out.Tag)
	}
}

func TestDispatch_GatewayFailureConverted(t *testing.T) {
	g := &fakeGateway{err: errors.New("upstream timeout")}
	d := testDispatcher(g, newFakeStore())

	out := d.Dispatch(context.Background(), testSession(), "hello")
	if out.Tag != domain.TagError {
		t.Fatalf("expected error tag, got %q", out.Tag)
	}
	want := fmt.Sprintf("Error processing request: %s", "upstream timeout")
	if out.Text != want {
		t.Fatalf("expected %q, got %q", want, out.Text)
	}
}

func TestDispatch_StoreFailureConverted(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentLogExpense, map[string]any{
		"amount":       json.Number("10"),
		"category_id":  json.Number("1"),
		"expense_date": "2026-02-18",
	})}}
	store := newFakeStore()
	store.failWith = errors.New("disk full")
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "log it")
	if out.Tag != domain.TagError {
		t.Fatalf("expected error tag, got %q", out.Tag)
	}
}

func TestDispatch_ProfileUpdate(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentCreateProfile, map[string]any{
		"salary":        json.Number("4200.00"),
		"location_type": "city",
		"currency":      "EUR",
	})}}
	store := newFakeStore()
	d := testDispatcher(g, store)

	out := d.Dispatch(context.Background(), testSession(), "set me up")
	if out.Tag != domain.TagProfileUpdated {
		t.Fatalf("expected profile_updated, got %q (%q)", out.Tag, out.Text)
	}
	user := store.users["user-1"]
	if user == nil || user.Salary == nil || !user.Salary.Equal(decimal.RequireFromString("4200.00")) {
		t.Fatalf("profile not persisted: %+v", user)
	}
	if user.Currency != "EUR" || user.LocationType != "city" {
		t.Fatalf("profile fields wrong: %+v", user)
	}
}

func TestDispatch_RefineQuery(t *testing.T) {
	g := &fakeGateway{intents: []*domain.Intent{call(domain.IntentRefineQuery, map[string]any{
		"query": "how much did I spend",
	})}}
	d := testDispatcher(g, newFakeStore())

	out := d.Dispatch(context.Background(), testSession(), "refine")
	if out.Tag != domain.TagQueryRefined {
		t.Fatalf("expected query_refined, got %q", out.Tag)
	}
	if out.Text != "refined: how much did I spend" {
		t.Fatalf("unexpected refinement %q", out.Text)
	}
}
