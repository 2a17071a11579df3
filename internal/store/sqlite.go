// Package store implements domain.FinanceStore on SQLite. Money amounts are
// stored as decimal strings and calendar dates in the 2006-01-02 layout, so
// nothing passes through floating point on the way to or from disk.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"spendwise/internal/domain"
)

// SQLiteStore implements domain.FinanceStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath, categoriesFile string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	if err := s.seedCategories(categoriesFile); err != nil {
		db.Close()
		return nil, fmt.Errorf("category seed failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT,
		email         TEXT,
		salary        TEXT,
		location_type TEXT,
		currency      TEXT,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS categories (
		id    INTEGER PRIMARY KEY,
		name  TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id),
		amount       TEXT NOT NULL,
		category_id  INTEGER NOT NULL REFERENCES categories(id),
		description  TEXT,
		expense_date TEXT NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, expense_date);

	CREATE TABLE IF NOT EXISTS budgets (
		user_id     TEXT NOT NULL REFERENCES users(id),
		category_id INTEGER NOT NULL REFERENCES categories(id),
		amount      TEXT NOT NULL,
		start_date  TEXT NOT NULL,
		end_date    TEXT NOT NULL,
		PRIMARY KEY (user_id, category_id)
	);

	CREATE TABLE IF NOT EXISTS goals (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users(id),
		name          TEXT NOT NULL,
		target_amount TEXT NOT NULL,
		start_date    TEXT NOT NULL,
		end_date      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id);

	CREATE TABLE IF NOT EXISTS recurring_expenses (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users(id),
		amount        TEXT NOT NULL,
		category_id   INTEGER NOT NULL REFERENCES categories(id),
		description   TEXT,
		next_due_date TEXT NOT NULL,
		frequency     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recurring_user ON recurring_expenses(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) EnsureUser(ctx context.Context, id, name, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		id, name, email, time.Now(),
	)
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var (
		user     domain.User
		salary   sql.NullString
		location sql.NullString
		currency sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, salary, location_type, currency, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Name, &user.Email, &salary, &location, &currency, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if salary.Valid && salary.String != "" {
		d, err := decimal.NewFromString(salary.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt salary for user %s: %w", id, err)
		}
		user.Salary = &d
	}
	user.LocationType = location.String
	user.Currency = currency.String
	return &user, nil
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, user domain.User) error {
	var salary any
	if user.Salary != nil {
		salary = user.Salary.String()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name=?, email=?, salary=?, location_type=?, currency=? WHERE id=?`,
		user.Name, user.Email, salary, user.LocationType, user.Currency, user.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO users (id, name, email, salary, location_type, currency, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Name, user.Email, salary, user.LocationType, user.Currency, time.Now(),
		)
		return err
	}
	return nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) AddExpense(ctx context.Context, e domain.Expense) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, amount, category_id, description, expense_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Amount.String(), e.CategoryID, e.Description,
		e.ExpenseDate.Format(domain.DateLayout), e.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) AddRecurringExpense(ctx context.Context, r domain.RecurringExpense) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_expenses (id, user_id, amount, category_id, description, next_due_date, frequency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Amount.String(), r.CategoryID, r.Description,
		r.NextDueDate.Format(domain.DateLayout), r.Frequency,
	)
	return err
}

// CreateOrUpdateBudget upserts on (user, category): a second budget for the
// same category overwrites amount and period instead of adding a row.
func (s *SQLiteStore) CreateOrUpdateBudget(ctx context.Context, b domain.Budget) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, category_id) DO UPDATE SET
		   amount=excluded.amount, start_date=excluded.start_date, end_date=excluded.end_date`,
		b.UserID, b.CategoryID, b.Amount.String(),
		b.StartDate.Format(domain.DateLayout), b.EndDate.Format(domain.DateLayout),
	)
	return err
}

func (s *SQLiteStore) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, category_id, amount, start_date, end_date
		 FROM budgets WHERE user_id = ? ORDER BY category_id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		var (
			b          domain.Budget
			amount     string
			start, end string
		)
		if err := rows.Scan(&b.UserID, &b.CategoryID, &amount, &start, &end); err != nil {
			return nil, err
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt budget amount: %w", err)
		}
		if b.StartDate, err = time.Parse(domain.DateLayout, start); err != nil {
			return nil, err
		}
		if b.EndDate, err = time.Parse(domain.DateLayout, end); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *SQLiteStore) AddGoal(ctx context.Context, g domain.Goal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, name, target_amount, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.String(),
		g.StartDate.Format(domain.DateLayout), g.EndDate.Format(domain.DateLayout),
	)
	return err
}

func (s *SQLiteStore) ListActiveGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	today := time.Now().Format(domain.DateLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, target_amount, start_date, end_date
		 FROM goals WHERE user_id = ? AND end_date >= ? ORDER BY end_date`, userID, today,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		var (
			g          domain.Goal
			amount     string
			start, end string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &amount, &start, &end); err != nil {
			return nil, err
		}
		if g.TargetAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt goal amount: %w", err)
		}
		if g.StartDate, err = time.Parse(domain.DateLayout, start); err != nil {
			return nil, err
		}
		if g.EndDate, err = time.Parse(domain.DateLayout, end); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// FetchExpenses returns expenses in the inclusive date range, ordered by
// expense date and then by insertion order within a date. The category name
// is joined in for rendering.
func (s *SQLiteStore) FetchExpenses(ctx context.Context, userID string, start, end time.Time, filter domain.CategoryFilter) ([]domain.Expense, error) {
	query := `SELECT e.id, e.user_id, e.amount, e.category_id, c.name, e.description, e.expense_date, e.created_at
	          FROM expenses e JOIN categories c ON c.id = e.category_id
	          WHERE e.user_id = ? AND e.expense_date >= ? AND e.expense_date <= ?`
	args := []any{userID, start.Format(domain.DateLayout), end.Format(domain.DateLayout)}
	if !filter.All {
		query += ` AND e.category_id = ?`
		args = append(args, filter.CategoryID)
	}
	query += ` ORDER BY e.expense_date, e.rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		var (
			e      domain.Expense
			amount string
			date   string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &amount, &e.CategoryID, &e.CategoryName,
			&e.Description, &date, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt expense amount: %w", err)
		}
		if e.ExpenseDate, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
