// Package summary renders fetched expense rows as a tabular artifact. The
// table drops columns that would repeat a single value on every row: the
// date column appears only when the rows span more than one expense date,
// and the category column only when they span more than one category.
package summary

import (
	"strings"

	"github.com/shopspring/decimal"

	"spendwise/internal/domain"
)

const title = "Expense Summary"

// Table is the rendered form of one summary request.
type Table struct {
	Columns []string
	Rows    [][]string
	Total   decimal.Decimal

	singleDate     string // set when the date column was suppressed
	singleCategory string // set when the category column was suppressed
}

// Build computes column visibility and the running total over the rows in
// the order they were fetched. An empty input still yields a valid table
// with a zero total.
func Build(expenses []domain.Expense) Table {
	dates := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, e := range expenses {
		dates[e.ExpenseDate.Format(domain.DateLayout)] = struct{}{}
		categories[e.CategoryName] = struct{}{}
	}

	showDate := len(dates) > 1
	showCategory := len(categories) > 1

	t := Table{Total: decimal.Zero}
	if showDate {
		t.Columns = append(t.Columns, "Date")
	}
	if showCategory {
		t.Columns = append(t.Columns, "Category")
	}
	t.Columns = append(t.Columns, "Description", "Amount")

	for _, e := range expenses {
		var row []string
		if showDate {
			row = append(row, e.ExpenseDate.Format(domain.DateLayout))
		}
		if showCategory {
			row = append(row, e.CategoryName)
		}
		row = append(row, e.Description, e.Amount.StringFixed(2))
		t.Rows = append(t.Rows, row)
		t.Total = t.Total.Add(e.Amount)
	}

	if !showDate {
		for d := range dates {
			t.singleDate = d
		}
	}
	if !showCategory {
		for c := range categories {
			t.singleCategory = c
		}
	}
	return t
}

// Card renders the table as a rich summary card. Suppressed columns carry
// their single value in the title so the information is not lost.
func (t Table) Card() *domain.Card {
	return &domain.Card{
		Type:    domain.CardSummary,
		Title:   t.title(),
		Body:    t.Text(),
		Columns: t.Columns,
		Rows:    t.Rows,
		Footer:  "Total: " + t.Total.StringFixed(2),
	}
}

// Text renders the table as aligned plain text for channels without card
// support.
func (t Table) Text() string {
	var b strings.Builder
	b.WriteString(t.title())
	b.WriteString("\n")

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
		}
		b.WriteString("\n")
	}

	writeRow(t.Columns)
	for _, row := range t.Rows {
		writeRow(row)
	}
	b.WriteString("Total: " + t.Total.StringFixed(2))
	return b.String()
}

func (t Table) title() string {
	parts := []string{title}
	if t.singleCategory != "" {
		parts = append(parts, t.singleCategory)
	}
	if t.singleDate != "" {
		parts = append(parts, t.singleDate)
	}
	return strings.Join(parts, " - ")
}
