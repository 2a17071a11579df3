package dispatch

import (
	"encoding/json"
	"testing"
)

func TestValidateProfile(t *testing.T) {
	cmd, err := validateProfile(map[string]any{
		"salary":        json.Number("3500.75"),
		"location_type": "City",
		"currency":      "usd",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Salary.String() != "3500.75" {
		t.Fatalf("salary precision lost: %s", cmd.Salary)
	}
	if cmd.LocationType != "city" || cmd.Currency != "USD" {
		t.Fatalf("enums not canonicalized: %+v", cmd)
	}
}

func TestValidateProfileRejections(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"missing salary", map[string]any{"location_type": "city", "currency": "USD"}, "Invalid salary value."},
		{"zero salary", map[string]any{"salary": json.Number("0"), "location_type": "city", "currency": "USD"}, "Invalid salary value."},
		{"negative salary", map[string]any{"salary": json.Number("-1"), "location_type": "city", "currency": "USD"}, "Invalid salary value."},
		{"bad location", map[string]any{"salary": json.Number("100"), "location_type": "moon", "currency": "USD"}, "Invalid location type value."},
		{"bad currency", map[string]any{"salary": json.Number("100"), "location_type": "city", "currency": "BTC"}, "Invalid currency value."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := validateProfile(tc.params); err == nil || err.Error() != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateExpenseMessages(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"bad amount", map[string]any{"amount": "abc", "category_id": json.Number("1"), "expense_date": "2026-02-18"}, "Invalid amount value."},
		{"bad category", map[string]any{"amount": json.Number("10"), "category_id": "x", "expense_date": "2026-02-18"}, "Invalid category ID value."},
		{"bad date", map[string]any{"amount": json.Number("10"), "category_id": json.Number("1"), "expense_date": "18/02/2026"}, "Invalid expense date value."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := validateExpense(tc.params); err == nil || err.Error() != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateExpenseOptionalDescription(t *testing.T) {
	cmd, err := validateExpense(map[string]any{
		"amount":       json.Number("10"),
		"category_id":  json.Number("1"),
		"expense_date": "2026-02-18",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Description != "" {
		t.Fatalf("missing description should be empty, got %q", cmd.Description)
	}
}

func TestValidateBudgetsShape(t *testing.T) {
	if _, err := validateBudgets(map[string]any{}); err == nil || err.Error() != "Invalid budgets data." {
		t.Fatalf("missing array: got %v", err)
	}
	if _, err := validateBudgets(map[string]any{"budgets": []any{}}); err == nil || err.Error() != "Invalid budgets data." {
		t.Fatalf("empty array: got %v", err)
	}
	if _, err := validateBudgets(map[string]any{"budgets": []any{"nope"}}); err == nil || err.Error() != "Invalid budgets data." {
		t.Fatalf("non-object element: got %v", err)
	}
}

func TestValidateSummaryDefaults(t *testing.T) {
	cmd, err := validateSummary(map[string]any{
		"start_date": "2026-02-01",
		"end_date":   "2026-02-28",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmd.CategoryIDs) != 0 || cmd.IncludeAll {
		t.Fatalf("defaults wrong: %+v", cmd)
	}
}

func TestAsDecimalForms(t *testing.T) {
	for _, v := range []any{json.Number("12.34"), "12.34", float64(12.34)} {
		d, ok := asDecimal(v)
		if !ok {
			t.Fatalf("rejected %T %v", v, v)
		}
		if d.IsZero() {
			t.Fatalf("parsed to zero from %T", v)
		}
	}
	if _, ok := asDecimal(nil); ok {
		t.Fatal("nil must be rejected")
	}
	if _, ok := asDecimal(true); ok {
		t.Fatal("bool must be rejected")
	}
}

func TestAsIntRejectsFractions(t *testing.T) {
	if _, ok := asInt(float64(1.5)); ok {
		t.Fatal("fractional float is not a category id")
	}
	if n, ok := asInt(json.Number("7")); !ok || n != 7 {
		t.Fatalf("json.Number int failed: %d %v", n, ok)
	}
	if n, ok := asInt(" 3 "); !ok || n != 3 {
		t.Fatalf("padded string int failed: %d %v", n, ok)
	}
}

func TestAsDateStrict(t *testing.T) {
	if _, ok := asDate("2026-02-18"); !ok {
		t.Fatal("ISO date rejected")
	}
	for _, bad := range []string{"02/18/2026", "2026-2-18", "tomorrow", ""} {
		if _, ok := asDate(bad); ok {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}
