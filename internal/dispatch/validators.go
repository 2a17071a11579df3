package dispatch

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/domain"
)

// validationError carries the field-specific message reported verbatim to
// the user. Validation is fail-fast: the first invalid required field ends
// the dispatch cycle.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(field string) *validationError {
	return &validationError{msg: "Invalid " + field + " value."}
}

func validateProfile(params map[string]any) (*ProfileCommand, error) {
	salary, ok := asAmount(params["salary"])
	if !ok {
		return nil, invalid("salary")
	}
	location, ok := asEnum(params["location_type"], domain.LocationTypes)
	if !ok {
		return nil, invalid("location type")
	}
	currency, ok := asEnum(params["currency"], domain.Currencies)
	if !ok {
		return nil, invalid("currency")
	}
	return &ProfileCommand{Salary: salary, LocationType: location, Currency: currency}, nil
}

func validateExpense(params map[string]any) (*ExpenseCommand, error) {
	amount, ok := asAmount(params["amount"])
	if !ok {
		return nil, invalid("amount")
	}
	categoryID, ok := asInt(params["category_id"])
	if !ok {
		return nil, invalid("category ID")
	}
	date, ok := asDate(params["expense_date"])
	if !ok {
		return nil, invalid("expense date")
	}
	return &ExpenseCommand{
		Amount:      amount,
		CategoryID:  categoryID,
		Description: optionalString(params["description"]),
		ExpenseDate: date,
	}, nil
}

// validateBudgets validates the whole batch with the same fail-fast rule:
// a single invalid element invalidates the batch and nothing is persisted.
func validateBudgets(params map[string]any) (*BudgetCommand, error) {
	raw, ok := params["budgets"].([]any)
	if !ok || len(raw) == 0 {
		return nil, &validationError{msg: "Invalid budgets data."}
	}

	items := make([]BudgetItem, 0, len(raw))
	for _, el := range raw {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, &validationError{msg: "Invalid budgets data."}
		}
		categoryID, ok := asInt(obj["category_id"])
		if !ok {
			return nil, invalid("category ID")
		}
		amount, ok := asAmount(obj["amount"])
		if !ok {
			return nil, invalid("amount")
		}
		start, ok := asDate(obj["start_date"])
		if !ok {
			return nil, invalid("start date")
		}
		end, ok := asDate(obj["end_date"])
		if !ok {
			return nil, invalid("end date")
		}
		items = append(items, BudgetItem{
			CategoryID: categoryID,
			Amount:     amount,
			StartDate:  start,
			EndDate:    end,
		})
	}
	return &BudgetCommand{Items: items}, nil
}

func validateGoal(params map[string]any) (*GoalCommand, error) {
	name := optionalString(params["goal_name"])
	if name == "" {
		return nil, invalid("goal name")
	}
	amount, ok := asAmount(params["target_amount"])
	if !ok {
		return nil, invalid("target amount")
	}
	date, ok := asDate(params["target_date"])
	if !ok {
		return nil, invalid("target date")
	}
	return &GoalCommand{Name: name, TargetAmount: amount, TargetDate: date}, nil
}

func validateRecurring(params map[string]any) (*RecurringCommand, error) {
	amount, ok := asAmount(params["amount"])
	if !ok {
		return nil, invalid("amount")
	}
	categoryID, ok := asInt(params["category_id"])
	if !ok {
		return nil, invalid("category ID")
	}
	date, ok := asDate(params["next_due_date"])
	if !ok {
		return nil, invalid("next due date")
	}
	frequency, ok := asEnum(params["frequency"], domain.Frequencies)
	if !ok {
		return nil, invalid("frequency")
	}
	return &RecurringCommand{
		Amount:      amount,
		CategoryID:  categoryID,
		Description: optionalString(params["description"]),
		NextDueDate: date,
		Frequency:   frequency,
	}, nil
}

func validateSummary(params map[string]any) (*SummaryCommand, error) {
	start, ok := asDate(params["start_date"])
	if !ok {
		return nil, invalid("start date")
	}
	end, ok := asDate(params["end_date"])
	if !ok {
		return nil, invalid("end date")
	}

	// category_ids defaults to an empty set; include_all_categories defaults
	// to false unless forced true.
	var ids []int
	if raw, present := params["category_ids"]; present && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, invalid("category ID")
		}
		for _, el := range list {
			id, ok := asInt(el)
			if !ok {
				return nil, invalid("category ID")
			}
			ids = append(ids, id)
		}
	}

	includeAll := false
	if raw, present := params["include_all_categories"]; present && raw != nil {
		includeAll, ok = asBool(raw)
		if !ok {
			includeAll = false
		}
	}

	return &SummaryCommand{StartDate: start, EndDate: end, CategoryIDs: ids, IncludeAll: includeAll}, nil
}

func validateRefine(params map[string]any) (*RefineCommand, error) {
	query := optionalString(params["query"])
	if query == "" {
		return nil, invalid("query")
	}
	return &RefineCommand{Query: query}, nil
}

// --- typed extraction helpers ---

// asAmount parses a positive decimal amount from the untyped payload.
func asAmount(v any) (decimal.Decimal, bool) {
	d, ok := asDecimal(v)
	if !ok || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	default:
		return decimal.Decimal{}, false
	}
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	case float64:
		n := int(x)
		return n, float64(n) == x
	case int:
		return x, true
	case int64:
		return int(x), true
	default:
		return 0, false
	}
}

func asDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	default:
		return false, false
	}
}

// asEnum accepts only one of the published enum values, case-insensitively,
// and returns the canonical form.
func asEnum(v any, allowed []string) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	idx := slices.IndexFunc(allowed, func(a string) bool { return strings.EqualFold(a, s) })
	if idx < 0 {
		return "", false
	}
	return allowed[idx], true
}

func optionalString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
