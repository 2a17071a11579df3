package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/domain"
)

const refinePrompt = `You refine vague personal-finance questions into precise, answerable ones.
Keep the user's intent, add missing specifics (period, category, currency) as neutral placeholders,
and reply with the refined question only.`

const basePromptTemplate = `Current Date: %s
You are SpendWise, a personal finance assistant.

Financial management guidelines:
1. Always express amounts in the user's currency (%s).
2. Dates use the YYYY-MM-DD format; confirm the category_id exists before logging an expense.
3. If budgets are not set, do not push the user to set them.
4. Suggest realistic savings goals based on income.
5. Available categories: %s

Function call guidelines:
1. Use create_user_profile whenever profile data is missing.
2. Call exactly one function per request once all required fields are known; otherwise ask for the missing fields conversationally.
3. Never invent category IDs or dates.

Tone: empathetic, concise, non-judgmental about overspending.`

const profileMissingDirective = "USER PROFILE MISSING - COLLECT USING create_user_profile FUNCTION"

// buildSystemPrompt assembles the fixed template plus the category list and,
// when present, the user's profile summary with active budgets and goals.
func (o *OpenAI) buildSystemPrompt(ctx context.Context, userID string) (string, error) {
	categories, err := o.store.ListCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}

	user, err := o.store.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}

	currency := "USD"
	if user != nil && user.Currency != "" {
		currency = user.Currency
	}

	now := time.Now()
	base := fmt.Sprintf(basePromptTemplate,
		fmt.Sprintf("%s (%s)", now.Format(domain.DateLayout), now.Weekday()),
		currency,
		formatCategories(categories),
	)

	if !user.HasProfile() {
		return base + "\n" + profileMissingDirective, nil
	}

	budgets, err := o.store.ListBudgets(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list budgets: %w", err)
	}
	goals, err := o.store.ListActiveGoals(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list goals: %w", err)
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nUser Profile:\n")
	fmt.Fprintf(&b, "- Salary: %s\n", user.Salary.StringFixed(2))
	fmt.Fprintf(&b, "- Location: %s\n", valueOr(user.LocationType, "Not set"))
	fmt.Fprintf(&b, "- Currency: %s\n", user.Currency)
	fmt.Fprintf(&b, "- Budgets: %s\n", formatBudgets(budgets, categories))
	fmt.Fprintf(&b, "- Active goals: %s", formatGoals(goals))
	return b.String(), nil
}

func formatCategories(categories []domain.Category) string {
	if len(categories) == 0 {
		return "none configured"
	}
	parts := make([]string, 0, len(categories))
	for _, c := range categories {
		parts = append(parts, fmt.Sprintf("%d:%s", c.ID, c.Name))
	}
	return strings.Join(parts, ", ")
}

func formatBudgets(budgets []domain.Budget, categories []domain.Category) string {
	if len(budgets) == 0 {
		return "none"
	}
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	parts := make([]string, 0, len(budgets))
	for _, b := range budgets {
		name := names[b.CategoryID]
		if name == "" {
			name = fmt.Sprintf("category %d", b.CategoryID)
		}
		parts = append(parts, fmt.Sprintf("%s %s (%s to %s)",
			name,
			b.Amount.StringFixed(2),
			b.StartDate.Format(domain.DateLayout),
			b.EndDate.Format(domain.DateLayout),
		))
	}
	return strings.Join(parts, "; ")
}

func formatGoals(goals []domain.Goal) string {
	if len(goals) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(goals))
	for _, g := range goals {
		parts = append(parts, fmt.Sprintf("%s %s by %s",
			g.Name,
			g.TargetAmount.StringFixed(2),
			g.EndDate.Format(domain.DateLayout),
		))
	}
	return strings.Join(parts, "; ")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
