package domain

// Intent names the gateway can return. Anything else is reported as an
// unknown operation for that turn only.
const (
	IntentCreateProfile  = "create_user_profile"
	IntentLogExpense     = "log_expense"
	IntentCreateBudget   = "create_budget"
	IntentSetGoal        = "set_goal"
	IntentAddRecurring   = "add_recurring_expenses"
	IntentExpenseSummary = "get_expense_summary"
	IntentRefineQuery    = "refine_query"
)

// Outcome tags. The empty tag marks a direct conversational reply; the
// dialog layer branches on these.
const (
	TagProfileUpdated = "profile_updated"
	TagExpenseLogged  = "expense_logged"
	TagBudgetsUpdated = "budgets_updated"
	TagGoalSet        = "goal_set"
	TagRecurringAdded = "recurring_expense_added"
	TagExpenseSummary = "expense_summary"
	TagQueryRefined   = "query_refined"
	TagError          = "error"
)

// Intent is the gateway's classification of a user message: either a direct
// natural-language reply, or a named structured call with an untyped
// parameter payload. Exactly one of the two forms is populated.
type Intent struct {
	Reply string
	Call  *StructuredCall
}

// StructuredCall carries the raw parameter map as decoded from the model's
// tool-call arguments. It must not travel past the validator boundary.
type StructuredCall struct {
	Name       string
	Parameters map[string]any
}

// IsCall reports whether the intent is a structured call rather than a
// direct reply.
func (i *Intent) IsCall() bool { return i.Call != nil }

// Outcome is the uniform result of dispatching one user input. Text is
// user-facing; Tag drives the dialog transition; Expenses is populated only
// for the expense_summary tag.
type Outcome struct {
	Text     string
	Tag      string
	Expenses []Expense
}

// IsError reports whether the outcome carries a validation or collaborator
// failure.
func (o Outcome) IsError() bool { return o.Tag == TagError }

// Continuation is the end-of-conversation classification of a follow-up
// message.
type Continuation string

const (
	ContinuationEnd      Continuation = "end"
	ContinuationContinue Continuation = "continue"
)
