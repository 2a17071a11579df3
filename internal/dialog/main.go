package dialog

import (
	"context"
	"strings"

	"spendwise/internal/domain"
)

// actionEndConversation is the structured payload of the confirmation card's
// done button.
const actionEndConversation = "end_conversation"

const (
	clarificationMessage = "I'm not sure what you need. Could you tell me a bit more about what you'd like to do?"
	farewellMessage      = "Thank you for using SpendWise. Goodbye!"
)

// mainSteps is the top-level conversation cycle: run one collection
// sub-dialog, then decide whether the user is wrapping up or starting
// another request.
func (e *Engine) mainSteps() []stepFunc {
	return []stepFunc{
		e.startCollection,
		e.awaitFollowUp,
		e.classifyFollowUp,
		e.routeFollowUp,
		e.farewell,
	}
}

// startCollection hands the invocation options straight to the collection
// sub-dialog: a fresh session greets, pre-supplied text or an action goes
// directly to dispatch.
func (e *Engine) startCollection(_ context.Context, tc *turnContext) (transition, error) {
	return begin(dialogCollect, tc.frame.Options), nil
}

// awaitFollowUp runs when the collection sub-dialog ends; the turn stops
// here and the next user message is classified.
func (e *Engine) awaitFollowUp(_ context.Context, _ *turnContext) (transition, error) {
	return suspend(), nil
}

// classifyFollowUp asks the gateway whether the follow-up message closes the
// conversation. A close gets a confirmation card before anything ends; any
// classifier failure or structured action is treated as a continuation.
func (e *Engine) classifyFollowUp(ctx context.Context, tc *turnContext) (transition, error) {
	if tc.input.Kind == domain.OptionAction {
		return next(tc.input), nil
	}

	cont, err := e.gateway.Classify(ctx, tc.input.Value)
	if err != nil {
		e.logger.Warn("continuation classify failed, treating as continue",
			"session", tc.session.ID, "error", err)
		cont = domain.ContinuationContinue
	}

	if cont == domain.ContinuationEnd {
		tc.send("", confirmationCard())
		return suspend(), nil
	}
	return next(tc.input), nil
}

// routeFollowUp starts the next cycle. The grounding history is cleared
// before anything is dispatched again, so each top-level cycle starts with a
// fresh window.
func (e *Engine) routeFollowUp(_ context.Context, tc *turnContext) (transition, error) {
	tc.session.ClearHistory()

	in := tc.input
	switch {
	case in.Kind == domain.OptionAction && in.Value == actionEndConversation:
		return next(in), nil
	case in.Kind == domain.OptionAction:
		return restartMain(in), nil
	case strings.TrimSpace(in.Value) != "":
		return restartMain(domain.Options{Kind: domain.OptionMessage, Value: in.Value}), nil
	default:
		tc.send(clarificationMessage, nil)
		return restartMain(domain.NoOptions()), nil
	}
}

func (e *Engine) farewell(_ context.Context, tc *turnContext) (transition, error) {
	tc.send(farewellMessage, nil)
	return end(domain.NoOptions()), nil
}

func welcomeCard() *domain.Card {
	return &domain.Card{
		Type:  domain.CardWelcome,
		Title: "Welcome to SpendWise",
		Body: "I can help you track your finances. Tell me about an expense, " +
			"set up budgets or savings goals, or ask for a spending summary.",
		Actions: []domain.CardAction{
			{Label: "Log an expense", Action: "I want to log an expense"},
			{Label: "Set a budget", Action: "I want to set a budget"},
			{Label: "Spending summary", Action: "Show me my spending summary"},
		},
	}
}

func confirmationCard() *domain.Card {
	return &domain.Card{
		Type:  domain.CardConfirmation,
		Title: "Anything else?",
		Body:  "Is there anything else I can help you with? You can ask another question or wrap up here.",
		Actions: []domain.CardAction{
			{Label: "I'm all set", Action: actionEndConversation},
		},
	}
}
