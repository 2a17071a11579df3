package dialog

import (
	"context"
	"strings"

	"spendwise/internal/domain"
	"spendwise/internal/summary"
)

// collectSteps is the parameter-collection sub-dialog. It gathers one
// request worth of text, runs it through dispatch, and either finishes the
// request or loops with the gateway's clarifying reply.
func (e *Engine) collectSteps() []stepFunc {
	return []stepFunc{
		e.askQuery,
		e.runQuery,
	}
}

// askQuery branches on how the dialog was invoked. Pre-supplied text is a
// clarifying reply from the previous loop iteration: it is shown to the
// user and the turn suspends for their answer. A forwarded message or
// action needs no prompting and goes straight to dispatch.
func (e *Engine) askQuery(_ context.Context, tc *turnContext) (transition, error) {
	switch tc.frame.Options.Kind {
	case domain.OptionText:
		tc.send(tc.frame.Options.Value, nil)
		return suspend(), nil
	case domain.OptionMessage, domain.OptionAction:
		return next(tc.frame.Options), nil
	default:
		tc.send("", welcomeCard())
		return suspend(), nil
	}
}

// runQuery dispatches the collected input. A structured action from the
// channel takes priority over any text. A tagged outcome completes the
// sub-dialog; an untagged outcome is a clarifying reply, so the dialog
// restarts with it and keeps collecting.
func (e *Engine) runQuery(ctx context.Context, tc *turnContext) (transition, error) {
	input := strings.TrimSpace(tc.input.Value)

	outcome := e.dispatch.Dispatch(ctx, tc.session, input)
	switch {
	case outcome.Tag == domain.TagExpenseSummary:
		tbl := summary.Build(outcome.Expenses)
		tc.send(tbl.Text(), tbl.Card())
		return end(domain.NoOptions()), nil
	case outcome.Tag != "":
		tc.send(outcome.Text, nil)
		return end(domain.NoOptions()), nil
	default:
		return restart(domain.Options{Kind: domain.OptionText, Value: outcome.Text}), nil
	}
}
