// Package dispatch turns free user text into a validated financial operation
// and back into a uniform Outcome. The gateway classifies the text; one
// validator/handler pair per intent performs typed extraction and the domain
// side effect. No failure of any collaborator escapes Dispatch.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendwise/internal/domain"
	"spendwise/internal/metrics"
)

// Dispatcher routes one user input through the gateway, validators, and
// domain handlers.
type Dispatcher struct {
	gateway domain.Gateway
	store   domain.FinanceStore
	logger  *slog.Logger
	now     func() time.Time
}

func New(gateway domain.Gateway, store domain.FinanceStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		gateway: gateway,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Dispatch sends (input, history, user id) to the gateway and routes the
// result. It never fails: every collaborator error is converted into an
// error outcome so the dialog stack always advances.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *domain.Session, input string) domain.Outcome {
	outcome := d.dispatch(ctx, sess, input)
	if outcome.IsError() {
		metrics.DispatchErrorsTotal.Inc()
	}
	return outcome
}

func (d *Dispatcher) dispatch(ctx context.Context, sess *domain.Session, input string) domain.Outcome {
	intent, err := d.gateway.Complete(ctx, sess.UserID, input, sess.History)
	if err != nil {
		return d.errorOutcome(err)
	}

	if !intent.IsCall() {
		// Direct reply: record the exchange as grounding for the next turn.
		sess.AppendExchange(input, intent.Reply)
		return domain.Outcome{Text: intent.Reply}
	}

	call := intent.Call
	metrics.IntentTotal(call.Name).Inc()
	d.logger.Info("dispatching intent", "intent", call.Name, "session", sess.ID)

	outcome, err := d.route(ctx, sess.UserID, call)
	if err != nil {
		return d.errorOutcome(err)
	}
	return outcome
}

// route validates the call's parameters and invokes the matching handler.
// A *validationError becomes an error outcome with the field-specific
// message; any other error is passed up for generic conversion.
func (d *Dispatcher) route(ctx context.Context, userID string, call *domain.StructuredCall) (domain.Outcome, error) {
	switch call.Name {
	case domain.IntentCreateProfile:
		cmd, verr := validateProfile(call.Parameters)
		if verr != nil {
			return validationOutcome(verr), nil
		}
		return d.handleProfile(ctx, userID, cmd)

	case domain.IntentLogExpense:
		cmd, verr := validateExpense(call.Parameters)
		if verr != nil {
			return validationOutcome(verr), nil
		}
		return d.handleExpense(ctx, userID, cmd)

	case domain.IntentCreateBudget:
		cmd, verr := validateBudgets(call.Parameters)
		if verr != nil {
			return validationOutcome(verr), nil
		}
		return d.handleBudgets(ctx, userID, cmd)

	case domain.IntentSetGoal:
		cmd, verr := validateGoal(call.Parameters)
		if verr != nil {
			return validationOutcome(verr), nil
		}
		return d.handleGoal(ctx, userID, cmd)

	case domain.IntentAddRecurring:
		cmd, verr := validateRecurring(call.Parameters)
		if verr != nil {
			return validationOutcome(verr), nil
		}
		return d.handleRecurring(ctx, userID, cmd)

	case domain.IntentExpenseSummary:
		cmd, verr := validateSummary(call.Parameters)
		if verr != nil {
			return validationOutcome(verr), nil
		}
		return d.handleSummary(ctx, userID, cmd)

	case domain.IntentRefineQuery:
		cmd, verr := validateRefine(call.Parameters)
		if verr != nil {
			return validationOutcome(verr), nil
		}
		return d.handleRefine(ctx, cmd)

	default:
		d.logger.Warn("unknown intent from gateway", "intent", call.Name)
		return domain.Outcome{Text: "Unknown operation requested.", Tag: call.Name}, nil
	}
}

func validationOutcome(err error) domain.Outcome {
	return domain.Outcome{Text: err.Error(), Tag: domain.TagError}
}

func (d *Dispatcher) errorOutcome(err error) domain.Outcome {
	d.logger.Error("dispatch failed", "error", err)
	return domain.Outcome{
		Text: fmt.Sprintf("Error processing request: %s", err.Error()),
		Tag:  domain.TagError,
	}
}
