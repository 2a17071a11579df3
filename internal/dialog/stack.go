// Package dialog is the nested, resumable conversation state machine. A
// session owns a stack of frames; each frame names a dialog and the step it
// resumes at. A turn drives the stack until some step suspends for user
// input or the stack empties.
package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/domain"
)

const (
	dialogMain    = "main"
	dialogCollect = "collect"

	// maxTransitions bounds the number of step executions in one turn so a
	// misbehaving transition cycle cannot spin forever.
	maxTransitions = 32
)

// sendFunc delivers one outbound artifact for the current turn.
type sendFunc func(text string, card *domain.Card)

// turnContext is the per-step view of the running turn. input is the value
// flowing into the step: the fresh user input on resume, or the value passed
// by the previous step or the ending child dialog.
type turnContext struct {
	session *domain.Session
	frame   *domain.Frame
	input   domain.Options
	send    sendFunc
}

type stepFunc func(ctx context.Context, tc *turnContext) (transition, error)

type transitionKind int

const (
	suspendTurn transitionKind = iota
	nextStep
	beginDialog
	replaceSelf
	replaceTop
	endDialog
)

// transition is a step's instruction to the engine: suspend the turn, run
// the next step with a value, push a child dialog, restart this dialog or
// the whole stack, or pop back to the parent.
type transition struct {
	kind   transitionKind
	dialog string
	opts   domain.Options
}

func suspend() transition { return transition{kind: suspendTurn} }

func next(opts domain.Options) transition { return transition{kind: nextStep, opts: opts} }

func end(opts domain.Options) transition { return transition{kind: endDialog, opts: opts} }

func begin(dialog string, opts domain.Options) transition {
	return transition{kind: beginDialog, dialog: dialog, opts: opts}
}

func restart(opts domain.Options) transition { return transition{kind: replaceSelf, opts: opts} }

func restartMain(opts domain.Options) transition {
	return transition{kind: replaceTop, opts: opts}
}

// dispatcher is the validate/dispatch pipeline boundary the collect dialog
// drives.
type dispatcher interface {
	Dispatch(ctx context.Context, sess *domain.Session, input string) domain.Outcome
}

// Engine holds the dialog definitions and drives a session's frame stack
// through one turn.
type Engine struct {
	dispatch dispatcher
	gateway  domain.Gateway
	logger   *slog.Logger
	dialogs  map[string][]stepFunc
}

func NewEngine(dispatch dispatcher, gateway domain.Gateway, logger *slog.Logger) *Engine {
	e := &Engine{
		dispatch: dispatch,
		gateway:  gateway,
		logger:   logger,
	}
	e.dialogs = map[string][]stepFunc{
		dialogMain:    e.mainSteps(),
		dialogCollect: e.collectSteps(),
	}
	return e
}

// Resume drives the session's stack with one user input until a step
// suspends or the stack empties. An empty stack starts a fresh main dialog
// invoked with the input. Suspension records the NEXT step index, so the
// following turn resumes one step past the suspension point.
func (e *Engine) Resume(ctx context.Context, sess *domain.Session, input domain.Options, send sendFunc) error {
	if len(sess.Stack) == 0 {
		sess.Stack = []domain.Frame{{Dialog: dialogMain, Options: input}}
	}

	carry := input
	for i := 0; i < maxTransitions; i++ {
		frame := &sess.Stack[len(sess.Stack)-1]
		steps, ok := e.dialogs[frame.Dialog]
		if !ok {
			return fmt.Errorf("unknown dialog %q on stack", frame.Dialog)
		}
		if frame.Step >= len(steps) {
			// Running past the last step ends the dialog.
			sess.Stack = sess.Stack[:len(sess.Stack)-1]
			if len(sess.Stack) == 0 {
				return nil
			}
			carry = domain.NoOptions()
			continue
		}

		tr, err := steps[frame.Step](ctx, &turnContext{
			session: sess,
			frame:   frame,
			input:   carry,
			send:    send,
		})
		if err != nil {
			return fmt.Errorf("dialog %s step %d: %w", frame.Dialog, frame.Step, err)
		}

		switch tr.kind {
		case suspendTurn:
			frame.Step++
			return nil
		case nextStep:
			frame.Step++
			carry = tr.opts
		case beginDialog:
			frame.Step++
			sess.Stack = append(sess.Stack, domain.Frame{Dialog: tr.dialog, Options: tr.opts})
			carry = tr.opts
		case replaceSelf:
			sess.Stack[len(sess.Stack)-1] = domain.Frame{Dialog: frame.Dialog, Options: tr.opts}
			carry = tr.opts
		case replaceTop:
			sess.Stack = []domain.Frame{{Dialog: dialogMain, Options: tr.opts}}
			carry = tr.opts
		case endDialog:
			sess.Stack = sess.Stack[:len(sess.Stack)-1]
			if len(sess.Stack) == 0 {
				return nil
			}
			carry = tr.opts
		}
	}
	return fmt.Errorf("dialog transition limit reached for session %s", sess.ID)
}
