package domain

import (
	"context"
	"time"
)

// OptionKind tags the invocation options of a dialog frame. The step
// functions switch on the kind instead of probing option shapes at runtime.
type OptionKind string

const (
	// OptionNone starts a dialog with no prior input; the first step renders
	// a greeting artifact.
	OptionNone OptionKind = "none"
	// OptionText carries literal pre-supplied text that the sub-dialog echoes
	// back before suspending (the conversational refinement loop).
	OptionText OptionKind = "text"
	// OptionMessage carries free user text forwarded into a fresh cycle.
	OptionMessage OptionKind = "message"
	// OptionAction carries a structured UI action selector.
	OptionAction OptionKind = "action"
)

// Options are the opaque invocation options captured in a dialog frame.
type Options struct {
	Kind  OptionKind `json:"kind"`
	Value string     `json:"value,omitempty"`
}

// NoOptions is the zero invocation.
func NoOptions() Options { return Options{Kind: OptionNone} }

// Frame is one entry in a session's dialog stack: which dialog is active,
// at which step it resumes, and the options it was invoked with.
type Frame struct {
	Dialog  string  `json:"dialog"`
	Step    int     `json:"step"`
	Options Options `json:"options"`
}

// Exchange is one completed user/agent round-trip, kept in chronological
// order and replayed verbatim as grounding context for the next gateway call.
type Exchange struct {
	UserMessage string    `json:"user_message"`
	BotMessage  string    `json:"bot_message"`
	Timestamp   time.Time `json:"timestamp"`
}

// Session is the durable per-conversation state: the grounding history for
// the current top-level cycle and the suspended dialog stack. It is read at
// turn start and written at turn end; only the turn owning the session
// mutates it.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	History   []Exchange `json:"history,omitempty"`
	Stack     []Frame    `json:"stack,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AppendExchange records one completed round-trip.
func (s *Session) AppendExchange(user, bot string) {
	s.History = append(s.History, Exchange{
		UserMessage: user,
		BotMessage:  bot,
		Timestamp:   time.Now(),
	})
}

// ClearHistory starts a fresh grounding window for the next top-level cycle.
func (s *Session) ClearHistory() { s.History = nil }

// SessionStore is the durable key-value persistence of sessions keyed by
// conversation id. Load returns a default-initialized session when the id
// has never been seen.
type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}
