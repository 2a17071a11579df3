package domain

import "time"

type InboundMessage struct {
	Channel   string
	ChatID    string
	SenderID  string
	Content   string
	Action    string // structured UI action selector; takes priority over Content
	Timestamp time.Time
}

type OutboundMessage struct {
	Channel string
	ChatID  string
	Content string
	Format  string // text | markdown
	Card    *Card  // optional rich artifact
}

// Card kinds, used as the content-type tag by channel adapters.
const (
	CardWelcome      = "welcome"
	CardConfirmation = "confirmation"
	CardSummary      = "summary"
)

// Card is a renderable rich artifact. Channels that cannot render cards fall
// back to Body, which always carries a plain-text rendering.
type Card struct {
	Type    string       `json:"type"`
	Title   string       `json:"title"`
	Body    string       `json:"body,omitempty"`
	Columns []string     `json:"columns,omitempty"`
	Rows    [][]string   `json:"rows,omitempty"`
	Footer  string       `json:"footer,omitempty"`
	Actions []CardAction `json:"actions,omitempty"`
}

// CardAction is a tappable button on a card; Action comes back as the
// structured payload of the next turn.
type CardAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}
