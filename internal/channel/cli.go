package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"spendwise/internal/domain"
)

// CLI implements domain.Channel for interactive terminal chat. Cards are
// rendered as plain text; card actions are listed as numbered choices the
// user can pick by number.
type CLI struct {
	bus    domain.MessageBus
	logger *slog.Logger
	in     io.Reader
	out    io.Writer

	// actions holds the choices of the most recent card so a numeric reply
	// can be mapped back to its structured action. Guarded because renders
	// arrive from the runner goroutine.
	actionsMu sync.Mutex
	actions   []domain.CardAction
}

type CLIConfig struct {
	Logger *slog.Logger
	In     io.Reader
	Out    io.Writer
}

func NewCLI(cfg CLIConfig) *CLI {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &CLI{
		logger: cfg.Logger,
		in:     cfg.In,
		out:    cfg.Out,
	}
}

func (c *CLI) Name() string { return "cli" }

// Start runs the interactive REPL and blocks until context is cancelled.
func (c *CLI) Start(ctx context.Context, bus domain.MessageBus) error {
	c.bus = bus

	bus.OnOutbound("cli", func(msg domain.OutboundMessage) {
		c.render(msg)
		_, _ = fmt.Fprint(c.out, "You> ")
	})

	_, _ = fmt.Fprintln(c.out, "SpendWise CLI. Type your message and press Enter. Type /quit to exit.")

	// Open the conversation so the agent greets first.
	c.bus.Publish(domain.InboundMessage{
		Channel:  "cli",
		ChatID:   "direct",
		SenderID: "user",
	})

	scanner := bufio.NewScanner(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return nil // EOF
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			_, _ = fmt.Fprint(c.out, "You> ")
			continue
		}
		if line == "/quit" || line == "/exit" || line == "/q" {
			c.logger.Info("user requested quit")
			return nil
		}

		c.bus.Publish(c.toInbound(line))
	}
}

func (c *CLI) Stop() error { return nil }

// toInbound maps a numeric reply onto the pending card action, anything
// else is free text.
func (c *CLI) toInbound(line string) domain.InboundMessage {
	msg := domain.InboundMessage{
		Channel:  "cli",
		ChatID:   "direct",
		SenderID: "user",
	}
	c.actionsMu.Lock()
	actions := c.actions
	c.actions = nil
	c.actionsMu.Unlock()

	if n := choiceNumber(line); n > 0 && n <= len(actions) {
		msg.Action = actions[n-1].Action
		return msg
	}
	msg.Content = line
	return msg
}

func (c *CLI) render(msg domain.OutboundMessage) {
	_, _ = fmt.Fprintln(c.out, "\n--- SpendWise ---")
	if msg.Card != nil {
		if msg.Card.Body != "" {
			_, _ = fmt.Fprintln(c.out, msg.Card.Body)
		} else {
			_, _ = fmt.Fprintln(c.out, msg.Card.Title)
		}
		if msg.Card.Footer != "" && !strings.Contains(msg.Card.Body, msg.Card.Footer) {
			_, _ = fmt.Fprintln(c.out, msg.Card.Footer)
		}
		for i, a := range msg.Card.Actions {
			_, _ = fmt.Fprintf(c.out, "  [%d] %s\n", i+1, a.Label)
		}
		c.actionsMu.Lock()
		c.actions = msg.Card.Actions
		c.actionsMu.Unlock()
	} else if msg.Content != "" {
		_, _ = fmt.Fprintln(c.out, msg.Content)
	}
	_, _ = fmt.Fprintln(c.out, "-----------------")
}

func choiceNumber(line string) int {
	n := 0
	for _, r := range line {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
