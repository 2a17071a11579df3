package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"spendwise/internal/domain"
	"spendwise/internal/metrics"
)

const (
	defaultConcurrency  = 3
	defaultHistoryLimit = 50
)

// Runner consumes inbound messages from the bus and drives one engine turn
// per message. Turns for distinct sessions run concurrently under a bounded
// semaphore; turns for the same session are strictly sequential.
type Runner struct {
	engine       *Engine
	bus          domain.MessageBus
	sessions     domain.SessionStore
	store        domain.FinanceStore
	logger       *slog.Logger
	concurrency  int
	historyLimit int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// RunnerConfig holds all dependencies and tuning parameters for the runner.
type RunnerConfig struct {
	Engine       *Engine
	Bus          domain.MessageBus
	Sessions     domain.SessionStore
	Store        domain.FinanceStore
	Logger       *slog.Logger
	Concurrency  int // max parallel turns (default 3)
	HistoryLimit int // max retained exchanges per session (default 50)
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &Runner{
		engine:       cfg.Engine,
		bus:          cfg.Bus,
		sessions:     cfg.Sessions,
		store:        cfg.Store,
		logger:       cfg.Logger,
		concurrency:  cfg.Concurrency,
		historyLimit: cfg.HistoryLimit,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Run consumes inbound messages and processes them with bounded concurrency.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("dialog runner started", "concurrency", r.concurrency)

	sem := make(chan struct{}, r.concurrency)
	inbound := r.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("dialog runner stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				r.logger.Info("inbound channel closed, dialog runner stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				r.processMessage(ctx, m)
			}(msg)
		}
	}
}

// processMessage runs one turn and converts any failure into an apology so
// the user always gets a reply.
func (r *Runner) processMessage(ctx context.Context, msg domain.InboundMessage) {
	metrics.TurnsTotal.Inc()
	metrics.ActiveTurns.Inc()
	defer metrics.ActiveTurns.Dec()

	key := sessionKey(msg)
	lock := r.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	r.logger.Info("processing turn",
		"channel", msg.Channel,
		"session", key,
		"action", msg.Action,
		"content_len", len(msg.Content),
	)

	if err := r.handleTurn(ctx, key, msg); err != nil {
		r.logger.Error("turn failed", "session", key, "error", err)
		r.bus.SendOutbound(domain.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: fmt.Sprintf("Sorry, I encountered an error: %s", err.Error()),
			Format:  "text",
		})
	}
}

// handleTurn loads the session, drives the dialog stack with the message,
// and persists the session back. The finance profile row is ensured before
// the first dispatch so the gateway prompt always has a user to describe.
func (r *Runner) handleTurn(ctx context.Context, key string, msg domain.InboundMessage) error {
	sess, err := r.sessions.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.ID = key
	if sess.UserID == "" {
		sess.UserID = userID(msg)
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	if err := r.store.EnsureUser(ctx, sess.UserID, msg.SenderID, ""); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	send := func(text string, card *domain.Card) {
		r.bus.SendOutbound(domain.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: text,
			Format:  "text",
			Card:    card,
		})
	}

	if err := r.engine.Resume(ctx, sess, inputOptions(msg), send); err != nil {
		return err
	}

	if len(sess.History) > r.historyLimit {
		sess.History = sess.History[len(sess.History)-r.historyLimit:]
	}
	sess.UpdatedAt = time.Now()

	if err := r.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// sessionLock returns the mutex serializing turns for one session key.
func (r *Runner) sessionLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

func sessionKey(msg domain.InboundMessage) string {
	return fmt.Sprintf("%s:%s", msg.Channel, msg.ChatID)
}

// userID derives the stable finance-profile key for a conversation.
func userID(msg domain.InboundMessage) string {
	if msg.SenderID != "" {
		return fmt.Sprintf("%s:%s", msg.Channel, msg.SenderID)
	}
	return sessionKey(msg)
}

// inputOptions converts an inbound message into the engine's tagged input.
// A structured action always wins over free text; a blank message is a bare
// conversation-open and carries no input.
func inputOptions(msg domain.InboundMessage) domain.Options {
	if msg.Action != "" {
		return domain.Options{Kind: domain.OptionAction, Value: msg.Action}
	}
	if content := strings.TrimSpace(msg.Content); content != "" {
		return domain.Options{Kind: domain.OptionMessage, Value: content}
	}
	return domain.NoOptions()
}
