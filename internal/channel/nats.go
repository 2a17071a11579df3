package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"spendwise/internal/domain"
)

const (
	defaultNATSSubject = "spendwise.turn"
	natsReconnectWait  = 2 * time.Second
	natsConnectTimeout = 5 * time.Second
)

// natsRequest is the JSON envelope external services publish on the inbound
// subject. Action carries a structured selector and wins over Text.
type natsRequest struct {
	ChatID   string `json:"chat_id"`
	SenderID string `json:"sender_id,omitempty"`
	Text     string `json:"text,omitempty"`
	Action   string `json:"action,omitempty"`
}

// natsResponse is published per outbound artifact on the per-chat outbound
// subject.
type natsResponse struct {
	ChatID string       `json:"chat_id"`
	Text   string       `json:"text,omitempty"`
	Card   *domain.Card `json:"card,omitempty"`
}

// NATS implements domain.Channel over a NATS connection: a shared inbound
// subject in, a per-chat outbound subject ("<subject>.out.<chat_id>") out.
// A turn can publish several responses before it finishes.
type NATS struct {
	url     string
	subject string
	conn    *nats.Conn
	sub     *nats.Subscription
	bus     domain.MessageBus
	logger  *slog.Logger
}

type NATSConfig struct {
	URL     string
	Subject string
	Logger  *slog.Logger
}

func NewNATS(cfg NATSConfig) *NATS {
	if cfg.Subject == "" {
		cfg.Subject = defaultNATSSubject
	}
	return &NATS{url: cfg.URL, subject: cfg.Subject, logger: cfg.Logger}
}

func (n *NATS) Name() string { return "nats" }

func (n *NATS) Start(ctx context.Context, bus domain.MessageBus) error {
	n.bus = bus

	conn, err := nats.Connect(n.url,
		nats.Name("spendwise"),
		nats.Timeout(natsConnectTimeout),
		nats.ReconnectWait(natsReconnectWait),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	n.conn = conn
	n.logger.Info("connected to nats", "url", n.url)

	bus.OnOutbound("nats", n.deliver)

	sub, err := conn.Subscribe(n.subject, n.handleRequest)
	if err != nil {
		conn.Close()
		return fmt.Errorf("subscribe to %s: %w", n.subject, err)
	}
	n.sub = sub
	n.logger.Info("nats channel listening", "subject", n.subject)

	<-ctx.Done()
	return n.Stop()
}

func (n *NATS) Stop() error {
	if n.sub != nil {
		_ = n.sub.Unsubscribe()
		n.sub = nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	return nil
}

func (n *NATS) handleRequest(msg *nats.Msg) {
	var req natsRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		n.logger.Warn("unparseable nats request", "err", err)
		return
	}
	if req.ChatID == "" {
		n.logger.Warn("nats request without chat_id dropped")
		return
	}

	n.bus.Publish(domain.InboundMessage{
		Channel:   "nats",
		ChatID:    req.ChatID,
		SenderID:  req.SenderID,
		Content:   req.Text,
		Action:    req.Action,
		Timestamp: time.Now(),
	})
}

func (n *NATS) deliver(out domain.OutboundMessage) {
	data, err := json.Marshal(natsResponse{
		ChatID: out.ChatID,
		Text:   out.Content,
		Card:   out.Card,
	})
	if err != nil {
		n.logger.Error("marshal nats response", "err", err)
		return
	}

	subject := fmt.Sprintf("%s.out.%s", n.subject, out.ChatID)
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Error("publish nats response", "subject", subject, "err", err)
	}
}
