// Package channel holds the transport adapters. Each adapter converts its
// wire format into bus messages and renders outbound artifacts in whatever
// the transport supports.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spendwise/internal/domain"
)

const telegramPollTimeout = 30

// Telegram implements domain.Channel for the Telegram Bot API. Cards are
// rendered as messages with inline keyboards; button taps come back as
// callback queries and are published as structured actions.
type Telegram struct {
	token     string
	allowFrom []int64 // allowed user IDs (empty = allow all)

	bot    *tgbotapi.BotAPI
	bus    domain.MessageBus
	logger *slog.Logger
}

type TelegramConfig struct {
	Token     string
	AllowFrom []string // user IDs as strings
	Logger    *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	var allowed []int64
	for _, s := range cfg.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}
	return &Telegram{
		token:     cfg.Token,
		allowFrom: allowed,
		logger:    cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and begins polling for updates.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	bus.OnOutbound("telegram", func(msg domain.OutboundMessage) {
		chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
		if err != nil {
			t.logger.Error("invalid chat ID for telegram outbound", "chatID", msg.ChatID, "err", err)
			return
		}
		t.deliver(chatID, msg)
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = telegramPollTimeout
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		}
	}
}

// Stop is a no-op: the bot stops when Start's context is cancelled.
func (t *Telegram) Stop() error { return nil }

// deliver renders one outbound artifact. A card becomes its title and body
// with the actions as an inline keyboard; the tabular part arrives in the
// plain-text Content.
func (t *Telegram) deliver(chatID int64, out domain.OutboundMessage) {
	if out.Card != nil {
		text := out.Card.Title
		if out.Card.Body != "" {
			text += "\n\n" + out.Card.Body
		}
		if out.Card.Footer != "" && !strings.Contains(out.Card.Body, out.Card.Footer) {
			text += "\n" + out.Card.Footer
		}

		msg := tgbotapi.NewMessage(chatID, text)
		if len(out.Card.Actions) > 0 {
			var row []tgbotapi.InlineKeyboardButton
			for _, a := range out.Card.Actions {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Action))
			}
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
		}
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Error("telegram card send failed", "chat_id", chatID, "err", err)
		}
		return
	}

	if out.Content == "" {
		return
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, out.Content)); err != nil {
		t.logger.Error("telegram send failed", "chat_id", chatID, "err", err)
	}
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		t.handleCallback(update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !t.isAllowed(userID) {
		t.logger.Warn("unauthorized telegram user",
			"user_id", userID,
			"username", update.Message.From.UserName,
		)
		t.deliver(chatID, domain.OutboundMessage{Content: "Unauthorized. Your user ID is not in the allow list."})
		return
	}

	text := strings.TrimSpace(update.Message.Text)

	// /start opens a fresh conversation; the dialog layer greets.
	if update.Message.IsCommand() {
		if update.Message.Command() != "start" {
			return
		}
		text = ""
	} else if text == "" {
		return
	}

	t.logger.Info("telegram message received",
		"user_id", userID,
		"chat_id", chatID,
		"text_len", len(text),
	)

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, _ = t.bot.Send(typing)

	t.bus.Publish(domain.InboundMessage{
		Channel:   "telegram",
		ChatID:    strconv.FormatInt(chatID, 10),
		SenderID:  strconv.FormatInt(userID, 10),
		Content:   text,
		Timestamp: time.Unix(int64(update.Message.Date), 0),
	})
}

// handleCallback turns a card button tap into a structured action message.
func (t *Telegram) handleCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil || cq.From == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	ack := tgbotapi.NewCallback(cq.ID, "")
	_, _ = t.bot.Request(ack)

	// Remove the keyboard so the card cannot be tapped twice.
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, cq.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = t.bot.Send(edit)

	t.bus.Publish(domain.InboundMessage{
		Channel:   "telegram",
		ChatID:    strconv.FormatInt(chatID, 10),
		SenderID:  strconv.FormatInt(cq.From.ID, 10),
		Action:    cq.Data,
		Timestamp: time.Now(),
	})
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true
	}
	for _, id := range t.allowFrom {
		if id == userID {
			return true
		}
	}
	return false
}
