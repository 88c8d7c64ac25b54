// Package notify sends alerts about listings the pipeline flagged.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/pkg/config"
	"github.com/inkguard/inkguard/pkg/logging"
	"github.com/inkguard/inkguard/pkg/scoring"
	log "github.com/sirupsen/logrus"
)

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, *pipeline.Enriched) error { return nil }

// New returns a Telegram notifier when enabled in cfg, Nop otherwise.
func New(cfg config.TelegramConfig, logger log.FieldLogger) (pipeline.Notifier, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return NewTelegram(bot, cfg.ChatID, scoring.Interpretation(cfg.MinInterpretation), logger), nil
}

// sender is the part of the bot API the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a plain-text alert to a chat for each listing whose review
// interpretation is at least as suspicious as the threshold, or whose price
// was flagged.
type Telegram struct {
	bot            sender
	chatID         int64
	threshold      scoring.Interpretation
	maxRetries     int
	retryDelayBase time.Duration
	log            log.FieldLogger
}

// NewTelegram creates a Telegram notifier. An unknown threshold falls back
// to SUSPICIOUS.
func NewTelegram(bot sender, chatID int64, threshold scoring.Interpretation, logger log.FieldLogger) *Telegram {
	if threshold.Rank() < 0 {
		threshold = scoring.InterpSuspicious
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Telegram{
		bot:            bot,
		chatID:         chatID,
		threshold:      threshold,
		maxRetries:     3,
		retryDelayBase: time.Second,
		log:            logger,
	}
}

// ShouldNotify applies the threshold.
func (t *Telegram) ShouldNotify(e *pipeline.Enriched) bool {
	if e == nil || e.Assessment == nil {
		return false
	}
	a := e.Assessment
	return a.SuspiciousByPrice() || a.Trust.Interpretation.Rank() >= t.threshold.Rank()
}

// Notify sends the alert with linear-backoff retry.
func (t *Telegram) Notify(ctx context.Context, e *pipeline.Enriched) error {
	if !t.ShouldNotify(e) {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatMessage(e))
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			t.log.WithField("listing_id", e.ListingID).Debug("alert sent")
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", t.maxRetries, lastErr)
}

// FormatMessage renders the alert text.
func FormatMessage(e *pipeline.Enriched) string {
	a := e.Assessment
	var b strings.Builder
	fmt.Fprintf(&b, "inkguard alert: %s\n", a.Verdict)
	fmt.Fprintf(&b, "Listing: %s\n", e.ListingID)
	if e.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", e.Title)
	}
	fmt.Fprintf(&b, "Reviews: %s (weight %.2f)\n", a.Trust.Interpretation, a.Trust.Weight)
	if a.Price != nil {
		line := fmt.Sprintf("Price: R$ %.2f, tier %s", a.Price.ListedPrice, a.Price.Tier)
		if a.Price.DeviationPct != nil {
			line += fmt.Sprintf(" (%+.1f%%)", *a.Price.DeviationPct)
		}
		b.WriteString(line + "\n")
	}
	if a.Semantic != nil && a.Semantic.CriticalCount > 0 {
		fmt.Fprintf(&b, "Critical reviews: %d\n", a.Semantic.CriticalCount)
	}
	if e.Link != "" {
		b.WriteString(e.Link + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
