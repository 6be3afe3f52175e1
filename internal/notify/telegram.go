// Package notify delivers run results and indicator signals to humans.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/report"
	"github.com/wonny/frontier/pkg/config"
	"github.com/wonny/frontier/pkg/logger"
)

// maxMessageLen is Telegram's text limit per message
const maxMessageLen = 4096

// Telegram sends HTML summaries and chart photos to one chat
// ⭐ SSOT: implements contracts.Notifier
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewTelegram connects to the Bot API with the configured token
func NewTelegram(cfg config.TelegramConfig, log *logger.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(cfg.BotToken, tgbotapi.APIEndpoint, cfg.ChatID, &http.Client{Timeout: 30 * time.Second}, log)
}

// NewTelegramWithEndpoint allows a custom Bot API endpoint ("…/bot%s/%s")
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, client *http.Client, log *logger.Logger) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, contracts.Preconditionf("telegram token and chat id are required")
	}
	if log == nil {
		log = logger.Nop()
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}

	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  log.WithComponent("telegram"),
	}, nil
}

// NotifyRun sends the run summary followed by the composition chart
func (t *Telegram) NotifyRun(ctx context.Context, b *contracts.Bundle) error {
	if err := t.sendHTML(ctx, report.TelegramHTML(b)); err != nil {
		return err
	}

	png, err := report.CompositionPNG(b)
	if err != nil {
		t.logger.WithError(err).Warn("Skipping composition chart")
		return nil
	}
	return t.SendPhoto(ctx, "composition_"+b.RunID+".png", png, "")
}

// NotifySignals sends one message listing all signals
func (t *Telegram) NotifySignals(ctx context.Context, signals []contracts.IndicatorSignal) error {
	if len(signals) == 0 {
		return nil
	}
	return t.sendHTML(ctx, report.SignalsHTML(signals, time.Now()))
}

// SendPhoto uploads a PNG with an optional HTML caption
func (t *Telegram) SendPhoto(ctx context.Context, name string, png []byte, caption string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	if caption != "" {
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
	}
	if _, err := t.bot.Send(photo); err != nil {
		return fmt.Errorf("telegram photo: %w", err)
	}
	return nil
}

func (t *Telegram) sendHTML(ctx context.Context, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}

	t.logger.WithField("chat_id", t.chatID).Debug("Message sent")
	return nil
}

// splitMessage cuts text at line boundaries into chunks of at most limit
// characters. Overlong lines are cut on a rune boundary, before any HTML tag
// or entity the cut would break.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		for n > limit {
			flush()
			head, rest := cutLine(line, limit)
			chunks = append(chunks, head)
			line, n = rest, utf8.RuneCountInString(rest)
		}
		if curLen+n > limit {
			flush()
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return chunks
}

// cutLine splits line after at most limit runes. line must be longer than limit.
func cutLine(line string, limit int) (string, string) {
	cut, count := len(line), 0
	for i := range line {
		if count == limit {
			cut = i
			break
		}
		count++
	}

	head := line[:cut]
	if i := strings.LastIndexByte(head, '<'); i > 0 && !strings.Contains(head[i:], ">") {
		cut = i
	} else if i := strings.LastIndexByte(head, '&'); i > 0 && !strings.Contains(head[i:], ";") {
		cut = i
	}
	return line[:cut], line[cut:]
}
