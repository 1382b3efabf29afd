// Package notifier delivers formatted alerts to Telegram, or to the log when
// Telegram is not configured.
package notifier

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/XavierBriggs/Augur/pkg/contracts"
)

// Notifier sends one text message
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// TelegramConfig configures the Telegram notifier
type TelegramConfig struct {
	Token         string
	ChatID        string  // Numeric chat id or @channel name
	Endpoint      string  // Bot API endpoint format, defaults to tgbotapi.APIEndpoint
	RatePerSecond float64 // Message pacing, defaults to 1/s
	HTTPClient    *http.Client
}

// New returns a Telegram notifier, or a log notifier when the token or the
// chat id is missing
func New(cfg TelegramConfig) Notifier {
	if cfg.Token == "" || cfg.ChatID == "" {
		return NewLogNotifier()
	}
	return NewTelegramNotifier(cfg)
}

// TelegramNotifier sends Markdown messages through the Bot API. The bot is
// created on first use so that startup never touches the network.
type TelegramNotifier struct {
	cfg     TelegramConfig
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier creates a lazily initialised Telegram notifier
func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	if cfg.Endpoint == "" {
		cfg.Endpoint = tgbotapi.APIEndpoint
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &TelegramNotifier{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:  log.With().Str("component", "telegram").Logger(),
	}
}

// Send delivers text to the configured chat
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	msg, err := n.buildMessage(text)
	if err != nil {
		return err
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "wait for send slot")
	}

	bot, err := n.getBot()
	if err != nil {
		return err
	}

	if _, err := bot.Send(msg); err != nil {
		return errors.Mark(errors.Wrap(err, "telegram sendMessage"), contracts.ErrTransport)
	}

	n.logger.Debug().Int("length", len(text)).Msg("message sent")
	return nil
}

func (n *TelegramNotifier) buildMessage(text string) (tgbotapi.MessageConfig, error) {
	chat := strings.TrimSpace(n.cfg.ChatID)

	var msg tgbotapi.MessageConfig
	switch {
	case strings.HasPrefix(chat, "@"):
		msg = tgbotapi.NewMessageToChannel(chat, text)
	default:
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return msg, errors.Mark(errors.Newf("invalid TELEGRAM_CHAT_ID %q", chat), contracts.ErrNotConfigured)
		}
		msg = tgbotapi.NewMessage(id, text)
	}

	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	return msg, nil
}

// getBot initialises the bot on first use; a failed attempt is retried on
// the next send
func (n *TelegramNotifier) getBot() (*tgbotapi.BotAPI, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.bot != nil {
		return n.bot, nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(n.cfg.Token, n.cfg.Endpoint, n.cfg.HTTPClient)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "initialise telegram bot"), contracts.ErrTransport)
	}

	n.logger.Info().Str("bot", bot.Self.UserName).Msg("telegram bot authorised")
	n.bot = bot
	return bot, nil
}

// LogNotifier writes messages to the log instead of a chat
type LogNotifier struct {
	once   sync.Once
	logger zerolog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Send(_ context.Context, text string) error {
	n.once.Do(func() {
		n.logger.Warn().Msg("TELEGRAM_TOKEN or TELEGRAM_CHAT_ID not set, messages are only logged")
	})
	n.logger.Info().Str("message", text).Msg("notification")
	return nil
}
