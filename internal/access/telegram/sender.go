// Package telegram sends access notifications through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/bissquit/fitgram/internal/pkg/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 20
	sendTimeout      = 10 * time.Second
)

// Config holds telegram sender configuration.
type Config struct {
	BotToken  string
	RateLimit float64
	// APIURL overrides the Bot API endpoint format, for example
	// "https://api.telegram.org/bot%s/%s".
	APIURL string
}

// Sender implements access.Notifier.
type Sender struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

// NewSender creates a sender. It calls getMe once to validate the token.
func NewSender(config Config) (*Sender, error) {
	if config.BotToken == "" {
		return nil, errors.New("telegram sender: bot token is required")
	}

	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = tgbotapi.APIEndpoint
	}

	client := &http.Client{Timeout: sendTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(config.BotToken, apiURL, client)
	if err != nil {
		return nil, fmt.Errorf("telegram sender: %w", err)
	}

	rps := config.RateLimit
	if rps <= 0 {
		rps = defaultRateLimit
	}

	slog.Info("telegram sender configured",
		"bot", bot.Self.UserName,
		"rate_limit", rps,
	)

	return &Sender{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// NotifyAccessGranted messages the user about their new access window.
// Telegram user ids double as private chat ids.
func (s *Sender) NotifyAccessGranted(ctx context.Context, sub *domain.Subscription) error {
	if err := s.limiter.Wait(ctx); err != nil {
		metrics.TelegramMessages.WithLabelValues("rate_limited").Inc()
		return fmt.Errorf("rate limit wait: %w", err)
	}

	msg := tgbotapi.NewMessage(sub.UserID, accessGrantedText(sub))
	if _, err := s.bot.Send(msg); err != nil {
		metrics.TelegramMessages.WithLabelValues("failed").Inc()
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return fmt.Errorf("telegram api error %d: %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("send message: %w", err)
	}

	metrics.TelegramMessages.WithLabelValues("sent").Inc()
	return nil
}

func accessGrantedText(sub *domain.Subscription) string {
	return fmt.Sprintf("Your %s access is active until %s.",
		sub.Plan,
		sub.ExpiresAt.UTC().Format(time.DateOnly),
	)
}
