package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/NikiShestakov/tg/internal/bus"
	"github.com/NikiShestakov/tg/internal/config"
)

// Channel connects to Telegram via the Bot API using long polling. Inbound
// messages are normalized onto the message bus; outbound notices from the
// bus are delivered back to their chats.
type Channel struct {
	bot    *telego.Bot
	config config.TelegramConfig
	bus    *bus.MessageBus

	pollCancel context.CancelFunc // cancels the long polling context
	pollDone   chan struct{}      // closed when the polling goroutine exits
	sendDone   chan struct{}      // closed when the outbound goroutine exits
}

// New creates a new Telegram channel from config.
func New(cfg config.TelegramConfig, msgBus *bus.MessageBus) (*Channel, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Channel{
		bot:    bot,
		config: cfg,
		bus:    msgBus,
	}, nil
}

// Name returns the channel identifier.
func (c *Channel) Name() string { return "telegram" }

// Start begins long polling for updates and consuming outbound notices.
func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting telegram bot (polling mode)")

	pollCtx, cancel := context.WithCancel(ctx)
	c.pollCancel = cancel
	c.pollDone = make(chan struct{})
	c.sendDone = make(chan struct{})

	pollTimeout := c.config.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = 30
	}

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        pollTimeout,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	slog.Info("telegram bot connected", "username", c.bot.Username())

	go func() {
		defer close(c.pollDone)
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					slog.Info("telegram updates channel closed")
					return
				}
				if update.Message != nil {
					c.handleMessage(pollCtx, update.Message)
				}
			}
		}
	}()

	go func() {
		defer close(c.sendDone)
		for {
			notice, ok := c.bus.ConsumeOutbound(pollCtx)
			if !ok {
				return
			}
			c.sendNotice(pollCtx, notice)
		}
	}()

	return nil
}

// sendNotice delivers one status message. Delivery failures are logged and
// dropped; a lost notice never fails the pipeline that produced it.
func (c *Channel) sendNotice(ctx context.Context, notice bus.OutboundNotice) {
	chatID, err := parseChatID(notice.ChatID)
	if err != nil {
		slog.Warn("outbound notice with bad chat id", "chat_id", notice.ChatID, "error", err)
		return
	}
	if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), notice.Text)); err != nil {
		slog.Warn("failed to send telegram notice", "chat_id", notice.ChatID, "error", err)
	}
}

// Stop shuts down the bot by cancelling the polling context and waiting for
// both worker goroutines to exit, so Telegram releases the getUpdates lock
// before a new instance starts.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping telegram bot")

	if c.pollCancel != nil {
		c.pollCancel()
	}

	for _, done := range []chan struct{}{c.pollDone, c.sendDone} {
		if done == nil {
			continue
		}
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			slog.Warn("telegram worker goroutine did not exit within timeout")
		}
	}

	slog.Info("telegram bot stopped")
	return nil
}

// parseChatID converts a string chat ID to int64.
func parseChatID(chatIDStr string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(chatIDStr, "%d", &id)
	return id, err
}
