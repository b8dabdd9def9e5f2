package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/NikiShestakov/tg/internal/bus"
)

// handleMessage normalizes one incoming Telegram message and publishes it
// inbound. Commands are routed to the stateless command handler and never
// reach the intake engine's buffers.
func (c *Channel) handleMessage(ctx context.Context, message *telego.Message) {
	user := message.From
	if user == nil {
		return
	}

	if strings.HasPrefix(message.Text, "/") {
		c.handleCommand(ctx, message)
		return
	}

	ev, ok := normalizeMessage(message)
	if !ok {
		slog.Debug("telegram message skipped (no usable content)",
			"chat_id", message.Chat.ID,
			"user_id", user.ID,
		)
		return
	}

	slog.Debug("telegram message received",
		"kind", ev.Kind,
		"chat_id", ev.ChatID,
		"user_id", user.ID,
		"username", user.Username,
	)

	c.bus.PublishInbound(ev)
}

// normalizeMessage converts a raw message into zero or one typed event.
// Media takes precedence over caption text: a photo message yields a photo
// event only, its caption is not buffered.
func normalizeMessage(message *telego.Message) (bus.InboundEvent, bool) {
	user := message.From
	if user == nil {
		return bus.InboundEvent{}, false
	}

	ev := bus.InboundEvent{
		SenderID:    fmt.Sprintf("%d", user.ID),
		ChatID:      fmt.Sprintf("%d", message.Chat.ID),
		DisplayName: displayName(user),
	}

	switch {
	case len(message.Photo) > 0:
		// Telegram sends several resolutions; the last is the largest.
		ev.Kind = bus.KindPhoto
		ev.MediaRef = message.Photo[len(message.Photo)-1].FileID
	case message.Video != nil:
		ev.Kind = bus.KindVideo
		ev.MediaRef = message.Video.FileID
	case message.Text != "":
		ev.Kind = bus.KindText
		ev.Text = message.Text
	default:
		return bus.InboundEvent{}, false
	}

	return ev, true
}

func displayName(user *telego.User) string {
	if user.Username != "" {
		return user.Username
	}
	return "unknown"
}
