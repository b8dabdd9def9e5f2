package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const startGreeting = "Привет! Я бот для сбора анкет. Отправьте мне информацию о себе: имя, возраст, рост, вес, параметры, и расскажите немного о себе. Вы можете прислать всё в одном или нескольких сообщениях, а также прикрепить фото и видео. Я подожду 3 минуты после вашего последнего сообщения и затем обработаю анкету."

// handleCommand processes /commands. Commands are stateless: they are
// answered (or ignored) immediately and never buffered into a session.
func (c *Channel) handleCommand(ctx context.Context, message *telego.Message) {
	cmd := strings.SplitN(message.Text, " ", 2)[0]
	cmd = strings.TrimSuffix(cmd, "@"+c.bot.Username())

	switch cmd {
	case "/start":
		if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), startGreeting)); err != nil {
			slog.Warn("failed to send /start greeting", "chat_id", message.Chat.ID, "error", err)
		}
	default:
		slog.Debug("ignoring unknown command", "command", cmd, "chat_id", message.Chat.ID)
	}
}
