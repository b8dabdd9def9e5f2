package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"
)

// resolveMaxRetries is the number of getFile attempts per reference.
const resolveMaxRetries = 3

// ResolveURL resolves a Telegram file_id to a durable download URL via the
// getFile API. Satisfies the intake engine's MediaResolver.
func (c *Channel) ResolveURL(ctx context.Context, fileID string) (string, error) {
	var file *telego.File
	var err error

	for attempt := 1; attempt <= resolveMaxRetries; attempt++ {
		file, err = c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
		if err == nil {
			break
		}
		if attempt < resolveMaxRetries {
			slog.Debug("retrying getFile", "file_id", fileID, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("get file info after %d attempts: %w", resolveMaxRetries, err)
	}

	if file.FilePath == "" {
		return "", fmt.Errorf("empty file path for file_id %s", fileID)
	}

	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", c.config.Token, file.FilePath), nil
}
