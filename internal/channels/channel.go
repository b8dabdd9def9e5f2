package channels

import "context"

// Channel is a messaging transport: it delivers inbound events onto the bus
// and sends outbound notices back to senders. Telegram is the only
// implementation today; the seam exists so another transport can be added
// without touching the intake core.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
