package bus

import "context"

const defaultQueueSize = 256

// MessageBus routes events between the transport channel and the intake
// engine. Inbound and outbound queues are independent so a slow finalization
// never backpressures notification delivery or vice versa.
type MessageBus struct {
	inbound  chan InboundEvent
	outbound chan OutboundNotice
}

// New creates a MessageBus with default queue sizes.
func New() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundEvent, defaultQueueSize),
		outbound: make(chan OutboundNotice, defaultQueueSize),
	}
}

// PublishInbound enqueues an event from the transport. Drops are not possible:
// the call blocks if the queue is full, applying backpressure to polling.
func (b *MessageBus) PublishInbound(ev InboundEvent) {
	b.inbound <- ev
}

// ConsumeInbound blocks until an event is available or ctx is done.
// The second return is false when the context was cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundEvent, bool) {
	select {
	case <-ctx.Done():
		return InboundEvent{}, false
	case ev := <-b.inbound:
		return ev, true
	}
}

// PublishOutbound enqueues a status notice for the transport to deliver.
func (b *MessageBus) PublishOutbound(n OutboundNotice) {
	b.outbound <- n
}

// Notify publishes a plain-text notice for chatID. Satisfies the intake
// engine's Notifier; actual delivery (and failure logging) happens in the
// transport channel consuming the outbound queue.
func (b *MessageBus) Notify(chatID, text string) {
	b.PublishOutbound(OutboundNotice{ChatID: chatID, Text: text})
}

// ConsumeOutbound blocks until a notice is available or ctx is done.
func (b *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundNotice, bool) {
	select {
	case <-ctx.Done():
		return OutboundNotice{}, false
	case n := <-b.outbound:
		return n, true
	}
}
