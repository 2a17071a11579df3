package domain

import "context"

// Channel is a chat surface (Telegram, CLI, NATS). Start blocks until the
// context is cancelled or the channel fails; inbound traffic is published to
// the bus and outbound traffic is delivered via the bus handler registered
// under the channel's name.
type Channel interface {
	Name() string
	Start(ctx context.Context, bus MessageBus) error
	Stop() error
}
