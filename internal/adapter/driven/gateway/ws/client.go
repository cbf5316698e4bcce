package ws

import "github.com/swiftride/messaging/internal/wire"

// Client is one live connection from the hub's perspective. The transport
// adapter owns connection teardown; the hub only tracks room membership.
type Client interface {
	ID() string
	Send(frame wire.Message) error
	Close() error
}
