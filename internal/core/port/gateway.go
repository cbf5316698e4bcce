package port

import (
	"context"

	"github.com/swiftride/messaging/internal/core/domain"
)

// RealTimeGateway fans a stored message out to the live connections in its
// ride's room. Delivery is best-effort: the gateway persists nothing and
// makes no guarantee beyond connections live at broadcast time.
type RealTimeGateway interface {
	BroadcastMessage(ctx context.Context, msg domain.Message) error
}
