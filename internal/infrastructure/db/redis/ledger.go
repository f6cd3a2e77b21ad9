package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Delivered events are remembered long enough to cover any realistic retry
// window; an appointment sees each event type at most once anyway.
const deliveredTTL = 30 * 24 * time.Hour

// DeliveryLedger records which (appointment, event) fan-outs have completed,
// backed by Redis. Key format: delivered:<appointment_id>:<event>
type DeliveryLedger struct {
	client *redis.Client
}

// NewDeliveryLedger creates a DeliveryLedger wrapping the given Redis client.
func NewDeliveryLedger(client *redis.Client) *DeliveryLedger {
	return &DeliveryLedger{client: client}
}

// IsDelivered reports whether this event has already been fanned out.
func (l *DeliveryLedger) IsDelivered(ctx context.Context, appointmentID, event string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(appointmentID, event)).Result()
	if err != nil {
		return false, fmt.Errorf("delivery check: %w", err)
	}
	return n > 0, nil
}

// Mark records a completed fan-out (expires after deliveredTTL).
func (l *DeliveryLedger) Mark(ctx context.Context, appointmentID, event string) error {
	return l.client.Set(ctx, l.key(appointmentID, event), "1", deliveredTTL).Err()
}

func (l *DeliveryLedger) key(appointmentID, event string) string {
	return fmt.Sprintf("delivered:%s:%s", appointmentID, event)
}
