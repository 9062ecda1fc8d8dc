package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Realtime event names delivered on ticket channels.
const (
	RealtimeEventUpdate  = "ticket:update"
	RealtimeEventComment = "ticket:comment"
)

// TicketChannel returns the pub/sub channel name for a ticket.
func TicketChannel(ticketID string) string {
	return fmt.Sprintf("ticket-%s", ticketID)
}

// RealtimeUpdate is the summary payload pushed to subscribers.
type RealtimeUpdate struct {
	TicketID   string `json:"ticketId"`
	UpdatedBy  string `json:"updatedBy"`
	Timestamp  string `json:"timestamp"`
	Status     string `json:"status,omitempty"`
	Priority   string `json:"priority,omitempty"`
	AssignedTo string `json:"assignedTo,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// RealtimePublisher pushes events to the realtime channel.
type RealtimePublisher interface {
	Publish(ctx context.Context, channel, event string, payload RealtimeUpdate) error
}

type redisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps a redis client as a realtime publisher.
func NewRedisPublisher(client *redis.Client) RealtimePublisher {
	return &redisPublisher{client: client}
}

type realtimeEnvelope struct {
	Event string         `json:"event"`
	Data  RealtimeUpdate `json:"data"`
}

func (p *redisPublisher) Publish(ctx context.Context, channel, event string, payload RealtimeUpdate) error {
	if payload.Timestamp == "" {
		payload.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(realtimeEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, channel, body).Err()
}
