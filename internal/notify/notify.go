// Package notify carries change events for an account's flight data
// over redis pub/sub. Events are bare pokes: subscribers run a full
// reload rather than patching from payloads, because the in-memory
// join across flights, passengers and infants makes partial patches
// error-prone.
package notify

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

func channelFor(scopeID string) string {
	return "changes:" + scopeID
}

// Publisher announces writes to an account's flight-related tables.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPublisher constructs a Publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// PublishChange notifies all sessions on the scope that its data
// changed. Delivery is best effort: a failed publish only costs other
// sessions a reload they will get on their next one.
func (p *Publisher) PublishChange(ctx context.Context, scopeID string) {
	if p == nil || p.client == nil {
		return
	}
	if err := p.client.Publish(ctx, channelFor(scopeID), "changed").Err(); err != nil {
		p.logger.Warn("publish change failed", slog.String("scope", scopeID), slog.Any("error", err))
	}
}

// Listener consumes change events for a scope and invokes the callback
// once per event. It blocks until the context is cancelled.
type Listener struct {
	client *redis.Client
	logger *slog.Logger
}

// NewListener constructs a Listener.
func NewListener(client *redis.Client, logger *slog.Logger) *Listener {
	return &Listener{client: client, logger: logger}
}

// Subscribe consumes events for scopeID until ctx is cancelled. The
// subscription is closed on return so a stale scope can never keep
// firing reloads.
func (l *Listener) Subscribe(ctx context.Context, scopeID string, onChange func(context.Context)) error {
	sub := l.client.Subscribe(ctx, channelFor(scopeID))
	defer func() {
		if err := sub.Close(); err != nil {
			l.logger.Warn("subscription close failed", slog.String("scope", scopeID), slog.Any("error", err))
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			onChange(ctx)
		}
	}
}
