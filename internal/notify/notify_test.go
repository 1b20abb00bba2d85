package notify

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestPublishTriggersSubscribedCallback(t *testing.T) {
	client := newTestClient(t)
	publisher := NewPublisher(client, discardLogger())
	listener := NewListener(client, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- listener.Subscribe(ctx, "owner-x", func(context.Context) {
			fired.Add(1)
		})
	}()

	// Publish until the subscription picks one up; registration of the
	// subscriber races the first publish.
	require.Eventually(t, func() bool {
		publisher.PublishChange(context.Background(), "owner-x")
		return fired.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestSubscribeIgnoresOtherScopes(t *testing.T) {
	client := newTestClient(t)
	publisher := NewPublisher(client, discardLogger())
	listener := NewListener(client, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mine, total atomic.Int32
	doneMine := make(chan error, 1)
	go func() {
		doneMine <- listener.Subscribe(ctx, "owner-x", func(context.Context) {
			mine.Add(1)
			total.Add(1)
		})
	}()
	doneOther := make(chan error, 1)
	go func() {
		doneOther <- listener.Subscribe(ctx, "owner-y", func(context.Context) {
			total.Add(1)
		})
	}()

	require.Eventually(t, func() bool {
		publisher.PublishChange(context.Background(), "owner-y")
		return total.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Zero(t, mine.Load())

	cancel()
	require.ErrorIs(t, <-doneMine, context.Canceled)
	require.ErrorIs(t, <-doneOther, context.Canceled)
}

func TestPublishWithoutClientIsSilent(t *testing.T) {
	var p *Publisher
	p.PublishChange(context.Background(), "owner-x")

	p = NewPublisher(nil, discardLogger())
	p.PublishChange(context.Background(), "owner-x")
}
