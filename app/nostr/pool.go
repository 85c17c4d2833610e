package nostr

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// RelayPoolInterface is the relay-side capability the publisher needs:
// best-effort broadcast and a live filtered event stream. The stream
// yields one observation per relay that delivers the event and stays open
// until the context is canceled.
type RelayPoolInterface interface {
	Publish(ctx context.Context, relays []string, event nostr.Event) error
	Subscribe(ctx context.Context, relays []string, filter nostr.Filter) <-chan nostr.RelayEvent
}

var _ RelayPoolInterface = (*RelayPool)(nil)

// RelayPool wraps a SimplePool. Created once at process start and shared
// by reference for the process lifetime; the pool reuses its websocket
// connections across publishes and subscriptions.
type RelayPool struct {
	pool *nostr.SimplePool

	subscribe func(ctx context.Context, relays []string, filter nostr.Filter) chan nostr.RelayEvent
}

func NewRelayPool(ctx context.Context) *RelayPool {
	p := &RelayPool{pool: nostr.NewSimplePool(ctx)}
	p.subscribe = func(ctx context.Context, relays []string, filter nostr.Filter) chan nostr.RelayEvent {
		return p.pool.SubscribeMany(ctx, relays, filter)
	}
	return p
}

// Publish broadcasts the event to every relay. Individual relay failures
// are logged and do not fail the call.
func (p *RelayPool) Publish(ctx context.Context, relays []string, event nostr.Event) error {
	for result := range p.pool.PublishMany(ctx, relays, event) {
		if result.Error != nil {
			slog.Warn("Relay did not accept event", "relay", result.RelayURL, "event_id", event.ID, "error", result.Error)
		} else {
			slog.Debug("Relay accepted event", "relay", result.RelayURL, "event_id", event.ID)
		}
	}
	return nil
}

// Subscribe opens one subscription per relay and merges the streams. A
// single multiplexed subscription deduplicates events by id across relays,
// which would collapse confirmations from different relays into a single
// delivery; separate per-relay subscriptions keep one observation per
// relay that has the event.
func (p *RelayPool) Subscribe(ctx context.Context, relays []string, filter nostr.Filter) <-chan nostr.RelayEvent {
	out := make(chan nostr.RelayEvent)

	var wg sync.WaitGroup
	for _, relay := range relays {
		wg.Add(1)
		go func(relay string) {
			defer wg.Done()
			for event := range p.subscribe(ctx, []string{relay}, filter) {
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}(relay)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
