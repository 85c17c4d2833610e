package nostr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/lysyi3m/nostr-comb/app/content"
)

// DefaultRelays is the relay set used when no override is configured.
var DefaultRelays = []string{
	"wss://relay.damus.io",
	"wss://nos.lol",
	"wss://relay.primal.net",
	"wss://relay.snort.social",
	"wss://nostr.land",
	"wss://nostr-pub.wellorder.net",
	"wss://offchain.pub",
	"wss://relay.nostr.band",
}

// Ceiling on the total confirmation wait per event. Reaching it is not a
// failure: the wait is a best-effort visibility check, not a durability
// guarantee.
const confirmationTimeout = 5 * time.Second

var ErrNotInitialized = errors.New("publisher not initialized: call Init before publishing")

// Publisher signs, broadcasts and confirmation-tracks article events.
type Publisher struct {
	pool   RelayPoolInterface
	signer Signer
	pubkey string

	confirmTimeout time.Duration
}

func NewPublisher(pool RelayPoolInterface) *Publisher {
	return &Publisher{
		pool:           pool,
		confirmTimeout: confirmationTimeout,
	}
}

// Init attaches and validates the signer. Publishing before a successful
// Init fails with ErrNotInitialized.
func (p *Publisher) Init(ctx context.Context, signer Signer) error {
	pubkey, err := signer.GetPublicKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to get public key from signer: %w", err)
	}
	if !nostr.IsValidPublicKey(pubkey) {
		return fmt.Errorf("signer returned invalid public key %q", pubkey)
	}

	p.signer = signer
	p.pubkey = pubkey

	slog.Info("Publisher initialized", "pubkey", pubkey)
	return nil
}

func (p *Publisher) PublicKey() string {
	return p.pubkey
}

// BatchItem is one article ready for publication.
type BatchItem struct {
	Article  content.Article
	Markdown string
}

// PublishOptions are shared by all items of a batch.
type PublishOptions struct {
	Relays []string      // empty means DefaultRelays
	Delay  time.Duration // pause between batch items
}

// PublishResult describes one successfully published article.
type PublishResult struct {
	Article    content.Article
	Identifier string
	EventID    string
	Relays     int
	Confirmed  int
}

// Publish signs the article's event, broadcasts it to every relay and
// waits for quorum confirmation. Broadcast is fire-and-forget per relay;
// confirmation shortfall is logged but never an error.
func (p *Publisher) Publish(ctx context.Context, article content.Article, markdown string, relays []string) (PublishResult, error) {
	if p.signer == nil {
		return PublishResult{}, ErrNotInitialized
	}

	if len(relays) == 0 {
		relays = DefaultRelays
	}

	event := BuildEvent(article, markdown)
	if err := p.signer.SignEvent(ctx, &event); err != nil {
		return PublishResult{}, fmt.Errorf("failed to sign event: %w", err)
	}

	if err := p.pool.Publish(ctx, relays, event); err != nil {
		return PublishResult{}, fmt.Errorf("failed to broadcast event: %w", err)
	}

	confirmed := p.awaitConfirmations(ctx, relays, event.ID)

	quorum := Quorum(len(relays))
	if confirmed >= quorum {
		slog.Info("Event confirmed", "event_id", event.ID, "confirmed", confirmed, "quorum", quorum)
	} else {
		slog.Warn("Confirmation quorum not reached before timeout", "event_id", event.ID, "confirmed", confirmed, "quorum", quorum)
	}

	return PublishResult{
		Article:    article,
		Identifier: Identifier(article.URL),
		EventID:    event.ID,
		Relays:     len(relays),
		Confirmed:  confirmed,
	}, nil
}

// Quorum returns the strict majority of n relays: ceil(n/2).
func Quorum(n int) int {
	return (n + 1) / 2
}

// awaitConfirmations opens one multiplexed subscription filtered on the
// event id and counts observations until quorum or the timeout, whichever
// comes first. The deferred cancel releases the subscription on every
// exit path.
func (p *Publisher) awaitConfirmations(ctx context.Context, relays []string, eventID string) int {
	subCtx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	events := p.pool.Subscribe(subCtx, relays, nostr.Filter{IDs: []string{eventID}})

	quorum := Quorum(len(relays))
	confirmed := 0
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return confirmed
			}
			confirmed++
			if confirmed >= quorum {
				return confirmed
			}
		case <-subCtx.Done():
			return confirmed
		}
	}
}

// PublishAll publishes the items strictly in order, one confirmation wait
// at a time, pausing between items to stay under relay rate limits. A
// failed item is logged and skipped; the returned results hold only the
// successes, in their original relative order.
func (p *Publisher) PublishAll(ctx context.Context, items []BatchItem, opts PublishOptions) []PublishResult {
	var results []PublishResult

	for i, item := range items {
		result, err := p.Publish(ctx, item.Article, item.Markdown, opts.Relays)
		if err != nil {
			slog.Error("Failed to publish article", "title", item.Article.Title, "error", err)
		} else {
			results = append(results, result)
		}

		if i < len(items)-1 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(opts.Delay):
			}
		}
	}

	return results
}
