package nostr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/lysyi3m/nostr-comb/app/content"
)

type fakePool struct {
	published     []nostr.Event
	publishRelays [][]string
	publishErr    error

	confirmations int // observations emitted per subscription
	lastFilter    nostr.Filter
	lastSubCtx    context.Context
}

func (f *fakePool) Publish(_ context.Context, relays []string, event nostr.Event) error {
	f.published = append(f.published, event)
	f.publishRelays = append(f.publishRelays, relays)
	return f.publishErr
}

func (f *fakePool) Subscribe(ctx context.Context, relays []string, filter nostr.Filter) <-chan nostr.RelayEvent {
	f.lastFilter = filter
	f.lastSubCtx = ctx

	ch := make(chan nostr.RelayEvent)
	go func() {
		for i := 0; i < f.confirmations; i++ {
			select {
			case ch <- nostr.RelayEvent{}:
			case <-ctx.Done():
				return
			}
		}
		// A live subscription stays open until the caller cancels it
		<-ctx.Done()
	}()
	return ch
}

type fakeSigner struct {
	pubkey     string
	pubkeyErr  error
	failTitles map[string]bool
	signed     int
}

func validPubkey() string {
	return strings.Repeat("ab", 32)
}

func (s *fakeSigner) GetPublicKey(_ context.Context) (string, error) {
	return s.pubkey, s.pubkeyErr
}

func (s *fakeSigner) SignEvent(_ context.Context, event *nostr.Event) error {
	title := ""
	for _, tag := range event.Tags {
		if len(tag) >= 2 && tag[0] == "title" {
			title = tag[1]
		}
	}
	if s.failTitles[title] {
		return errors.New("signing refused")
	}

	s.signed++
	event.ID = fmt.Sprintf("event-%d", s.signed)
	event.Sig = "fake-signature"
	return nil
}

func testPublisher(t *testing.T, pool *fakePool) *Publisher {
	t.Helper()

	publisher := NewPublisher(pool)
	if err := publisher.Init(context.Background(), &fakeSigner{pubkey: validPubkey()}); err != nil {
		t.Fatalf("Failed to init publisher: %v", err)
	}
	return publisher
}

func testArticle(title, path string) content.Article {
	return content.Article{
		Title:       title,
		URL:         "https://news.example.com/" + path,
		PublishedAt: time.Now(),
	}
}

func TestQuorum(t *testing.T) {
	want := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3}
	for n, expected := range want {
		if got := Quorum(n); got != expected {
			t.Errorf("Quorum(%d) = %d, want %d", n, got, expected)
		}
	}
}

func TestPublishNotInitialized(t *testing.T) {
	publisher := NewPublisher(&fakePool{})

	_, err := publisher.Publish(context.Background(), testArticle("T", "t"), "body", nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got: %v", err)
	}
}

func TestInitRejectsInvalidPubkey(t *testing.T) {
	publisher := NewPublisher(&fakePool{})

	err := publisher.Init(context.Background(), &fakeSigner{pubkey: "not-a-key"})
	if err == nil {
		t.Fatal("Expected error for invalid public key")
	}
}

func TestInitPropagatesSignerError(t *testing.T) {
	publisher := NewPublisher(&fakePool{})

	err := publisher.Init(context.Background(), &fakeSigner{pubkeyErr: errors.New("bunker unreachable")})
	if err == nil || !strings.Contains(err.Error(), "bunker unreachable") {
		t.Errorf("Expected wrapped signer error, got: %v", err)
	}
}

func TestPublishDefaultRelays(t *testing.T) {
	pool := &fakePool{confirmations: len(DefaultRelays)}
	publisher := testPublisher(t, pool)

	result, err := publisher.Publish(context.Background(), testArticle("T", "posts/t"), "body", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(pool.publishRelays) != 1 || len(pool.publishRelays[0]) != len(DefaultRelays) {
		t.Errorf("Expected broadcast to the default relay set, got %v", pool.publishRelays)
	}
	if result.Relays != len(DefaultRelays) {
		t.Errorf("Expected result relay count %d, got %d", len(DefaultRelays), result.Relays)
	}
}

func TestPublishFiltersOnEventID(t *testing.T) {
	pool := &fakePool{confirmations: 1}
	publisher := testPublisher(t, pool)

	result, err := publisher.Publish(context.Background(), testArticle("T", "posts/t"), "body", []string{"wss://a"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(pool.lastFilter.IDs) != 1 || pool.lastFilter.IDs[0] != result.EventID {
		t.Errorf("Subscription not filtered on published event id: %v", pool.lastFilter.IDs)
	}
}

func TestPublishResolvesAtQuorum(t *testing.T) {
	relays := []string{"wss://a", "wss://b", "wss://c", "wss://d", "wss://e"}
	pool := &fakePool{confirmations: len(relays)}
	publisher := testPublisher(t, pool)

	start := time.Now()
	result, err := publisher.Publish(context.Background(), testArticle("T", "posts/t"), "body", relays)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Confirmed != 3 {
		t.Errorf("Expected to stop at quorum 3, got %d confirmations", result.Confirmed)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Quorum reached but publish took %v, should not wait for the timeout", elapsed)
	}

	select {
	case <-pool.lastSubCtx.Done():
	case <-time.After(time.Second):
		t.Error("Subscription context not canceled after quorum")
	}
}

func TestPublishResolvesAtTimeoutWithoutConfirmations(t *testing.T) {
	pool := &fakePool{confirmations: 0}
	publisher := testPublisher(t, pool)
	publisher.confirmTimeout = 50 * time.Millisecond

	result, err := publisher.Publish(context.Background(), testArticle("T", "posts/t"), "body", []string{"wss://a", "wss://b"})
	if err != nil {
		t.Fatalf("Confirmation shortfall must not fail the publish, got: %v", err)
	}
	if result.Confirmed != 0 {
		t.Errorf("Expected 0 confirmations, got %d", result.Confirmed)
	}
	if result.EventID == "" {
		t.Error("Expected a signed event id")
	}

	select {
	case <-pool.lastSubCtx.Done():
	case <-time.After(time.Second):
		t.Error("Subscription context not canceled after timeout")
	}
}

func TestPublishAllIsolatesFailures(t *testing.T) {
	pool := &fakePool{confirmations: 1}
	publisher := NewPublisher(pool)

	signer := &fakeSigner{
		pubkey:     validPubkey(),
		failTitles: map[string]bool{"Second": true},
	}
	if err := publisher.Init(context.Background(), signer); err != nil {
		t.Fatalf("Failed to init publisher: %v", err)
	}

	items := []BatchItem{
		{Article: testArticle("First", "posts/first"), Markdown: "one"},
		{Article: testArticle("Second", "posts/second"), Markdown: "two"},
		{Article: testArticle("Third", "posts/third"), Markdown: "three"},
	}

	results := publisher.PublishAll(context.Background(), items, PublishOptions{Relays: []string{"wss://a"}})

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Article.Title != "First" || results[1].Article.Title != "Third" {
		t.Errorf("Results out of order: %v, %v", results[0].Article.Title, results[1].Article.Title)
	}
}

func TestPublishAllSequentialWithDelay(t *testing.T) {
	pool := &fakePool{confirmations: 1}
	publisher := testPublisher(t, pool)

	items := []BatchItem{
		{Article: testArticle("First", "posts/first"), Markdown: "one"},
		{Article: testArticle("Second", "posts/second"), Markdown: "two"},
	}

	start := time.Now()
	results := publisher.PublishAll(context.Background(), items, PublishOptions{
		Relays: []string{"wss://a"},
		Delay:  100 * time.Millisecond,
	})

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	// One delay between two items, none after the last
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond || elapsed > time.Second {
		t.Errorf("Unexpected batch duration %v", elapsed)
	}
}

func TestPublishAllStopsOnContextCancel(t *testing.T) {
	pool := &fakePool{confirmations: 1}
	publisher := testPublisher(t, pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []BatchItem{
		{Article: testArticle("First", "posts/first"), Markdown: "one"},
		{Article: testArticle("Second", "posts/second"), Markdown: "two"},
	}

	results := publisher.PublishAll(ctx, items, PublishOptions{
		Relays: []string{"wss://a"},
		Delay:  time.Hour,
	})

	// The first item still runs; the canceled context short-circuits the
	// inter-item delay instead of sleeping an hour.
	if len(results) != 1 {
		t.Fatalf("Expected 1 result before cancellation, got %d", len(results))
	}
}
