package nostr

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/nbd-wtf/go-nostr/nip46"
)

// Signer produces the author's public key and signs event payloads.
type Signer interface {
	GetPublicKey(ctx context.Context) (string, error)
	SignEvent(ctx context.Context, event *nostr.Event) error
}

var ErrUnsupportedKeyFormat = errors.New("unsupported key format")

// NewSigner resolves the signer variant from the key string once:
// nsec/hex keys sign locally, bunker:// URIs sign through a NIP-46 remote
// signer reached over the shared relay pool. Encrypted ncryptsec keys are
// rejected outright.
func NewSigner(ctx context.Context, key string, pool *RelayPool) (Signer, error) {
	switch {
	case strings.HasPrefix(key, "ncryptsec"):
		return nil, fmt.Errorf("%w: ncryptsec keys are not supported, decrypt the key first", ErrUnsupportedKeyFormat)

	case strings.HasPrefix(key, "bunker://"):
		return newBunkerSigner(ctx, key, pool)

	case strings.HasPrefix(key, "nsec"):
		prefix, value, err := nip19.Decode(key)
		if err != nil {
			return nil, fmt.Errorf("failed to decode nsec key: %w", err)
		}
		if prefix != "nsec" {
			return nil, fmt.Errorf("%w: unexpected bech32 prefix %q", ErrUnsupportedKeyFormat, prefix)
		}
		return &keySigner{secretKey: value.(string)}, nil

	case isHexKey(key):
		return &keySigner{secretKey: strings.ToLower(key)}, nil

	default:
		return nil, fmt.Errorf("%w: expected an nsec key, a 64-character hex key or a bunker:// URI", ErrUnsupportedKeyFormat)
	}
}

func isHexKey(key string) bool {
	if len(key) != 64 {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}

// keySigner holds the private key locally
type keySigner struct {
	secretKey string
}

func (s *keySigner) GetPublicKey(_ context.Context) (string, error) {
	return nostr.GetPublicKey(s.secretKey)
}

func (s *keySigner) SignEvent(_ context.Context, event *nostr.Event) error {
	return event.Sign(s.secretKey)
}

// bunkerSigner delegates signing to a NIP-46 bunker. The round trip runs
// over the same relay pool used for publishing.
type bunkerSigner struct {
	client *nip46.BunkerClient
}

func newBunkerSigner(ctx context.Context, uri string, pool *RelayPool) (*bunkerSigner, error) {
	clientKey := nostr.GeneratePrivateKey()

	client, err := nip46.ConnectBunker(ctx, clientKey, uri, pool.pool, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bunker: %w", err)
	}

	return &bunkerSigner{client: client}, nil
}

func (s *bunkerSigner) GetPublicKey(ctx context.Context) (string, error) {
	return s.client.GetPublicKey(ctx)
}

func (s *bunkerSigner) SignEvent(ctx context.Context, event *nostr.Event) error {
	return s.client.SignEvent(ctx, event)
}
