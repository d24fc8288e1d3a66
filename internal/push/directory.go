package push

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/dukerupert/lovetoday/internal/model"
)

// ErrInvalidSubscription is returned for a subscribe request that cannot be stored.
var ErrInvalidSubscription = errors.New("invalid subscription")

// Store is the persistence behind a Directory. Get returns nil, nil when
// the id is unknown.
type Store interface {
	Upsert(ctx context.Context, sub model.PushSubscription) error
	ListIDs(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*model.PushSubscription, error)
	Delete(ctx context.Context, id string) error
	MarkSent(ctx context.Context, id, date string) error
}

// Directory registers subscribers and their desired delivery time.
type Directory struct {
	store Store
	now   func() time.Time
}

func NewDirectory(s Store) *Directory {
	return &Directory{store: s, now: time.Now}
}

// SubscriberID derives the stable id for an endpoint: the first 32 hex
// characters of its BLAKE2b-256 digest.
func SubscriberID(endpoint string) string {
	sum := blake2b.Sum256([]byte(endpoint))
	return hex.EncodeToString(sum[:])[:32]
}

// Subscribe upserts the subscriber for endpoint and marks it active.
func (d *Directory) Subscribe(ctx context.Context, endpoint string, payload json.RawMessage, tz string, hour, minute int) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("%w: endpoint required", ErrInvalidSubscription)
	}
	if tz == "" {
		return "", fmt.Errorf("%w: tz required", ErrInvalidSubscription)
	}
	// "Local" would resolve to the server's zone, not the subscriber's.
	if tz == "Local" {
		return "", fmt.Errorf("%w: tz must be an IANA zone name", ErrInvalidSubscription)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", fmt.Errorf("%w: unknown time zone %q", ErrInvalidSubscription, tz)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: time %02d:%02d out of range", ErrInvalidSubscription, hour, minute)
	}

	id := SubscriberID(endpoint)
	sub := model.PushSubscription{
		ID:           id,
		Endpoint:     endpoint,
		Subscription: payload,
		Timezone:     tz,
		Hour:         hour,
		Minute:       minute,
		Active:       true,
		CreatedAt:    d.now().UTC(),
	}
	if err := d.store.Upsert(ctx, sub); err != nil {
		return "", fmt.Errorf("subscribe: %w", err)
	}
	return id, nil
}

// List returns the indexed subscriber ids.
func (d *Directory) List(ctx context.Context) ([]string, error) {
	ids, err := d.store.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return ids, nil
}

// Get returns the subscriber record, or nil if it does not exist.
func (d *Directory) Get(ctx context.Context, id string) (*model.PushSubscription, error) {
	sub, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return sub, nil
}

// Deactivate removes the subscriber and its index entry.
func (d *Directory) Deactivate(ctx context.Context, id string) error {
	if err := d.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deactivate subscriber: %w", err)
	}
	return nil
}

// MarkSent records the subscriber-local date of the last delivery.
func (d *Directory) MarkSent(ctx context.Context, id, date string) error {
	if err := d.store.MarkSent(ctx, id, date); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}
