package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/lovetoday/internal/database"
	"github.com/dukerupert/lovetoday/internal/model"
)

func setupPushTestDB(t *testing.T) *PushStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db)
}

func testSub(id string) model.PushSubscription {
	return model.PushSubscription{
		ID:           id,
		Endpoint:     "https://push.example.com/" + id,
		Subscription: []byte(`{"endpoint":"https://push.example.com/` + id + `"}`),
		Timezone:     "America/Chicago",
		Hour:         8,
		Minute:       2,
		Active:       true,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// subscriptionBackend is satisfied by both push stores.
type subscriptionBackend interface {
	Upsert(ctx context.Context, sub model.PushSubscription) error
	ListIDs(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*model.PushSubscription, error)
	Delete(ctx context.Context, id string) error
	MarkSent(ctx context.Context, id, date string) error
}

func exerciseBackend(t *testing.T, s subscriptionBackend) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing subscription, got %+v", got)
	}

	if err := s.Upsert(ctx, testSub("a")); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if err := s.Upsert(ctx, testSub("b")); err != nil {
		t.Fatalf("upsert b: %v", err)
	}

	updated := testSub("a")
	updated.Hour = 21
	updated.Minute = 30
	updated.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Upsert(ctx, updated); err != nil {
		t.Fatalf("re-upsert a: %v", err)
	}

	ids, err := s.ListIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("len(ids) = %d, want 2 (%v)", len(ids), ids)
	}

	sub, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if sub.Hour != 21 || sub.Minute != 30 {
		t.Errorf("time = %02d:%02d, want 21:30", sub.Hour, sub.Minute)
	}
	if !sub.Active {
		t.Error("expected active subscription")
	}
	if sub.Timezone != "America/Chicago" {
		t.Errorf("tz = %q", sub.Timezone)
	}
	if string(sub.Subscription) != string(testSub("a").Subscription) {
		t.Errorf("payload = %s", sub.Subscription)
	}
	if !sub.CreatedAt.Equal(testSub("a").CreatedAt) {
		t.Errorf("createdAt = %v, want original %v", sub.CreatedAt, testSub("a").CreatedAt)
	}

	if err := s.MarkSent(ctx, "a", "2025-03-04"); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	sub, _ = s.Get(ctx, "a")
	if sub.LastSentDate != "2025-03-04" {
		t.Errorf("lastSentDate = %q", sub.LastSentDate)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ids, _ = s.ListIDs(ctx)
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("ids after delete = %v, want [b]", ids)
	}
	sub, _ = s.Get(ctx, "a")
	if sub != nil {
		t.Errorf("deleted subscription still readable: %+v", sub)
	}
}

func TestPushStore(t *testing.T) {
	exerciseBackend(t, setupPushTestDB(t))
}
