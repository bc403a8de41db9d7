package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/challans/internal/domain/models"
)

func newGate(t *testing.T) (*Confirmations, *time.Time) {
	t.Helper()
	now := today
	tr := New(newSeededStore(t), nil, fixedClock(&now))
	gate := NewConfirmations(tr, 0)
	gate.now = func() time.Time { return now }
	return gate, &now
}

func TestConfirmationLifecycle(t *testing.T) {
	ctx := context.Background()
	gate, _ := newGate(t)

	p, err := gate.Begin(ctx, models.ItemKey{DCNumber: "DSI/010525/001", ItemID: "a1"})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if p.Token == "" || p.Item.AssetName != "Splicer" {
		t.Fatalf("pending = %+v", p)
	}
	if gate.Len() != 1 {
		t.Fatalf("Len = %d, want 1", gate.Len())
	}

	item, err := gate.Confirm(ctx, p.Token)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if item.ReturnedDate == "" {
		t.Fatal("item not marked")
	}
	if _, err := gate.Confirm(ctx, p.Token); !errors.Is(err, ErrNoPendingConfirmation) {
		t.Fatalf("second Confirm err = %v", err)
	}
}

func TestConfirmationCancel(t *testing.T) {
	ctx := context.Background()
	gate, _ := newGate(t)

	p, err := gate.Begin(ctx, models.ItemKey{DCNumber: "DSI/010525/001", ItemID: "a1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := gate.Cancel(p.Token); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := gate.Cancel(p.Token); !errors.Is(err, ErrNoPendingConfirmation) {
		t.Fatalf("second Cancel err = %v", err)
	}

	items, _ := gate.tracker.Items(ctx)
	if items[0].ReturnedDate != "" {
		t.Fatal("cancel must not mutate")
	}
}

func TestConfirmationExpires(t *testing.T) {
	ctx := context.Background()
	gate, now := newGate(t)

	p, err := gate.Begin(ctx, models.ItemKey{DCNumber: "DSI/010525/001", ItemID: "a1"})
	if err != nil {
		t.Fatal(err)
	}
	*now = now.Add(PendingTTL)
	if _, err := gate.Confirm(ctx, p.Token); !errors.Is(err, ErrNoPendingConfirmation) {
		t.Fatalf("err = %v, want ErrNoPendingConfirmation", err)
	}
}

func TestConfirmationBeginUnknownItem(t *testing.T) {
	gate, _ := newGate(t)
	_, err := gate.Begin(context.Background(), models.ItemKey{DCNumber: "DSI/010525/001", ItemID: "missing"})
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}
