package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/challans/internal/domain/models"
)

// PendingTTL is how long an unconfirmed return stays pending.
const PendingTTL = 15 * time.Minute

// ErrNoPendingConfirmation is returned for unknown, consumed or expired tokens.
var ErrNoPendingConfirmation = errors.New("no pending return confirmation")

// Pending is a return awaiting confirmation.
type Pending struct {
	Token     string                `json:"token"`
	Item      models.ReturnableItem `json:"item"`
	CreatedAt time.Time             `json:"created_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// Confirmations gates MarkReturned behind an explicit confirm step.
type Confirmations struct {
	tracker *Tracker
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]Pending
}

// NewConfirmations builds the gate. A non-positive ttl means PendingTTL.
func NewConfirmations(tracker *Tracker, ttl time.Duration) *Confirmations {
	if ttl <= 0 {
		ttl = PendingTTL
	}
	return &Confirmations{
		tracker: tracker,
		ttl:     ttl,
		now:     time.Now,
		pending: make(map[string]Pending),
	}
}

// Begin opens a pending confirmation for an item present in the projection.
func (c *Confirmations) Begin(ctx context.Context, key models.ItemKey) (Pending, error) {
	item, err := c.tracker.Find(ctx, key)
	if err != nil {
		return Pending{}, err
	}

	now := c.now()
	p := Pending{
		Token:     uuid.NewString(),
		Item:      item,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(now)
	c.pending[p.Token] = p
	return p, nil
}

// Confirm consumes token and marks its item as returned.
func (c *Confirmations) Confirm(ctx context.Context, token string) (models.ReturnableItem, error) {
	p, err := c.take(token)
	if err != nil {
		return models.ReturnableItem{}, err
	}
	return c.tracker.MarkReturned(ctx, p.Item.Key())
}

// Cancel discards token without touching any record.
func (c *Confirmations) Cancel(token string) error {
	_, err := c.take(token)
	return err
}

// Len reports how many confirmations are pending.
func (c *Confirmations) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(c.now())
	return len(c.pending)
}

func (c *Confirmations) take(token string) (Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(c.now())
	p, ok := c.pending[token]
	if !ok {
		return Pending{}, ErrNoPendingConfirmation
	}
	delete(c.pending, token)
	return p, nil
}

func (c *Confirmations) prune(now time.Time) {
	for token, p := range c.pending {
		if !now.Before(p.ExpiresAt) {
			delete(c.pending, token)
		}
	}
}
