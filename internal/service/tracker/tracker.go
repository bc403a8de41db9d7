package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
)

// ReturnNote is the audit note attached to items marked as returned here.
const ReturnNote = "Marked as returned via tracker"

var (
	// ErrItemNotFound is returned when a key does not address any challan item.
	ErrItemNotFound = errors.New("returnable item not found")
	// ErrNotReturnable is returned when the addressed item is not returnable.
	ErrNotReturnable = errors.New("item is not returnable")
)

// ChallanStore is the slice of the record store the tracker reads and writes.
type ChallanStore interface {
	ListChallans(ctx context.Context) ([]models.Challan, error)
	GetChallan(ctx context.Context, dcNumber string) (models.Challan, error)
	SaveChallan(ctx context.Context, challan models.Challan) (models.Challan, error)
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithClock overrides the clock used to derive today.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLocation sets the timezone in which calendar days are evaluated.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithRefreshHook registers fn to run after every mutation has been reconciled.
func WithRefreshHook(fn func(ctx context.Context)) Option {
	return func(t *Tracker) {
		t.onRefresh = fn
	}
}

// Tracker keeps a flattened projection of every returnable item and
// mutates the underlying challans when items come back.
type Tracker struct {
	store     ChallanStore
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location
	onRefresh func(ctx context.Context)

	mu     sync.RWMutex
	items  []models.ReturnableItem
	loaded bool
}

// New wires a tracker over store.
func New(store ChallanStore, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		store:  store,
		logger: logger,
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Today returns the current instant in the tracker timezone.
func (t *Tracker) Today() time.Time {
	return t.now().In(t.loc)
}

// Refresh rebuilds the projection from the store.
func (t *Tracker) Refresh(ctx context.Context) error {
	challans, err := t.store.ListChallans(ctx)
	if err != nil {
		return fmt.Errorf("load challans: %w", err)
	}
	items := Extract(challans)

	t.mu.Lock()
	t.items = items
	t.loaded = true
	t.mu.Unlock()

	t.logger.Debug("tracker projection refreshed",
		zap.Int("challans", len(challans)),
		zap.Int("returnable_items", len(items)))
	return nil
}

// Items returns a copy of the projection, loading it on first use.
func (t *Tracker) Items(ctx context.Context) ([]models.ReturnableItem, error) {
	if err := t.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.ReturnableItem, len(t.items))
	copy(out, t.items)
	return out, nil
}

// View filters the projection by query and groups it by challan.
func (t *Tracker) View(ctx context.Context, query string) ([]models.ReturnGroup, error) {
	items, err := t.Items(ctx)
	if err != nil {
		return nil, err
	}
	return Build(Filter(items, query), t.Today()), nil
}

// Find looks up one item of the projection.
func (t *Tracker) Find(ctx context.Context, key models.ItemKey) (models.ReturnableItem, error) {
	items, err := t.Items(ctx)
	if err != nil {
		return models.ReturnableItem{}, err
	}
	for _, item := range items {
		if key.Matches(item.DCNumber, item.Item) {
			return item, nil
		}
	}
	return models.ReturnableItem{}, fmt.Errorf("%s on %s: %w", describeKey(key), key.DCNumber, ErrItemNotFound)
}

// MarkReturned stamps the addressed item with today's date and the audit
// note, then persists the owning challan. The projection is patched first and
// restored if the store write fails. Marking an item twice overwrites the date.
func (t *Tracker) MarkReturned(ctx context.Context, key models.ItemKey) (models.ReturnableItem, error) {
	if err := t.ensureLoaded(ctx); err != nil {
		return models.ReturnableItem{}, err
	}

	cmd := &markReturned{key: key, date: models.FormatDate(t.Today()), note: ReturnNote}
	t.mu.Lock()
	cmd.apply(t.items)
	t.mu.Unlock()

	saved, err := t.persist(ctx, cmd)
	if err != nil {
		t.mu.Lock()
		cmd.rollback(t.items)
		t.mu.Unlock()
		t.logger.Warn("mark returned failed, projection rolled back",
			zap.String("dc_number", key.DCNumber),
			zap.String("item", describeKey(key)),
			zap.Error(err))
		return models.ReturnableItem{}, err
	}

	if err := t.Refresh(ctx); err != nil {
		t.logger.Warn("reconcile after mark returned", zap.Error(err))
	}
	if t.onRefresh != nil {
		t.onRefresh(ctx)
	}

	for _, item := range Extract([]models.Challan{saved}) {
		if key.Matches(item.DCNumber, item.Item) {
			t.logger.Info("item marked as returned",
				zap.String("dc_number", item.DCNumber),
				zap.String("asset", item.AssetName),
				zap.String("returned_date", item.ReturnedDate))
			return item, nil
		}
	}
	return models.ReturnableItem{}, fmt.Errorf("%s on %s: %w", describeKey(key), key.DCNumber, ErrItemNotFound)
}

func (t *Tracker) persist(ctx context.Context, cmd *markReturned) (models.Challan, error) {
	challan, err := t.store.GetChallan(ctx, cmd.key.DCNumber)
	if err != nil {
		return models.Challan{}, fmt.Errorf("load challan %s: %w", cmd.key.DCNumber, err)
	}

	idx := -1
	for i, item := range challan.Items {
		if cmd.key.Matches(challan.DCNumber, item) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Challan{}, fmt.Errorf("%s on %s: %w", describeKey(cmd.key), challan.DCNumber, ErrItemNotFound)
	}
	if !challan.Items[idx].Returnable {
		return models.Challan{}, fmt.Errorf("%s on %s: %w", describeKey(cmd.key), challan.DCNumber, ErrNotReturnable)
	}

	challan.Items[idx].ReturnedDate = cmd.date
	challan.Items[idx].ReturnNote = cmd.note

	saved, err := t.store.SaveChallan(ctx, challan)
	if err != nil {
		return models.Challan{}, fmt.Errorf("save challan %s: %w", challan.DCNumber, err)
	}
	return saved, nil
}

func (t *Tracker) ensureLoaded(ctx context.Context) error {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return nil
	}
	return t.Refresh(ctx)
}

// markReturned is the optimistic projection patch for one item. It remembers
// the values it replaced so it can undo itself.
type markReturned struct {
	key  models.ItemKey
	date string
	note string

	applied  bool
	prevDate string
	prevNote string
}

func (c *markReturned) apply(items []models.ReturnableItem) {
	for i := range items {
		if !c.key.Matches(items[i].DCNumber, items[i].Item) {
			continue
		}
		c.applied = true
		c.prevDate = items[i].ReturnedDate
		c.prevNote = items[i].ReturnNote
		items[i].ReturnedDate = c.date
		items[i].ReturnNote = c.note
		return
	}
}

// rollback restores the replaced values. It matches by key so it still finds
// the item after a concurrent refresh, and leaves fresher values alone.
func (c *markReturned) rollback(items []models.ReturnableItem) {
	if !c.applied {
		return
	}
	for i := range items {
		if !c.key.Matches(items[i].DCNumber, items[i].Item) {
			continue
		}
		if items[i].ReturnedDate == c.date && items[i].ReturnNote == c.note {
			items[i].ReturnedDate = c.prevDate
			items[i].ReturnNote = c.prevNote
		}
		return
	}
}

func describeKey(key models.ItemKey) string {
	if key.ItemID != "" {
		return "item " + key.ItemID
	}
	return fmt.Sprintf("line %d (%s)", key.LineIndex, key.AssetName)
}
