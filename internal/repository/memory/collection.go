package memory

import (
	"fmt"
	"time"

	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/repository"
)

type record[T any] interface {
	*T
	Metadata() *models.Meta
}

// collection keeps records in insertion order. It is not safe for concurrent
// use; Store serialises access.
type collection[T any, P record[T]] struct {
	name  string
	key   func(*T) string
	clone func(T) T
	order []string
	rows  map[string]T
}

func newCollection[T any, P record[T]](name string, key func(*T) string, clone func(T) T) *collection[T, P] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &collection[T, P]{
		name:  name,
		key:   key,
		clone: clone,
		rows:  make(map[string]T),
	}
}

func (c *collection[T, P]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.clone(c.rows[k]))
	}
	return out
}

func (c *collection[T, P]) get(key string) (T, error) {
	v, ok := c.rows[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", c.name, key, repository.ErrNotFound)
	}
	return c.clone(v), nil
}

func (c *collection[T, P]) save(rec T, now time.Time) (T, error) {
	rec = c.clone(rec)
	k := c.key(&rec)
	meta := P(&rec).Metadata()
	stored, exists := c.rows[k]

	if meta.Version == 0 {
		if exists {
			return rec, fmt.Errorf("%s %s: %w", c.name, k, repository.ErrDuplicate)
		}
		meta.CreatedAt = now
		c.order = append(c.order, k)
	} else {
		if !exists {
			return rec, fmt.Errorf("%s %s: %w", c.name, k, repository.ErrNotFound)
		}
		current := P(&stored).Metadata()
		if current.Version != meta.Version {
			return rec, fmt.Errorf("%s %s at version %d, got %d: %w", c.name, k, current.Version, meta.Version, repository.ErrConflict)
		}
		meta.CreatedAt = current.CreatedAt
	}

	meta.Version++
	meta.UpdatedAt = now
	c.rows[k] = rec
	return c.clone(rec), nil
}

func (c *collection[T, P]) delete(key string) error {
	if _, ok := c.rows[key]; !ok {
		return fmt.Errorf("%s %s: %w", c.name, key, repository.ErrNotFound)
	}
	delete(c.rows, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}
