package ordering

import (
	"context"
	"slices"
	"sync"
)

// PersistFunc confirms an order against durable storage.
type PersistFunc func(ctx context.Context, ids []string) error

// Phase is the confirmation state of a Coordinator.
type Phase int

const (
	PhaseConfirmed Phase = iota
	PhasePending
)

func (p Phase) String() string {
	if p == PhasePending {
		return "pending"
	}
	return "confirmed"
}

// Coordinator applies reorders optimistically and confirms them through a
// PersistFunc. A failed confirmation reverts to the last confirmed order.
// Only the newest in-flight reorder may settle the pending state.
type Coordinator struct {
	mu         sync.Mutex
	confirmed  []string
	current    []string
	phase      Phase
	generation uint64
	persist    PersistFunc
	onRevert   func(err error)
}

func NewCoordinator(ids []string, persist PersistFunc) *Coordinator {
	return &Coordinator{
		confirmed: slices.Clone(ids),
		current:   slices.Clone(ids),
		persist:   persist,
	}
}

// OnRevert registers a callback fired after a failed confirmation is rolled back.
func (c *Coordinator) OnRevert(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRevert = fn
}

// Order returns the order currently shown, including unconfirmed moves.
func (c *Coordinator) Order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.current)
}

// Confirmed returns the last order the persistence layer accepted.
func (c *Coordinator) Confirmed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.confirmed)
}

func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Reset replaces both orders, e.g. after the view list is reloaded.
func (c *Coordinator) Reset(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.confirmed = slices.Clone(ids)
	c.current = slices.Clone(ids)
	c.phase = PhaseConfirmed
}

// Move applies the move locally, then blocks on confirmation. The returned
// slice is the order after settlement.
func (c *Coordinator) Move(ctx context.Context, from, to int) ([]string, error) {
	c.mu.Lock()
	next, err := Move(c.current, from, to)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if slices.Equal(next, c.current) {
		out := slices.Clone(c.current)
		c.mu.Unlock()
		return out, nil
	}

	c.generation++
	gen := c.generation
	c.current = next
	c.phase = PhasePending
	persist := c.persist
	c.mu.Unlock()

	var perr error
	if persist != nil {
		perr = persist(ctx, slices.Clone(next))
	}

	c.mu.Lock()
	if gen != c.generation {
		// a newer move or reset owns the state now
		out := slices.Clone(c.current)
		c.mu.Unlock()
		return out, perr
	}

	var revert func(error)
	if perr != nil {
		c.current = slices.Clone(c.confirmed)
		revert = c.onRevert
	} else {
		c.confirmed = slices.Clone(next)
	}
	c.phase = PhaseConfirmed
	out := slices.Clone(c.current)
	c.mu.Unlock()

	if revert != nil {
		revert(perr)
	}
	return out, perr
}

// MoveID is Move addressed by id.
func (c *Coordinator) MoveID(ctx context.Context, id string, to int) ([]string, error) {
	c.mu.Lock()
	from := slices.Index(c.current, id)
	c.mu.Unlock()
	if from < 0 {
		return nil, errUnknownID(id)
	}
	return c.Move(ctx, from, to)
}
