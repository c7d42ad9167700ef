package ordering

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_ConfirmsMove(t *testing.T) {
	var persisted []string
	c := NewCoordinator([]string{"A", "B", "C", "D"}, func(ctx context.Context, ids []string) error {
		persisted = ids
		return nil
	})

	order, err := c.Move(context.Background(), 3, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "D", "B", "C"}, order)
	assert.Equal(t, order, persisted)
	assert.Equal(t, order, c.Confirmed())
	assert.Equal(t, PhaseConfirmed, c.Phase())
}

func TestCoordinator_PendingDuringPersist(t *testing.T) {
	var c *Coordinator
	c = NewCoordinator([]string{"A", "B", "C"}, func(ctx context.Context, ids []string) error {
		assert.Equal(t, PhasePending, c.Phase())
		assert.Equal(t, []string{"B", "A", "C"}, c.Order())
		assert.Equal(t, []string{"A", "B", "C"}, c.Confirmed())
		return nil
	})

	_, err := c.Move(context.Background(), 0, 1)
	require.NoError(t, err)
}

func TestCoordinator_RevertsOnFailure(t *testing.T) {
	boom := errors.New("gateway down")
	var reverted error

	c := NewCoordinator([]string{"A", "B", "C"}, func(ctx context.Context, ids []string) error {
		return boom
	})
	c.OnRevert(func(err error) { reverted = err })

	order, err := c.Move(context.Background(), 2, 0)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"A", "B", "C"}, order)
	assert.Equal(t, []string{"A", "B", "C"}, c.Order())
	assert.Equal(t, PhaseConfirmed, c.Phase())
	assert.ErrorIs(t, reverted, boom)
}

func TestCoordinator_NoOpMoveSkipsPersist(t *testing.T) {
	calls := 0
	c := NewCoordinator([]string{"A", "D", "B", "C"}, func(ctx context.Context, ids []string) error {
		calls++
		return nil
	})

	order, err := c.MoveID(context.Background(), "D", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D", "B", "C"}, order)
	assert.Equal(t, 0, calls)
}

func TestCoordinator_SupersededConfirmationDoesNotRevert(t *testing.T) {
	var c *Coordinator
	first := true
	c = NewCoordinator([]string{"A", "B", "C"}, func(ctx context.Context, ids []string) error {
		if first {
			first = false
			c.Reset([]string{"C", "B", "A"})
			return errors.New("late failure")
		}
		return nil
	})

	order, err := c.Move(context.Background(), 0, 2)
	assert.Error(t, err)
	assert.Equal(t, []string{"C", "B", "A"}, order)
	assert.Equal(t, []string{"C", "B", "A"}, c.Confirmed())
}
