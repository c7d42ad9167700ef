package domain

import (
	"fmt"
	"slices"

	"viewengine/internal/apperror"
	"viewengine/internal/ordering"
)

const MaxFrozenColumns = 3

// ColumnState is the visible column order plus how many leading columns are
// frozen. The first visible column is always the module's primary column.
type ColumnState struct {
	VisibleColumnIDs []string `json:"visibleColumnIds"`
	FrozenCount      int      `json:"frozenCount"`
}

func (c ColumnState) Clone() ColumnState {
	return ColumnState{VisibleColumnIDs: slices.Clone(c.VisibleColumnIDs), FrozenCount: c.FrozenCount}
}

func (c ColumnState) Equal(o ColumnState) bool {
	return c.FrozenCount == o.FrozenCount && slices.Equal(c.VisibleColumnIDs, o.VisibleColumnIDs)
}

func (c ColumnState) IsVisible(id string) bool {
	return slices.Contains(c.VisibleColumnIDs, id)
}

// Validate checks the structural invariants against the primary column id.
func (c ColumnState) Validate(primaryID string) error {
	if len(c.VisibleColumnIDs) == 0 {
		return apperror.NewValidation(RuleMalformedColumnState, "at least the primary column must be visible")
	}
	if c.VisibleColumnIDs[0] != primaryID {
		return apperror.NewValidation(RulePrimaryColumn,
			fmt.Sprintf("first visible column must be %q, got %q", primaryID, c.VisibleColumnIDs[0]))
	}
	if c.FrozenCount < 0 || c.FrozenCount > MaxFrozenColumns {
		return apperror.NewValidation(RuleFrozenCount,
			fmt.Sprintf("frozen column count must be between 0 and %d", MaxFrozenColumns))
	}
	if c.FrozenCount > len(c.VisibleColumnIDs) {
		return apperror.NewValidation(RuleFrozenCount,
			fmt.Sprintf("cannot freeze %d of %d visible columns", c.FrozenCount, len(c.VisibleColumnIDs)))
	}

	seen := make(map[string]bool, len(c.VisibleColumnIDs))
	for _, id := range c.VisibleColumnIDs {
		if seen[id] {
			return apperror.NewValidation(RuleMalformedColumnState, fmt.Sprintf("column %q listed twice", id))
		}
		seen[id] = true
	}
	return nil
}

// Show appends a hidden column at the end.
func (c ColumnState) Show(id string) ColumnState {
	if c.IsVisible(id) {
		return c.Clone()
	}
	out := c.Clone()
	out.VisibleColumnIDs = append(out.VisibleColumnIDs, id)
	return out
}

// Hide removes a column. The primary column cannot be hidden; the frozen
// count shrinks with the visible list.
func (c ColumnState) Hide(id string) (ColumnState, error) {
	i := slices.Index(c.VisibleColumnIDs, id)
	if i < 0 {
		return c, apperror.NewValidation(RuleUnknownColumn, fmt.Sprintf("column %q is not visible", id))
	}
	if i == 0 {
		return c, apperror.NewValidation(RulePrimaryColumn, fmt.Sprintf("primary column %q cannot be hidden", id))
	}

	out := c.Clone()
	out.VisibleColumnIDs = slices.Delete(out.VisibleColumnIDs, i, i+1)
	if i < out.FrozenCount {
		out.FrozenCount--
	}
	out.FrozenCount = min(out.FrozenCount, len(out.VisibleColumnIDs))
	return out, nil
}

// Move reorders visible columns. The primary column stays at index 0.
func (c ColumnState) Move(from, to int) (ColumnState, error) {
	if from == 0 || to == 0 {
		if from == to {
			return c.Clone(), nil
		}
		return c, apperror.NewValidation(RulePrimaryColumn, "the primary column must stay first")
	}

	ids, err := ordering.Move(c.VisibleColumnIDs, from, to)
	if err != nil {
		return c, apperror.NewValidation(RuleMalformedColumnState, err.Error())
	}
	return ColumnState{VisibleColumnIDs: ids, FrozenCount: c.FrozenCount}, nil
}

func (c ColumnState) SetFrozen(n int) (ColumnState, error) {
	if n < 0 || n > MaxFrozenColumns {
		return c, apperror.NewValidation(RuleFrozenCount,
			fmt.Sprintf("frozen column count must be between 0 and %d", MaxFrozenColumns))
	}
	if n > len(c.VisibleColumnIDs) {
		return c, apperror.NewValidation(RuleFrozenCount,
			fmt.Sprintf("cannot freeze %d of %d visible columns", n, len(c.VisibleColumnIDs)))
	}
	out := c.Clone()
	out.FrozenCount = n
	return out, nil
}
