// Package ordering implements the reorder primitive shared by view tabs and
// visible columns. Positions are implied by slice index, so every result is
// dense and contiguous by construction.
package ordering

import (
	"fmt"
	"slices"
)

// Move returns a copy of ids with the element at from placed at to.
// Moving an element onto its current index returns an unchanged copy.
func Move(ids []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(ids) {
		return nil, fmt.Errorf("move source index %d out of range [0, %d)", from, len(ids))
	}
	if to < 0 || to >= len(ids) {
		return nil, fmt.Errorf("move target index %d out of range [0, %d)", to, len(ids))
	}

	out := slices.Clone(ids)
	if from == to {
		return out, nil
	}

	item := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, item)
	return out, nil
}

// MoveID moves the element equal to id to index to.
func MoveID(ids []string, id string, to int) ([]string, error) {
	from := slices.Index(ids, id)
	if from < 0 {
		return nil, errUnknownID(id)
	}
	return Move(ids, from, to)
}

// Positions maps each id to its dense index.
func Positions(ids []string) map[string]int {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	return pos
}

// ValidatePermutation checks that next contains exactly the ids of current,
// each once.
func ValidatePermutation(current, next []string) error {
	if len(current) != len(next) {
		return fmt.Errorf("reorder has %d ids, expected %d", len(next), len(current))
	}

	want := make(map[string]bool, len(current))
	for _, id := range current {
		want[id] = true
	}

	seen := make(map[string]bool, len(next))
	for _, id := range next {
		if !want[id] {
			return fmt.Errorf("reorder contains unknown id %q", id)
		}
		if seen[id] {
			return fmt.Errorf("reorder contains duplicate id %q", id)
		}
		seen[id] = true
	}

	return nil
}

func errUnknownID(id string) error {
	return fmt.Errorf("id %q not in order", id)
}
