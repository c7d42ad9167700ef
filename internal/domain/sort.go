package domain

import (
	"fmt"
	"strings"

	"viewengine/internal/apperror"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection accepts asc/desc in any case; empty means asc.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	}
	return "", fmt.Errorf("invalid sort direction %q: must be asc or desc", s)
}

// SortState with an empty ColumnID means unsorted.
type SortState struct {
	ColumnID  string        `json:"columnId,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

func (s SortState) IsSet() bool {
	return s.ColumnID != ""
}

func (s SortState) Equal(o SortState) bool {
	if !s.IsSet() && !o.IsSet() {
		return true
	}
	return s.ColumnID == o.ColumnID && s.normalizedDirection() == o.normalizedDirection()
}

func (s SortState) normalizedDirection() SortDirection {
	if s.Direction == "" {
		return SortAsc
	}
	return s.Direction
}

func (s SortState) Validate(schema Schema) error {
	if !s.IsSet() {
		return nil
	}
	if s.Direction != "" && s.Direction != SortAsc && s.Direction != SortDesc {
		return apperror.NewValidation(RuleUnsortableColumn, fmt.Sprintf("invalid sort direction %q", s.Direction))
	}
	prop, ok := schema.PropertyByID(s.ColumnID)
	if !ok {
		return apperror.NewValidation(RuleUnknownColumn, fmt.Sprintf("unknown sort column %q", s.ColumnID))
	}
	if !prop.Sortable {
		return apperror.NewValidation(RuleUnsortableColumn, fmt.Sprintf("column %q is not sortable", prop.Label()))
	}
	return nil
}
