package query

import (
	"fmt"
	"strings"

	"viewengine/internal/domain"
)

// Predicate is one resolved comparison. Relative-date operators carry an
// absolute cutoff date in Value.
type Predicate struct {
	Field          string              `json:"field"`
	Type           domain.PropertyType `json:"type"`
	Operator       domain.Operator     `json:"operator"`
	Value          *domain.FilterValue `json:"value,omitempty"`
	SecondaryValue *domain.FilterValue `json:"secondaryValue,omitempty"`
}

func (p Predicate) String() string {
	var sb strings.Builder
	sb.WriteString(p.Field)
	sb.WriteString(" ")
	sb.WriteString(string(p.Operator))
	if p.Value != nil {
		sb.WriteString(" ")
		sb.WriteString(p.Value.String())
	}
	if p.SecondaryValue != nil {
		sb.WriteString(" and ")
		sb.WriteString(p.SecondaryValue.String())
	}
	return sb.String()
}

// Branch AND-combines its predicates. An empty branch is always true.
type Branch []Predicate

// Descriptor OR-combines its branches. A descriptor without branches, or with
// any empty branch, matches every record.
type Descriptor struct {
	Branches []Branch `json:"branches"`
}

func (d Descriptor) MatchesAll() bool {
	if len(d.Branches) == 0 {
		return true
	}
	for _, b := range d.Branches {
		if len(b) == 0 {
			return true
		}
	}
	return false
}

// Fields returns the distinct fields referenced by the descriptor.
func (d Descriptor) Fields() []string {
	seen := make(map[string]bool)
	var fields []string
	for _, b := range d.Branches {
		for _, p := range b {
			if !seen[p.Field] {
				seen[p.Field] = true
				fields = append(fields, p.Field)
			}
		}
	}
	return fields
}

func (d Descriptor) String() string {
	if d.MatchesAll() {
		return "true"
	}
	parts := make([]string, len(d.Branches))
	for i, b := range d.Branches {
		preds := make([]string, len(b))
		for j, p := range b {
			preds[j] = p.String()
		}
		parts[i] = "(" + strings.Join(preds, " AND ") + ")"
	}
	return strings.Join(parts, " OR ")
}

// Request is what an external executor receives.
type Request struct {
	Descriptor    Descriptor           `json:"descriptor"`
	SortField     string               `json:"sortField,omitempty"`
	SortDirection domain.SortDirection `json:"sortDirection,omitempty"`
	Page          int                  `json:"page"`
	PageSize      int                  `json:"pageSize"`
	SearchQuery   string               `json:"searchQuery,omitempty"`
}

// Offset is the zero-based index of the first record on the page.
func (r Request) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.PageSize
}

func (r Request) Validate(limits domain.Limits) error {
	if r.Page < 1 {
		return fmt.Errorf("page must be at least 1, got %d", r.Page)
	}
	if r.PageSize < 1 || (limits.MaxPageSize > 0 && r.PageSize > limits.MaxPageSize) {
		return fmt.Errorf("page size must be between 1 and %d, got %d", limits.MaxPageSize, r.PageSize)
	}
	return nil
}

// Record is one row as seen by an executor.
type Record map[string]any

// Result is an executor's answer to a Request.
type Result struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

// RecordID returns the record's "id" field as a string.
func (r Record) ID() string {
	if id, ok := r["id"]; ok && id != nil {
		return fmt.Sprint(id)
	}
	return ""
}
