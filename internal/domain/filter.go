package domain

import "slices"

// unit of a relative-date operator
type DateUnit string

const (
	UnitDay   DateUnit = "day"
	UnitWeek  DateUnit = "week"
	UnitMonth DateUnit = "month"
)

func (u DateUnit) IsValid() bool {
	return u == UnitDay || u == UnitWeek || u == UnitMonth
}

type FilterCondition struct {
	ID             string       `json:"id"`
	PropertyID     string       `json:"propertyId"`
	Operator       Operator     `json:"operator"`
	Value          *FilterValue `json:"value,omitempty"`
	SecondaryValue *FilterValue `json:"secondaryValue,omitempty"`
	Unit           DateUnit     `json:"unit,omitempty"`
}

func (c FilterCondition) Clone() FilterCondition {
	if c.Value != nil {
		c.Value = c.Value.Ptr()
	}
	if c.SecondaryValue != nil {
		c.SecondaryValue = c.SecondaryValue.Ptr()
	}
	return c
}

func (c FilterCondition) Equal(o FilterCondition) bool {
	return c.ID == o.ID &&
		c.PropertyID == o.PropertyID &&
		c.Operator == o.Operator &&
		c.Unit == o.Unit &&
		valuePtrEqual(c.Value, o.Value) &&
		valuePtrEqual(c.SecondaryValue, o.SecondaryValue)
}

func valuePtrEqual(a, b *FilterValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// IsComplete reports whether the condition has a property, an operator and
// every value its operator requires. Incomplete conditions are skipped at
// compile time.
func (c FilterCondition) IsComplete() bool {
	if c.PropertyID == "" || c.Operator == "" {
		return false
	}
	switch RequiresValue(c.Operator) {
	case ArityTwo:
		return c.Value != nil && !c.Value.IsZero() && c.SecondaryValue != nil && !c.SecondaryValue.IsZero()
	case ArityOne:
		return c.Value != nil && !c.Value.IsZero()
	}
	return true
}

// FilterGroup AND-combines its conditions. An empty group matches every record.
type FilterGroup struct {
	ID         string            `json:"id"`
	Conditions []FilterCondition `json:"conditions"`
}

func (g FilterGroup) Clone() FilterGroup {
	out := FilterGroup{ID: g.ID, Conditions: make([]FilterCondition, len(g.Conditions))}
	for i, c := range g.Conditions {
		out.Conditions[i] = c.Clone()
	}
	return out
}

func (g FilterGroup) Equal(o FilterGroup) bool {
	return g.ID == o.ID && slices.EqualFunc(g.Conditions, o.Conditions, FilterCondition.Equal)
}

func (g FilterGroup) conditionIndex(conditionID string) int {
	return slices.IndexFunc(g.Conditions, func(c FilterCondition) bool { return c.ID == conditionID })
}

// FilterGroupSet OR-combines its groups. An empty set means no filtering.
type FilterGroupSet []FilterGroup

func (s FilterGroupSet) Clone() FilterGroupSet {
	if s == nil {
		return FilterGroupSet{}
	}
	out := make(FilterGroupSet, len(s))
	for i, g := range s {
		out[i] = g.Clone()
	}
	return out
}

// Equal compares structurally; nil and empty sets are equal.
func (s FilterGroupSet) Equal(o FilterGroupSet) bool {
	return slices.EqualFunc(s, o, FilterGroup.Equal)
}

func (s FilterGroupSet) IsEmpty() bool {
	return len(s) == 0
}

func (s FilterGroupSet) groupIndex(groupID string) int {
	return slices.IndexFunc(s, func(g FilterGroup) bool { return g.ID == groupID })
}

// Group returns the group with the given id.
func (s FilterGroupSet) Group(groupID string) (FilterGroup, bool) {
	i := s.groupIndex(groupID)
	if i < 0 {
		return FilterGroup{}, false
	}
	return s[i], true
}

// ConditionCount is the total number of conditions across groups.
func (s FilterGroupSet) ConditionCount() int {
	n := 0
	for _, g := range s {
		n += len(g.Conditions)
	}
	return n
}
