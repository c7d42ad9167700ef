package domain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"viewengine/internal/apperror"
)

// configured engine ceilings
type Limits struct {
	MaxGroups             int
	MaxConditionsPerGroup int
	DefaultPageSize       int
	MaxPageSize           int
}

func DefaultLimits() Limits {
	return Limits{
		MaxGroups:             2,
		MaxConditionsPerGroup: 20,
		DefaultPageSize:       25,
		MaxPageSize:           200,
	}
}

// validation rule names carried in apperror details
const (
	RuleMaxGroups            = "max_groups"
	RuleMaxConditions        = "max_conditions_per_group"
	RuleUnknownGroup         = "unknown_group"
	RuleUnknownCondition     = "unknown_condition"
	RuleUnknownProperty      = "unknown_property"
	RuleNotFilterable        = "property_not_filterable"
	RulePropertyRequired     = "property_required"
	RuleIllegalOperator      = "illegal_operator"
	RuleValueNotAllowed      = "value_not_allowed"
	RuleSecondaryNotAllowed  = "secondary_value_not_allowed"
	RuleUnitNotAllowed       = "unit_not_allowed"
	RuleValueKind            = "value_kind"
	RuleDuplicateID          = "duplicate_id"
	RuleMalformedColumnState = "malformed_column_state"
	RulePrimaryColumn        = "primary_column_fixed"
	RuleFrozenCount          = "frozen_count"
	RuleUnsortableColumn     = "unsortable_column"
	RuleUnknownColumn        = "unknown_column"
	RuleInvalidView          = "invalid_view"
	RuleInvalidModule        = "invalid_module"
	RuleLastFallbackView     = "last_fallback_view"
	RuleInvalidReorder       = "invalid_reorder"
)

// ConditionPatch carries the fields to change on a condition. Nil fields are
// left untouched.
type ConditionPatch struct {
	PropertyID     *string
	Operator       *Operator
	Value          *FilterValue
	SecondaryValue *FilterValue
	Unit           *DateUnit
	ClearValue     bool
}

// FilterEditor applies mutations to a FilterGroupSet. Every method returns a
// new set; on error the input is returned untouched.
type FilterEditor struct {
	schema Schema
	limits Limits
	newID  func() string
}

func NewFilterEditor(schema Schema, limits Limits) *FilterEditor {
	return &FilterEditor{schema: schema, limits: limits, newID: uuid.NewString}
}

// WithIDGenerator replaces the id source, for deterministic tests.
func (e *FilterEditor) WithIDGenerator(fn func() string) *FilterEditor {
	e.newID = fn
	return e
}

func (e *FilterEditor) Limits() Limits {
	return e.limits
}

func (e *FilterEditor) AddGroup(set FilterGroupSet) (FilterGroupSet, string, error) {
	if len(set) >= e.limits.MaxGroups {
		return set, "", apperror.NewValidation(RuleMaxGroups,
			fmt.Sprintf("a filter can have at most %d groups", e.limits.MaxGroups)).
			WithDetail("limit", e.limits.MaxGroups)
	}

	id := e.newID()
	out := append(set.Clone(), FilterGroup{ID: id, Conditions: []FilterCondition{}})
	return out, id, nil
}

// AddCondition appends a condition with no property selected.
func (e *FilterEditor) AddCondition(set FilterGroupSet, groupID string) (FilterGroupSet, string, error) {
	gi := set.groupIndex(groupID)
	if gi < 0 {
		return set, "", unknownGroup(groupID)
	}
	if len(set[gi].Conditions) >= e.limits.MaxConditionsPerGroup {
		return set, "", apperror.NewValidation(RuleMaxConditions,
			fmt.Sprintf("a filter group can have at most %d conditions", e.limits.MaxConditionsPerGroup)).
			WithDetail("limit", e.limits.MaxConditionsPerGroup).
			WithDetail("group_id", groupID)
	}

	id := e.newID()
	out := set.Clone()
	out[gi].Conditions = append(out[gi].Conditions, FilterCondition{ID: id})
	return out, id, nil
}

func (e *FilterEditor) UpdateCondition(set FilterGroupSet, groupID, conditionID string, patch ConditionPatch) (FilterGroupSet, error) {
	gi := set.groupIndex(groupID)
	if gi < 0 {
		return set, unknownGroup(groupID)
	}
	ci := set[gi].conditionIndex(conditionID)
	if ci < 0 {
		return set, unknownCondition(conditionID)
	}

	updated, err := e.applyPatch(set[gi].Conditions[ci].Clone(), patch)
	if err != nil {
		return set, err
	}

	out := set.Clone()
	out[gi].Conditions[ci] = updated
	return out, nil
}

func (e *FilterEditor) applyPatch(c FilterCondition, patch ConditionPatch) (FilterCondition, error) {
	var prop PropertyDescriptor
	hasProp := false
	if c.PropertyID != "" {
		prop, hasProp = e.schema.PropertyByID(c.PropertyID)
	}

	if patch.PropertyID != nil && *patch.PropertyID != c.PropertyID {
		next, err := e.filterableProperty(*patch.PropertyID)
		if err != nil {
			return c, err
		}
		if !hasProp || prop.Type != next.Type {
			c.Operator = DefaultOperator(next.Type)
			c.Value = nil
			c.SecondaryValue = nil
			c.Unit = ""
		}
		c.PropertyID = next.ID
		prop, hasProp = next, true
	}

	if patch.Operator != nil {
		if !hasProp {
			return c, apperror.NewValidation(RulePropertyRequired, "select a property before choosing an operator")
		}
		op := *patch.Operator
		if !IsLegal(prop.Type, op) {
			return c, illegalOperator(prop, op)
		}
		c = retarget(c, prop.Type, op)
	}

	if patch.ClearValue {
		c.Value = nil
		c.SecondaryValue = nil
	}

	if patch.Value != nil {
		if err := checkValue(prop, hasProp, c.Operator, *patch.Value); err != nil {
			return c, err
		}
		c.Value = patch.Value.Ptr()
	}

	if patch.SecondaryValue != nil {
		if RequiresValue(c.Operator) != ArityTwo {
			return c, apperror.NewValidation(RuleSecondaryNotAllowed,
				fmt.Sprintf("operator %q takes no second value", LabelFor(c.Operator)))
		}
		if err := checkValue(prop, hasProp, c.Operator, *patch.SecondaryValue); err != nil {
			return c, err
		}
		c.SecondaryValue = patch.SecondaryValue.Ptr()
	}

	if patch.Unit != nil {
		if !IsRelativeDate(c.Operator) {
			return c, apperror.NewValidation(RuleUnitNotAllowed,
				fmt.Sprintf("operator %q takes no unit", LabelFor(c.Operator)))
		}
		if !patch.Unit.IsValid() {
			return c, apperror.NewValidation(RuleUnitNotAllowed,
				fmt.Sprintf("unit must be day, week, or month, got %q", *patch.Unit))
		}
		c.Unit = *patch.Unit
	}

	return c, nil
}

// retarget switches the operator and drops values the new operator cannot carry.
func retarget(c FilterCondition, t PropertyType, op Operator) FilterCondition {
	prevKind, _ := ExpectedValueKind(t, c.Operator)
	c.Operator = op

	nextKind, takesValue := ExpectedValueKind(t, op)
	if !takesValue || prevKind != nextKind {
		c.Value = nil
		c.SecondaryValue = nil
	}
	if RequiresValue(op) != ArityTwo {
		c.SecondaryValue = nil
	}

	if IsRelativeDate(op) {
		if c.Unit == "" {
			c.Unit = UnitDay
		}
	} else {
		c.Unit = ""
	}
	return c
}

func checkValue(prop PropertyDescriptor, hasProp bool, op Operator, v FilterValue) error {
	if !hasProp {
		return apperror.NewValidation(RulePropertyRequired, "select a property before entering a value")
	}
	want, takesValue := ExpectedValueKind(prop.Type, op)
	if !takesValue {
		return apperror.NewValidation(RuleValueNotAllowed,
			fmt.Sprintf("operator %q takes no value", LabelFor(op)))
	}
	if v.Kind != want {
		return apperror.NewValidation(RuleValueKind,
			fmt.Sprintf("%s %s expects a %s value, got %s", prop.Label(), LabelFor(op), want, v.Kind))
	}
	return nil
}

// RemoveCondition leaves an emptied group in place.
func (e *FilterEditor) RemoveCondition(set FilterGroupSet, groupID, conditionID string) (FilterGroupSet, error) {
	gi := set.groupIndex(groupID)
	if gi < 0 {
		return set, unknownGroup(groupID)
	}
	ci := set[gi].conditionIndex(conditionID)
	if ci < 0 {
		return set, unknownCondition(conditionID)
	}

	out := set.Clone()
	out[gi].Conditions = slices.Delete(out[gi].Conditions, ci, ci+1)
	return out, nil
}

func (e *FilterEditor) RemoveGroup(set FilterGroupSet, groupID string) (FilterGroupSet, error) {
	gi := set.groupIndex(groupID)
	if gi < 0 {
		return set, unknownGroup(groupID)
	}

	out := set.Clone()
	return slices.Delete(out, gi, gi+1), nil
}

// DuplicateGroup inserts a deep copy after the source group. The copy and
// each of its conditions get fresh ids.
func (e *FilterEditor) DuplicateGroup(set FilterGroupSet, groupID string) (FilterGroupSet, string, error) {
	gi := set.groupIndex(groupID)
	if gi < 0 {
		return set, "", unknownGroup(groupID)
	}
	if len(set) >= e.limits.MaxGroups {
		return set, "", apperror.NewValidation(RuleMaxGroups,
			fmt.Sprintf("a filter can have at most %d groups", e.limits.MaxGroups)).
			WithDetail("limit", e.limits.MaxGroups)
	}

	dup := set[gi].Clone()
	dup.ID = e.newID()
	for i := range dup.Conditions {
		dup.Conditions[i].ID = e.newID()
	}

	out := slices.Insert(set.Clone(), gi+1, dup)
	return out, dup.ID, nil
}

// Validate checks a whole set, e.g. one decoded from a URL or a stored view.
// All violations are reported together.
func (e *FilterEditor) Validate(set FilterGroupSet) error {
	var result *multierror.Error

	if len(set) > e.limits.MaxGroups {
		result = multierror.Append(result, apperror.NewValidation(RuleMaxGroups,
			fmt.Sprintf("filter has %d groups, at most %d allowed", len(set), e.limits.MaxGroups)))
	}

	seen := make(map[string]bool)
	for _, g := range set {
		if g.ID == "" || seen[g.ID] {
			result = multierror.Append(result, apperror.NewValidation(RuleDuplicateID,
				fmt.Sprintf("group id %q is empty or reused", g.ID)))
		}
		seen[g.ID] = true

		if len(g.Conditions) > e.limits.MaxConditionsPerGroup {
			result = multierror.Append(result, apperror.NewValidation(RuleMaxConditions,
				fmt.Sprintf("group %s has %d conditions, at most %d allowed", g.ID, len(g.Conditions), e.limits.MaxConditionsPerGroup)))
		}

		for _, c := range g.Conditions {
			if c.ID == "" || seen[c.ID] {
				result = multierror.Append(result, apperror.NewValidation(RuleDuplicateID,
					fmt.Sprintf("condition id %q is empty or reused", c.ID)))
			}
			seen[c.ID] = true

			if err := e.validateCondition(c); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return apperror.NewValidation(RuleInvalidView, err.Error()).WithCause(err)
	}
	return nil
}

func (e *FilterEditor) validateCondition(c FilterCondition) error {
	if c.PropertyID == "" {
		if c.Operator != "" || c.Value != nil || c.SecondaryValue != nil {
			return apperror.NewValidation(RulePropertyRequired,
				fmt.Sprintf("condition %s has an operator or value but no property", c.ID))
		}
		return nil
	}

	prop, err := e.filterableProperty(c.PropertyID)
	if err != nil {
		return err
	}
	if c.Operator == "" {
		return nil
	}
	if !IsLegal(prop.Type, c.Operator) {
		return illegalOperator(prop, c.Operator)
	}

	arity := RequiresValue(c.Operator)
	if arity == ArityNone && (c.Value != nil || c.SecondaryValue != nil) {
		return apperror.NewValidation(RuleValueNotAllowed,
			fmt.Sprintf("condition %s: %q carries no value", c.ID, LabelFor(c.Operator)))
	}
	if arity != ArityTwo && c.SecondaryValue != nil {
		return apperror.NewValidation(RuleSecondaryNotAllowed,
			fmt.Sprintf("condition %s: %q takes no second value", c.ID, LabelFor(c.Operator)))
	}
	if c.Unit != "" && (!IsRelativeDate(c.Operator) || !c.Unit.IsValid()) {
		return apperror.NewValidation(RuleUnitNotAllowed,
			fmt.Sprintf("condition %s: unit %q not allowed for %q", c.ID, c.Unit, LabelFor(c.Operator)))
	}
	for _, v := range []*FilterValue{c.Value, c.SecondaryValue} {
		if v == nil {
			continue
		}
		if err := checkValue(prop, true, c.Operator, *v); err != nil {
			return err
		}
	}
	return nil
}

func (e *FilterEditor) filterableProperty(id string) (PropertyDescriptor, error) {
	prop, ok := e.schema.PropertyByID(id)
	if !ok {
		return prop, apperror.NewValidation(RuleUnknownProperty,
			fmt.Sprintf("unknown property %q", id)).WithDetail("property_id", id)
	}
	if !prop.Filterable {
		return prop, apperror.NewValidation(RuleNotFilterable,
			fmt.Sprintf("property %q cannot be filtered", prop.Label())).WithDetail("property_id", id)
	}
	return prop, nil
}

func illegalOperator(prop PropertyDescriptor, op Operator) error {
	return apperror.NewValidation(RuleIllegalOperator,
		fmt.Sprintf("operator %q is not valid for %s property %q", op, prop.Type, prop.Label())).
		WithDetail("property_id", prop.ID).
		WithDetail("operator", string(op))
}

func unknownGroup(id string) error {
	return apperror.NewValidation(RuleUnknownGroup, fmt.Sprintf("filter group %q does not exist", id))
}

func unknownCondition(id string) error {
	return apperror.NewValidation(RuleUnknownCondition, fmt.Sprintf("filter condition %q does not exist", id))
}
