package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
)

// ConverterContext carries what conversion needs beyond the parsed text.
type ConverterContext struct {
	Schema domain.Schema
	Editor *domain.FilterEditor
	Now    func() time.Time
}

// ParseFilterGroupSet parses filter text straight into a FilterGroupSet.
func ParseFilterGroupSet(input string, cc *ConverterContext) (domain.FilterGroupSet, error) {
	parsed, err := ParseQuery(input)
	if err != nil {
		return nil, apperror.NewValidation("filter_syntax", err.Error()).WithCause(err)
	}
	return ConvertToFilterGroupSet(parsed, cc)
}

// ConvertToFilterGroupSet builds the set through the editor, so ceilings and
// operator legality apply exactly as they do to interactive edits.
func ConvertToFilterGroupSet(parsed *ParsedQuery, cc *ConverterContext) (domain.FilterGroupSet, error) {
	set := domain.FilterGroupSet{}
	if len(parsed.Groups) == 1 && len(parsed.Groups[0]) == 0 {
		return set, nil
	}

	now := time.Now
	if cc.Now != nil {
		now = cc.Now
	}

	var result *multierror.Error
	for gi, group := range parsed.Groups {
		if len(group) == 0 {
			result = multierror.Append(result, fmt.Errorf("OR group %d is empty", gi+1))
			continue
		}

		next, groupID, err := cc.Editor.AddGroup(set)
		if err != nil {
			result = multierror.Append(result, err)
			break
		}
		set = next

		for _, qf := range group {
			patch, err := conditionPatch(qf, cc.Schema, now())
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}

			next, condID, err := cc.Editor.AddCondition(set, groupID)
			if err != nil {
				result = multierror.Append(result, err)
				break
			}
			if next, err = cc.Editor.UpdateCondition(next, groupID, condID, patch); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", qf, err))
				continue
			}
			set = next
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return set, apperror.NewValidation("filter_syntax", fmt.Sprintf("conversion errors: %v", err)).WithCause(err)
	}
	return set, nil
}

func conditionPatch(qf QueryFilter, schema domain.Schema, now time.Time) (domain.ConditionPatch, error) {
	prop, ok := schema.PropertyByID(qf.Field)
	if !ok {
		return domain.ConditionPatch{}, fmt.Errorf("unknown filter field: %s", qf.Field)
	}

	propID := prop.ID
	patch := domain.ConditionPatch{PropertyID: &propID}

	value := strings.TrimSpace(qf.Value)
	if !qf.Quoted {
		switch strings.ToLower(value) {
		case "none":
			return withOperator(patch, pick(qf.IsNot || qf.Operator == "!=", domain.OpIsKnown, domain.OpIsUnknown)), nil
		case "any":
			return withOperator(patch, pick(qf.IsNot || qf.Operator == "!=", domain.OpIsUnknown, domain.OpIsKnown)), nil
		}
	}

	var err error
	switch {
	case prop.Type == domain.PropertyNumber:
		err = applyNumberFilter(&patch, qf, value)
	case prop.Type == domain.PropertyDate:
		err = applyDateFilter(&patch, qf, value, now)
	case prop.Type == domain.PropertyBoolean:
		err = applyBooleanFilter(&patch, qf, value)
	case prop.Type.IsChoice():
		err = applyChoiceFilter(&patch, qf, value, prop)
	default:
		err = applyTextFilter(&patch, qf, value)
	}
	if err != nil {
		return patch, fmt.Errorf("%s: %w", qf.Field, err)
	}
	return patch, nil
}

func pick(cond bool, a, b domain.Operator) domain.Operator {
	if cond {
		return a
	}
	return b
}

func withOperator(patch domain.ConditionPatch, op domain.Operator) domain.ConditionPatch {
	patch.Operator = &op
	return patch
}

func applyTextFilter(patch *domain.ConditionPatch, qf QueryFilter, value string) error {
	negated := qf.IsNot || qf.Operator == "!="

	var op domain.Operator
	switch qf.Operator {
	case ":", "=", "!=":
		switch {
		case !qf.Quoted && len(value) > 1 && strings.HasSuffix(value, "*") && !negated:
			op, value = domain.OpStartsWith, strings.TrimSuffix(value, "*")
		case !qf.Quoted && len(value) > 1 && strings.HasPrefix(value, "*") && !negated:
			op, value = domain.OpEndsWith, strings.TrimPrefix(value, "*")
		default:
			op = pick(negated, domain.OpIsNot, domain.OpIs)
		}
	case "~":
		op = pick(negated, domain.OpDoesNotContain, domain.OpContains)
	default:
		return fmt.Errorf("text fields support :, =, !=, and ~, got: %s", qf.Operator)
	}

	*patch = withOperator(*patch, op)
	patch.Value = domain.TextValue(value).Ptr()
	return nil
}

func applyNumberFilter(patch *domain.ConditionPatch, qf QueryFilter, value string) error {
	if lo, hi, ok := strings.Cut(value, ".."); ok {
		if qf.IsNot || (qf.Operator != ":" && qf.Operator != "=") {
			return fmt.Errorf("ranges only support : or =")
		}
		a, err := decimal.NewFromString(strings.TrimSpace(lo))
		if err != nil {
			return fmt.Errorf("invalid range start %q", lo)
		}
		b, err := decimal.NewFromString(strings.TrimSpace(hi))
		if err != nil {
			return fmt.Errorf("invalid range end %q", hi)
		}
		*patch = withOperator(*patch, domain.OpIsBetween)
		patch.Value = domain.NumberValue(a).Ptr()
		patch.SecondaryValue = domain.NumberValue(b).Ptr()
		return nil
	}

	n, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("invalid number %q", value)
	}

	ops := map[string]domain.Operator{
		":":  domain.OpIsEqualTo,
		"=":  domain.OpIsEqualTo,
		"!=": domain.OpIsNotEqualTo,
		">":  domain.OpIsGreaterThan,
		">=": domain.OpIsGreaterOrEqual,
		"<":  domain.OpIsLessThan,
		"<=": domain.OpIsLessOrEqual,
	}
	op, ok := ops[qf.Operator]
	if !ok {
		return fmt.Errorf("number fields do not support %s", qf.Operator)
	}
	if qf.IsNot {
		if op != domain.OpIsEqualTo {
			return fmt.Errorf("negation only supports equality on numbers")
		}
		op = domain.OpIsNotEqualTo
	}

	*patch = withOperator(*patch, op)
	patch.Value = domain.NumberValue(n).Ptr()
	return nil
}

func applyDateFilter(patch *domain.ConditionPatch, qf QueryFilter, value string, now time.Time) error {
	if qf.IsNot || qf.Operator == "!=" || qf.Operator == "~" {
		return fmt.Errorf("date fields support :, =, <, <=, >, and >=, got: %s", qf.Operator)
	}

	if lo, hi, ok := strings.Cut(value, ".."); ok {
		if qf.Operator != ":" && qf.Operator != "=" {
			return fmt.Errorf("ranges only support : or =")
		}
		start, err := ParseDateValue(lo, now)
		if err != nil {
			return fmt.Errorf("invalid range start: %w", err)
		}
		end, err := ParseDateValue(hi, now)
		if err != nil {
			return fmt.Errorf("invalid range end: %w", err)
		}
		*patch = withOperator(*patch, domain.OpIsBetween)
		patch.Value = domain.DateValue(start).Ptr()
		patch.SecondaryValue = domain.DateValue(end).Ptr()
		return nil
	}

	// created>-7d: newer than seven days ago
	if strings.HasPrefix(value, "-") && (qf.Operator == ">" || qf.Operator == "<") {
		if n, unit, err := ParseRelativeAmount(value); err == nil {
			op := pick(qf.Operator == ">", domain.OpIsLessThanNAgo, domain.OpIsMoreThanNAgo)
			*patch = withOperator(*patch, op)
			patch.Value = domain.IntValue(n).Ptr()
			patch.Unit = &unit
			return nil
		}
	}

	t, err := ParseDateValue(value, now)
	if err != nil {
		return err
	}

	var op domain.Operator
	switch qf.Operator {
	case ":", "=":
		op = domain.OpIs
	case ">":
		op = domain.OpIsAfter
	case ">=":
		op, t = domain.OpIsAfter, t.AddDate(0, 0, -1)
	case "<":
		op = domain.OpIsBefore
	case "<=":
		op, t = domain.OpIsBefore, t.AddDate(0, 0, 1)
	}

	*patch = withOperator(*patch, op)
	patch.Value = domain.DateValue(t).Ptr()
	return nil
}

func applyBooleanFilter(patch *domain.ConditionPatch, qf QueryFilter, value string) error {
	if qf.Operator != ":" && qf.Operator != "=" && qf.Operator != "!=" {
		return fmt.Errorf("boolean fields only support :, =, and !=, got: %s", qf.Operator)
	}

	var b bool
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		b = true
	case "false", "no", "0":
		b = false
	default:
		return fmt.Errorf("invalid boolean value: %s (must be true or false)", value)
	}
	if qf.IsNot || qf.Operator == "!=" {
		b = !b
	}

	*patch = withOperator(*patch, pick(b, domain.OpIsTrue, domain.OpIsFalse))
	return nil
}

func applyChoiceFilter(patch *domain.ConditionPatch, qf QueryFilter, value string, prop domain.PropertyDescriptor) error {
	if qf.Operator != ":" && qf.Operator != "=" && qf.Operator != "!=" {
		return fmt.Errorf("%s fields only support :, =, and !=, got: %s", prop.Type, qf.Operator)
	}

	var items []string
	for _, raw := range strings.Split(value, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		canonical, err := canonicalOption(item, prop)
		if err != nil {
			return err
		}
		items = append(items, canonical)
	}
	if len(items) == 0 {
		return fmt.Errorf("expected at least one value")
	}

	negated := qf.IsNot || qf.Operator == "!="
	*patch = withOperator(*patch, pick(negated, domain.OpIsNoneOf, domain.OpIsAnyOf))
	patch.Value = domain.ListValue(items...).Ptr()
	return nil
}

// canonicalOption matches declared options case-insensitively.
func canonicalOption(item string, prop domain.PropertyDescriptor) (string, error) {
	if len(prop.Options) == 0 {
		return item, nil
	}
	for _, opt := range prop.Options {
		if strings.EqualFold(opt, item) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("invalid value: %s (must be one of %s)", item, strings.Join(prop.Options, ", "))
}

// FormatFilterGroupSet renders a set back into filter text. Conditions the
// text syntax cannot express are rendered with their operator name.
func FormatFilterGroupSet(set domain.FilterGroupSet, schema domain.Schema) string {
	groups := make([]string, 0, len(set))
	for _, g := range set {
		parts := make([]string, 0, len(g.Conditions))
		for _, c := range g.Conditions {
			if !c.IsComplete() {
				continue
			}
			parts = append(parts, formatCondition(c))
		}
		groups = append(groups, strings.Join(parts, " "))
	}
	return strings.Join(groups, " | ")
}

func formatCondition(c domain.FilterCondition) string {
	qf := QueryFilter{Field: c.PropertyID, Operator: ":"}
	if c.Value != nil {
		qf.Value = c.Value.String()
	}

	switch c.Operator {
	case domain.OpIsKnown:
		qf.Value = "any"
	case domain.OpIsUnknown:
		qf.Value = "none"
	case domain.OpIsTrue:
		qf.Value = "true"
	case domain.OpIsFalse:
		qf.Value = "false"
	case domain.OpIs, domain.OpIsEqualTo, domain.OpIsAnyOf:
		qf.Quoted = strings.ContainsAny(qf.Value, "*|:") && c.Operator == domain.OpIs
	case domain.OpIsNot, domain.OpIsNotEqualTo, domain.OpIsNoneOf:
		qf.Operator = "!="
	case domain.OpContains:
		qf.Operator = "~"
	case domain.OpDoesNotContain:
		qf.Operator, qf.IsNot = "~", true
	case domain.OpStartsWith:
		qf.Value += "*"
	case domain.OpEndsWith:
		qf.Value = "*" + qf.Value
	case domain.OpIsGreaterThan:
		qf.Operator = ">"
	case domain.OpIsGreaterOrEqual:
		qf.Operator = ">="
	case domain.OpIsLessThan:
		qf.Operator = "<"
	case domain.OpIsLessOrEqual:
		qf.Operator = "<="
	case domain.OpIsAfter:
		qf.Operator = ">"
	case domain.OpIsBefore:
		qf.Operator = "<"
	case domain.OpIsBetween:
		if c.SecondaryValue != nil {
			qf.Value += ".." + c.SecondaryValue.String()
		}
	case domain.OpIsLessThanNAgo, domain.OpIsMoreThanNAgo:
		qf.Operator = "<"
		if c.Operator == domain.OpIsLessThanNAgo {
			qf.Operator = ">"
		}
		qf.Value = "-" + qf.Value + unitSuffix(c.Unit)
	}
	return qf.String()
}

func unitSuffix(u domain.DateUnit) string {
	switch u {
	case domain.UnitWeek:
		return "w"
	case domain.UnitMonth:
		return "M"
	}
	return "d"
}
