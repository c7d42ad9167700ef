package domain

// filter comparison operator
type Operator string

const (
	OpIs             Operator = "is"
	OpIsNot          Operator = "is_not"
	OpContains       Operator = "contains"
	OpDoesNotContain Operator = "does_not_contain"
	OpStartsWith     Operator = "starts_with"
	OpEndsWith       Operator = "ends_with"
	OpIsKnown        Operator = "is_known"
	OpIsUnknown      Operator = "is_unknown"

	OpIsEqualTo        Operator = "is_equal_to"
	OpIsNotEqualTo     Operator = "is_not_equal_to"
	OpIsGreaterThan    Operator = "is_greater_than"
	OpIsGreaterOrEqual Operator = "is_greater_or_equal"
	OpIsLessThan       Operator = "is_less_than"
	OpIsLessOrEqual    Operator = "is_less_or_equal"
	OpIsBetween        Operator = "is_between"

	OpIsBefore       Operator = "is_before"
	OpIsAfter        Operator = "is_after"
	OpIsLessThanNAgo Operator = "is_less_than_n_ago"
	OpIsMoreThanNAgo Operator = "is_more_than_n_ago"

	OpIsTrue  Operator = "is_true"
	OpIsFalse Operator = "is_false"

	OpIsAnyOf  Operator = "is_any_of"
	OpIsNoneOf Operator = "is_none_of"
)

// number of values an operator consumes
type Arity int

const (
	ArityNone Arity = iota
	ArityOne
	ArityTwo
)

func (a Arity) String() string {
	switch a {
	case ArityNone:
		return "none"
	case ArityTwo:
		return "two"
	default:
		return "one"
	}
}

var (
	textOperators = []Operator{
		OpIs, OpIsNot, OpContains, OpDoesNotContain, OpStartsWith, OpEndsWith, OpIsKnown, OpIsUnknown,
	}
	numberOperators = []Operator{
		OpIsEqualTo, OpIsNotEqualTo, OpIsGreaterThan, OpIsGreaterOrEqual,
		OpIsLessThan, OpIsLessOrEqual, OpIsBetween, OpIsKnown, OpIsUnknown,
	}
	dateOperators = []Operator{
		OpIs, OpIsBefore, OpIsAfter, OpIsBetween, OpIsLessThanNAgo, OpIsMoreThanNAgo, OpIsKnown, OpIsUnknown,
	}
	booleanOperators = []Operator{OpIsTrue, OpIsFalse, OpIsKnown, OpIsUnknown}
	choiceOperators  = []Operator{OpIsAnyOf, OpIsNoneOf, OpIsKnown, OpIsUnknown}
)

var operatorFamilies = map[PropertyType][]Operator{
	PropertyText:    textOperators,
	PropertyNumber:  numberOperators,
	PropertyDate:    dateOperators,
	PropertyBoolean: booleanOperators,
	PropertyEnum:    choiceOperators,
	PropertyStatus:  choiceOperators,
	PropertyPerson:  choiceOperators,
}

// operators deliberately present in more than one family
var sharedOperators = map[Operator]bool{
	OpIsKnown:   true,
	OpIsUnknown: true,
	OpIs:        true,
	OpIsBetween: true,
}

var operatorLabels = map[Operator]string{
	OpIs:               "is",
	OpIsNot:            "is not",
	OpContains:         "contains",
	OpDoesNotContain:   "does not contain",
	OpStartsWith:       "starts with",
	OpEndsWith:         "ends with",
	OpIsKnown:          "is known",
	OpIsUnknown:        "is unknown",
	OpIsEqualTo:        "=",
	OpIsNotEqualTo:     "≠",
	OpIsGreaterThan:    ">",
	OpIsGreaterOrEqual: "≥",
	OpIsLessThan:       "<",
	OpIsLessOrEqual:    "≤",
	OpIsBetween:        "is between",
	OpIsBefore:         "is before",
	OpIsAfter:          "is after",
	OpIsLessThanNAgo:   "is less than ... ago",
	OpIsMoreThanNAgo:   "is more than ... ago",
	OpIsTrue:           "is true",
	OpIsFalse:          "is false",
	OpIsAnyOf:          "is any of",
	OpIsNoneOf:         "is none of",
}

// OperatorsFor returns the ordered operator family of a property type.
// Unknown types fall back to the text family.
func OperatorsFor(t PropertyType) []Operator {
	family, ok := operatorFamilies[t]
	if !ok {
		family = textOperators
	}
	out := make([]Operator, len(family))
	copy(out, family)
	return out
}

// DefaultOperator is the first legal operator for a property type.
func DefaultOperator(t PropertyType) Operator {
	return OperatorsFor(t)[0]
}

func IsLegal(t PropertyType, op Operator) bool {
	for _, candidate := range OperatorsFor(t) {
		if candidate == op {
			return true
		}
	}
	return false
}

// IsShared reports whether op is intentionally part of several families.
func IsShared(op Operator) bool {
	return sharedOperators[op]
}

func RequiresValue(op Operator) Arity {
	switch op {
	case OpIsKnown, OpIsUnknown, OpIsTrue, OpIsFalse:
		return ArityNone
	case OpIsBetween:
		return ArityTwo
	default:
		return ArityOne
	}
}

func LabelFor(op Operator) string {
	if label, ok := operatorLabels[op]; ok {
		return label
	}
	return string(op)
}

func (op Operator) IsKnownOperator() bool {
	_, ok := operatorLabels[op]
	return ok
}

// IsRelativeDate reports operators whose value is a count of units before now.
func IsRelativeDate(op Operator) bool {
	return op == OpIsLessThanNAgo || op == OpIsMoreThanNAgo
}

// IsNegated reports operators that match records lacking the property.
func IsNegated(op Operator) bool {
	switch op {
	case OpIsNot, OpDoesNotContain, OpIsNotEqualTo, OpIsNoneOf:
		return true
	}
	return false
}

// ExpectedValueKind returns the value kind an operator takes on a property type.
// The second result is false for operators that carry no value.
func ExpectedValueKind(t PropertyType, op Operator) (ValueKind, bool) {
	if RequiresValue(op) == ArityNone {
		return "", false
	}

	switch {
	case t == PropertyNumber:
		return ValueNumber, true
	case t == PropertyDate && IsRelativeDate(op):
		return ValueNumber, true
	case t == PropertyDate:
		return ValueDate, true
	case t.IsChoice():
		return ValueList, true
	default:
		return ValueText, true
	}
}
