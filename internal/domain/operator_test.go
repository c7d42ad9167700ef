package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperatorsFor_NonEmptyForEveryType(t *testing.T) {
	for _, pt := range PropertyTypes() {
		ops := OperatorsFor(pt)
		assert.NotEmpty(t, ops, "type %s", pt)
		for _, op := range ops {
			assert.True(t, op.IsKnownOperator(), "operator %s of %s has no label", op, pt)
		}
	}
}

func TestOperatorsFor_FamiliesAreDisjointExceptShared(t *testing.T) {
	// enum, status and person share one family
	families := map[string][]Operator{
		"text":    OperatorsFor(PropertyText),
		"number":  OperatorsFor(PropertyNumber),
		"date":    OperatorsFor(PropertyDate),
		"boolean": OperatorsFor(PropertyBoolean),
		"choice":  OperatorsFor(PropertyEnum),
	}

	membership := make(map[Operator][]string)
	for name, ops := range families {
		for _, op := range ops {
			membership[op] = append(membership[op], name)
		}
	}

	for op, names := range membership {
		if len(names) > 1 {
			assert.True(t, IsShared(op), "operator %s appears in %v but is not marked shared", op, names)
		}
	}

	assert.Equal(t, OperatorsFor(PropertyEnum), OperatorsFor(PropertyStatus))
	assert.Equal(t, OperatorsFor(PropertyEnum), OperatorsFor(PropertyPerson))
}

func TestOperatorsFor_UnknownFallsBackToText(t *testing.T) {
	assert.Equal(t, OperatorsFor(PropertyText), OperatorsFor(PropertyType("geo")))
}

func TestOperatorsFor_ReturnsCopy(t *testing.T) {
	ops := OperatorsFor(PropertyText)
	ops[0] = OpIsTrue
	assert.Equal(t, OpIs, OperatorsFor(PropertyText)[0])
}

func TestRequiresValue(t *testing.T) {
	assert.Equal(t, ArityNone, RequiresValue(OpIsKnown))
	assert.Equal(t, ArityNone, RequiresValue(OpIsUnknown))
	assert.Equal(t, ArityNone, RequiresValue(OpIsTrue))
	assert.Equal(t, ArityTwo, RequiresValue(OpIsBetween))
	assert.Equal(t, ArityOne, RequiresValue(OpContains))
	assert.Equal(t, ArityOne, RequiresValue(OpIsLessThanNAgo))
	assert.Equal(t, ArityOne, RequiresValue(OpIsAnyOf))
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, "does not contain", LabelFor(OpDoesNotContain))
	assert.Equal(t, "is any of", LabelFor(OpIsAnyOf))
	assert.Equal(t, "mystery", LabelFor(Operator("mystery")))
}

func TestExpectedValueKind(t *testing.T) {
	kind, ok := ExpectedValueKind(PropertyDate, OpIsLessThanNAgo)
	assert.True(t, ok)
	assert.Equal(t, ValueNumber, kind)

	kind, ok = ExpectedValueKind(PropertyDate, OpIsAfter)
	assert.True(t, ok)
	assert.Equal(t, ValueDate, kind)

	kind, ok = ExpectedValueKind(PropertyStatus, OpIsNoneOf)
	assert.True(t, ok)
	assert.Equal(t, ValueList, kind)

	_, ok = ExpectedValueKind(PropertyText, OpIsUnknown)
	assert.False(t, ok)
}
