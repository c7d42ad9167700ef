package query

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"viewengine/internal/domain"
)

func pred(field string, t domain.PropertyType, op domain.Operator, v *domain.FilterValue) Predicate {
	return Predicate{Field: field, Type: t, Operator: op, Value: v}
}

func TestMatchPredicate_Text(t *testing.T) {
	r := Record{"title": "Vendor Fraud Report"}
	text := func(op domain.Operator, v string) Predicate {
		return pred("title", domain.PropertyText, op, domain.TextValue(v).Ptr())
	}

	assert.True(t, MatchPredicate(text(domain.OpIs, "vendor fraud report"), r))
	assert.True(t, MatchPredicate(text(domain.OpContains, "FRAUD"), r))
	assert.True(t, MatchPredicate(text(domain.OpStartsWith, "vendor"), r))
	assert.True(t, MatchPredicate(text(domain.OpEndsWith, "report"), r))
	assert.False(t, MatchPredicate(text(domain.OpDoesNotContain, "fraud"), r))
	assert.True(t, MatchPredicate(text(domain.OpIsNot, "other"), r))
}

func TestMatchPredicate_MissingValues(t *testing.T) {
	empty := Record{"title": "", "status": nil}

	assert.True(t, MatchPredicate(pred("title", domain.PropertyText, domain.OpIsUnknown, nil), empty))
	assert.False(t, MatchPredicate(pred("title", domain.PropertyText, domain.OpIsKnown, nil), empty))
	assert.True(t, MatchPredicate(pred("title", domain.PropertyText, domain.OpDoesNotContain, domain.TextValue("x").Ptr()), empty))
	assert.False(t, MatchPredicate(pred("title", domain.PropertyText, domain.OpContains, domain.TextValue("x").Ptr()), empty))
	assert.True(t, MatchPredicate(pred("status", domain.PropertyEnum, domain.OpIsNoneOf, domain.ListValue("OPEN").Ptr()), empty))
	assert.False(t, MatchPredicate(pred("status", domain.PropertyEnum, domain.OpIsAnyOf, domain.ListValue("OPEN").Ptr()), empty))
	assert.True(t, MatchPredicate(pred("amount", domain.PropertyNumber, domain.OpIsNotEqualTo, domain.IntValue(1).Ptr()), empty))
}

func TestMatchPredicate_Number(t *testing.T) {
	r := Record{"amount": 250.5}
	num := func(op domain.Operator, v string) Predicate {
		return pred("amount", domain.PropertyNumber, op, domain.NumberValue(decimal.RequireFromString(v)).Ptr())
	}

	assert.True(t, MatchPredicate(num(domain.OpIsEqualTo, "250.50"), r))
	assert.True(t, MatchPredicate(num(domain.OpIsGreaterThan, "250"), r))
	assert.True(t, MatchPredicate(num(domain.OpIsLessOrEqual, "250.5"), r))
	assert.False(t, MatchPredicate(num(domain.OpIsLessThan, "250.5"), r))

	between := num(domain.OpIsBetween, "300")
	between.SecondaryValue = domain.IntValue(200).Ptr()
	assert.True(t, MatchPredicate(between, r), "bounds are order-insensitive")

	assert.True(t, MatchPredicate(num(domain.OpIsEqualTo, "7"), Record{"amount": "7"}))
	assert.False(t, MatchPredicate(num(domain.OpIsEqualTo, "7"), Record{"amount": "seven"}))
}

func TestMatchPredicate_Dates(t *testing.T) {
	r := Record{"createdAt": time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)}
	date := func(op domain.Operator, d time.Time) Predicate {
		return pred("createdAt", domain.PropertyDate, op, domain.DateValue(d).Ptr())
	}

	assert.True(t, MatchPredicate(date(domain.OpIs, day(2026, 1, 1)), r))
	assert.False(t, MatchPredicate(date(domain.OpIsAfter, day(2026, 1, 1)), r))
	assert.True(t, MatchPredicate(date(domain.OpIsAfter, day(2025, 12, 31)), r))
	assert.True(t, MatchPredicate(date(domain.OpIsBefore, day(2026, 1, 2)), r))
	assert.False(t, MatchPredicate(date(domain.OpIsBefore, day(2026, 1, 1)), r))

	between := date(domain.OpIsBetween, day(2025, 12, 1))
	between.SecondaryValue = domain.DateValue(day(2026, 1, 1)).Ptr()
	assert.True(t, MatchPredicate(between, r), "end day is inclusive")
}

func TestMatchPredicate_BooleanAndChoice(t *testing.T) {
	r := Record{"urgent": true, "assignee": []any{"alice", "bob"}}

	assert.True(t, MatchPredicate(pred("urgent", domain.PropertyBoolean, domain.OpIsTrue, nil), r))
	assert.False(t, MatchPredicate(pred("urgent", domain.PropertyBoolean, domain.OpIsFalse, nil), r))
	assert.True(t, MatchPredicate(pred("assignee", domain.PropertyPerson, domain.OpIsAnyOf, domain.ListValue("bob").Ptr()), r))
	assert.False(t, MatchPredicate(pred("assignee", domain.PropertyPerson, domain.OpIsNoneOf, domain.ListValue("alice", "carol").Ptr()), r))
}

func TestDescriptorString(t *testing.T) {
	d := Descriptor{Branches: []Branch{
		{pred("status", domain.PropertyEnum, domain.OpIsAnyOf, domain.ListValue("OPEN").Ptr())},
		{pred("amount", domain.PropertyNumber, domain.OpIsGreaterThan, domain.IntValue(5).Ptr())},
	}}
	assert.Equal(t, "(status is_any_of OPEN) OR (amount is_greater_than 5)", d.String())
	assert.Equal(t, []string{"status", "amount"}, d.Fields())
	assert.Equal(t, "true", Descriptor{}.String())
}
