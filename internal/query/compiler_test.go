package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewengine/internal/domain"
)

var sampleRecords = []Record{
	{"id": "1", "title": "Vendor fraud", "status": "OPEN", "createdAt": "2025-01-01T00:00:00Z", "amount": 10},
	{"id": "2", "title": "Harassment", "status": "CLOSED", "createdAt": "2026-02-01T00:00:00Z", "amount": 250.5},
	{"id": "3", "title": "Conflict", "status": "CLOSED", "createdAt": "2025-01-01T00:00:00Z"},
}

func TestCompile_EmptySetMatchesAll(t *testing.T) {
	d := testCompiler().Compile(domain.FilterGroupSet{})

	assert.True(t, d.MatchesAll())
	for _, r := range sampleRecords {
		assert.True(t, Evaluate(d, r))
	}
}

func TestCompile_EmptyGroupMatchesAll(t *testing.T) {
	// an empty AND-group is true, so it widens rather than narrows
	d := testCompiler().Compile(domain.FilterGroupSet{{ID: "g1", Conditions: []domain.FilterCondition{}}})

	require.Len(t, d.Branches, 1)
	assert.Empty(t, d.Branches[0])
	assert.True(t, d.MatchesAll())
	for _, r := range sampleRecords {
		assert.True(t, Evaluate(d, r))
	}
}

func TestCompile_EmptyGroupWidensOtherBranch(t *testing.T) {
	set := domain.FilterGroupSet{
		{ID: "g1", Conditions: []domain.FilterCondition{cond("c1", "status", domain.OpIsAnyOf, domain.ListValue("OPEN").Ptr())}},
		{ID: "g2", Conditions: []domain.FilterCondition{}},
	}
	d := testCompiler().Compile(set)

	assert.True(t, Evaluate(d, sampleRecords[2]))
}

func TestCompile_OrOfAndsScenario(t *testing.T) {
	set := domain.FilterGroupSet{
		{ID: "g1", Conditions: []domain.FilterCondition{cond("c1", "status", domain.OpIsAnyOf, domain.ListValue("OPEN").Ptr())}},
		{ID: "g2", Conditions: []domain.FilterCondition{cond("c2", "createdAt", domain.OpIsAfter, domain.DateValue(day(2026, 1, 1)).Ptr())}},
	}
	d := testCompiler().Compile(set)

	require.Len(t, d.Branches, 2)
	require.Len(t, d.Branches[0], 1)
	require.Len(t, d.Branches[1], 1)
	assert.Equal(t, "status", d.Branches[0][0].Field)
	assert.Equal(t, "createdAt", d.Branches[1][0].Field)

	openOld := Record{"status": "OPEN", "createdAt": "2025-01-01"}
	closedNew := Record{"status": "CLOSED", "createdAt": "2026-02-01"}
	closedOld := Record{"status": "CLOSED", "createdAt": "2025-01-01"}

	assert.True(t, Evaluate(d, openOld))
	assert.True(t, MatchPredicate(d.Branches[0][0], openOld))
	assert.False(t, MatchPredicate(d.Branches[1][0], openOld))

	assert.True(t, Evaluate(d, closedNew))
	assert.False(t, MatchPredicate(d.Branches[0][0], closedNew))
	assert.True(t, MatchPredicate(d.Branches[1][0], closedNew))

	assert.False(t, Evaluate(d, closedOld))
}

func TestCompile_SkipsIncompleteConditions(t *testing.T) {
	set := domain.FilterGroupSet{{ID: "g1", Conditions: []domain.FilterCondition{
		{ID: "c1"},
		{ID: "c2", PropertyID: "title", Operator: domain.OpContains},
		cond("c3", "amount", domain.OpIsGreaterThan, domain.IntValue(100).Ptr()),
	}}}
	d := testCompiler().Compile(set)

	require.Len(t, d.Branches[0], 1)
	assert.Equal(t, "amount", d.Branches[0][0].Field)
	assert.False(t, Evaluate(d, sampleRecords[0]))
	assert.True(t, Evaluate(d, sampleRecords[1]))
}

func TestCompile_ResolvesRelativeDates(t *testing.T) {
	c := cond("c1", "createdAt", domain.OpIsLessThanNAgo, domain.IntValue(2).Ptr())
	c.Unit = domain.UnitWeek
	d := testCompiler().Compile(domain.FilterGroupSet{{ID: "g", Conditions: []domain.FilterCondition{c}}})

	p := d.Branches[0][0]
	require.Equal(t, domain.ValueDate, p.Value.Kind)
	assert.Equal(t, day(2026, 3, 1), p.Value.Date)

	assert.True(t, Evaluate(d, Record{"createdAt": "2026-03-10T09:00:00Z"}))
	assert.False(t, Evaluate(d, Record{"createdAt": "2026-02-27"}))
}

func TestCompileWithQuickFilters_AndsIntoEveryBranch(t *testing.T) {
	set := domain.FilterGroupSet{
		{ID: "g1", Conditions: []domain.FilterCondition{cond("c1", "title", domain.OpContains, domain.TextValue("fraud").Ptr())}},
		{ID: "g2", Conditions: []domain.FilterCondition{cond("c2", "amount", domain.OpIsGreaterThan, domain.IntValue(100).Ptr())}},
	}
	quick := map[string]domain.FilterValue{"status": domain.ListValue("CLOSED")}

	d := testCompiler().CompileWithQuickFilters(set, quick)
	require.Len(t, d.Branches, 2)
	for _, b := range d.Branches {
		assert.Equal(t, "status", b[len(b)-1].Field)
	}

	assert.False(t, Evaluate(d, sampleRecords[0]))
	assert.True(t, Evaluate(d, sampleRecords[1]))

	onlyQuick := testCompiler().CompileWithQuickFilters(nil, quick)
	require.Len(t, onlyQuick.Branches, 1)
	assert.False(t, Evaluate(onlyQuick, sampleRecords[0]))
	assert.True(t, Evaluate(onlyQuick, sampleRecords[2]))
}

func TestCompileQuickFilters_IgnoresMismatchedValues(t *testing.T) {
	preds := testCompiler().CompileQuickFilters(map[string]domain.FilterValue{
		"status": domain.TextValue("OPEN"),
		"urgent": domain.BoolValue(true),
		"ghost":  domain.TextValue("x"),
		"title":  domain.TextValue(""),
	})

	require.Len(t, preds, 1)
	assert.Equal(t, domain.OpIsTrue, preds[0].Operator)
	assert.Nil(t, preds[0].Value)
}

func TestCompileState(t *testing.T) {
	m := testModule()
	state := domain.NewRuntimeState("cases", m.DefaultLayout(), 25)
	state.SortState = domain.SortState{ColumnID: "createdAt"}
	state.Page = 3
	state.SearchQuery = "fraud"

	req := testCompiler().CompileState(state)
	assert.Equal(t, "createdAt", req.SortField)
	assert.Equal(t, domain.SortAsc, req.SortDirection)
	assert.Equal(t, 50, req.Offset())
	assert.Equal(t, "fraud", req.SearchQuery)
	assert.True(t, req.Descriptor.MatchesAll())
	assert.NoError(t, req.Validate(domain.DefaultLimits()))

	req.PageSize = 500
	assert.Error(t, req.Validate(domain.DefaultLimits()))
}
