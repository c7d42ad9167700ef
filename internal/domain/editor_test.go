package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewengine/internal/apperror"
)

func TestAddCondition_RejectsAtCeiling(t *testing.T) {
	e := testEditor(DefaultLimits())

	set, gid, err := e.AddGroup(FilterGroupSet{})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		set, _, err = e.AddCondition(set, gid)
		require.NoError(t, err)
	}

	out, _, err := e.AddCondition(set, gid)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, RuleMaxConditions, apperror.Rule(err))
	assert.Len(t, out[0].Conditions, 20)
	assert.Len(t, set[0].Conditions, 20)
}

func TestAddGroup_RejectsBeyondCeiling(t *testing.T) {
	e := testEditor(DefaultLimits())

	set, _, err := e.AddGroup(nil)
	require.NoError(t, err)
	set, _, err = e.AddGroup(set)
	require.NoError(t, err)

	out, _, err := e.AddGroup(set)
	require.Error(t, err)
	assert.Equal(t, RuleMaxGroups, apperror.Rule(err))
	assert.Len(t, out, 2)
}

func TestAddCondition_StartsWithoutProperty(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)

	set, cid, err := e.AddCondition(set, gid)
	require.NoError(t, err)
	assert.Equal(t, FilterCondition{ID: cid}, set[0].Conditions[0])
	assert.False(t, set[0].Conditions[0].IsComplete())
}

func TestUpdateCondition_TypeChangeResetsOperatorAndValues(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)

	set, err := e.UpdateCondition(set, gid, cid, ConditionPatch{
		PropertyID: strPtr("title"),
		Operator:   opPtr(OpContains),
		Value:      TextValue("fraud").Ptr(),
	})
	require.NoError(t, err)
	require.Equal(t, OpContains, set[0].Conditions[0].Operator)

	set, err = e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("createdAt")})
	require.NoError(t, err)

	c := set[0].Conditions[0]
	assert.Equal(t, "createdAt", c.PropertyID)
	assert.Equal(t, DefaultOperator(PropertyDate), c.Operator)
	assert.True(t, IsLegal(PropertyDate, c.Operator))
	assert.Nil(t, c.Value)
	assert.Nil(t, c.SecondaryValue)
}

func TestUpdateCondition_TypeChangeAcrossEveryPair(t *testing.T) {
	props := []string{"title", "status", "createdAt", "amount", "urgent", "assignee"}
	module := testModule()

	for _, from := range props {
		for _, to := range props {
			e := testEditor(DefaultLimits())
			set, gid, _ := e.AddGroup(nil)
			set, cid, _ := e.AddCondition(set, gid)
			set, err := e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr(from)})
			require.NoError(t, err)

			set, err = e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr(to)})
			require.NoError(t, err)

			prop, _ := module.PropertyByID(to)
			c := set[0].Conditions[0]
			assert.True(t, IsLegal(prop.Type, c.Operator), "%s -> %s left operator %s", from, to, c.Operator)
			assert.Nil(t, c.Value)
			assert.Nil(t, c.SecondaryValue)
		}
	}
}

func TestUpdateCondition_SameTypeKeepsOperator(t *testing.T) {
	module := testModule()
	module.Columns = append(module.Columns, ColumnDef{PropertyDescriptor: PropertyDescriptor{ID: "summary", Type: PropertyText, Filterable: true}})
	e := NewFilterEditor(module, DefaultLimits()).WithIDGenerator(sequentialIDs())

	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)
	set, err := e.UpdateCondition(set, gid, cid, ConditionPatch{
		PropertyID: strPtr("title"), Operator: opPtr(OpStartsWith), Value: TextValue("A").Ptr(),
	})
	require.NoError(t, err)

	set, err = e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("summary")})
	require.NoError(t, err)
	assert.Equal(t, OpStartsWith, set[0].Conditions[0].Operator)
	assert.True(t, set[0].Conditions[0].Value.Equal(TextValue("A")))
}

func TestUpdateCondition_RejectsIllegalOperator(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)
	set, _ = e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("status")})

	out, err := e.UpdateCondition(set, gid, cid, ConditionPatch{Operator: opPtr(OpContains)})
	require.Error(t, err)
	assert.Equal(t, RuleIllegalOperator, apperror.Rule(err))
	assert.True(t, out.Equal(set))
	assert.Equal(t, OpIsAnyOf, set[0].Conditions[0].Operator)
}

func TestUpdateCondition_RejectsOperatorWithoutProperty(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)

	_, err := e.UpdateCondition(set, gid, cid, ConditionPatch{Operator: opPtr(OpIs)})
	assert.Equal(t, RulePropertyRequired, apperror.Rule(err))
}

func TestUpdateCondition_ValueRules(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)
	set, _ = e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("amount")})

	_, err := e.UpdateCondition(set, gid, cid, ConditionPatch{Value: TextValue("ten").Ptr()})
	assert.Equal(t, RuleValueKind, apperror.Rule(err))

	_, err = e.UpdateCondition(set, gid, cid, ConditionPatch{SecondaryValue: IntValue(5).Ptr()})
	assert.Equal(t, RuleSecondaryNotAllowed, apperror.Rule(err))

	unit := UnitWeek
	_, err = e.UpdateCondition(set, gid, cid, ConditionPatch{Unit: &unit})
	assert.Equal(t, RuleUnitNotAllowed, apperror.Rule(err))

	set, err = e.UpdateCondition(set, gid, cid, ConditionPatch{
		Operator: opPtr(OpIsBetween), Value: IntValue(1).Ptr(), SecondaryValue: IntValue(9).Ptr(),
	})
	require.NoError(t, err)
	assert.True(t, set[0].Conditions[0].IsComplete())

	set, err = e.UpdateCondition(set, gid, cid, ConditionPatch{Operator: opPtr(OpIsUnknown)})
	require.NoError(t, err)
	assert.Nil(t, set[0].Conditions[0].Value)
	assert.Nil(t, set[0].Conditions[0].SecondaryValue)

	_, err = e.UpdateCondition(set, gid, cid, ConditionPatch{Value: IntValue(1).Ptr()})
	assert.Equal(t, RuleValueNotAllowed, apperror.Rule(err))
}

func TestUpdateCondition_RelativeDateUnit(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)
	set, _ = e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("createdAt")})
	set, _ = e.UpdateCondition(set, gid, cid, ConditionPatch{Value: DateValue(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).Ptr()})

	set, err := e.UpdateCondition(set, gid, cid, ConditionPatch{Operator: opPtr(OpIsMoreThanNAgo)})
	require.NoError(t, err)
	c := set[0].Conditions[0]
	assert.Equal(t, UnitDay, c.Unit)
	assert.Nil(t, c.Value, "date value cannot carry over to a count")

	unit := UnitMonth
	set, err = e.UpdateCondition(set, gid, cid, ConditionPatch{Unit: &unit, Value: IntValue(3).Ptr()})
	require.NoError(t, err)
	assert.Equal(t, UnitMonth, set[0].Conditions[0].Unit)

	set, err = e.UpdateCondition(set, gid, cid, ConditionPatch{Operator: opPtr(OpIsBefore)})
	require.NoError(t, err)
	assert.Empty(t, set[0].Conditions[0].Unit)
}

func TestUpdateCondition_UnknownIDs(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)

	_, err := e.UpdateCondition(set, "nope", "c", ConditionPatch{})
	assert.Equal(t, RuleUnknownGroup, apperror.Rule(err))

	_, err = e.UpdateCondition(set, gid, "nope", ConditionPatch{})
	assert.Equal(t, RuleUnknownCondition, apperror.Rule(err))
}

func TestUpdateCondition_RejectsNonFilterableProperty(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)

	_, err := e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("notes")})
	assert.Equal(t, RuleNotFilterable, apperror.Rule(err))

	_, err = e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("ghost")})
	assert.Equal(t, RuleUnknownProperty, apperror.Rule(err))
}

func TestRemoveCondition_LeavesEmptyGroup(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)

	set, err := e.RemoveCondition(set, gid, cid)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Empty(t, set[0].Conditions)

	set, err = e.RemoveGroup(set, gid)
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())
}

func TestDuplicateGroup_FreshIDs(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)
	set, _ = e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("status"), Value: ListValue("OPEN").Ptr()})

	out, dupID, err := e.DuplicateGroup(set, gid)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.NotEqual(t, gid, dupID)
	assert.Equal(t, dupID, out[1].ID)
	assert.NotEqual(t, cid, out[1].Conditions[0].ID)
	assert.Equal(t, out[0].Conditions[0].PropertyID, out[1].Conditions[0].PropertyID)
	assert.True(t, out[0].Conditions[0].Value.Equal(*out[1].Conditions[0].Value))
	assert.NoError(t, e.Validate(out))

	_, _, err = e.DuplicateGroup(out, gid)
	assert.Equal(t, RuleMaxGroups, apperror.Rule(err))
}

func TestMutationsDoNotAliasInput(t *testing.T) {
	e := testEditor(DefaultLimits())
	set, gid, _ := e.AddGroup(nil)
	set, cid, _ := e.AddCondition(set, gid)
	before := set.Clone()

	_, err := e.UpdateCondition(set, gid, cid, ConditionPatch{PropertyID: strPtr("title")})
	require.NoError(t, err)
	assert.True(t, before.Equal(set))
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	e := testEditor(Limits{MaxGroups: 1, MaxConditionsPerGroup: 1})
	set := FilterGroupSet{
		{ID: "g1", Conditions: []FilterCondition{
			{ID: "c1", PropertyID: "status", Operator: OpContains},
			{ID: "c1", PropertyID: "urgent", Operator: OpIsTrue, Value: BoolValue(true).Ptr()},
		}},
		{ID: "g2"},
	}

	err := e.Validate(set)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	for _, fragment := range []string{"groups", "conditions", "reused", "not valid", "carries no value"} {
		assert.Contains(t, err.Error(), fragment)
	}
}
