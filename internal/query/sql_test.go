package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewengine/internal/domain"
)

func testSQLSchema(t *testing.T) SQLSchema {
	s, err := JSONSchema("records", "id", "data", []string{"title", "status", "createdAt", "amount", "urgent"}, []string{"title"})
	require.NoError(t, err)
	return s
}

func TestJSONSchema_RejectsUnsafeField(t *testing.T) {
	_, err := JSONSchema("records", "id", "data", []string{"title'); DROP TABLE x; --"}, nil)
	assert.Error(t, err)

	_, err = JSONSchema("records", "id", "data", []string{"title"}, []string{"body"})
	assert.Error(t, err)
}

func TestToSQL_MatchAllHasNoWhere(t *testing.T) {
	b, err := testSQLSchema(t).ToSQL(Request{Page: 1, PageSize: 25}, "id", "data")
	require.NoError(t, err)

	sql, args, err := b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, data FROM records ORDER BY id ASC LIMIT 25 OFFSET 0", sql)
	assert.Empty(t, args)
}

func TestToSQL_OrOfAnds(t *testing.T) {
	req := Request{
		Descriptor: Descriptor{Branches: []Branch{
			{
				pred("status", domain.PropertyEnum, domain.OpIsAnyOf, domain.ListValue("OPEN", "CLOSED").Ptr()),
				pred("title", domain.PropertyText, domain.OpContains, domain.TextValue("50%").Ptr()),
			},
			{pred("amount", domain.PropertyNumber, domain.OpIsGreaterThan, domain.IntValue(10).Ptr())},
		}},
		SortField:     "createdAt",
		SortDirection: domain.SortDesc,
		Page:          2,
		PageSize:      10,
	}

	b, err := testSQLSchema(t).ToSQL(req, "id")
	require.NoError(t, err)
	sql, args, err := b.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "json_extract(data, '$.status') IN (?,?)")
	assert.Contains(t, sql, "json_extract(data, '$.title') LIKE ? ESCAPE")
	assert.Contains(t, sql, ") OR (")
	assert.Contains(t, sql, "json_extract(data, '$.amount') > ?")
	assert.Contains(t, sql, "ORDER BY json_extract(data, '$.createdAt') DESC, id ASC")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 10")
	assert.Equal(t, []any{"OPEN", "CLOSED", `%50\%%`, float64(10)}, args)
}

func TestToSQL_NegatedIncludesNull(t *testing.T) {
	req := Request{Descriptor: Descriptor{Branches: []Branch{{
		pred("status", domain.PropertyEnum, domain.OpIsNoneOf, domain.ListValue("OPEN").Ptr()),
	}}}}

	b, err := testSQLSchema(t).CountSQL(req)
	require.NoError(t, err)
	sql, _, err := b.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT COUNT(*) FROM records")
	assert.Contains(t, sql, "json_extract(data, '$.status') IS NULL OR json_extract(data, '$.status') NOT IN (?)")
}

func TestToSQL_DateBounds(t *testing.T) {
	req := Request{Descriptor: Descriptor{Branches: []Branch{{
		pred("createdAt", domain.PropertyDate, domain.OpIsAfter, domain.DateValue(day(2026, 1, 1)).Ptr()),
	}}}}

	b, err := testSQLSchema(t).CountSQL(req)
	require.NoError(t, err)
	sql, args, err := b.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "json_extract(data, '$.createdAt') >= ?")
	assert.Equal(t, []any{"2026-01-02T00:00:00Z"}, args)
}

func TestToSQL_Search(t *testing.T) {
	b, err := testSQLSchema(t).CountSQL(Request{SearchQuery: "fraud"})
	require.NoError(t, err)
	sql, args, err := b.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "json_extract(data, '$.title') LIKE ?")
	assert.Equal(t, []any{"%fraud%"}, args)
}

func TestToSQL_RejectsUnmappedField(t *testing.T) {
	req := Request{Descriptor: Descriptor{Branches: []Branch{{
		pred("assignee", domain.PropertyPerson, domain.OpIsKnown, nil),
	}}}}
	_, err := testSQLSchema(t).ToSQL(req)
	assert.Error(t, err)

	_, err = testSQLSchema(t).ToSQL(Request{SortField: "assignee"})
	assert.Error(t, err)
}
