package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/query"
)

func testModule() *domain.ModuleConfig {
	col := func(id string, t domain.PropertyType) domain.ColumnDef {
		return domain.ColumnDef{PropertyDescriptor: domain.PropertyDescriptor{
			ID: id, DisplayName: id, Type: t, Sortable: true, Filterable: true,
		}}
	}
	return &domain.ModuleConfig{
		EntityType: "cases",
		Columns: []domain.ColumnDef{
			col("title", domain.PropertyText),
			col("status", domain.PropertyEnum),
			col("createdAt", domain.PropertyDate),
			col("amount", domain.PropertyNumber),
		},
	}
}

func testRecords() []query.Record {
	return []query.Record{
		{"id": "r1", "title": "Alpha", "status": "OPEN", "createdAt": "2025-01-01", "amount": 30},
		{"id": "r2", "title": "Bravo", "status": "CLOSED", "createdAt": "2026-02-01", "amount": 5},
		{"id": "r3", "title": "Charlie", "status": "CLOSED", "createdAt": "2025-01-01", "amount": 12.5},
		{"id": "r4", "title": "Delta report", "status": "OPEN"},
	}
}

func ids(records []query.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func TestMemory_EndToEndOrBranches(t *testing.T) {
	m := NewMemory(testModule(), testRecords())

	d := query.Descriptor{Branches: []query.Branch{
		{{Field: "status", Type: domain.PropertyEnum, Operator: domain.OpIsAnyOf, Value: domain.ListValue("OPEN").Ptr()}},
		{{Field: "createdAt", Type: domain.PropertyDate, Operator: domain.OpIsAfter,
			Value: domain.DateValue(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).Ptr()}},
	}}

	res, err := m.Execute(context.Background(), query.Request{Descriptor: d, Page: 1, PageSize: 25})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r4"}, ids(res.Records))
	assert.Equal(t, 3, res.Total)
}

func TestMemory_SortAndPage(t *testing.T) {
	m := NewMemory(testModule(), testRecords())
	ctx := context.Background()

	res, err := m.Execute(ctx, query.Request{SortField: "amount", SortDirection: domain.SortAsc, Page: 1, PageSize: 25})
	require.NoError(t, err)
	assert.Equal(t, []string{"r4", "r2", "r3", "r1"}, ids(res.Records), "missing values sort first")

	res, err = m.Execute(ctx, query.Request{SortField: "amount", SortDirection: domain.SortDesc, Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"r4"}, ids(res.Records))
	assert.Equal(t, 4, res.Total)

	res, err = m.Execute(ctx, query.Request{Page: 9, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 4, res.Total)
}

func TestMemory_SortTiesBreakOnID(t *testing.T) {
	m := NewMemory(testModule(), testRecords())

	res, err := m.Execute(context.Background(), query.Request{SortField: "createdAt", SortDirection: domain.SortDesc, Page: 1, PageSize: 25})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r1", "r3", "r4"}, ids(res.Records))
}

func TestMemory_Search(t *testing.T) {
	m := NewMemory(testModule(), testRecords())

	n, err := m.Count(context.Background(), query.Descriptor{}, "REPORT")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemory_UnknownSortField(t *testing.T) {
	m := NewMemory(testModule(), testRecords())

	_, err := m.Execute(context.Background(), query.Request{SortField: "nope", Page: 1, PageSize: 25})
	assert.True(t, apperror.IsValidation(err))
}

func TestMemory_ResultsAreCopies(t *testing.T) {
	m := NewMemory(testModule(), testRecords())
	ctx := context.Background()

	res, err := m.Execute(ctx, query.Request{Page: 1, PageSize: 1})
	require.NoError(t, err)
	res.Records[0]["title"] = "mutated"

	rec, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", rec["title"])
}

func TestMemory_PutAndSetField(t *testing.T) {
	m := NewMemory(testModule(), nil)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, query.Record{"id": "x", "status": "OPEN"}))
	require.NoError(t, m.SetField(ctx, "x", "status", "CLOSED"))

	rec, err := m.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", rec["status"])

	assert.True(t, apperror.IsValidation(m.Put(ctx, query.Record{"title": "no id"})))
	assert.True(t, apperror.IsValidation(m.SetField(ctx, "x", "bogus", 1)))
	assert.True(t, apperror.IsNotFound(m.SetField(ctx, "y", "status", "OPEN")))
}

func TestMemory_CanceledContext(t *testing.T) {
	m := NewMemory(testModule(), testRecords())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Execute(ctx, query.Request{Page: 1, PageSize: 25})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_PutAllUpserts(t *testing.T) {
	m := NewMemory(testModule(), testRecords())
	ctx := context.Background()

	require.NoError(t, m.PutAll(ctx, []query.Record{
		{"id": "r1", "title": "Alpha v2", "status": "CLOSED"},
		{"id": "r5", "title": "Echo", "status": "OPEN"},
	}))

	n, err := m.Count(ctx, query.Descriptor{}, "")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	rec, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha v2", rec["title"])
}
