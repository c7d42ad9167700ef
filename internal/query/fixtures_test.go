package query

import (
	"fmt"
	"time"

	"viewengine/internal/domain"
)

var fixedNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

func testModule() *domain.ModuleConfig {
	return &domain.ModuleConfig{
		EntityType: "cases",
		Columns: []domain.ColumnDef{
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "title", Type: domain.PropertyText, Sortable: true, Filterable: true}},
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "status", Type: domain.PropertyEnum, Sortable: true, Filterable: true, Options: []string{"OPEN", "CLOSED"}}},
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "createdAt", Type: domain.PropertyDate, Sortable: true, Filterable: true}},
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "amount", Type: domain.PropertyNumber, Sortable: true, Filterable: true}},
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "urgent", Type: domain.PropertyBoolean, Filterable: true}},
			{PropertyDescriptor: domain.PropertyDescriptor{ID: "assignee", Type: domain.PropertyPerson, Filterable: true}},
		},
		QuickFilterPropertyIDs: []string{"status", "urgent"},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testCompiler() *Compiler {
	return NewCompiler(testModule(), func() time.Time { return fixedNow })
}

func testConverter() *ConverterContext {
	m := testModule()
	return &ConverterContext{
		Schema: m,
		Editor: domain.NewFilterEditor(m, domain.DefaultLimits()).WithIDGenerator(sequentialIDs()),
		Now:    func() time.Time { return fixedNow },
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cond(id, prop string, op domain.Operator, v *domain.FilterValue) domain.FilterCondition {
	return domain.FilterCondition{ID: id, PropertyID: prop, Operator: op, Value: v}
}
