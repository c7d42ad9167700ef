package domain

import "fmt"

func testModule() *ModuleConfig {
	return &ModuleConfig{
		EntityType: "cases",
		Columns: []ColumnDef{
			{PropertyDescriptor: PropertyDescriptor{ID: "title", DisplayName: "Title", Type: PropertyText, Sortable: true, Filterable: true}, Width: 240},
			{PropertyDescriptor: PropertyDescriptor{ID: "status", DisplayName: "Status", Type: PropertyEnum, Sortable: true, Filterable: true, Options: []string{"OPEN", "CLOSED"}}},
			{PropertyDescriptor: PropertyDescriptor{ID: "createdAt", DisplayName: "Created", Type: PropertyDate, Sortable: true, Filterable: true}},
			{PropertyDescriptor: PropertyDescriptor{ID: "amount", Type: PropertyNumber, Filterable: true}},
			{PropertyDescriptor: PropertyDescriptor{ID: "urgent", Type: PropertyBoolean, Filterable: true}},
			{PropertyDescriptor: PropertyDescriptor{ID: "assignee", Type: PropertyPerson, Filterable: true}, HiddenByDefault: true},
			{PropertyDescriptor: PropertyDescriptor{ID: "notes", Type: PropertyText}},
		},
		QuickFilterPropertyIDs: []string{"status"},
		BulkActionIDs:          []string{"close"},
		Board:                  &BoardConfig{GroupableByPropertyIDs: []string{"status"}, DefaultGroupBy: "status"},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testEditor(limits Limits) *FilterEditor {
	return NewFilterEditor(testModule(), limits).WithIDGenerator(sequentialIDs())
}

func strPtr(s string) *string { return &s }

func opPtr(op Operator) *Operator { return &op }
