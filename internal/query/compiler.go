package query

import (
	"time"

	"viewengine/internal/domain"
)

// Compiler turns filter state into a Descriptor. It is pure apart from the
// injected clock used to resolve relative dates.
type Compiler struct {
	schema domain.Schema
	now    func() time.Time
}

func NewCompiler(schema domain.Schema, now func() time.Time) *Compiler {
	if now == nil {
		now = time.Now
	}
	return &Compiler{schema: schema, now: now}
}

// Compile maps each group to a branch. Incomplete conditions are skipped, so a
// group holding only incomplete conditions compiles to a pass-all branch, the
// same as an empty group.
func (c *Compiler) Compile(set domain.FilterGroupSet) Descriptor {
	if len(set) == 0 {
		return Descriptor{}
	}

	now := c.now()
	branches := make([]Branch, 0, len(set))
	for _, g := range set {
		branch := make(Branch, 0, len(g.Conditions))
		for _, cond := range g.Conditions {
			if p, ok := c.predicate(cond, now); ok {
				branch = append(branch, p)
			}
		}
		branches = append(branches, branch)
	}
	return Descriptor{Branches: branches}
}

func (c *Compiler) predicate(cond domain.FilterCondition, now time.Time) (Predicate, bool) {
	if !cond.IsComplete() {
		return Predicate{}, false
	}
	prop, ok := c.schema.PropertyByID(cond.PropertyID)
	if !ok || !domain.IsLegal(prop.Type, cond.Operator) {
		return Predicate{}, false
	}

	p := Predicate{
		Field:    prop.ID,
		Type:     prop.Type,
		Operator: cond.Operator,
	}
	if cond.Value != nil {
		p.Value = cond.Value.Ptr()
	}
	if cond.SecondaryValue != nil {
		p.SecondaryValue = cond.SecondaryValue.Ptr()
	}

	if domain.IsRelativeDate(cond.Operator) {
		n := cond.Value.Number.IntPart()
		unit := cond.Unit
		if unit == "" {
			unit = domain.UnitDay
		}
		p.Value = domain.DateValue(RelativeCutoff(now, n, unit)).Ptr()
	}
	return p, true
}

// CompileQuickFilters builds one predicate per quick filter, in property id
// order. Values whose kind does not fit the property are dropped.
func (c *Compiler) CompileQuickFilters(quick map[string]domain.FilterValue) []Predicate {
	state := domain.ViewRuntimeState{QuickFilters: quick}
	var preds []Predicate
	for _, id := range state.QuickFilterIDs() {
		v := quick[id]
		if v.IsZero() {
			continue
		}
		prop, ok := c.schema.PropertyByID(id)
		if !ok {
			continue
		}
		op, ok := quickOperator(prop.Type, v)
		if !ok {
			continue
		}
		p := Predicate{Field: prop.ID, Type: prop.Type, Operator: op}
		if domain.RequiresValue(op) != domain.ArityNone {
			p.Value = v.Ptr()
		}
		preds = append(preds, p)
	}
	return preds
}

func quickOperator(t domain.PropertyType, v domain.FilterValue) (domain.Operator, bool) {
	switch {
	case t.IsChoice() && v.Kind == domain.ValueList:
		return domain.OpIsAnyOf, true
	case t == domain.PropertyBoolean && v.Kind == domain.ValueBool:
		if v.Bool {
			return domain.OpIsTrue, true
		}
		return domain.OpIsFalse, true
	case t == domain.PropertyNumber && v.Kind == domain.ValueNumber:
		return domain.OpIsEqualTo, true
	case t == domain.PropertyDate && v.Kind == domain.ValueDate:
		return domain.OpIs, true
	case t == domain.PropertyText && v.Kind == domain.ValueText:
		return domain.OpContains, true
	}
	return "", false
}

// CompileWithQuickFilters ANDs the quick filter predicates into every branch.
// Without groups they form the single branch.
func (c *Compiler) CompileWithQuickFilters(set domain.FilterGroupSet, quick map[string]domain.FilterValue) Descriptor {
	d := c.Compile(set)
	extra := c.CompileQuickFilters(quick)
	if len(extra) == 0 {
		return d
	}
	if len(d.Branches) == 0 {
		return Descriptor{Branches: []Branch{extra}}
	}
	for i, b := range d.Branches {
		d.Branches[i] = append(append(Branch{}, b...), extra...)
	}
	return d
}

// CompileState builds the full executor request for a runtime state.
func (c *Compiler) CompileState(state domain.ViewRuntimeState) Request {
	req := Request{
		Descriptor:  c.CompileWithQuickFilters(state.Filters, state.QuickFilters),
		Page:        state.Page,
		PageSize:    state.PageSize,
		SearchQuery: state.SearchQuery,
	}
	if state.SortState.IsSet() {
		req.SortField = state.SortState.ColumnID
		req.SortDirection = state.SortState.Direction
		if req.SortDirection == "" {
			req.SortDirection = domain.SortAsc
		}
	}
	return req
}
