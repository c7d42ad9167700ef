// Package executor holds the in-memory record executor.
package executor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/query"
)

// Memory runs requests over a slice of records with query.Evaluate.
type Memory struct {
	mu      sync.RWMutex
	schema  domain.Schema
	records []query.Record
	search  []string
}

// NewMemory builds an executor for module's records. Search matches the
// module's text columns.
func NewMemory(module *domain.ModuleConfig, records []query.Record) *Memory {
	m := &Memory{schema: module, search: module.SearchableColumnIDs()}
	m.Replace(records)
	return m
}

// Replace swaps the record set.
func (m *Memory) Replace(records []query.Record) {
	cp := make([]query.Record, len(records))
	for i, r := range records {
		cp[i] = cloneRecord(r)
	}
	m.mu.Lock()
	m.records = cp
	m.mu.Unlock()
}

func (m *Memory) Put(_ context.Context, rec query.Record) error {
	id := rec.ID()
	if id == "" {
		return apperror.NewValidation("record_id", "record has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID() == id {
			m.records[i] = cloneRecord(rec)
			return nil
		}
	}
	m.records = append(m.records, cloneRecord(rec))
	return nil
}

// PutAll upserts every record, stopping at the first one without an id.
func (m *Memory) PutAll(ctx context.Context, recs []query.Record) error {
	for _, rec := range recs {
		if err := m.Put(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (query.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.ID() == id {
			return cloneRecord(r), nil
		}
	}
	return nil, apperror.NewNotFound("record", id)
}

func (m *Memory) SetField(_ context.Context, id, field string, value any) error {
	if _, ok := m.schema.PropertyByID(field); !ok {
		return apperror.NewValidation(domain.RuleUnknownProperty, fmt.Sprintf("unknown field %q", field))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID() == id {
			r[field] = value
			return nil
		}
	}
	return apperror.NewNotFound("record", id)
}

func (m *Memory) matching(d query.Descriptor, search string) []query.Record {
	search = strings.ToLower(strings.TrimSpace(search))
	var out []query.Record
	for _, r := range m.records {
		if !query.Evaluate(d, r) {
			continue
		}
		if search != "" && !m.matchesSearch(r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *Memory) matchesSearch(r query.Record, search string) bool {
	for _, f := range m.search {
		if s, ok := r[f].(string); ok && strings.Contains(strings.ToLower(s), search) {
			return true
		}
	}
	return false
}

func (m *Memory) Execute(ctx context.Context, req query.Request) (query.Result, error) {
	if err := ctx.Err(); err != nil {
		return query.Result{}, err
	}

	var prop domain.PropertyDescriptor
	if req.SortField != "" {
		var ok bool
		if prop, ok = m.schema.PropertyByID(req.SortField); !ok {
			return query.Result{}, apperror.NewValidation(domain.RuleUnknownColumn,
				fmt.Sprintf("invalid sort column: %s", req.SortField))
		}
	}

	m.mu.RLock()
	matched := m.matching(req.Descriptor, req.SearchQuery)
	m.mu.RUnlock()

	matched = slices.Clone(matched)
	if req.SortField != "" {
		desc := req.SortDirection == domain.SortDesc
		slices.SortStableFunc(matched, func(a, b query.Record) int {
			c := query.CompareValues(prop.Type, a[req.SortField], b[req.SortField])
			if desc {
				c = -c
			}
			if c == 0 {
				return strings.Compare(a.ID(), b.ID())
			}
			return c
		})
	} else {
		slices.SortStableFunc(matched, func(a, b query.Record) int {
			return strings.Compare(a.ID(), b.ID())
		})
	}

	total := len(matched)
	page := matched
	if req.PageSize > 0 {
		start := min(req.Offset(), total)
		end := min(start+req.PageSize, total)
		page = matched[start:end]
	}

	records := make([]query.Record, len(page))
	for i, r := range page {
		records[i] = cloneRecord(r)
	}
	return query.Result{Records: records, Total: total}, nil
}

func (m *Memory) Count(ctx context.Context, d query.Descriptor, search string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matching(d, search)), nil
}

func cloneRecord(r query.Record) query.Record {
	out := make(query.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
