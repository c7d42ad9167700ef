package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/query"
)

// ViewStore is the part of the persistence gateway an import needs.
type ViewStore interface {
	ViewLister
	Create(ctx context.Context, requester string, view *domain.SavedView) error
	Update(ctx context.Context, requester string, view *domain.SavedView) error
}

type Importer struct {
	views ViewStore
}

func NewImporter(views ViewStore) *Importer {
	return &Importer{views: views}
}

// ImportViews creates the exported views for requester. A view whose name
// matches one of the requester's own views is resolved by strategy. Every
// view goes through the gateway, so layouts are validated against the
// module before anything is stored.
func (i *Importer) ImportViews(ctx context.Context, r io.Reader, requester string, strategy ConflictStrategy) (*ImportSummary, error) {
	if !strategy.IsValid() {
		return nil, apperror.NewValidation("conflict_strategy", fmt.Sprintf("unknown conflict strategy %q", strategy))
	}

	var export ViewExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode view export: %w", err)
	}
	if export.EntityType == "" {
		return nil, apperror.NewValidation("entity_type", "view export has no entity type")
	}

	existing, err := i.views.List(ctx, requester, export.EntityType)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing views: %w", err)
	}
	byName := make(map[string]*domain.SavedView)
	for _, v := range existing {
		if v.OwnerID == requester {
			byName[v.Name] = v
		}
	}

	summary := &ImportSummary{}
	for _, data := range export.Views {
		if data == nil {
			continue
		}
		if err := i.importView(ctx, requester, export.EntityType, data, byName, strategy, summary); err != nil {
			return summary, fmt.Errorf("failed to import view %q: %w", data.Name, err)
		}
	}
	return summary, nil
}

func (i *Importer) importView(ctx context.Context, requester, entityType string, data *ViewData, byName map[string]*domain.SavedView, strategy ConflictStrategy, summary *ImportSummary) error {
	name := data.Name
	if current, ok := byName[name]; ok {
		switch strategy {
		case ConflictStrategySkip:
			summary.Skipped = append(summary.Skipped, name)
			return nil
		case ConflictStrategyOverwrite:
			updated := current.Clone()
			updated.ViewLayout = data.Layout.Clone()
			if data.Visibility != "" {
				updated.Visibility = data.Visibility
			}
			updated.Pinned = data.Pinned
			if err := i.views.Update(ctx, requester, updated); err != nil {
				return err
			}
			byName[name] = updated
			summary.Overwritten = append(summary.Overwritten, name)
			return nil
		case ConflictStrategyRename:
			name = freeName(name, byName)
		}
	}

	view := domain.NewSavedView(entityType, name, requester, data.Layout)
	view.Visibility = data.Visibility
	view.Pinned = data.Pinned
	if err := i.views.Create(ctx, requester, view); err != nil {
		return err
	}
	byName[name] = view
	summary.Created = append(summary.Created, name)
	return nil
}

func freeName(name string, taken map[string]*domain.SavedView) string {
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// RecordWriter stores records in bulk.
type RecordWriter interface {
	PutAll(ctx context.Context, recs []query.Record) error
}

// ImportRecords reads a JSON array of records and stores them. Every record
// needs a non-empty "id".
func ImportRecords(ctx context.Context, r io.Reader, w RecordWriter) (int, error) {
	var recs []query.Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return 0, fmt.Errorf("failed to decode records: %w", err)
	}
	for n, rec := range recs {
		if rec.ID() == "" {
			return 0, apperror.NewValidation("record_id", fmt.Sprintf("record %d has no id", n))
		}
	}
	if err := w.PutAll(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}
