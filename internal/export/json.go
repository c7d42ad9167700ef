package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"

	"viewengine/internal/domain"
)

// ViewLister lists the views of an entity type readable by a requester.
type ViewLister interface {
	List(ctx context.Context, requester, entityType string) ([]*domain.SavedView, error)
}

type JSONExporter struct {
	views ViewLister
	clock clock.Clock
}

func NewJSONExporter(views ViewLister, clk clock.Clock) *JSONExporter {
	if clk == nil {
		clk = clock.New()
	}
	return &JSONExporter{views: views, clock: clk}
}

// ExportViews collects the views of entityType readable by requester. With
// ownedOnly set, shared views of other owners are left out.
func (e *JSONExporter) ExportViews(ctx context.Context, requester, entityType string, ownedOnly bool) (*ViewExport, error) {
	views, err := e.views.List(ctx, requester, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}

	out := &ViewExport{
		Version:    FormatVersion,
		Timestamp:  e.clock.Now().UTC(),
		EntityType: entityType,
		Views:      make([]*ViewData, 0, len(views)),
	}
	for _, v := range views {
		if ownedOnly && v.OwnerID != requester {
			continue
		}
		out.Views = append(out.Views, convertView(v))
	}
	return out, nil
}

func (e *JSONExporter) ExportViewsToWriter(ctx context.Context, w io.Writer, requester, entityType string, ownedOnly bool) error {
	export, err := e.ExportViews(ctx, requester, entityType, ownedOnly)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

func convertView(v *domain.SavedView) *ViewData {
	return &ViewData{
		Name:       v.Name,
		Visibility: v.Visibility,
		Pinned:     v.Pinned,
		Layout:     v.ViewLayout.Clone(),
	}
}
