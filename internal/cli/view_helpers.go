package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/fuzzy"
	"viewengine/internal/modules"
	"viewengine/internal/query"
)

type viewSource interface {
	Get(ctx context.Context, requester, id string) (*domain.SavedView, error)
	List(ctx context.Context, requester, entityType string) ([]*domain.SavedView, error)
}

// lookupView resolves a view reference by id, then by exact name, then by
// the single best fuzzy name match among the views requester can read.
func lookupView(ctx context.Context, views viewSource, requester string, entityTypes []string, ref string) (*domain.SavedView, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("view reference cannot be empty")
	}

	view, err := views.Get(ctx, requester, ref)
	if err == nil {
		return view, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	var all []*domain.SavedView
	for _, et := range entityTypes {
		list, err := views.List(ctx, requester, et)
		if err != nil {
			return nil, err
		}
		all = append(all, list...)
	}

	var exact []*domain.SavedView
	for _, v := range all {
		if strings.EqualFold(v.Name, ref) {
			exact = append(exact, v)
		}
	}
	// own views win over shared views of the same name
	if len(exact) > 1 {
		own := slices.DeleteFunc(slices.Clone(exact), func(v *domain.SavedView) bool { return v.OwnerID != requester })
		if len(own) == 1 {
			return own[0], nil
		}
	}
	switch len(exact) {
	case 1:
		return exact[0], nil
	case 0:
	default:
		return nil, fmt.Errorf("view name '%s' is ambiguous (%d matches); use the view id", ref, len(exact))
	}

	names := make([]string, len(all))
	for i, v := range all {
		names[i] = v.Name
	}
	if match, ok := fuzzy.Best(ref, names, fuzzy.DefaultThreshold); ok {
		return all[match.Index], nil
	}
	return nil, fmt.Errorf("view '%s' not found", ref)
}

// layoutOptions are the layout flags shared by view save and view update.
type layoutOptions struct {
	where   string
	sort    string
	columns []string
	mode    string
	groupBy string
}

// applyLayoutOptions overlays the options whose flag was set onto base.
func applyLayoutOptions(module *domain.ModuleConfig, limits domain.Limits, base domain.ViewLayout, opts layoutOptions, set func(flag string) bool) (domain.ViewLayout, error) {
	layout := base.Clone()

	if set("where") {
		filters, err := query.ParseFilterGroupSet(opts.where, &query.ConverterContext{
			Schema: module,
			Editor: domain.NewFilterEditor(module, limits),
			Now:    time.Now,
		})
		if err != nil {
			return layout, err
		}
		layout.Filters = filters
	}

	if set("sort") {
		switch strings.TrimSpace(opts.sort) {
		case "", "none":
			layout.SortState = domain.SortState{}
		default:
			sort, err := modules.ParseSort(opts.sort)
			if err != nil {
				return layout, err
			}
			layout.SortState = sort
		}
	}

	if set("columns") {
		frozen := min(max(1, layout.ColumnState.FrozenCount), len(opts.columns))
		layout.ColumnState = domain.ColumnState{VisibleColumnIDs: slices.Clone(opts.columns), FrozenCount: frozen}
	}

	if set("mode") {
		mode := domain.ViewMode(strings.ToLower(opts.mode))
		if !mode.IsValid() {
			return layout, fmt.Errorf("invalid view mode '%s': must be table or board", opts.mode)
		}
		layout.ViewMode = mode
	}

	if set("group-by") {
		layout.BoardGroupByPropertyID = opts.groupBy
	}

	return layout, nil
}

func formatSort(s domain.SortState) string {
	if !s.IsSet() {
		return "-"
	}
	dir := s.Direction
	if dir == "" {
		dir = domain.SortAsc
	}
	return fmt.Sprintf("%s %s", s.ColumnID, dir)
}

func formatFilters(module *domain.ModuleConfig, set domain.FilterGroupSet) string {
	if set.IsEmpty() {
		return "-"
	}
	return query.FormatFilterGroupSet(set, module)
}

func displayValue(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func displayBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
