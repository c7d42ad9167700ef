// Package urlstate maps a view's runtime state to and from a query string.
// Every non-default field is written, so a link restores its filters and sort
// even when the recipient cannot load the linked view. page=1 and the default
// page size are never written.
package urlstate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	qs "github.com/google/go-querystring/query"
	"github.com/hashicorp/go-multierror"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
)

const (
	ParamView      = "view"
	ParamFilters   = "filters"
	ParamSortBy    = "sortBy"
	ParamSortOrder = "sortOrder"
	ParamSearch    = "q"
	ParamPage      = "page"
	ParamPageSize  = "pageSize"
)

type wireParams struct {
	View      string  `url:"view,omitempty"`
	Filters   *string `url:"filters,omitempty"`
	SortBy    *string `url:"sortBy,omitempty"`
	SortOrder *string `url:"sortOrder,omitempty"`
	Search    string  `url:"q,omitempty"`
	Page      int     `url:"page,omitempty"`
	PageSize  int     `url:"pageSize,omitempty"`
}

// Encode writes the state. Filters and sort are written when set, and also
// when they clear a field the baseline (the loaded view) sets, so decoding
// never falls back to the view's own values.
func Encode(state domain.ViewRuntimeState, baseline domain.ViewLayout, defaultPageSize int) (url.Values, error) {
	w := wireParams{
		View:   state.ViewID,
		Search: strings.TrimSpace(state.SearchQuery),
	}

	if len(state.Filters) > 0 || len(baseline.Filters) > 0 {
		filters := state.Filters
		if filters == nil {
			filters = domain.FilterGroupSet{}
		}
		data, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filters: %w", err)
		}
		s := string(data)
		w.Filters = &s
	}

	if state.SortState.IsSet() || baseline.SortState.IsSet() {
		col := state.SortState.ColumnID
		w.SortBy = &col
		if state.SortState.IsSet() {
			dir := string(state.SortState.Direction)
			if dir == "" {
				dir = string(domain.SortAsc)
			}
			w.SortOrder = &dir
		}
	}

	if state.Page > 1 {
		w.Page = state.Page
	}
	if state.PageSize > 0 && state.PageSize != defaultPageSize {
		w.PageSize = state.PageSize
	}

	values, err := qs.Values(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode url state: %w", err)
	}
	return values, nil
}

// EncodeString is Encode rendered as a query string without the leading "?".
func EncodeString(state domain.ViewRuntimeState, baseline domain.ViewLayout, defaultPageSize int) (string, error) {
	values, err := Encode(state, baseline, defaultPageSize)
	if err != nil {
		return "", err
	}
	return values.Encode(), nil
}

// Params is a decoded query string. Has* flags distinguish an absent
// parameter from one that explicitly clears a field.
type Params struct {
	ViewID string

	Filters    domain.FilterGroupSet
	HasFilters bool

	Sort    domain.SortState
	HasSort bool

	Search    string
	HasSearch bool

	Page     int
	PageSize int
}

// IsEmpty reports a query string that carries no state.
func (p Params) IsEmpty() bool {
	return p.ViewID == "" && !p.HasFilters && !p.HasSort && !p.HasSearch && p.Page == 0 && p.PageSize == 0
}

// Decode parses every recognised parameter. Malformed parameters are skipped
// and reported together; the returned Params hold the rest.
func Decode(values url.Values) (Params, error) {
	var p Params
	var result *multierror.Error

	p.ViewID = strings.TrimSpace(values.Get(ParamView))

	if values.Has(ParamFilters) {
		var set domain.FilterGroupSet
		if err := json.Unmarshal([]byte(values.Get(ParamFilters)), &set); err != nil {
			result = multierror.Append(result, fmt.Errorf("filters: %w", err))
		} else {
			if set == nil {
				set = domain.FilterGroupSet{}
			}
			p.Filters, p.HasFilters = set, true
		}
	}

	if values.Has(ParamSortBy) {
		p.HasSort = true
		p.Sort.ColumnID = strings.TrimSpace(values.Get(ParamSortBy))
		if p.Sort.IsSet() {
			dir, err := domain.ParseSortDirection(values.Get(ParamSortOrder))
			if err != nil {
				result = multierror.Append(result, err)
				dir = domain.SortAsc
			}
			p.Sort.Direction = dir
		}
	}

	if values.Has(ParamSearch) {
		p.Search, p.HasSearch = strings.TrimSpace(values.Get(ParamSearch)), true
	}

	if values.Has(ParamPage) {
		n, err := strconv.Atoi(values.Get(ParamPage))
		if err != nil || n < 1 {
			result = multierror.Append(result, fmt.Errorf("page must be a positive integer, got %q", values.Get(ParamPage)))
		} else {
			p.Page = n
		}
	}

	if values.Has(ParamPageSize) {
		n, err := strconv.Atoi(values.Get(ParamPageSize))
		if err != nil || n < 1 {
			result = multierror.Append(result, fmt.Errorf("pageSize must be a positive integer, got %q", values.Get(ParamPageSize)))
		} else {
			p.PageSize = n
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return p, apperror.NewValidation("url_state", err.Error()).WithCause(err)
	}
	return p, nil
}

// DecodeString parses a raw query string, with or without the leading "?".
func DecodeString(raw string) (Params, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return Params{}, apperror.NewValidation("url_state", err.Error()).WithCause(err)
	}
	return Decode(values)
}

// Apply overlays URL-supplied fields onto state. URL values always win over the
// state's own. Absent page and page size reset to their defaults.
func (p Params) Apply(state *domain.ViewRuntimeState, limits domain.Limits) {
	if p.HasFilters {
		state.Filters = p.Filters.Clone()
	}
	if p.HasSort {
		state.SortState = p.Sort
	}
	if p.HasSearch {
		state.SearchQuery = p.Search
	}

	state.Page = 1
	if p.Page > 0 {
		state.Page = p.Page
	}
	state.PageSize = limits.DefaultPageSize
	if p.PageSize > 0 {
		state.PageSize = min(p.PageSize, limits.MaxPageSize)
	}
}
