package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/ordering"
	"viewengine/internal/repository"
)

var viewColumns = []string{
	"id", "entity_type", "name", "owner_id", "visibility",
	"filters", "column_state", "sort_state", "view_mode", "board_group_by",
	"pinned", "display_order", "cached_record_count", "cached_record_count_at",
	"last_accessed_at", "created_at", "updated_at",
}

type ViewRepository struct {
	db *DB
}

func NewViewRepository(db *DB) *ViewRepository {
	return &ViewRepository{db: db}
}

type dbView struct {
	ID                  string         `db:"id"`
	EntityType          string         `db:"entity_type"`
	Name                string         `db:"name"`
	OwnerID             string         `db:"owner_id"`
	Visibility          string         `db:"visibility"`
	Filters             string         `db:"filters"`
	ColumnState         string         `db:"column_state"`
	SortState           string         `db:"sort_state"`
	ViewMode            string         `db:"view_mode"`
	BoardGroupBy        sql.NullString `db:"board_group_by"`
	Pinned              bool           `db:"pinned"`
	DisplayOrder        int            `db:"display_order"`
	CachedRecordCount   sql.NullInt64  `db:"cached_record_count"`
	CachedRecordCountAt sql.NullTime   `db:"cached_record_count_at"`
	LastAccessedAt      sql.NullTime   `db:"last_accessed_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (dv *dbView) toView() (*domain.SavedView, error) {
	view := &domain.SavedView{
		ID:           dv.ID,
		EntityType:   dv.EntityType,
		Name:         dv.Name,
		OwnerID:      dv.OwnerID,
		Visibility:   domain.Visibility(dv.Visibility),
		Pinned:       dv.Pinned,
		DisplayOrder: dv.DisplayOrder,
		CreatedAt:    dv.CreatedAt.UTC(),
		UpdatedAt:    dv.UpdatedAt.UTC(),
	}
	view.ViewMode = domain.ViewMode(dv.ViewMode)

	if dv.BoardGroupBy.Valid {
		view.BoardGroupByPropertyID = dv.BoardGroupBy.String
	}

	if dv.CachedRecordCount.Valid {
		count := int(dv.CachedRecordCount.Int64)
		view.CachedRecordCount = &count
	}

	if dv.CachedRecordCountAt.Valid {
		at := dv.CachedRecordCountAt.Time.UTC()
		view.CachedRecordCountAt = &at
	}

	if dv.LastAccessedAt.Valid {
		at := dv.LastAccessedAt.Time.UTC()
		view.LastAccessedAt = &at
	}

	if err := json.Unmarshal([]byte(dv.Filters), &view.Filters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filters of view %s: %w", dv.ID, err)
	}
	if view.Filters == nil {
		view.Filters = domain.FilterGroupSet{}
	}
	if err := json.Unmarshal([]byte(dv.ColumnState), &view.ColumnState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal column state of view %s: %w", dv.ID, err)
	}
	if err := json.Unmarshal([]byte(dv.SortState), &view.SortState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sort state of view %s: %w", dv.ID, err)
	}

	return view, nil
}

type layoutJSON struct {
	filters     string
	columnState string
	sortState   string
}

func encodeLayout(l domain.ViewLayout) (layoutJSON, error) {
	var out layoutJSON
	var err error

	filters := l.Filters
	if filters == nil {
		filters = domain.FilterGroupSet{}
	}
	if out.filters, err = marshalJSON(filters, "filters"); err != nil {
		return out, err
	}
	if out.columnState, err = marshalJSON(l.ColumnState, "column state"); err != nil {
		return out, err
	}
	if out.sortState, err = marshalJSON(l.SortState, "sort state"); err != nil {
		return out, err
	}
	return out, nil
}

func (r *ViewRepository) Create(ctx context.Context, view *domain.SavedView) error {
	if err := view.Validate(); err != nil {
		return err
	}

	layout, err := encodeLayout(view.ViewLayout)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if view.CreatedAt.IsZero() {
		view.CreatedAt = now
	}
	if view.UpdatedAt.IsZero() {
		view.UpdatedAt = now
	}

	query, args, err := sq.Insert("saved_views").
		Columns(viewColumns...).
		Values(
			view.ID, view.EntityType, view.Name, view.OwnerID, string(view.Visibility),
			layout.filters, layout.columnState, layout.sortState, string(view.ViewMode),
			nullString(view.BoardGroupByPropertyID),
			view.Pinned, view.DisplayOrder,
			nullInt64(view.CachedRecordCount), nullTime(view.CachedRecordCountAt),
			nullTime(view.LastAccessedAt), view.CreatedAt, view.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewValidation(domain.RuleDuplicateID, fmt.Sprintf("view %s already exists", view.ID))
		}
		return transportErr("create view", err)
	}

	return nil
}

func (r *ViewRepository) GetByID(ctx context.Context, id string) (*domain.SavedView, error) {
	query, args, err := sq.Select(viewColumns...).From("saved_views").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var dv dbView
	if err := r.db.GetContext(ctx, &dv, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFound("view", id)
		}
		return nil, transportErr("get view", err)
	}

	return dv.toView()
}

// Update overwrites the name, visibility, layout and pinned flag of a view.
// Ownership and display order are not changed here.
func (r *ViewRepository) Update(ctx context.Context, view *domain.SavedView) error {
	if err := view.Validate(); err != nil {
		return err
	}

	layout, err := encodeLayout(view.ViewLayout)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query, args, err := sq.Update("saved_views").
		SetMap(map[string]any{
			"name":           view.Name,
			"visibility":     string(view.Visibility),
			"filters":        layout.filters,
			"column_state":   layout.columnState,
			"sort_state":     layout.sortState,
			"view_mode":      string(view.ViewMode),
			"board_group_by": nullString(view.BoardGroupByPropertyID),
			"pinned":         view.Pinned,
			"updated_at":     now,
		}).
		Where(sq.Eq{"id": view.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return transportErr("update view", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperror.NewNotFound("view", view.ID)
	}

	view.UpdatedAt = now
	return nil
}

// Delete removes a view and closes the gap it leaves in its owner's order.
func (r *ViewRepository) Delete(ctx context.Context, id string) error {
	return transportErr("delete view", r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var dv dbView
		query, args, err := sq.Select(viewColumns...).From("saved_views").Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build select: %w", err)
		}
		if err := tx.GetContext(ctx, &dv, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NewNotFound("view", id)
			}
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM saved_views WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete view: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE saved_views SET display_order = display_order - 1
			WHERE owner_id = ? AND entity_type = ? AND display_order > ?
		`, dv.OwnerID, dv.EntityType, dv.DisplayOrder)
		if err != nil {
			return fmt.Errorf("failed to compact display order: %w", err)
		}
		return nil
	}))
}

func applyViewFilter(b sq.SelectBuilder, filter repository.ViewFilter) sq.SelectBuilder {
	if filter.EntityType != "" {
		b = b.Where(sq.Eq{"entity_type": filter.EntityType})
	}
	if filter.OwnerID != "" {
		b = b.Where(sq.Eq{"owner_id": filter.OwnerID})
	}
	if filter.VisibleTo != "" {
		b = b.Where(sq.Or{
			sq.Eq{"owner_id": filter.VisibleTo},
			sq.NotEq{"visibility": string(domain.VisibilityPrivate)},
		})
	}
	if filter.Pinned != nil {
		b = b.Where(sq.Eq{"pinned": *filter.Pinned})
	}
	if filter.SearchQuery != "" {
		b = b.Where(sq.Expr(`name LIKE ? ESCAPE '\'`, "%"+escapeLike(filter.SearchQuery)+"%"))
	}
	return b
}

// List returns views ordered by owner order, then name.
func (r *ViewRepository) List(ctx context.Context, filter repository.ViewFilter) ([]*domain.SavedView, error) {
	b := applyViewFilter(sq.Select(viewColumns...).From("saved_views"), filter).
		OrderBy("display_order ASC", "name ASC", "id ASC")

	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
		if filter.Offset > 0 {
			b = b.Offset(uint64(filter.Offset))
		}
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var dbViews []dbView
	if err := r.db.SelectContext(ctx, &dbViews, query, args...); err != nil {
		return nil, transportErr("list views", err)
	}

	return toViews(dbViews)
}

func (r *ViewRepository) Count(ctx context.Context, filter repository.ViewFilter) (int64, error) {
	query, args, err := applyViewFilter(sq.Select("COUNT(*)").From("saved_views"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, transportErr("count views", err)
	}

	return count, nil
}

func (r *ViewRepository) Reorder(ctx context.Context, ownerID, entityType string, orderedIDs []string) error {
	return transportErr("reorder views", r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var current []string
		err := tx.SelectContext(ctx, &current, `
			SELECT id FROM saved_views
			WHERE owner_id = ? AND entity_type = ?
			ORDER BY display_order ASC, name ASC
		`, ownerID, entityType)
		if err != nil {
			return fmt.Errorf("failed to load current order: %w", err)
		}

		if err := ordering.ValidatePermutation(current, orderedIDs); err != nil {
			return apperror.NewValidation(domain.RuleInvalidReorder, err.Error())
		}

		stmt, err := tx.PreparexContext(ctx, `UPDATE saved_views SET display_order = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare reorder: %w", err)
		}
		defer stmt.Close()

		for pos, id := range orderedIDs {
			if _, err := stmt.ExecContext(ctx, pos, id); err != nil {
				return fmt.Errorf("failed to set display order of %s: %w", id, err)
			}
		}
		return nil
	}))
}

func (r *ViewRepository) NextDisplayOrder(ctx context.Context, ownerID, entityType string) (int, error) {
	var next int
	err := r.db.GetContext(ctx, &next, `
		SELECT COALESCE(MAX(display_order) + 1, 0) FROM saved_views
		WHERE owner_id = ? AND entity_type = ?
	`, ownerID, entityType)
	if err != nil {
		return 0, transportErr("next display order", err)
	}
	return next, nil
}

func (r *ViewRepository) SetCachedCount(ctx context.Context, viewID string, count int, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE saved_views SET cached_record_count = ?, cached_record_count_at = ? WHERE id = ?`,
		count, at.UTC(), viewID)
	if err != nil {
		return transportErr("cache record count", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperror.NewNotFound("view", viewID)
	}

	return nil
}

func (r *ViewRepository) GetRecentViews(ctx context.Context, ownerID, entityType string, limit int) ([]*domain.SavedView, error) {
	if limit <= 0 {
		limit = 5
	}

	b := applyViewFilter(sq.Select(viewColumns...).From("saved_views"), repository.ViewFilter{
		EntityType: entityType,
		VisibleTo:  ownerID,
	}).
		Where(sq.NotEq{"last_accessed_at": nil}).
		OrderBy("last_accessed_at DESC").
		Limit(uint64(limit))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var dbViews []dbView
	if err := r.db.SelectContext(ctx, &dbViews, query, args...); err != nil {
		return nil, transportErr("recent views", err)
	}

	return toViews(dbViews)
}

func (r *ViewRepository) RecordViewAccess(ctx context.Context, viewID string) error {
	query := `UPDATE saved_views SET last_accessed_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), viewID)
	if err != nil {
		return transportErr("record view access", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperror.NewNotFound("view", viewID)
	}

	return nil
}

func toViews(dbViews []dbView) ([]*domain.SavedView, error) {
	views := make([]*domain.SavedView, 0, len(dbViews))
	for _, dv := range dbViews {
		view, err := dv.toView()
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
