package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"viewengine/internal/apperror"
	"viewengine/internal/domain"
	"viewengine/internal/query"
)

// RecordStore executes compiled requests against the records of one entity
// type, kept as JSON documents.
type RecordStore struct {
	db         *DB
	entityType string
	types      map[string]domain.PropertyType
	schema     query.SQLSchema
}

func NewRecordStore(db *DB, module *domain.ModuleConfig) (*RecordStore, error) {
	schema, err := query.JSONSchema("records", "id", "data", module.ColumnIDs(), module.SearchableColumnIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to map %s columns: %w", module.EntityType, err)
	}
	return &RecordStore{
		db:         db,
		entityType: module.EntityType,
		types:      module.FieldTypes(),
		schema:     schema,
	}, nil
}

type dbRecord struct {
	ID   string `db:"id"`
	Data string `db:"data"`
}

func (dr dbRecord) toRecord() (query.Record, error) {
	rec := make(query.Record)
	if err := json.Unmarshal([]byte(dr.Data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", dr.ID, err)
	}
	rec["id"] = dr.ID
	return rec, nil
}

func (s *RecordStore) encode(rec query.Record) (string, string, error) {
	id := rec.ID()
	if id == "" {
		return "", "", apperror.NewValidation("record_id", "record has no id")
	}
	normalized := query.NormalizeForSQL(rec, s.types)
	delete(normalized, "id")
	data, err := marshalJSON(normalized, "record")
	if err != nil {
		return "", "", err
	}
	return id, data, nil
}

const upsertRecord = `
	INSERT INTO records (entity_type, id, data) VALUES (?, ?, ?)
	ON CONFLICT(entity_type, id) DO UPDATE SET data = excluded.data
`

// Put inserts or replaces one record.
func (s *RecordStore) Put(ctx context.Context, rec query.Record) error {
	id, data, err := s.encode(rec)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertRecord, s.entityType, id, data); err != nil {
		return transportErr("put record", err)
	}
	return nil
}

// PutAll upserts records in a single transaction.
func (s *RecordStore) PutAll(ctx context.Context, recs []query.Record) error {
	return transportErr("put records", s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, upsertRecord)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range recs {
			id, data, err := s.encode(rec)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, s.entityType, id, data); err != nil {
				return fmt.Errorf("failed to insert record %s: %w", id, err)
			}
		}
		return nil
	}))
}

func (s *RecordStore) Get(ctx context.Context, id string) (query.Record, error) {
	var dr dbRecord
	err := s.db.GetContext(ctx, &dr,
		`SELECT id, data FROM records WHERE entity_type = ? AND id = ?`, s.entityType, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFound("record", id)
		}
		return nil, transportErr("get record", err)
	}
	return dr.toRecord()
}

// SetField updates a single field of a record, as a board lane drop does.
func (s *RecordStore) SetField(ctx context.Context, id, field string, value any) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := s.types[field]; !ok {
		return apperror.NewValidation(domain.RuleUnknownProperty, fmt.Sprintf("unknown field %q", field))
	}
	rec[field] = value
	return s.Put(ctx, rec)
}

func (s *RecordStore) Execute(ctx context.Context, req query.Request) (query.Result, error) {
	b, err := s.schema.ToSQL(req, "id", "data")
	if err != nil {
		return query.Result{}, apperror.NewValidation(domain.RuleUnknownColumn, err.Error())
	}
	sqlStr, args, err := b.Where(sq.Eq{"entity_type": s.entityType}).ToSql()
	if err != nil {
		return query.Result{}, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []dbRecord
	if err := s.db.SelectContext(ctx, &rows, sqlStr, args...); err != nil {
		return query.Result{}, transportErr("execute query", err)
	}

	total, err := s.Count(ctx, req.Descriptor, req.SearchQuery)
	if err != nil {
		return query.Result{}, err
	}

	records := make([]query.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return query.Result{}, err
		}
		records = append(records, rec)
	}

	return query.Result{Records: records, Total: total}, nil
}

func (s *RecordStore) Count(ctx context.Context, d query.Descriptor, search string) (int, error) {
	b, err := s.schema.CountSQL(query.Request{Descriptor: d, SearchQuery: search})
	if err != nil {
		return 0, apperror.NewValidation(domain.RuleUnknownColumn, err.Error())
	}
	sqlStr, args, err := b.Where(sq.Eq{"entity_type": s.entityType}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, sqlStr, args...); err != nil {
		return 0, transportErr("count records", err)
	}
	return total, nil
}
