package query

import (
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"viewengine/internal/domain"
)

var safeFieldRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSchema maps predicate fields to SQL expressions. Fields without a
// mapping are rejected, so user input never reaches the SQL text.
type SQLSchema struct {
	Table         string
	IDColumn      string
	Columns       map[string]string
	SearchColumns []string
}

// JSONSchema maps each field to json_extract over a JSON payload column.
func JSONSchema(table, idColumn, dataColumn string, fields []string, searchFields []string) (SQLSchema, error) {
	s := SQLSchema{Table: table, IDColumn: idColumn, Columns: make(map[string]string, len(fields))}
	for _, f := range fields {
		if !safeFieldRe.MatchString(f) {
			return SQLSchema{}, fmt.Errorf("field %q cannot be mapped to SQL", f)
		}
		s.Columns[f] = fmt.Sprintf("json_extract(%s, '$.%s')", dataColumn, f)
	}
	for _, f := range searchFields {
		if _, ok := s.Columns[f]; !ok {
			return SQLSchema{}, fmt.Errorf("search field %q is not a mapped column", f)
		}
		s.SearchColumns = append(s.SearchColumns, f)
	}
	return s, nil
}

func (s SQLSchema) column(field string) (string, error) {
	col, ok := s.Columns[field]
	if !ok {
		return "", fmt.Errorf("invalid filter column: %s", field)
	}
	return col, nil
}

// WhereClause translates a descriptor. It returns nil when every record matches.
func (s SQLSchema) WhereClause(d Descriptor) (sq.Sqlizer, error) {
	if d.MatchesAll() {
		return nil, nil
	}

	or := make(sq.Or, 0, len(d.Branches))
	for _, b := range d.Branches {
		and := make(sq.And, 0, len(b))
		for _, p := range b {
			expr, err := s.predicateSQL(p)
			if err != nil {
				return nil, err
			}
			and = append(and, expr)
		}
		or = append(or, and)
	}
	return or, nil
}

// SearchClause matches the search text against every search column.
func (s SQLSchema) SearchClause(search string) sq.Sqlizer {
	search = strings.TrimSpace(search)
	if search == "" || len(s.SearchColumns) == 0 {
		return nil
	}
	pattern := "%" + escapeLike(search) + "%"
	or := make(sq.Or, 0, len(s.SearchColumns))
	for _, f := range s.SearchColumns {
		or = append(or, sq.Expr(s.Columns[f]+` LIKE ? ESCAPE '\'`, pattern))
	}
	return or
}

func (s SQLSchema) filtered(b sq.SelectBuilder, req Request) (sq.SelectBuilder, error) {
	where, err := s.WhereClause(req.Descriptor)
	if err != nil {
		return b, err
	}
	if where != nil {
		b = b.Where(where)
	}
	if search := s.SearchClause(req.SearchQuery); search != nil {
		b = b.Where(search)
	}
	return b, nil
}

// ToSQL builds the page query for a request.
func (s SQLSchema) ToSQL(req Request, selectCols ...string) (sq.SelectBuilder, error) {
	if len(selectCols) == 0 {
		selectCols = []string{"*"}
	}
	b, err := s.filtered(sq.Select(selectCols...).From(s.Table), req)
	if err != nil {
		return b, err
	}

	if req.SortField != "" {
		col, err := s.column(req.SortField)
		if err != nil {
			return b, err
		}
		dir := "ASC"
		if req.SortDirection == domain.SortDesc {
			dir = "DESC"
		}
		b = b.OrderBy(fmt.Sprintf("%s %s", col, dir))
	}
	if s.IDColumn != "" {
		b = b.OrderBy(s.IDColumn + " ASC")
	}

	if req.PageSize > 0 {
		b = b.Limit(uint64(req.PageSize)).Offset(uint64(req.Offset()))
	}
	return b, nil
}

// CountSQL builds the total-count query for a request, ignoring pagination.
func (s SQLSchema) CountSQL(req Request) (sq.SelectBuilder, error) {
	return s.filtered(sq.Select("COUNT(*)").From(s.Table), req)
}

func (s SQLSchema) predicateSQL(p Predicate) (sq.Sqlizer, error) {
	col, err := s.column(p.Field)
	if err != nil {
		return nil, err
	}

	isNull := sq.Eq{col: nil}
	switch p.Operator {
	case domain.OpIsKnown:
		return sq.And{sq.NotEq{col: nil}, sq.NotEq{col: ""}}, nil
	case domain.OpIsUnknown:
		return sq.Or{isNull, sq.Eq{col: ""}}, nil
	case domain.OpIsTrue:
		return sq.Eq{col: 1}, nil
	case domain.OpIsFalse:
		return sq.Eq{col: 0}, nil
	}

	if p.Value == nil {
		return nil, fmt.Errorf("predicate %s needs a value", p)
	}

	switch p.Type {
	case domain.PropertyNumber:
		return numberSQL(col, p)
	case domain.PropertyDate:
		from, to := DateBounds(p)
		and := sq.And{}
		if !from.IsZero() {
			and = append(and, sq.GtOrEq{col: FormatDateForSQL(from)})
		}
		if !to.IsZero() {
			and = append(and, sq.Lt{col: FormatDateForSQL(to)})
		}
		if len(and) == 0 {
			return nil, fmt.Errorf("unsupported date operator %s", p.Operator)
		}
		return and, nil
	case domain.PropertyEnum, domain.PropertyStatus, domain.PropertyPerson:
		switch p.Operator {
		case domain.OpIsAnyOf:
			return sq.Eq{col: p.Value.List}, nil
		case domain.OpIsNoneOf:
			return sq.Or{isNull, sq.NotEq{col: p.Value.List}}, nil
		}
	default:
		return textSQL(col, p)
	}
	return nil, fmt.Errorf("unsupported operator %s for %s", p.Operator, p.Type)
}

func numberSQL(col string, p Predicate) (sq.Sqlizer, error) {
	v := p.Value.Number.InexactFloat64()
	switch p.Operator {
	case domain.OpIsEqualTo:
		return sq.Eq{col: v}, nil
	case domain.OpIsNotEqualTo:
		return sq.Or{sq.Eq{col: nil}, sq.NotEq{col: v}}, nil
	case domain.OpIsGreaterThan:
		return sq.Gt{col: v}, nil
	case domain.OpIsGreaterOrEqual:
		return sq.GtOrEq{col: v}, nil
	case domain.OpIsLessThan:
		return sq.Lt{col: v}, nil
	case domain.OpIsLessOrEqual:
		return sq.LtOrEq{col: v}, nil
	case domain.OpIsBetween:
		if p.SecondaryValue == nil {
			return nil, fmt.Errorf("predicate %s needs two values", p)
		}
		lo, hi := orderedNumbers(p.Value.Number, p.SecondaryValue.Number)
		return sq.And{sq.GtOrEq{col: lo.InexactFloat64()}, sq.LtOrEq{col: hi.InexactFloat64()}}, nil
	}
	return nil, fmt.Errorf("unsupported number operator %s", p.Operator)
}

func textSQL(col string, p Predicate) (sq.Sqlizer, error) {
	v := p.Value.String()
	like := col + ` LIKE ? ESCAPE '\'`
	notLike := col + ` NOT LIKE ? ESCAPE '\'`
	isNull := sq.Eq{col: nil}

	switch p.Operator {
	case domain.OpIs:
		return sq.Expr("LOWER("+col+") = LOWER(?)", v), nil
	case domain.OpIsNot:
		return sq.Or{isNull, sq.Expr("LOWER("+col+") <> LOWER(?)", v)}, nil
	case domain.OpContains:
		return sq.Expr(like, "%"+escapeLike(v)+"%"), nil
	case domain.OpDoesNotContain:
		return sq.Or{isNull, sq.Expr(notLike, "%"+escapeLike(v)+"%")}, nil
	case domain.OpStartsWith:
		return sq.Expr(like, escapeLike(v)+"%"), nil
	case domain.OpEndsWith:
		return sq.Expr(like, "%"+escapeLike(v)), nil
	}
	return nil, fmt.Errorf("unsupported text operator %s", p.Operator)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// NormalizeForSQL returns a copy of r with date fields as RFC3339 UTC strings
// and number fields as JSON numbers, so SQL comparisons on json_extract
// agree with Evaluate.
func NormalizeForSQL(r Record, types map[string]domain.PropertyType) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
		if v == nil {
			continue
		}
		switch types[k] {
		case domain.PropertyDate:
			if t, ok := toTime(v); ok {
				out[k] = FormatDateForSQL(t)
			}
		case domain.PropertyNumber:
			if d, ok := toNumber(v); ok {
				out[k] = d.InexactFloat64()
			}
		case domain.PropertyBoolean:
			if b, ok := toBool(v); ok {
				out[k] = b
			}
		}
	}
	return out
}
