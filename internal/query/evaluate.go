package query

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"viewengine/internal/domain"
)

// Evaluate reports whether the record satisfies the descriptor.
func Evaluate(d Descriptor, r Record) bool {
	if d.MatchesAll() {
		return true
	}
	for _, b := range d.Branches {
		if matchBranch(b, r) {
			return true
		}
	}
	return false
}

func matchBranch(b Branch, r Record) bool {
	for _, p := range b {
		if !MatchPredicate(p, r) {
			return false
		}
	}
	return true
}

// MatchPredicate evaluates one predicate. Negated operators match records
// where the field is missing; every other operator except is_unknown does not.
func MatchPredicate(p Predicate, r Record) bool {
	raw, present := r[p.Field]
	known := present && isKnown(raw)

	switch p.Operator {
	case domain.OpIsKnown:
		return known
	case domain.OpIsUnknown:
		return !known
	}

	if !known {
		return domain.IsNegated(p.Operator)
	}

	switch p.Type {
	case domain.PropertyNumber:
		return matchNumber(p, raw)
	case domain.PropertyDate:
		return matchDate(p, raw)
	case domain.PropertyBoolean:
		return matchBool(p, raw)
	case domain.PropertyEnum, domain.PropertyStatus, domain.PropertyPerson:
		return matchChoice(p, raw)
	default:
		return matchText(p, raw)
	}
}

func matchText(p Predicate, raw any) bool {
	if p.Value == nil {
		return false
	}
	got := strings.ToLower(toText(raw))
	want := strings.ToLower(p.Value.String())

	switch p.Operator {
	case domain.OpIs:
		return got == want
	case domain.OpIsNot:
		return got != want
	case domain.OpContains:
		return strings.Contains(got, want)
	case domain.OpDoesNotContain:
		return !strings.Contains(got, want)
	case domain.OpStartsWith:
		return strings.HasPrefix(got, want)
	case domain.OpEndsWith:
		return strings.HasSuffix(got, want)
	}
	return false
}

func matchNumber(p Predicate, raw any) bool {
	got, ok := toNumber(raw)
	if !ok || p.Value == nil {
		return false
	}
	want := p.Value.Number

	switch p.Operator {
	case domain.OpIsEqualTo:
		return got.Equal(want)
	case domain.OpIsNotEqualTo:
		return !got.Equal(want)
	case domain.OpIsGreaterThan:
		return got.GreaterThan(want)
	case domain.OpIsGreaterOrEqual:
		return got.GreaterThanOrEqual(want)
	case domain.OpIsLessThan:
		return got.LessThan(want)
	case domain.OpIsLessOrEqual:
		return got.LessThanOrEqual(want)
	case domain.OpIsBetween:
		if p.SecondaryValue == nil {
			return false
		}
		lo, hi := orderedNumbers(want, p.SecondaryValue.Number)
		return got.GreaterThanOrEqual(lo) && got.LessThanOrEqual(hi)
	}
	return false
}

func orderedNumbers(a, b decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if a.GreaterThan(b) {
		return b, a
	}
	return a, b
}

// DateBounds returns the half-open [from, to) interval a date predicate
// accepts; a zero bound is open.
func DateBounds(p Predicate) (from, to time.Time) {
	if p.Value == nil {
		return time.Time{}, time.Time{}
	}
	v := p.Value.Date

	switch p.Operator {
	case domain.OpIs:
		return startOfDay(v), nextDay(v)
	case domain.OpIsBefore:
		return time.Time{}, startOfDay(v)
	case domain.OpIsAfter:
		return nextDay(v), time.Time{}
	case domain.OpIsBetween:
		if p.SecondaryValue == nil {
			return startOfDay(v), time.Time{}
		}
		end := p.SecondaryValue.Date
		if end.Before(v) {
			v, end = end, v
		}
		return startOfDay(v), nextDay(end)
	case domain.OpIsLessThanNAgo:
		return v, time.Time{}
	case domain.OpIsMoreThanNAgo:
		return time.Time{}, v
	}
	return time.Time{}, time.Time{}
}

func matchDate(p Predicate, raw any) bool {
	got, ok := toTime(raw)
	if !ok || p.Value == nil || p.Value.Kind != domain.ValueDate {
		return false
	}
	from, to := DateBounds(p)
	if !from.IsZero() && got.Before(from) {
		return false
	}
	if !to.IsZero() && !got.Before(to) {
		return false
	}
	return true
}

func matchBool(p Predicate, raw any) bool {
	got, ok := toBool(raw)
	if !ok {
		return false
	}
	switch p.Operator {
	case domain.OpIsTrue:
		return got
	case domain.OpIsFalse:
		return !got
	}
	return false
}

func matchChoice(p Predicate, raw any) bool {
	if p.Value == nil {
		return false
	}
	got := toList(raw)
	hit := false
	for _, g := range got {
		for _, w := range p.Value.List {
			if g == w {
				hit = true
			}
		}
	}

	switch p.Operator {
	case domain.OpIsAnyOf:
		return hit
	case domain.OpIsNoneOf:
		return !hit
	}
	return false
}

func isKnown(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case *time.Time:
		return v != nil
	}
	return true
}

func toText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(raw)
}

func toNumber(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func toTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return v.UTC(), true
	case string:
		if t, err := domain.ParseStoredDate(v); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	}
	return false, false
}

func toList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, toText(item))
		}
		return out
	}
	return []string{toText(raw)}
}

// CompareValues orders two raw field values of a property type. Unknown values
// sort first, matching how SQLite orders NULL.
func CompareValues(t domain.PropertyType, a, b any) int {
	ka, kb := isKnown(a), isKnown(b)
	switch {
	case !ka && !kb:
		return 0
	case !ka:
		return -1
	case !kb:
		return 1
	}

	switch t {
	case domain.PropertyNumber:
		da, okA := toNumber(a)
		db, okB := toNumber(b)
		if okA && okB {
			return da.Cmp(db)
		}
	case domain.PropertyDate:
		ta, okA := toTime(a)
		tb, okB := toTime(b)
		if okA && okB {
			return ta.Compare(tb)
		}
	case domain.PropertyBoolean:
		ba, okA := toBool(a)
		bb, okB := toBool(b)
		if okA && okB {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(toText(a), toText(b))
}
