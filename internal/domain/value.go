package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// discriminator of a FilterValue
type ValueKind string

const (
	ValueText   ValueKind = "text"
	ValueNumber ValueKind = "number"
	ValueDate   ValueKind = "date"
	ValueBool   ValueKind = "boolean"
	ValueList   ValueKind = "list"
)

const dateLayout = "2006-01-02"

// FilterValue is a tagged union; only the field matching Kind is meaningful.
type FilterValue struct {
	Kind   ValueKind
	Text   string
	Number decimal.Decimal
	Date   time.Time
	Bool   bool
	List   []string
}

func TextValue(s string) FilterValue {
	return FilterValue{Kind: ValueText, Text: s}
}

func NumberValue(d decimal.Decimal) FilterValue {
	return FilterValue{Kind: ValueNumber, Number: d}
}

func IntValue(n int64) FilterValue {
	return NumberValue(decimal.NewFromInt(n))
}

func DateValue(t time.Time) FilterValue {
	return FilterValue{Kind: ValueDate, Date: t.UTC()}
}

func BoolValue(b bool) FilterValue {
	return FilterValue{Kind: ValueBool, Bool: b}
}

func ListValue(items ...string) FilterValue {
	return FilterValue{Kind: ValueList, List: slices.Clone(items)}
}

// Ptr returns a pointer to a copy of v.
func (v FilterValue) Ptr() *FilterValue {
	c := v.Clone()
	return &c
}

func (v FilterValue) Clone() FilterValue {
	v.List = slices.Clone(v.List)
	return v
}

func (v FilterValue) Equal(o FilterValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueText:
		return v.Text == o.Text
	case ValueNumber:
		return v.Number.Equal(o.Number)
	case ValueDate:
		return v.Date.Equal(o.Date)
	case ValueBool:
		return v.Bool == o.Bool
	case ValueList:
		return slices.Equal(v.List, o.List)
	}
	return true
}

// IsZero reports an empty value (blank text, empty list).
func (v FilterValue) IsZero() bool {
	switch v.Kind {
	case ValueText:
		return strings.TrimSpace(v.Text) == ""
	case ValueList:
		return len(v.List) == 0
	case ValueDate:
		return v.Date.IsZero()
	case "":
		return true
	}
	return false
}

func (v FilterValue) String() string {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueNumber:
		return v.Number.String()
	case ValueDate:
		return formatDate(v.Date)
	case ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValueList:
		return strings.Join(v.List, ",")
	}
	return ""
}

func formatDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(time.RFC3339)
}

type wireValue struct {
	Kind  ValueKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v FilterValue) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)

	switch v.Kind {
	case ValueText:
		raw, err = json.Marshal(v.Text)
	case ValueNumber:
		raw, err = json.Marshal(v.Number.String())
	case ValueDate:
		raw, err = json.Marshal(formatDate(v.Date))
	case ValueBool:
		raw, err = json.Marshal(v.Bool)
	case ValueList:
		list := v.List
		if list == nil {
			list = []string{}
		}
		raw, err = json.Marshal(list)
	default:
		return nil, fmt.Errorf("cannot marshal filter value of kind %q", v.Kind)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireValue{Kind: v.Kind, Value: raw})
}

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("invalid filter value: %w", err)
	}

	out := FilterValue{Kind: w.Kind}
	switch w.Kind {
	case ValueText:
		if err := json.Unmarshal(w.Value, &out.Text); err != nil {
			return fmt.Errorf("invalid text value: %w", err)
		}
	case ValueNumber:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			// accept bare JSON numbers as well
			s = string(w.Value)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid number value %q: %w", s, err)
		}
		out.Number = d
	case ValueDate:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return fmt.Errorf("invalid date value: %w", err)
		}
		t, err := ParseStoredDate(s)
		if err != nil {
			return err
		}
		out.Date = t
	case ValueBool:
		if err := json.Unmarshal(w.Value, &out.Bool); err != nil {
			return fmt.Errorf("invalid boolean value: %w", err)
		}
	case ValueList:
		if err := json.Unmarshal(w.Value, &out.List); err != nil {
			return fmt.Errorf("invalid list value: %w", err)
		}
	default:
		return fmt.Errorf("unknown filter value kind %q", w.Kind)
	}

	*v = out
	return nil
}

// ParseStoredDate parses the two date encodings FilterValue emits.
func ParseStoredDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return t.UTC(), nil
}
