package enrich

import "encoding/json"

// ExcludedPlaceholder is the serialized form of an excluded field: a value
// that cannot collide with any real MRN, name, or date. Downstream grouping
// and counting code compares fields against Excluded with == instead of
// null-checking.
const ExcludedPlaceholder = "__excluded__"

type fieldState int

const (
	fieldAbsent fieldState = iota
	fieldPresent
	fieldExcluded
)

// Field is a tri-state record field: absent (zero value), present with a
// value, or excluded ("no usable value", distinct from absence). Fields are
// comparable, so two present fields are equal exactly when their values are.
type Field struct {
	state fieldState
	value string
}

// Excluded is the reserved "no usable value" field.
var Excluded = Field{state: fieldExcluded}

// Present returns a field carrying the given value.
func Present(v string) Field { return Field{state: fieldPresent, value: v} }

// IsPresent reports whether the field carries a real value.
func (f Field) IsPresent() bool { return f.state == fieldPresent }

// IsExcluded reports whether the field is the excluded placeholder.
func (f Field) IsExcluded() bool { return f.state == fieldExcluded }

// Value returns the field's value when present.
func (f Field) Value() (string, bool) {
	if f.state != fieldPresent {
		return "", false
	}
	return f.value, true
}

func (f Field) String() string {
	switch f.state {
	case fieldPresent:
		return f.value
	case fieldExcluded:
		return ExcludedPlaceholder
	default:
		return ""
	}
}

// MarshalJSON emits the value, the excluded placeholder, or null.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.state {
	case fieldPresent:
		return json.Marshal(f.value)
	case fieldExcluded:
		return json.Marshal(ExcludedPlaceholder)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON restores a field from its serialized form.
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == ExcludedPlaceholder {
		*f = Excluded
	} else {
		*f = Present(s)
	}
	return nil
}

// excludedCount is the legacy wire sentinel for "intervention count does not
// apply to this record type". Deliberately never zero, so reports can tell
// "not applicable" from "zero interventions recorded".
const excludedCount = -1

// Count is an intervention count that may be excluded for record types that
// do not carry interventions.
type Count struct {
	excluded bool
	n        int
}

// ExcludedCount marks intervention counting as not applicable.
var ExcludedCount = Count{excluded: true}

// CountOf returns an applicable count.
func CountOf(n int) Count { return Count{n: n} }

// Value returns the count when applicable.
func (c Count) Value() (int, bool) {
	if c.excluded {
		return 0, false
	}
	return c.n, true
}

// IsExcluded reports whether counting applies to the record at all.
func (c Count) IsExcluded() bool { return c.excluded }

// MarshalJSON emits the count, or the legacy -1 sentinel when excluded.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.excluded {
		return json.Marshal(excludedCount)
	}
	return json.Marshal(c.n)
}

// UnmarshalJSON restores a count, mapping any negative value to excluded.
func (c *Count) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n < 0 {
		*c = ExcludedCount
	} else {
		*c = CountOf(n)
	}
	return nil
}
