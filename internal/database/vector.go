package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Vector stores an embedding in a text column using the pgvector literal
// format "[0.1,0.2,0.3]". The same format is readable by SQLite and by a
// pgvector column cast, so one model serves both drivers.
//
// A nil Vector writes SQL NULL, which is how an absent embedding is recorded.
type Vector []float64

// Scan implements sql.Scanner.
func (v *Vector) Scan(value any) error {
	var raw string
	switch val := value.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return fmt.Errorf("cannot scan %T into Vector", value)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if strings.TrimSpace(raw) == "" {
		*v = Vector{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parse vector element %d: %w", i, err)
		}
		out[i] = f
	}
	*v = out
	return nil
}

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return v.String(), nil
}

// String returns the vector literal.
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(len(v)*12 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// Floats returns a copy of the elements, or nil when the vector is absent.
func (v Vector) Floats() []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
