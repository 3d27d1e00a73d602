// Package normalize maps rows from spreadsheets, legacy stores, Supabase
// and Takeads into the canonical store and coupon shapes.
//
// Every canonical field is described by a Field: an ordered list of
// candidate source keys and a coercion. The canonical key always comes
// first, so normalizing an already canonical row returns it unchanged.
package normalize

import (
	"time"
)

// Row is one raw record keyed by its source's column names.
type Row map[string]any

// Coercion converts a raw value to the canonical type. It receives nil when
// no candidate key held a value and must return the field's zero value then.
type Coercion func(any) any

type Field struct {
	Name   string
	Keys   []string
	Coerce Coercion
	// Default replaces Coerce(nil) for missing fields when set.
	Default any
}

// Apply builds the canonical row. It never fails: missing or malformed
// values fall back to the field default.
func Apply(fields []Field, row Row) Row {
	out := make(Row, len(fields))
	for _, f := range fields {
		raw, ok := lookup(row, f.Keys)
		if !ok && f.Default != nil {
			out[f.Name] = f.Default
			continue
		}
		out[f.Name] = f.Coerce(raw)
	}
	return out
}

// lookup returns the first candidate key holding a non-nil value. Empty
// strings count as present.
func lookup(row Row, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || isNil(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func isNil(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *string:
		return t == nil
	case *float64:
		return t == nil
	case *int:
		return t == nil
	case *bool:
		return t == nil
	case *time.Time:
		return t == nil
	}
	return false
}

func (r Row) str(k string) string {
	s, _ := r[k].(string)
	return s
}

func (r Row) optStr(k string) *string {
	s, ok := r[k].(string)
	if !ok {
		return nil
	}
	return &s
}

func (r Row) num(k string) *float64 {
	f, ok := r[k].(float64)
	if !ok {
		return nil
	}
	return &f
}

func (r Row) whole(k string) *int {
	n, ok := r[k].(int)
	if !ok {
		return nil
	}
	return &n
}

func (r Row) flag(k string) bool {
	b, _ := r[k].(bool)
	return b
}

func (r Row) list(k string) []string {
	l, ok := r[k].([]string)
	if !ok {
		return []string{}
	}
	return l
}

func (r Row) when(k string) *time.Time {
	t, ok := r[k].(time.Time)
	if !ok {
		return nil
	}
	return &t
}
