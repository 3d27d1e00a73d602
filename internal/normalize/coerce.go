package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"couponly/internal/domain/coupons"
)

// String trims strings and renders scalars; nil becomes "".
func String(v any) any {
	return toString(v)
}

// OptString is String with "" mapped to nil.
func OptString(v any) any {
	s := toString(v)
	if s == "" {
		return nil
	}
	return s
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case *string:
		if t == nil {
			return ""
		}
		return strings.TrimSpace(*t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return toString(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Number parses discounts and similar values. "20%", "$15" and "1,200" are
// accepted; anything unparseable, NaN or infinite becomes nil.
func Number(v any) any {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return f
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case *float64:
		if t == nil {
			return 0, false
		}
		f = *t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case *int:
		if t == nil {
			return 0, false
		}
		f = float64(*t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimRight(s, "% ")
		s = strings.TrimLeft(s, "$€£₹ ")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int accepts whole numbers only.
func Int(v any) any {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	return int(f)
}

// Position is an Int restricted to the layout slot range.
func Position(v any) any {
	n, ok := Int(v).(int)
	if !ok || n < coupons.MinLayoutPosition || n > coupons.MaxLayoutPosition {
		return nil
	}
	return n
}

// Bool understands the spellings found in spreadsheets ("yes", "Active", "1").
func Bool(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case *bool:
		return t != nil && *t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "t", "1", "yes", "y", "active", "enabled", "published", "on":
			return true
		}
		return false
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return false
}

// StringList accepts arrays or a comma separated string and drops blanks.
func StringList(v any) any {
	out := []string{}
	add := func(x any) {
		if s := toString(x); s != "" {
			out = append(out, s)
		}
	}

	switch t := v.(type) {
	case nil:
	case []string:
		for _, s := range t {
			add(s)
		}
	case []any:
		for _, x := range t {
			add(x)
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			add(s)
		}
	default:
		add(v)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Time returns a UTC time.Time or nil. Numbers are unix seconds.
func Time(v any) any {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return t.UTC()
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t.UTC()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC()
			}
		}
		return nil
	}
	if f, ok := toFloat(v); ok && f > 0 {
		return time.Unix(int64(f), 0).UTC()
	}
	return nil
}

// URL trims and normalizes links; blanks become nil.
func URL(v any) any {
	s := toString(v)
	if s == "" {
		return nil
	}
	return NormalizeURL(s)
}

// DiscountType maps the spellings seen in imports to percentage or fixed.
// Unknown values become "" and are inferred from the discount later.
func DiscountType(v any) any {
	switch strings.ToLower(toString(v)) {
	case coupons.DiscountPercentage, "percent", "%", "pct":
		return coupons.DiscountPercentage
	case coupons.DiscountFixed, "amount", "flat", "fixed_amount", "value":
		return coupons.DiscountFixed
	}
	return ""
}

// CouponType maps "coupon"/"offer"-style spellings to code or deal.
func CouponType(v any) any {
	switch strings.ToLower(toString(v)) {
	case coupons.TypeCode, "coupon", "promo", "promocode", "voucher":
		return coupons.TypeCode
	case coupons.TypeDeal, "offer", "sale", "discount":
		return coupons.TypeDeal
	}
	return ""
}
