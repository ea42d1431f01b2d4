package field

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// dateTimeLayouts are tried in order when parsing textual timestamps.
// Layouts without a zone are interpreted as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// decimalContext carries enough precision for any DECIMAL(m,d) column.
var decimalContext = apd.BaseContext.WithPrecision(100)

// Parse validates and normalizes an application-supplied value. Parse is
// idempotent: Parse(Parse(v)) equals Parse(v).
//
// Normalized types: text kinds string (NFC), integers int64, booleans bool,
// floats float64, decimals *apd.Decimal, datetimes time.Time in UTC
// truncated to seconds, blobs []byte, objects the JSON-decoded value.
func (f *Field) Parse(v any) (any, error) {
	if f.kind.IsPseudo() {
		return nil, f.invalid(nil, "%s is not a value field", f.kind)
	}
	if f.kind == KindBoolean {
		return f.parseBool(v)
	}
	if v == nil {
		if !f.null {
			return nil, f.invalid(nil, "Empty field value (required)")
		}
		return nil, nil
	}
	c, err := f.coerce(v)
	if err != nil {
		return nil, err
	}
	if err := f.check(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Load converts a raw storage value into the application representation.
// Bounds are not enforced: data already stored is trusted to be readable.
func (f *Field) Load(raw any) (any, error) {
	if raw == nil || f.kind.IsPseudo() {
		return nil, nil
	}
	switch f.kind {
	case KindObject:
		var data []byte
		switch r := raw.(type) {
		case string:
			data = []byte(r)
		case []byte:
			data = r
		default:
			return f.coerce(raw)
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, f.invalid(nil, "stored value is not JSON: %v", err)
		}
		return out, nil
	case KindBoolean:
		switch r := raw.(type) {
		case []byte:
			raw = string(r)
		}
		if s, ok := raw.(string); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, f.invalid(raw, "Invalid True/False Boolean value")
			}
			return n != 0, nil
		}
		return f.parseBool(raw)
	}
	return f.coerce(raw)
}

// Store converts an application value into the representation handed to
// the execution engine. Dialect-specific binding (e.g. SQLite epoch
// timestamps) happens afterwards in the dialect driver.
func (f *Field) Store(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.kind {
	case KindObject:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, f.invalid(nil, "JSON serializable value required")
		}
		return string(data), nil
	case KindDecimal:
		if d, ok := v.(*apd.Decimal); ok {
			return d.Text('f'), nil
		}
	case KindBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
	}
	return v, nil
}

func (f *Field) parseBool(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case int, int8, int16, int32, int64:
		return reflect.ValueOf(b).Int() != 0, nil
	case uint, uint8, uint16, uint32, uint64:
		return reflect.ValueOf(b).Uint() != 0, nil
	}
	return nil, f.invalid(v, "Invalid True/False Boolean value")
}

func (f *Field) coerce(v any) (any, error) {
	switch {
	case f.kind.IsText():
		return f.coerceText(v)
	case f.kind.IsInteger():
		return f.toInt(v)
	case f.kind.IsFloat():
		return f.toFloat(v)
	case f.kind == KindDecimal:
		return f.toDecimal(v)
	case f.kind == KindDateTime:
		return f.toTime(v)
	case f.kind.IsBlob():
		switch b := v.(type) {
		case []byte:
			return bytes.Clone(b), nil
		case string:
			return []byte(b), nil
		}
		return nil, f.invalid(v, "Binary value required")
	case f.kind == KindObject:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, f.invalid(nil, "JSON serializable value required")
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, f.invalid(nil, "JSON serializable value required")
		}
		return out, nil
	}
	return nil, f.invalid(v, "unsupported field type %s", f.kind)
}

func (f *Field) coerceText(v any) (any, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case uuid.UUID:
		s = t.String()
	case fmt.Stringer:
		s = t.String()
	default:
		return nil, f.invalid(v, "Text value required")
	}
	if !utf8.ValidString(s) {
		return nil, f.invalid(nil, "Invalid UTF-8 text")
	}
	s = norm.NFC.String(s)
	if f.kind == KindUUID {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, f.invalid(v, "UUID value required")
		}
		return id.String(), nil
	}
	return s, nil
}

func (f *Field) toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return f.fromUint(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return f.fromUint(n)
	case float32:
		return f.fromFloat(float64(n))
	case float64:
		return f.fromFloat(n)
	case json.Number:
		return f.fromString(string(n))
	case string:
		return f.fromString(n)
	case []byte:
		return f.fromString(string(n))
	}
	return 0, f.invalid(v, "Integer value required")
}

func (f *Field) fromUint(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, f.invalid(n, "Exceeding max value '%d'", int64(math.MaxInt64))
	}
	return int64(n), nil
}

func (f *Field) fromFloat(n float64) (int64, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, f.invalid(n, "Integer value required")
	}
	if n < math.MinInt64 || n >= math.MaxInt64 {
		return 0, f.invalid(n, "Integer value out of range")
	}
	return int64(n), nil
}

func (f *Field) fromString(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, f.invalid(s, "Integer value required")
	}
	return n, nil
}

func (f *Field) toFloat(v any) (float64, error) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := f.toInt(t)
		if err != nil {
			return 0, err
		}
		n = float64(i)
	case *apd.Decimal:
		var err error
		if n, err = t.Float64(); err != nil {
			return 0, f.invalid(v, "Float value required")
		}
	case json.Number, string, []byte:
		var err error
		if n, err = strconv.ParseFloat(strings.TrimSpace(toString(t)), 64); err != nil {
			return 0, f.invalid(v, "Float value required")
		}
	default:
		return 0, f.invalid(v, "Float value required")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, f.invalid(v, "Float value required")
	}
	return n, nil
}

func (f *Field) toDecimal(v any) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	switch t := v.(type) {
	case *apd.Decimal:
		d.Set(t)
	case apd.Decimal:
		d.Set(&t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := f.toInt(t)
		if err != nil {
			return nil, err
		}
		d.SetInt64(i)
	case float32, float64:
		n, err := f.toFloat(t)
		if err != nil {
			return nil, err
		}
		if _, err := d.SetFloat64(n); err != nil {
			return nil, f.invalid(v, "Decimal value required")
		}
	case json.Number, string, []byte:
		if _, _, err := d.SetString(strings.TrimSpace(toString(t))); err != nil {
			return nil, f.invalid(v, "Decimal value required")
		}
	default:
		return nil, f.invalid(v, "Decimal value required")
	}
	if d.Form != apd.Finite {
		return nil, f.invalid(v, "Decimal value required")
	}
	if f.precision > 0 {
		if _, err := decimalContext.Quantize(d, d, -int32(f.scale)); err != nil {
			return nil, f.invalid(v, "Decimal value out of range")
		}
		if d.NumDigits() > int64(f.precision) && !d.IsZero() {
			return nil, f.invalid(v, "Exceeding precision (%d,%d)", f.precision, f.scale)
		}
	}
	return d, nil
}

func (f *Field) toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Truncate(time.Second), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := f.toInt(t)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(n, 0).UTC(), nil
	case string, []byte:
		s := strings.TrimSpace(toString(t))
		for _, layout := range dateTimeLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return ts.UTC().Truncate(time.Second), nil
			}
		}
	}
	return time.Time{}, f.invalid(v, "DateTime value required")
}

// check enforces the declared bounds on a coerced value.
func (f *Field) check(v any) error {
	switch t := v.(type) {
	case string:
		if !f.null && strings.TrimSpace(t) == "" {
			return f.invalid(nil, "Empty field value (required)")
		}
		if f.kind == KindEnum && !f.inEnum(t) {
			return f.invalid(t, "Invalid option")
		}
		return f.checkLength(utf8.RuneCountInString(t), t)
	case []byte:
		return f.checkLength(len(t), nil)
	case int64:
		lo, hi := f.kind.IntRange(f.signed)
		if t < lo {
			return f.invalid(t, "Minimum value '%d'", lo)
		}
		if t > hi {
			return f.invalid(t, "Exceeding max value '%d'", hi)
		}
		return f.checkValue(float64(t), t)
	case float64:
		if !f.signed && t < 0 {
			return f.invalid(t, "Minimum value '0'")
		}
		return f.checkValue(t, t)
	case *apd.Decimal:
		if !f.signed && t.Negative && !t.IsZero() {
			return f.invalid(t, "Minimum value '0'")
		}
		n, err := t.Float64()
		if err != nil {
			return f.invalid(t, "Decimal value out of range")
		}
		return f.checkValue(n, t)
	}
	return nil
}

func (f *Field) checkLength(n int, v any) error {
	if f.minLength > 0 && n < f.minLength {
		return f.invalid(v, "Minimum length '%d'", f.minLength)
	}
	if f.maxLength > 0 && n > f.maxLength {
		return f.invalid(v, "Exceeding max length '%d'", f.maxLength)
	}
	return nil
}

func (f *Field) checkValue(n float64, v any) error {
	if f.minValue != nil && n < *f.minValue {
		return f.invalid(v, "Minimum value '%v'", *f.minValue)
	}
	if f.maxValue != nil && n > *f.maxValue {
		return f.invalid(v, "Exceeding max value '%v'", *f.maxValue)
	}
	return nil
}

func (f *Field) inEnum(s string) bool {
	for _, e := range f.enum {
		if e == s {
			return true
		}
	}
	return false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return string(t)
	}
	return fmt.Sprint(v)
}
