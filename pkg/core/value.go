package core

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind classifies a JSON value. The numeric order of the constants is the
// cross-kind sort order used by OrderBy.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "invalid"
}

// KindOf returns the JSON kind of a Go value.
func KindOf(v any) Kind {
	switch t := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case Record, map[string]any:
		return KindObject
	case *Record:
		if t == nil {
			return KindNull
		}
		return KindObject
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return KindNull
		}
		return KindArray
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindObject
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return KindNull
		}
		return KindOf(rv.Elem().Interface())
	}
	return KindInvalid
}

// AsInt64 interprets an integral JSON number as int64.
func AsInt64(v any) (int64, bool) {
	r, ok := numberRat(v)
	if !ok || !r.IsInt() || !r.Num().IsInt64() {
		return 0, false
	}
	return r.Num().Int64(), true
}

func numberRat(v any) (*big.Rat, bool) {
	r := new(big.Rat)
	switch t := v.(type) {
	case json.Number:
		if _, ok := r.SetString(t.String()); !ok {
			return nil, false
		}
	case int:
		r.SetInt64(int64(t))
	case int8:
		r.SetInt64(int64(t))
	case int16:
		r.SetInt64(int64(t))
	case int32:
		r.SetInt64(int64(t))
	case int64:
		r.SetInt64(t)
	case uint:
		r.SetUint64(uint64(t))
	case uint8:
		r.SetUint64(uint64(t))
	case uint16:
		r.SetUint64(uint64(t))
	case uint32:
		r.SetUint64(uint64(t))
	case uint64:
		r.SetUint64(t)
	case float32:
		return floatRat(float64(t))
	case float64:
		return floatRat(t)
	default:
		return nil, false
	}
	return r, true
}

func floatRat(f float64) (*big.Rat, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return new(big.Rat).SetFloat64(f), true
}

// Equal reports whether two values are the same JSON value. There is no
// coercion between kinds: the string "1" never equals the number 1. Numbers
// compare by value whatever their Go type; objects ignore key order.
func Equal(a, b any) bool {
	a, b = deref(a), deref(b)
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb || ka == KindInvalid {
		return false
	}

	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.(bool) == b.(bool)
	case KindString:
		return a.(string) == b.(string)
	case KindNumber:
		ra, okA := numberRat(a)
		rb, okB := numberRat(b)
		return okA && okB && ra.Cmp(rb) == 0
	case KindArray:
		ea, eb := elements(a), elements(b)
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !Equal(ea[i], eb[i]) {
				return false
			}
		}
		return true
	case KindObject:
		fa, fb := fields(a), fields(b)
		if len(fa) != len(fb) {
			return false
		}
		for k, va := range fa {
			vb, ok := fb[k]
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two values: -1, 0 or +1. Values of different kinds order by
// Kind; within a kind the natural order applies (false < true, numeric,
// lexicographic, element-wise).
func Compare(a, b any) int {
	a, b = deref(a), deref(b)
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return cmpInt(int(ka), int(kb))
	}

	switch ka {
	case KindBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	case KindNumber:
		ra, okA := numberRat(a)
		rb, okB := numberRat(b)
		if !okA || !okB {
			return 0
		}
		return ra.Cmp(rb)
	case KindString:
		return strings.Compare(a.(string), b.(string))
	case KindArray:
		ea, eb := elements(a), elements(b)
		for i := 0; i < len(ea) && i < len(eb); i++ {
			if c := Compare(ea[i], eb[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(ea), len(eb))
	case KindObject:
		return strings.Compare(Text(a), Text(b))
	}
	return 0
}

// Text renders a value for substring search: strings as-is, numbers and
// booleans in their JSON spelling, null as "", containers as JSON.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	}
	if KindOf(v) == KindNumber {
		b, _ := json.Marshal(v)
		return string(b)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// deref follows pointers to the value they hold. A nil pointer is null.
// *Record is kept as is; fields handles it directly.
func deref(v any) any {
	if _, ok := v.(*Record); ok {
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func elements(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func fields(v any) map[string]any {
	switch t := v.(type) {
	case Record:
		return t.values
	case *Record:
		return t.values
	case map[string]any:
		return t
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	out := make(map[string]any, rv.Len())
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		out[k.String()] = rv.MapIndex(k).Interface()
	}
	return out
}
