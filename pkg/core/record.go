package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Record is an ordered mapping from field name to a JSON value.
//
// Values decoded from disk are one of: nil, bool, json.Number, string, []any
// or Record. Callers may also store any Go value that encoding/json accepts.
// Key order is preserved through encode and decode.
//
// A Record shares its storage when copied by value; use Clone before handing
// a record to code that may mutate it.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord builds a record from alternating key/value pairs.
// It panics if a key is not a string, so it is meant for literals.
func NewRecord(pairs ...any) Record {
	if len(pairs)%2 != 0 {
		panic("core.NewRecord: odd number of arguments")
	}
	var r Record
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("core.NewRecord: key %v is not a string", pairs[i]))
		}
		r.Set(key, pairs[i+1])
	}
	return r
}

// FromMap converts a plain map into a Record. Keys are sorted since maps
// carry no order. Nested maps are converted too.
func FromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var r Record
	for _, k := range keys {
		r.Set(k, fromPlain(m[k]))
	}
	return r
}

func fromPlain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromPlain(e)
		}
		return out
	}
	return v
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value of a field.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether the field exists.
func (r Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Set assigns a field. Existing fields keep their position; new fields are
// appended.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Delete removes a field and reports whether it existed.
func (r *Record) Delete(key string) bool {
	if _, ok := r.values[key]; !ok {
		return false
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

// Range calls fn for every field in order until fn returns false.
func (r Record) Range(fn func(key string, value any) bool) {
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// ID returns the store-assigned identifier, if the record has a valid one.
func (r Record) ID() (int64, bool) {
	v, ok := r.values[IDField]
	if !ok {
		return 0, false
	}
	return AsInt64(v)
}

// Merge returns a copy of r with every field of patch written over it.
// Fields only present in r are kept; new fields follow patch order.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	patch.Range(func(k string, v any) bool {
		out.Set(k, cloneValue(v))
		return true
	})
	return out
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]any, len(r.values)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case *Record:
		if t == nil {
			return nil
		}
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	}
	return v
}

// ToMap converts the record, and nested records, into plain maps.
func (r Record) ToMap() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = toPlain(r.values[k])
	}
	return out
}

func toPlain(v any) any {
	switch t := v.(type) {
	case Record:
		return t.ToMap()
	case *Record:
		if t == nil {
			return nil
		}
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toPlain(e)
		}
		return out
	}
	return v
}

// MarshalJSON encodes the fields in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping key order. Numbers decode as
// json.Number.
func (r *Record) UnmarshalJSON(data []byte) error {
	v, err := DecodeValue(bytes.NewReader(data))
	if err != nil {
		return err
	}
	rec, ok := v.(Record)
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", KindOf(v))
	}
	*r = rec
	return nil
}

// DecodeValue reads exactly one JSON value from rd. Objects become Records,
// arrays []any and numbers json.Number.
func DecodeValue(rd io.Reader) (any, error) {
	dec := json.NewDecoder(rd)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// DecodeRecords decodes a JSON array of objects.
func DecodeRecords(rd io.Reader) ([]Record, error) {
	v, err := DecodeValue(rd)
	if err != nil {
		return nil, err
	}
	return AsRecords(v)
}

// AsRecords converts a decoded JSON array into records. Every element must be
// an object.
func AsRecords(v any) ([]Record, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON array, got %s", KindOf(v))
	}
	out := make([]Record, 0, len(arr))
	for i, e := range arr {
		rec, ok := e.(Record)
		if !ok {
			return nil, fmt.Errorf("element %d: expected JSON object, got %s", i, KindOf(e))
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		rec := Record{values: map[string]any{}}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", kt)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			rec.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return rec, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}
