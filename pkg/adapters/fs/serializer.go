package fs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/shelter/pkg/core"
)

// Serializer converts a table to and from an interchange format.
type Serializer interface {
	// Parse reads a sequence of records.
	Parse(r io.Reader) ([]core.Record, error)
	// Serialize writes records in their stored field order.
	Serialize(recs []core.Record) ([]byte, error)
}

// DefaultSerializers returns the export formats keyed by name.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		"json": JSONSerializer{},
		"yaml": YAMLSerializer{},
		"yml":  YAMLSerializer{},
		"csv":  CSVSerializer{},
	}
}

// SerializerFor looks up a format by name, ignoring case.
func SerializerFor(format string) (Serializer, error) {
	s, ok := DefaultSerializers()[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", core.ErrValidation, format)
	}
	return s, nil
}

// Formats lists the supported format names.
func Formats() []string {
	names := make([]string, 0, 4)
	for name := range DefaultSerializers() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- JSON Serializer ---

// JSONSerializer reads and writes a JSON array of objects.
type JSONSerializer struct{}

func (JSONSerializer) Parse(r io.Reader) ([]core.Record, error) {
	recs, err := core.DecodeRecords(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", core.ErrSerialization, err)
	}
	return recs, nil
}

func (JSONSerializer) Serialize(recs []core.Record) ([]byte, error) {
	if recs == nil {
		recs = []core.Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer reads and writes a YAML sequence of mappings. It works on
// yaml.Node trees so mapping keys keep their record order.
type YAMLSerializer struct{}

func (YAMLSerializer) Parse(r io.Reader) ([]core.Record, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return []core.Record{}, nil
		}
		return nil, fmt.Errorf("%w: invalid yaml: %v", core.ErrSerialization, err)
	}

	v, err := fromYAMLNode(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	if v == nil {
		return []core.Record{}, nil
	}
	recs, err := core.AsRecords(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	return recs, nil
}

// ParseRecord reads a single mapping. JSON input is accepted as YAML.
func ParseRecord(r io.Reader) (core.Record, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return core.Record{}, fmt.Errorf("%w: empty record", core.ErrValidation)
		}
		return core.Record{}, fmt.Errorf("%w: invalid record: %v", core.ErrSerialization, err)
	}
	v, err := fromYAMLNode(&doc)
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	rec, ok := v.(core.Record)
	if !ok {
		return core.Record{}, fmt.Errorf("%w: expected a mapping, got %s", core.ErrValidation, core.KindOf(v))
	}
	return rec, nil
}

func (YAMLSerializer) Serialize(recs []core.Record) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, r := range recs {
		n, err := toYAMLNode(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
		}
		seq.Content = append(seq.Content, n)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

func toYAMLNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(t)), nil
	case string:
		return scalar("!!str", t), nil
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return scalar("!!float", t.String()), nil
		}
		return scalar("!!int", t.String()), nil
	case core.Record:
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		t.Range(func(k string, e any) bool {
			var n *yaml.Node
			if n, err = toYAMLNode(e); err != nil {
				return false
			}
			m.Content = append(m.Content, scalar("!!str", k), n)
			return true
		})
		return m, err
	case map[string]any:
		return toYAMLNode(core.FromMap(t))
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t {
			n, err := toYAMLNode(e)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	}

	// Anything else (Go numbers, structs, typed slices) goes through its
	// JSON form so it exports exactly as it is stored.
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	decoded, err := core.DecodeValue(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return toYAMLNode(decoded)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func fromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		var rec core.Record
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			rec.Set(n.Content[i].Value, v)
		}
		return rec, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		// Timestamps stay as written; decoding them would reformat the text.
		if n.ShortTag() == "!!timestamp" {
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return normalizeNumber(v), nil
	}
	return nil, fmt.Errorf("unsupported yaml node kind %d", n.Kind)
}

// normalizeNumber turns YAML numbers into json.Number, matching what the
// store decodes from its own files.
func normalizeNumber(v any) any {
	switch t := v.(type) {
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return t
		}
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	}
	return v
}

// --- CSV Serializer ---

// CSVSerializer writes one row per record under a header holding every
// field in first-seen order. Missing fields and nulls are empty cells;
// arrays and objects are JSON text.
type CSVSerializer struct{}

// Parse reads a header row and one record per row. Cells are strings, except
// that JSON arrays and objects are decoded and empty cells are skipped.
func (CSVSerializer) Parse(r io.Reader) ([]core.Record, error) {
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if err == io.EOF {
		return []core.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read csv header: %v", core.ErrSerialization, err)
	}

	var recs []core.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read csv row: %v", core.ErrSerialization, err)
		}

		var rec core.Record
		for i, h := range headers {
			if row[i] == "" {
				continue
			}
			rec.Set(h, UnmarshalCSVValue(row[i]))
		}
		if rec.Len() > 0 {
			recs = append(recs, rec)
		}
	}
	if recs == nil {
		recs = []core.Record{}
	}
	return recs, nil
}

func (CSVSerializer) Serialize(recs []core.Record) ([]byte, error) {
	var headers []string
	seen := make(map[string]bool)
	for _, r := range recs {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(headers) > 0 {
		if err := w.Write(headers); err != nil {
			return nil, err
		}
	}
	for _, r := range recs {
		row := make([]string, len(headers))
		for i, h := range headers {
			v, ok := r.Get(h)
			if !ok {
				continue
			}
			cell, err := MarshalCSVValue(v)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", core.ErrSerialization, h, err)
			}
			row[i] = cell
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- Helpers ---

// UnmarshalCSVValue decodes a cell that looks like a JSON array or object.
// Anything else is returned as the raw string.
//
// CAVEAT: this is a heuristic. A string that happens to be valid JSON
// (e.g. "[1]") comes back as an array.
func UnmarshalCSVValue(val string) any {
	trimmed := strings.TrimSpace(val)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		if v, err := core.DecodeValue(strings.NewReader(trimmed)); err == nil {
			return v
		}
	}
	return val
}

// MarshalCSVValue renders a value as a cell: strings as-is, null as empty,
// scalars in their JSON spelling and containers as JSON.
func MarshalCSVValue(v any) (string, error) {
	switch core.KindOf(v) {
	case core.KindNull:
		return "", nil
	case core.KindString, core.KindBool, core.KindNumber:
		return core.Text(v), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
