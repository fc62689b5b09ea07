package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mohae/deepcopy"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Reserved attribute names on ingested and faceted records.
const (
	DataKey   = "data"   // raw source record of an ingested datum
	KeyKey    = "key"    // group key of a facet group
	KeysKey   = "keys"   // all key values of a facet group
	ValuesKey = "values" // nested collection of a facet group
	StatsKey  = "stats"  // reserved for aggregate summaries
)

// Record is a schema-agnostic row that remembers the order its keys were set in
type Record struct {
	keys []string
	vals map[string]any
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{vals: make(map[string]any)}
}

// RecordOf builds a record from alternating key/value arguments.
func RecordOf(kv ...any) *Record {
	r := NewRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			k = fmt.Sprint(kv[i])
		}
		r.Set(k, kv[i+1])
	}
	return r
}

func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the keys in insertion order
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.vals[key]
	return v, ok
}

// Set stores v under key. Existing keys keep their position.
func (r *Record) Set(key string, v any) {
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

func (r *Record) Delete(key string) {
	if _, ok := r.vals[key]; !ok {
		return
	}
	delete(r.vals, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Lookup resolves a dotted accessor path such as "data.price".
func (r *Record) Lookup(path string) (any, bool) {
	var cur any = r
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case *Record:
			v, ok := node.Get(part)
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		keys: make([]string, len(r.keys)),
		vals: make(map[string]any, len(r.vals)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.vals {
		out.vals[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Clone()
	case Values:
		return t.Clone()
	default:
		return deepcopy.Copy(v)
	}
}

// Map converts the record and any nested records into plain maps.
func (r *Record) Map() map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r.vals))
	for k, v := range r.vals {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Map()
	case Values:
		rows := t.Rows
		if t.Faceted() {
			rows = t.Groups
		}
		list := make([]any, len(rows))
		for i, row := range rows {
			list[i] = row.Map()
		}
		return list
	default:
		return v
	}
}

func (r *Record) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, any](r.Len())
	if r != nil {
		for _, k := range r.keys {
			om.Set(k, r.vals[k])
		}
	}
	return json.Marshal(om)
}

// UnmarshalJSON decodes a JSON object keeping its key order. Nested objects
// are decoded as plain maps.
func (r *Record) UnmarshalJSON(data []byte) error {
	om := orderedmap.New[string, any]()
	if err := json.Unmarshal(data, om); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	r.keys = make([]string, 0, om.Len())
	r.vals = make(map[string]any, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		r.Set(pair.Key, pair.Value)
	}
	return nil
}

// Values is a materialized collection. A faceted collection carries its
// groups in Groups; each group record holds "key", "keys" and a nested
// "values" collection.
type Values struct {
	Rows   []*Record `json:"rows,omitempty"`
	Groups []*Record `json:"groups,omitempty"`
}

func (v Values) Faceted() bool { return v.Groups != nil }

// Len is the number of top-level entries (groups when faceted).
func (v Values) Len() int {
	if v.Faceted() {
		return len(v.Groups)
	}
	return len(v.Rows)
}

func (v Values) Clone() Values {
	out := Values{}
	if v.Rows != nil {
		out.Rows = make([]*Record, len(v.Rows))
		for i, r := range v.Rows {
			out.Rows[i] = r.Clone()
		}
	}
	if v.Groups != nil {
		out.Groups = make([]*Record, len(v.Groups))
		for i, g := range v.Groups {
			out.Groups[i] = g.Clone()
		}
	}
	return out
}

// Ingest wraps a raw source record into a datum.
func Ingest(raw *Record) *Record {
	d := NewRecord()
	d.Set(DataKey, raw)
	return d
}

// IngestAll deep copies raw records and ingests them.
func IngestAll(raw []*Record) Values {
	rows := make([]*Record, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Ingest(r.Clone()))
	}
	return Values{Rows: rows}
}

// NewGroup builds a facet group record.
func NewGroup(key any, keys []any, members Values) *Record {
	g := NewRecord()
	g.Set(KeyKey, key)
	g.Set(KeysKey, keys)
	g.Set(ValuesKey, members)
	return g
}

// GroupValues returns the nested collection of a facet group.
func GroupValues(g *Record) (Values, bool) {
	v, ok := g.Get(ValuesKey)
	if !ok {
		return Values{}, false
	}
	vals, ok := v.(Values)
	return vals, ok
}
