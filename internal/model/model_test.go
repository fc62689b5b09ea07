package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	t.Run("Should keep insertion order across updates and deletes", func(t *testing.T) {
		r := RecordOf("b", 1, "a", 2, "c", 3)
		r.Set("a", 5)
		r.Delete("b")

		assert.Equal(t, []string{"a", "c"}, r.Keys())
		v, _ := r.Get("a")
		assert.Equal(t, 5, v)
	})

	t.Run("Should round trip JSON in key order", func(t *testing.T) {
		var r Record
		require.NoError(t, json.Unmarshal([]byte(`{"z":1,"a":{"x":true},"m":"s"}`), &r))

		out, err := json.Marshal(&r)

		require.NoError(t, err)
		assert.Equal(t, `{"z":1,"a":{"x":true},"m":"s"}`, string(out))
	})

	t.Run("Should resolve dotted paths through nested records and maps", func(t *testing.T) {
		d := Ingest(RecordOf("price", 10, "meta", map[string]any{"tag": "x"}))

		price, ok := d.Lookup("data.price")
		assert.True(t, ok)
		assert.Equal(t, 10, price)

		tag, ok := d.Lookup("data.meta.tag")
		assert.True(t, ok)
		assert.Equal(t, "x", tag)

		_, ok = d.Lookup("data.price.deeper")
		assert.False(t, ok)
	})

	t.Run("Should clone deeply", func(t *testing.T) {
		inner := RecordOf("tags", []any{"a"})
		r := Ingest(inner)

		c := r.Clone()
		inner.Set("tags", []any{"b"})
		raw, _ := c.Get(DataKey)
		tags, _ := raw.(*Record).Get("tags")

		assert.Equal(t, []any{"a"}, tags)
	})

	t.Run("Should expose nested groups as plain maps", func(t *testing.T) {
		g := NewGroup("a", []any{"a"}, IngestAll([]*Record{RecordOf("v", 1)}))

		m := g.Map()

		assert.Equal(t, "a", m[KeyKey])
		require.Len(t, m[ValuesKey], 1)
		members, ok := GroupValues(g)
		assert.True(t, ok)
		assert.Equal(t, 1, members.Len())
	})
}

func TestValues(t *testing.T) {
	t.Run("Should report faceting by the presence of groups", func(t *testing.T) {
		flat := IngestAll([]*Record{RecordOf("a", 1), RecordOf("a", 2)})
		faceted := Values{Groups: []*Record{}}

		assert.False(t, flat.Faceted())
		assert.Equal(t, 2, flat.Len())
		assert.True(t, faceted.Faceted())
		assert.Equal(t, 0, faceted.Len())
	})

	t.Run("Should not share rows with the source", func(t *testing.T) {
		raw := []*Record{RecordOf("a", 1)}

		values := IngestAll(raw)
		raw[0].Set("a", 2)
		data, _ := values.Rows[0].Lookup("data.a")

		assert.Equal(t, 1, data)
	})
}

func TestField(t *testing.T) {
	t.Run("Should build specs from accessor and stat", func(t *testing.T) {
		f := NewField("price", RawAccessor, Linear, "pipeline_0")
		assert.Equal(t, "data.price", f.Spec())

		f.Stat = StatMean
		assert.Equal(t, "mean_price", f.Spec())
		assert.Equal(t, FieldKey{Accessor: RawAccessor, Name: "price"}, f.Key())
	})

	t.Run("Should parse accessor specs", func(t *testing.T) {
		f := ParseField("data.price")
		assert.Equal(t, "price", f.Name)
		assert.Equal(t, RawAccessor, f.Accessor)

		g := ParseField("double")
		assert.Equal(t, "double", g.Name)
		assert.Empty(t, g.Accessor)
		assert.Equal(t, "price", FieldName("data.price"))
	})

	t.Run("Should infer types", func(t *testing.T) {
		assert.Equal(t, Time, TypeFromParse("Date"))
		assert.Equal(t, Linear, TypeFromParse("number"))
		assert.Equal(t, Ordinal, TypeFromParse("string"))
		assert.Equal(t, Linear, TypeOf(2.5))
		assert.Equal(t, Ordinal, TypeOf("2.5"))
	})

	t.Run("Should know the supported statistics", func(t *testing.T) {
		assert.True(t, IsStat("median"))
		assert.False(t, IsStat("mode"))
	})
}

func TestScaleDefinition_Normalize(t *testing.T) {
	t.Run("Should drop cosmetic differences", func(t *testing.T) {
		a := ScaleDefinition{Type: " Linear ", Domain: &DataRef{Data: "pipeline_0 ", Field: "price"}, RangeValues: []any{}}
		b := ScaleDefinition{Type: "linear", Domain: &DataRef{Data: "pipeline_0", Field: "price"}}

		assert.Equal(t, b.Normalize(), a.Normalize())
	})

	t.Run("Should widen numeric literals", func(t *testing.T) {
		d := ScaleDefinition{DomainValues: []any{1, int64(2), "3"}, RangeValues: []any{0.5}}

		n := d.Normalize()

		assert.Equal(t, []any{1.0, 2.0, "3"}, n.DomainValues)
		assert.Equal(t, []any{0.5}, n.RangeValues)
		assert.Equal(t, 1, d.DomainValues[0])
	})

	t.Run("Should not alias the domain", func(t *testing.T) {
		d := ScaleDefinition{Domain: &DataRef{Data: "p", Field: "f"}}

		n := d.Normalize()
		n.Domain.Field = "g"

		assert.Equal(t, "f", d.Domain.Field)
	})
}

func TestErrors(t *testing.T) {
	t.Run("Should match sentinels through wrapping", func(t *testing.T) {
		cause := errors.New("bad tag")
		err := fmt.Errorf("while decoding: %w", &ValidationError{Subject: "scale", Reason: "malformed", Err: cause})

		assert.True(t, errors.Is(err, ErrValidation))
		assert.True(t, errors.Is(err, cause))
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(&NotFoundError{Kind: "pipeline", Name: "x"}, ErrNotFound))
		assert.True(t, errors.Is(&ConfigurationError{Pipeline: "p"}, ErrConfiguration))
	})

	t.Run("Should describe the failure", func(t *testing.T) {
		err := &NotFoundError{Kind: "pipeline", Name: "pipeline_3"}

		assert.Equal(t, `pipeline "pipeline_3" not found`, err.Error())
	})
}
