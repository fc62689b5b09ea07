package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-vis-pipeline/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Sources(t *testing.T) {
	t.Run("Should round trip a source keeping key order", func(t *testing.T) {
		s := openTestStore(t)
		src := &model.Source{
			Name:   "sales",
			URL:    "sales.csv",
			Values: []*model.Record{model.RecordOf("z", 1, "a", "x")},
			Format: model.Format{Type: "csv", Parse: map[string]string{"z": "number"}},
		}

		require.NoError(t, s.SaveSource(src))
		got, err := s.GetSource("sales")

		require.NoError(t, err)
		assert.Equal(t, "sales.csv", got.URL)
		assert.Equal(t, src.Format, got.Format)
		require.Len(t, got.Values, 1)
		assert.Equal(t, []string{"z", "a"}, got.Values[0].Keys())
	})

	t.Run("Should replace sources by name", func(t *testing.T) {
		s := openTestStore(t)
		require.NoError(t, s.SaveSource(&model.Source{Name: "b", Values: []*model.Record{}}))
		require.NoError(t, s.SaveSource(&model.Source{Name: "a", Values: []*model.Record{}}))
		require.NoError(t, s.SaveSource(&model.Source{
			Name:   "b",
			Values: []*model.Record{model.RecordOf("x", 1)},
			Format: model.Format{Type: "json"},
		}))

		list, err := s.ListSources()

		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].Name)
		assert.Equal(t, "b", list[1].Name)
		assert.Equal(t, 1, list[1].Records)
		assert.Equal(t, "json", list[1].Format)
	})

	t.Run("Should report unknown sources", func(t *testing.T) {
		_, err := openTestStore(t).GetSource("missing")

		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func TestStore_Specs(t *testing.T) {
	t.Run("Should list snapshots newest first", func(t *testing.T) {
		s := openTestStore(t)
		first := []model.DataflowSpec{{Name: "pipeline_0", Source: "sales", Transform: []model.TransformSpec{}}}
		second := []model.DataflowSpec{{
			Name:      "pipeline_0",
			Source:    "sales",
			Transform: []model.TransformSpec{{"type": "filter", "test": "true"}},
		}}

		id1, err := s.SaveSpec("pipeline_0", first)
		require.NoError(t, err)
		id2, err := s.SaveSpec("pipeline_0", second)
		require.NoError(t, err)
		_, err = s.SaveSpec("pipeline_1", first)
		require.NoError(t, err)

		snaps, err := s.ListSpecs("pipeline_0")

		require.NoError(t, err)
		require.Len(t, snaps, 2)
		assert.Equal(t, id2, snaps[0].ID)
		assert.Equal(t, id1, snaps[1].ID)
		assert.Equal(t, "filter", snaps[0].Specs[0].Transform[0]["type"])
		assert.False(t, snaps[0].CreatedAt.IsZero())
	})
}
