package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
)

func testLoader() *Loader {
	return NewLoader(FetchConfig{
		Timeout:      5 * time.Second,
		Retries:      2,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
	}, logger.NewLogger(logger.TestConfig()))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseCSV(t *testing.T) {
	t.Run("Should parse typed cells in header order", func(t *testing.T) {
		records, err := ParseCSV(strings.NewReader("name,\"price\",qty\nfoo, 1.5 ,2\nbar,3,x\n"))

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, []string{"name", "price", "qty"}, records[0].Keys())
		price, _ := records[0].Get("price")
		qty, _ := records[1].Get("qty")
		assert.Equal(t, 1.5, price)
		assert.Equal(t, "x", qty)
	})

	t.Run("Should return no records for empty input", func(t *testing.T) {
		records, err := ParseCSV(strings.NewReader(""))

		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestParseJSON(t *testing.T) {
	t.Run("Should keep object key order", func(t *testing.T) {
		records, err := ParseJSON([]byte(`[{"z":1,"a":"x"},{"z":2,"a":"y"}]`))

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, []string{"z", "a"}, records[0].Keys())
		z, _ := records[1].Get("z")
		assert.Equal(t, 2.0, z)
	})

	t.Run("Should accept a single object", func(t *testing.T) {
		records, err := ParseJSON([]byte(`{"a":1}`))

		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("Should reject scalars", func(t *testing.T) {
		_, err := ParseJSON([]byte(`42`))

		assert.True(t, errors.Is(err, model.ErrValidation))
	})
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should load a csv file with a derived name", func(t *testing.T) {
		p := writeFile(t, "Monthly Sales.csv", "month,total\njan,10\nfeb,\"20\"\n")

		src, err := testLoader().Load(context.Background(), p, Options{Parse: map[string]string{"month": "date"}})

		require.NoError(t, err)
		assert.Equal(t, "monthly-sales", src.Name)
		assert.Equal(t, "csv", src.Format.Type)
		assert.Equal(t, "date", src.Format.Parse["month"])
		assert.Len(t, src.Values, 2)
	})

	t.Run("Should convert number hints", func(t *testing.T) {
		p := writeFile(t, "data.json", `[{"v":"12.5"},{"v":"n/a"}]`)

		src, err := testLoader().Load(context.Background(), p, Options{Name: "data", Parse: map[string]string{"v": "number"}})

		require.NoError(t, err)
		first, _ := src.Values[0].Get("v")
		second, _ := src.Values[1].Get("v")
		assert.Equal(t, 12.5, first)
		assert.Equal(t, "n/a", second)
	})

	t.Run("Should report missing files", func(t *testing.T) {
		_, err := testLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Options{})

		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		p := writeFile(t, "data.xml", "<a/>")

		_, err := testLoader().Load(context.Background(), p, Options{})

		assert.True(t, errors.Is(err, model.ErrValidation))
	})

	t.Run("Should enforce rules", func(t *testing.T) {
		p := writeFile(t, "data.csv", "a,b\n1,x\n")

		_, err := testLoader().Load(context.Background(), p, Options{Rules: &Rules{NumericFields: []string{"b"}}})

		var verr *model.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Error(), "must be numeric")
	})

	t.Run("Should fetch remote sources and retry server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"a":1}]`))
		}))
		defer srv.Close()

		src, err := testLoader().Load(context.Background(), srv.URL+"/cars.json?v=1", Options{})

		require.NoError(t, err)
		assert.Equal(t, "cars", src.Name)
		assert.Equal(t, "json", src.Format.Type)
		assert.Len(t, src.Values, 1)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("Should fail on client errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := testLoader().Load(context.Background(), srv.URL+"/cars.json", Options{})

		assert.ErrorContains(t, err, "status 403")
	})
}

func TestRules_Check(t *testing.T) {
	records := []*model.Record{model.RecordOf("a", 5, "b", "x")}

	t.Run("Should accept a nil rule set", func(t *testing.T) {
		var r *Rules
		assert.NoError(t, r.Check(records))
	})

	t.Run("Should report violations", func(t *testing.T) {
		cases := map[string]*Rules{
			"missing required field": {RequiredFields: []string{"c"}},
			"below minimum":          {MinValues: map[string]float64{"a": 10}},
			"above maximum":          {MaxValues: map[string]float64{"a": 1}},
		}
		for msg, rules := range cases {
			err := rules.Check(records)
			assert.ErrorContains(t, err, msg)
		}
	})
}
