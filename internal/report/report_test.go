package report

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbscan/arbscan/internal/domain"
)

func sampleOpportunities() []domain.Opportunity {
	return []domain.Opportunity{
		{
			Instrument: "BTC/USDT",
			Diff:       4.29,
			Ratio:      4.0857,
			Profit:     4.29,
			Min:        domain.Quote{VenueName: "Binance", Price: 100, BuyFee: 0.001, WithdrawFee: 0.5},
			Max:        domain.Quote{VenueName: "Kraken", Price: 105, SellFee: 0.002},
		},
		{
			Instrument: "ADA/USDT",
			Diff:       0.012,
			Ratio:      1.1,
			Profit:     0.012,
			Min:        domain.Quote{VenueName: "Gate.io", Price: 1.09},
			Max:        domain.Quote{VenueName: "Binance", Price: 1.102},
		},
	}
}

func TestReport_New(t *testing.T) {
	t.Parallel()

	t.Run("preserves ranking order", func(t *testing.T) {
		t.Parallel()

		r := New(sampleOpportunities())

		assert.Equal(t, []string{"BTC/USDT", "ADA/USDT"}, r.Instruments())
	})

	t.Run("first occurrence wins duplicates", func(t *testing.T) {
		t.Parallel()

		r := New([]domain.Opportunity{
			{Instrument: "BTC/USDT", Profit: 1},
			{Instrument: "BTC/USDT", Profit: 2},
		})

		require.Equal(t, 1, r.Len())

		o, ok := r.Get("BTC/USDT")
		require.True(t, ok)
		assert.Equal(t, 1.0, o.Profit)
	})
}

func TestReport_JSON(t *testing.T) {
	t.Parallel()

	t.Run("round trip preserves order and values", func(t *testing.T) {
		t.Parallel()

		r := New(sampleOpportunities())

		data, err := json.MarshalIndent(r, "", "  ")
		require.NoError(t, err)

		var decoded Report
		require.NoError(t, json.Unmarshal(data, &decoded))

		assert.Equal(t, r.Instruments(), decoded.Instruments())

		o, ok := decoded.Get("BTC/USDT")
		require.True(t, ok)
		assert.Equal(t, "BTC/USDT", o.Instrument)
		assert.Equal(t, 4.29, o.Profit)
		assert.Equal(t, "Binance", o.Min.VenueName)
		assert.Equal(t, 0.5, o.Min.WithdrawFee)
	})

	t.Run("emits the historical quote field names", func(t *testing.T) {
		t.Parallel()

		r := New(sampleOpportunities()[:1])

		data, err := json.Marshal(r)
		require.NoError(t, err)

		s := string(data)
		for _, field := range []string{"diff", "ratio", "profit", "min", "max", "exchangeName", "isDex", "buyFee", "sellFee", "withdrawFee"} {
			assert.Contains(t, s, `"`+field+`"`)
		}
		// The instrument is the key, not a field.
		assert.NotContains(t, s, `"instrument"`)
	})

	t.Run("rejects duplicate keys", func(t *testing.T) {
		t.Parallel()

		var r Report

		err := json.Unmarshal([]byte(`{"A/USDT":{"profit":1},"A/USDT":{"profit":2}}`), &r)

		assert.Error(t, err)
	})
}

func TestFileWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes and reads back", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		w := NewFileWriter(filepath.Join(dir, "reports"))

		path, err := w.Write(New(sampleOpportunities()))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(filepath.Base(path), "prices-"))

		r, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"BTC/USDT", "ADA/USDT"}, r.Instruments())
	})

	t.Run("read of missing file fails", func(t *testing.T) {
		t.Parallel()

		_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))

		assert.Error(t, err)
	})
}

type (
	putDelegate          func(context.Context, string, io.Reader, string) error
	putMultipartDelegate func(context.Context, string, io.Reader, int64) error
)

type mockBlobWriter struct {
	putFn          putDelegate
	putMultipartFn putMultipartDelegate
}

func (m *mockBlobWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	if m.putFn != nil {
		return m.putFn(ctx, path, data, contentType)
	}

	return nil
}

func (m *mockBlobWriter) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	if m.putMultipartFn != nil {
		return m.putMultipartFn(ctx, path, data, partSize)
	}

	return nil
}

func TestArchiver_Archive(t *testing.T) {
	t.Parallel()

	t.Run("uploads under a date partitioned key", func(t *testing.T) {
		t.Parallel()

		var (
			gotKey         string
			gotContentType string
		)

		writer := &mockBlobWriter{
			putFn: func(_ context.Context, path string, _ io.Reader, contentType string) error {
				gotKey = path
				gotContentType = contentType

				return nil
			},
		}

		a := NewArchiver(writer, "scans", nil)
		err := a.Archive(context.Background(), New(sampleOpportunities()), "run-id-1")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(gotKey, "scans/"))
		assert.True(t, strings.HasSuffix(gotKey, "/run-run-id-1.json"))
		assert.Equal(t, "application/json", gotContentType)
	})

	t.Run("large reports go multipart", func(t *testing.T) {
		t.Parallel()

		var multipart bool

		writer := &mockBlobWriter{
			putFn: func(_ context.Context, _ string, _ io.Reader, _ string) error {
				t.Error("expected multipart upload")

				return nil
			},
			putMultipartFn: func(_ context.Context, _ string, _ io.Reader, _ int64) error {
				multipart = true

				return nil
			},
		}

		// Enough distinct instruments to push the serialized report past the
		// multipart threshold.
		opps := make([]domain.Opportunity, 0, 40000)
		filler := strings.Repeat("X", 120)
		for i := 0; i < 40000; i++ {
			opps = append(opps, domain.Opportunity{
				Instrument: filler + "-" + strconv.Itoa(i) + "/USDT",
				Min:        domain.Quote{VenueName: "Binance", Price: float64(i) + 0.5},
				Max:        domain.Quote{VenueName: "Kraken", Price: float64(i) + 1.5},
			})
		}

		a := NewArchiver(writer, "scans", nil)
		err := a.Archive(context.Background(), New(opps), "run-id-2")

		require.NoError(t, err)
		assert.True(t, multipart)
	})
}
