package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/twobox/internal/config"
	"github.com/san-kum/twobox/internal/experiment"
	"github.com/san-kum/twobox/internal/forcing"
)

// explodingRun integrates 170 years with an ocean exchange strong enough
// to overflow the forward step.
func explodingRun(t *testing.T) (RunMetadata, []Sample) {
	t.Helper()

	var b strings.Builder
	b.WriteString("year,ghg\n")
	for y := 1850; y < 2020; y++ {
		fmt.Fprintf(&b, "%d,3\n", y)
	}
	table, err := forcing.Load(strings.NewReader(b.String()))
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Lambda = config.LambdaConfig{Source: config.LambdaFixed, Value: -1.3}
	cfg.Gamma = 1e4

	exp, err := experiment.New(cfg, table, nil)
	require.NoError(t, err)
	res, err := exp.Run(context.Background())
	require.NoError(t, err)

	return Record(cfg, res)
}

func sameFloat(t *testing.T, want, got float64, msg string) {
	t.Helper()
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(got), "%s: want NaN, got %g", msg, got)
		return
	}
	assert.Equal(t, want, got, msg)
}

func TestSaveExplodingRun(t *testing.T) {
	meta, samples := explodingRun(t)
	overflowed := false
	for _, smp := range samples {
		overflowed = overflowed || math.IsInf(smp.Ts, 1)
	}
	require.True(t, overflowed, "run did not overflow")
	require.True(t, math.IsNaN(samples[len(samples)-1].Ts))
	require.True(t, math.IsNaN(meta.Subsets[0].Metrics["final_warming"]))

	for _, backend := range []string{BackendFile, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			st, err := Open(backend, t.TempDir())
			require.NoError(t, err)
			require.NoError(t, st.Init())
			t.Cleanup(func() { _ = st.Close() })

			id, err := st.Save(meta, samples)
			require.NoError(t, err)

			loaded, err := st.Load(id)
			require.NoError(t, err)
			for name, want := range meta.Subsets[0].Metrics {
				sameFloat(t, want, loaded.Subsets[0].Metrics[name], name)
			}

			got, err := st.LoadSamples(id)
			require.NoError(t, err)
			require.Len(t, got, len(samples))
			for i := range samples {
				sameFloat(t, samples[i].Ts, got[i].Ts, fmt.Sprintf("ts[%d]", i))
				sameFloat(t, samples[i].To, got[i].To, fmt.Sprintf("to[%d]", i))
			}
		})
	}
}

func TestSQLiteStoreNaNSample(t *testing.T) {
	st := NewSQLiteStore(t.TempDir())
	t.Cleanup(func() { _ = st.Close() })

	meta, samples := testRun()
	samples[1].Ts = math.NaN()
	samples[1].TsLambdaMax = math.Inf(1)
	id, err := st.Save(meta, samples)
	require.NoError(t, err)

	got, err := st.LoadSamples(id)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[1].Ts))
	assert.True(t, math.IsInf(got[1].TsLambdaMax, 1))
	assert.Equal(t, samples[1].To, got[1].To)
}

func TestExportJSONNonFinite(t *testing.T) {
	meta, samples := testRun()
	meta.Subsets[0].Metrics["imbalance"] = math.Inf(-1)
	samples[1].Ts = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, meta, samples))
	assert.Contains(t, buf.String(), `"ts": "NaN"`)
	assert.Contains(t, buf.String(), `"imbalance": "-Inf"`)

	var doc ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.True(t, math.IsInf(doc.Run.Subsets[0].Metrics["imbalance"], -1))
	assert.True(t, math.IsNaN(doc.Samples[1].Ts))
	assert.Equal(t, 0.8, doc.Run.Subsets[0].Metrics["final_warming"])
	assert.Equal(t, samples[0], doc.Samples[0])
}

func TestFileStoreFailedSave(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(dir)

	meta, samples := testRun()
	meta.ID = "missing/parent"
	_, err := st.Save(meta, samples)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed save must not leave a run directory")

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestFileStoreListSkipsHidden(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(dir)

	meta, samples := testRun()
	meta.ID = ".save-crashed"
	_, err := st.Save(meta, samples)
	require.NoError(t, err)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}
