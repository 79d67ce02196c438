package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotes-export/internal/chunked"
	"quotes-export/internal/metrics"
	"quotes-export/internal/model"
	"quotes-export/internal/provider/providertest"
)

// symbolQuotes gives each symbol its own price level so rows cannot be mixed up.
func symbolQuotes(base float64, n int) []model.Quote {
	quotes := providertest.Quotes(t0, n)
	for i := range quotes {
		quotes[i].Bids = []model.QuoteEntry{{Price: base, Volume: float64(i + 1)}}
		quotes[i].Asks = []model.QuoteEntry{{Price: base + 0.5, Volume: float64(i + 1)}}
	}
	return quotes
}

func TestRunner_IndependentArtifacts(t *testing.T) {
	dir := t.TempDir()
	bases := map[string]float64{"A": 1, "B": 2, "C": 3}
	svc := &providertest.Service{Quotes: map[string][]model.Quote{}}
	var reqs []model.ExportRequest
	for _, sym := range []string{"A", "B", "C"} {
		svc.Quotes[sym] = symbolQuotes(bases[sym], 300)
		reqs = append(reqs, request(dir, sym, model.SeriesTicks, model.FormatParquet))
	}

	var out bytes.Buffer
	m := metrics.New()
	r := NewRunner(svc, RunnerOptions{
		Job:       testOptions(),
		Parallel:  2,
		ReportDir: dir,
		Output:    &out,
		Metrics:   m,
	})
	sum := r.Run(context.Background(), reqs)

	assert.Equal(t, 3, sum.Completed)
	assert.Equal(t, int64(900), sum.Rows)
	require.Len(t, sum.Results, 3)
	for sym, base := range bases {
		quotes, err := chunked.ReadQuotes(filepath.Join(dir, sym+" 20180608 20180609.parquet"), time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, quotes, 300, sym)
		for _, q := range quotes {
			require.Equal(t, base, q.Bids[0].Price, sym)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, successReport))
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal(data, &names))
	assert.ElementsMatch(t, []string{
		"A 20180608 20180609.parquet", "B 20180608 20180609.parquet", "C 20180608 20180609.parquet",
	}, names)
	assert.NoFileExists(t, filepath.Join(dir, failedReport))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Jobs.WithLabelValues("completed")))
	assert.Equal(t, 900.0, testutil.ToFloat64(m.Rows.WithLabelValues("parquet")))
	assert.Contains(t, out.String(), "summary")
	assert.Contains(t, out.String(), "symbol=B")
}

func TestRunner_FailuresStayLocal(t *testing.T) {
	dir := t.TempDir()
	svc := &providertest.Service{Quotes: map[string][]model.Quote{"EURUSD": providertest.Quotes(t0, 5)}}
	vwapCSV := request(dir, "EURUSD", model.SeriesVWAP, model.FormatCSV)
	vwapCSV.VWAPExponents = []int{0}
	reqs := []model.ExportRequest{
		request(dir, "", model.SeriesTicks, model.FormatCSV),
		vwapCSV,
		request(dir, "EURUSD", model.SeriesTicks, model.FormatCSV),
	}

	m := metrics.New()
	r := NewRunner(svc, RunnerOptions{Job: testOptions(), ReportDir: dir, Output: &bytes.Buffer{}, Metrics: m})
	sum := r.Run(context.Background(), reqs)

	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, int64(5), sum.Rows)

	data, err := os.ReadFile(filepath.Join(dir, failedReport))
	require.NoError(t, err)
	var failed []failedEntry
	require.NoError(t, json.Unmarshal(data, &failed))
	require.Len(t, failed, 2)
	assert.Equal(t, "2018-06-08..2018-06-09", failed[0].DateRange)
	assert.Contains(t, failed[1].Reason, "cannot hold vwap")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("failed")))
	assert.FileExists(t, filepath.Join(dir, "EURUSD 20180608 20180609.csv"))
}

func TestRunner_Cancel(t *testing.T) {
	dir := t.TempDir()
	hanging := make(chan struct{}, 3)
	svc := &providertest.Service{
		Quotes:  map[string][]model.Quote{"A": providertest.Quotes(t0, 10), "B": providertest.Quotes(t0, 10), "C": providertest.Quotes(t0, 10)},
		Hang:    true,
		HangAt:  2,
		Hanging: hanging,
	}
	var reqs []model.ExportRequest
	for _, sym := range []string{"A", "B", "C"} {
		reqs = append(reqs, request(dir, sym, model.SeriesTicks, model.FormatZip))
	}
	r := NewRunner(svc, RunnerOptions{Job: testOptions(), Parallel: 1, ReportDir: dir, Output: &bytes.Buffer{}})

	done := make(chan Summary, 1)
	go func() { done <- r.Run(context.Background(), reqs) }()
	<-hanging
	r.Cancel()

	var sum Summary
	select {
	case sum = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.Equal(t, 3, sum.Cancelled)
	assert.Equal(t, 1, svc.Opens(), "queued jobs never start")
	assert.Equal(t, []string{failedReport}, dirNames(t, dir))
}

func TestRunner_ContextCancel(t *testing.T) {
	dir := t.TempDir()
	hanging := make(chan struct{}, 2)
	svc := &providertest.Service{
		Quotes:  map[string][]model.Quote{"A": providertest.Quotes(t0, 10), "B": providertest.Quotes(t0, 10)},
		Hang:    true,
		HangAt:  1,
		Hanging: hanging,
	}
	reqs := []model.ExportRequest{
		request(dir, "A", model.SeriesTicks, model.FormatCSV),
		request(dir, "B", model.SeriesTicks, model.FormatCSV),
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(svc, RunnerOptions{Job: testOptions(), Output: &bytes.Buffer{}})

	done := make(chan Summary, 1)
	go func() { done <- r.Run(ctx, reqs) }()
	<-hanging
	<-hanging
	cancel()

	select {
	case sum := <-done:
		assert.Equal(t, 2, sum.Cancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after context cancel")
	}
	assert.Empty(t, dirNames(t, dir))
}

func TestRunner_CancelledContextCountsAsCancelled(t *testing.T) {
	dir := t.TempDir()
	svc := &providertest.Service{Quotes: map[string][]model.Quote{
		"A": providertest.Quotes(t0, 10),
		"B": providertest.Quotes(t0, 10),
		"C": providertest.Quotes(t0, 10),
	}}
	var reqs []model.ExportRequest
	for _, sym := range []string{"A", "B", "C"} {
		reqs = append(reqs, request(dir, sym, model.SeriesTicks, model.FormatCSV))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := NewRunner(svc, RunnerOptions{Job: testOptions(), Output: &out})
	sum := r.Run(ctx, reqs)

	assert.Equal(t, 3, sum.Cancelled)
	assert.Zero(t, sum.Failed)
	assert.NotContains(t, out.String(), "job failed")
	assert.Empty(t, dirNames(t, dir))
}

func TestRunner_ProgressLedger(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, ".progress.json")
	require.NoError(t, os.WriteFile(ledger, []byte(`{"EURUSD ticks csv": "2019-01-01"}`), 0644))
	svc := &providertest.Service{Quotes: map[string][]model.Quote{
		"EURUSD": providertest.Quotes(t0, 3),
		"GBPUSD": providertest.Quotes(t0, 3),
	}}
	r := NewRunner(svc, RunnerOptions{Job: testOptions(), ProgressPath: ledger, Output: &bytes.Buffer{}})
	r.Run(context.Background(), []model.ExportRequest{
		request(dir, "EURUSD", model.SeriesTicks, model.FormatCSV),
		request(dir, "GBPUSD", model.SeriesTicks, model.FormatCSV),
	})

	got := LoadProgress(ledger)
	assert.Equal(t, "2019-01-01", got["EURUSD ticks csv"], "an older range does not move the ledger back")
	assert.Equal(t, "2018-06-09", got["GBPUSD ticks csv"])
}

func TestRunner_Heartbeat(t *testing.T) {
	hanging := make(chan struct{}, 1)
	svc := &providertest.Service{
		Quotes:  map[string][]model.Quote{"A": providertest.Quotes(t0, 10)},
		Hang:    true,
		HangAt:  1,
		Hanging: hanging,
	}
	var out bytes.Buffer
	r := NewRunner(svc, RunnerOptions{Job: testOptions(), Heartbeat: 5 * time.Millisecond, Output: &out})
	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), []model.ExportRequest{request(t.TempDir(), "A", model.SeriesTicks, model.FormatCSV)})
		close(done)
	}()
	<-hanging
	time.Sleep(30 * time.Millisecond)
	r.Cancel()
	<-done
	assert.True(t, strings.Contains(out.String(), "heartbeat"))
}

func TestJoinFailedReasons(t *testing.T) {
	var list []failedEntry
	for i := 0; i < 8; i++ {
		list = append(list, failedEntry{Symbol: string(rune('A' + i)), Reason: "x"})
	}
	got := joinFailedReasons(list)
	assert.True(t, strings.HasPrefix(got, "A: x; B: x"))
	assert.True(t, strings.HasSuffix(got, "(+3 more)"))
	assert.Empty(t, joinFailedReasons(nil))
}
