package runs_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/tspselect/internal/runs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(id string, algos map[string][]float64, order []string) []runs.RawRun {
	var out []runs.RawRun
	for _, a := range order {
		for i, rt := range algos[a] {
			out = append(out, runs.RawRun{InstanceID: id, Algorithm: a, Repeat: i + 1, Status: "ok", Runtime: rt})
		}
	}
	return out
}

func series(first []float64, fill float64, n int) []float64 {
	out := append([]float64(nil), first...)
	for len(out) < n {
		out = append(out, fill)
	}
	return out
}

func TestAggregateSingleBlock(t *testing.T) {
	eax := series([]float64{10, 12, 11}, 11, 15)
	lkh := series([]float64{500}, 520, 15)
	log := block("A", map[string][]float64{"eax": eax, "lkh": lkh}, []string{"eax", "lkh"})
	require.Len(t, log, 30)

	got := runs.Aggregate(log, runs.Options{})
	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, "A", s.ID)
	assert.Equal(t, "eax", s.Best)
	assert.InDelta(t, 11.0, s.Medians["eax"], 1e-9)
	assert.Equal(t, []string{"eax", "lkh"}, s.Order)
}

func TestAggregateTimeoutPenalty(t *testing.T) {
	log := block("B", map[string][]float64{
		"eax": series(nil, 900, 15),
		"lkh": series(nil, 40, 15),
	}, []string{"eax", "lkh"})

	got := runs.Aggregate(log, runs.Options{NumRuns: 30, Timeout: 900})
	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, 900.0, s.Medians["eax"])
	assert.Equal(t, 9000.0, s.Runtimes["eax"])
	assert.Equal(t, "lkh", s.Best)
}

func TestAggregateAllTimedOut(t *testing.T) {
	log := block("C", map[string][]float64{
		"eax": series(nil, 950, 5),
		"lkh": series(nil, 1000, 5),
	}, []string{"eax", "lkh"})

	got := runs.Aggregate(log, runs.Options{NumRuns: 10, Timeout: 900})
	require.Len(t, got, 1)
	assert.Equal(t, runs.NoneFinished, got[0].Best)
	assert.False(t, got[0].Finished())
	assert.Equal(t, []float64{9000, 9000}, got[0].Vector([]string{"eax", "lkh"}))
}

func TestAggregateTieKeepsFirstAppearance(t *testing.T) {
	log := block("D", map[string][]float64{
		"lkh": series(nil, 50, 2),
		"eax": series(nil, 50, 2),
	}, []string{"lkh", "eax"})
	got := runs.Aggregate(log, runs.Options{NumRuns: 4})
	require.Len(t, got, 1)
	assert.Equal(t, "lkh", got[0].Best)
}

func TestAggregateDropsMisalignedBlocks(t *testing.T) {
	good := block("A", map[string][]float64{"eax": {1, 2}, "lkh": {3, 4}}, []string{"eax", "lkh"})
	bad := block("B", map[string][]float64{"eax": {1, 2}}, []string{"eax"})
	bad = append(bad, block("C", map[string][]float64{"lkh": {3, 4}}, []string{"lkh"})...)
	tail := block("D", map[string][]float64{"eax": {1}}, []string{"eax"})

	log := append(append(append([]runs.RawRun{}, good...), bad...), tail...)
	got := runs.Aggregate(log, runs.Options{NumRuns: 4})
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, 1, runs.Dropped(log, runs.Options{NumRuns: 4}, len(got)))
	assert.Equal(t, len(log)/4-1, len(got))
}

func TestAggregateUnfinishedStatus(t *testing.T) {
	log := []runs.RawRun{
		{InstanceID: "E", Algorithm: "eax", Status: "timeout", Runtime: 12},
		{InstanceID: "E", Algorithm: "eax", Status: "memout", Runtime: 14},
		{InstanceID: "E", Algorithm: "eax", Status: "ok", Runtime: 10},
		{InstanceID: "E", Algorithm: "lkh", Status: "OK", Runtime: 100},
	}
	got := runs.Aggregate(log, runs.Options{NumRuns: 4, Timeout: 900})
	require.Len(t, got, 1)
	assert.Equal(t, 900.0, got[0].Medians["eax"])
	assert.Equal(t, "lkh", got[0].Best)
}

func TestBestIsMinimumAmongFinished(t *testing.T) {
	log := block("F", map[string][]float64{
		"a": {300, 310},
		"b": {20, 40},
		"c": {2000, 2000},
		"d": {25, 26},
	}, []string{"a", "b", "c", "d"})
	got := runs.Aggregate(log, runs.Options{NumRuns: 8, Timeout: 900})
	require.Len(t, got, 1)
	s := got[0]
	for _, a := range s.Order {
		if s.Medians[a] < 900 {
			assert.LessOrEqual(t, s.Medians[s.Best], s.Medians[a])
		}
	}
	assert.Equal(t, "d", s.Best)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, runs.Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, runs.Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 0.0, runs.Median(nil))
}

func TestParseLogDefaultColumns(t *testing.T) {
	in := "inst-1,eax,1,ok,10.5\ninst-1,lkh,1,ok,20\n\ninst-2,eax,1,timeout,900\n"
	got, err := runs.ParseLog(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, runs.RawRun{InstanceID: "inst-1", Algorithm: "eax", Repeat: 1, Status: "ok", Runtime: 10.5, Line: 1}, got[0])
	assert.Equal(t, "timeout", got[2].Status)
	assert.Equal(t, 4, got[2].Line)
}

func TestParseLogCSVHeader(t *testing.T) {
	in := "instance_id,algorithm,repeat_index,status,runtime\nx,eax,1,ok,3\n"
	got, err := runs.ParseLog(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Runtime)
}

func TestParseLogARFF(t *testing.T) {
	in := `@RELATION algorithm_runs
% comment
@ATTRIBUTE instance_id STRING
@ATTRIBUTE repetition NUMERIC
@ATTRIBUTE algorithm STRING
@ATTRIBUTE runtime NUMERIC
@ATTRIBUTE runstatus {ok, timeout, memout}

@DATA
'set/rue/100-1',1,GA-EAX,12.25,ok
'set/rue/100-1',2,LKH,900,timeout
`
	got, err := runs.ParseLog(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "set/rue/100-1", got[0].InstanceID)
	assert.Equal(t, "GA-EAX", got[0].Algorithm)
	assert.Equal(t, 1, got[0].Repeat)
	assert.Equal(t, 12.25, got[0].Runtime)
	assert.Equal(t, "timeout", got[1].Status)
}

func TestParseLogMalformed(t *testing.T) {
	cases := map[string]string{
		"bad runtime": "a,eax,1,ok,fast\n",
		"bad repeat":  "a,eax,one,ok,1\n",
		"short row":   "a,eax,1\n",
		"negative":    "a,eax,1,ok,-3\n",
		"empty algo":  "a,,1,ok,3\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := runs.ParseLog(strings.NewReader(in))
			var pe *runs.ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, 1, pe.Line)
		})
	}
}

func TestAggregateLengthProperty(t *testing.T) {
	var log []runs.RawRun
	for i := 0; i < 7; i++ {
		log = append(log, block(fmt.Sprintf("i%d", i), map[string][]float64{"eax": {1, 2, 3}, "lkh": {4, 5, 6}}, []string{"eax", "lkh"})...)
	}
	log = append(log, log[:2]...)
	got := runs.Aggregate(log, runs.Options{NumRuns: 6})
	assert.Len(t, got, len(log)/6)
	assert.Len(t, runs.Keys(got), 7)
}

func TestWriteAndReadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels", "labels.json")
	want := &runs.Labels{
		Algorithms: []string{"eax", "lkh"},
		NumRuns:    2,
		Timeout:    900,
		Summaries: runs.Aggregate(block("A", map[string][]float64{"eax": {1}, "lkh": {2}}, []string{"eax", "lkh"}),
			runs.Options{NumRuns: 2}),
	}
	require.NoError(t, runs.WriteLabels(path, want))
	got, err := runs.ReadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
