package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripple-go/ripple/internal/errors"
	"github.com/ripple-go/ripple/pkg/reactive"
)

const gib = int64(1024 * 1024 * 1024)

// profile is a named workload shape: how wide the signal layer is, how many
// memo layers sit on top of it, and how hard the writers push.
type profile struct {
	Name          string
	Signals       int
	Layers        int
	Fanout        int
	Writers       int
	Duration      time.Duration
	WPS           float64
	MaxProcs      int
	MemLimitBytes int64
}

var profiles = map[string]profile{
	"fast": {
		Name:     "fast",
		Signals:  64,
		Layers:   4,
		Fanout:   4,
		Writers:  4,
		Duration: 5 * time.Second,
		WPS:      200,
	},
	"standard": {
		Name:     "standard",
		Signals:  256,
		Layers:   6,
		Fanout:   8,
		Writers:  8,
		Duration: 20 * time.Second,
		WPS:      500,
	},
	"stress": {
		Name:          "stress",
		Signals:       1024,
		Layers:        8,
		Fanout:        8,
		Writers:       16,
		Duration:      45 * time.Second,
		WPS:           1000,
		MaxProcs:      4,
		MemLimitBytes: 2 * gib,
	},
}

type benchConfig struct {
	Profile       string
	Signals       int
	Layers        int
	Fanout        int
	Writers       int
	Duration      time.Duration
	WPS           float64
	MaxProcs      int
	MemLimitBytes int64
	JSONOutput    string
}

func benchCmd() *cobra.Command {
	var (
		profileName string
		signals     int
		layers      int
		fanout      int
		writers     int
		duration    string
		wps         float64
		maxProcs    int
		memLimit    string
		jsonOut     string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark propagation through a synthetic graph",
		Long: `Build a layered signal/memo graph, drive concurrent writers
against it, and measure write-to-effect propagation latency.

Each write marks its transitive dependents dirty and drains the eager
effects before returning, so the duration of one Set call is the full
propagation cost for that write. The report carries latency
percentiles, throughput, recompute counts, and GC statistics as JSON.

Profiles:
  fast      64 signals,  4 layers,  4 writers,  5s
  standard  256 signals, 6 layers,  8 writers, 20s
  stress    1024 signals, 8 layers, 16 writers, 45s (capped procs/mem)

Examples:
  ripple bench
  ripple bench --profile=fast
  ripple bench --profile=stress --writers=32 --duration=2m
  ripple bench --json=report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveBenchConfig(profileName, signals, layers, fanout, writers, duration, wps, maxProcs, memLimit, jsonOut)
			if err != nil {
				return err
			}
			return runBench(cfg)
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "standard", "Profile: fast|standard|stress")
	cmd.Flags().IntVar(&signals, "signals", -1, "Number of base signals")
	cmd.Flags().IntVar(&layers, "layers", -1, "Number of memo layers above the signals")
	cmd.Flags().IntVar(&fanout, "fanout", -1, "Sources read by each memo")
	cmd.Flags().IntVar(&writers, "writers", -1, "Number of concurrent writer goroutines")
	cmd.Flags().StringVar(&duration, "duration", "", "Benchmark duration, e.g. 30s")
	cmd.Flags().Float64Var(&wps, "wps", -1, "Target writes/sec per writer")
	cmd.Flags().IntVar(&maxProcs, "max-procs", -1, "GOMAXPROCS cap (0 to leave unchanged)")
	cmd.Flags().StringVar(&memLimit, "mem-limit", "", "GOMEMLIMIT (e.g. 2GiB)")
	cmd.Flags().StringVar(&jsonOut, "json", "-", "JSON output path ('-' for stdout)")

	return cmd
}

func resolveBenchConfig(
	profileName string,
	signals, layers, fanout, writers int,
	duration string,
	wps float64,
	maxProcs int,
	memLimit, jsonOut string,
) (benchConfig, error) {
	name := strings.ToLower(strings.TrimSpace(profileName))
	if name == "" {
		name = "standard"
	}

	base, ok := profiles[name]
	if !ok {
		return benchConfig{}, errors.New("E100").
			WithDetail(fmt.Sprintf("Profile %q is not defined", name)).
			WithSuggestion("Use one of: fast, standard, stress")
	}

	cfg := benchConfig{
		Profile:       base.Name,
		Signals:       base.Signals,
		Layers:        base.Layers,
		Fanout:        base.Fanout,
		Writers:       base.Writers,
		Duration:      base.Duration,
		WPS:           base.WPS,
		MaxProcs:      base.MaxProcs,
		MemLimitBytes: base.MemLimitBytes,
		JSONOutput:    strings.TrimSpace(jsonOut),
	}

	if signals != -1 {
		cfg.Signals = signals
	}
	if layers != -1 {
		cfg.Layers = layers
	}
	if fanout != -1 {
		cfg.Fanout = fanout
	}
	if writers != -1 {
		cfg.Writers = writers
	}
	if duration != "" {
		d, err := time.ParseDuration(duration)
		if err != nil {
			return benchConfig{}, errors.New("E101").
				WithDetail(fmt.Sprintf("Invalid --duration: %v", err)).
				WithSuggestion("Use a Go duration such as 30s or 2m")
		}
		cfg.Duration = d
	}
	if wps != -1 {
		cfg.WPS = wps
	}
	if maxProcs != -1 {
		cfg.MaxProcs = maxProcs
	}
	if memLimit != "" {
		limit, err := parseBytes(memLimit)
		if err != nil {
			return benchConfig{}, errors.New("E101").
				WithDetail(fmt.Sprintf("Invalid --mem-limit: %v", err)).
				WithSuggestion("Use a size such as 512MiB or 2GiB")
		}
		cfg.MemLimitBytes = limit
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}

	switch {
	case cfg.Signals <= 0:
		return benchConfig{}, errors.New("E101").WithDetail("--signals must be > 0")
	case cfg.Layers <= 0:
		return benchConfig{}, errors.New("E101").WithDetail("--layers must be > 0")
	case cfg.Fanout <= 0:
		return benchConfig{}, errors.New("E101").WithDetail("--fanout must be > 0")
	case cfg.Writers <= 0:
		return benchConfig{}, errors.New("E101").WithDetail("--writers must be > 0")
	case cfg.Duration <= 0:
		return benchConfig{}, errors.New("E101").WithDetail("--duration must be > 0")
	case cfg.WPS <= 0:
		return benchConfig{}, errors.New("E101").WithDetail("--wps must be > 0")
	case cfg.MaxProcs < 0:
		return benchConfig{}, errors.New("E101").WithDetail("--max-procs must be >= 0")
	case cfg.MemLimitBytes < 0:
		return benchConfig{}, errors.New("E101").WithDetail("--mem-limit must be >= 0")
	}

	return cfg, nil
}

// benchObserver counts graph events with atomics so the writers never
// contend on it.
type benchObserver struct {
	reactive.NopObserver

	recomputes    atomic.Uint64
	recomputeErrs atomic.Uint64
	propagations  atomic.Uint64
	eagerRuns     atomic.Uint64
	marked        atomic.Uint64
	budgetTrips   atomic.Uint64
}

func (o *benchObserver) Recomputed(ev reactive.RecomputeEvent) {
	o.recomputes.Add(1)
	if ev.Err != nil {
		o.recomputeErrs.Add(1)
	}
}

func (o *benchObserver) PropagationEnded(ev reactive.PropagationEvent) {
	o.propagations.Add(1)
	o.eagerRuns.Add(uint64(ev.EagerRuns))
	o.marked.Add(uint64(ev.Marked))
}

func (o *benchObserver) BudgetExceeded(reactive.BudgetEvent) {
	o.budgetTrips.Add(1)
}

// benchGraph holds the built workload. The effect keeps the memo chain hot:
// every write pulls the whole chain fresh inside the Set call.
type benchGraph struct {
	signals []*reactive.Signal[int]
	root    *reactive.Memo[int]
	sink    *reactive.Effect
}

// buildGraph layers memos over the base signals. Each layer halves in
// width; each memo sums a fanout-sized window of the layer below. A single
// eager root memo and a sink effect terminate the graph.
func buildGraph(cfg benchConfig, effectRuns *atomic.Uint64) benchGraph {
	signals := make([]*reactive.Signal[int], cfg.Signals)
	prev := make([]reactive.Readable[int], cfg.Signals)
	for i := range signals {
		signals[i] = reactive.NewSignal(0).WithName(fmt.Sprintf("src-%d", i))
		prev[i] = signals[i]
	}

	for layer := 1; layer <= cfg.Layers; layer++ {
		width := len(prev) / 2
		if width < 1 {
			width = 1
		}
		next := make([]reactive.Readable[int], width)
		for i := 0; i < width; i++ {
			sources := make([]reactive.Readable[int], cfg.Fanout)
			for j := 0; j < cfg.Fanout; j++ {
				sources[j] = prev[(i*cfg.Fanout+j)%len(prev)]
			}
			next[i] = reactive.NewMemo(func() int {
				sum := 0
				for _, src := range sources {
					sum += src.Get()
				}
				return sum
			}).WithName(fmt.Sprintf("L%d-%d", layer, i))
		}
		prev = next
	}

	last := prev
	root := reactive.NewMemo(func() int {
		sum := 0
		for _, src := range last {
			sum += src.Get()
		}
		return sum
	}).WithName("root").WithEager()

	sink := reactive.CreateEffect(func() reactive.Cleanup {
		_ = root.Get()
		effectRuns.Add(1)
		return nil
	}, reactive.WithEffectName("sink"))

	return benchGraph{signals: signals, root: root, sink: sink}
}

func runBench(cfg benchConfig) error {
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
	if cfg.MemLimitBytes > 0 {
		debug.SetMemoryLimit(cfg.MemLimitBytes)
	}

	debug.SetGCPercent(100)

	rt := reactive.NewRuntime(reactive.WithRuntimeName("bench"))
	obs := &benchObserver{}
	rt.Observe(obs)

	var effectRuns atomic.Uint64
	var graph benchGraph
	var scope *reactive.Scope
	rt.Run(func() {
		scope = reactive.NewScope().WithName("bench")
		scope.Run(func() {
			graph = buildGraph(cfg, &effectRuns)
		})
	})
	defer scope.Dispose()

	nodesLive := len(rt.Nodes())
	edgesLive := len(rt.Edges())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	samplesCh := make(chan time.Duration, sampleBuffer(cfg.Writers))
	var samples []time.Duration
	var samplesMu sync.Mutex
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for rtt := range samplesCh {
			samplesMu.Lock()
			samples = append(samples, rtt)
			samplesMu.Unlock()
		}
	}()

	var writes, writeFailures atomic.Uint64

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	beforeMetrics := readRuntimeMetrics()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Writers)
	for w := 0; w < cfg.Writers; w++ {
		writerID := w
		go func() {
			defer wg.Done()
			runWriter(ctx, writerID, cfg, graph.signals, &writes, &writeFailures, samplesCh)
		}()
	}

	wg.Wait()
	close(samplesCh)
	<-collectorDone

	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)
	afterMetrics := readRuntimeMetrics()

	samplesMu.Lock()
	latencies := append([]time.Duration(nil), samples...)
	samplesMu.Unlock()
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	report := buildReport(cfg, elapsed, latencies, obs, &effectRuns, writes.Load(), writeFailures.Load(), nodesLive, edgesLive, before, after, beforeMetrics, afterMetrics)

	writeSummary(os.Stderr, report)
	if err := writeJSON(cfg.JSONOutput, report); err != nil {
		return errors.New("E103").
			WithDetail(fmt.Sprintf("Could not write %q", cfg.JSONOutput)).
			Wrap(err)
	}
	return nil
}

// runWriter drives one goroutine's share of the signals. Writers stride by
// the writer count so no two writers ever touch the same signal.
func runWriter(
	ctx context.Context,
	writerID int,
	cfg benchConfig,
	signals []*reactive.Signal[int],
	writes, failures *atomic.Uint64,
	samples chan<- time.Duration,
) {
	period := time.Duration(float64(time.Second) / cfg.WPS)
	idx := writerID % len(signals)
	value := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		value++
		sig := signals[idx]
		idx = (idx + cfg.Writers) % len(signals)

		start := time.Now()
		err := sig.Set(value)
		rtt := time.Since(start)
		if err != nil {
			failures.Add(1)
		} else {
			writes.Add(1)
			samples <- rtt
		}

		if sleep := period - rtt; sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}

func sampleBuffer(writers int) int {
	if writers < 1 {
		return 1024
	}
	buf := writers * 256
	if buf < 1024 {
		buf = 1024
	}
	return buf
}

func parseBytes(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	var i int
	for i < len(s) {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	numPart := strings.TrimSpace(s[:i])
	suffix := strings.ToLower(strings.TrimSpace(s[i:]))

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, err
	}

	multiplier := float64(1)
	switch suffix {
	case "", "b":
		multiplier = 1
	case "kb":
		multiplier = 1e3
	case "mb":
		multiplier = 1e6
	case "gb":
		multiplier = 1e9
	case "tb":
		multiplier = 1e12
	case "kib":
		multiplier = 1024
	case "mib":
		multiplier = 1024 * 1024
	case "gib":
		multiplier = 1024 * 1024 * 1024
	case "tib":
		multiplier = 1024 * 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size suffix %q", suffix)
	}

	bytes := value * multiplier
	if bytes < 0 {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	return int64(bytes + 0.5), nil
}

type runtimeMetricsSnapshot struct {
	cpuTotalSeconds float64
	cpuGCSeconds    float64

	heapAllocsBytes   uint64
	heapAllocsObjects uint64
}

func readRuntimeMetrics() runtimeMetricsSnapshot {
	samples := []metrics.Sample{
		{Name: "/cpu/classes/total:cpu-seconds"},
		{Name: "/cpu/classes/gc/total:cpu-seconds"},
		{Name: "/gc/heap/allocs:bytes"},
		{Name: "/gc/heap/allocs:objects"},
	}
	metrics.Read(samples)

	var out runtimeMetricsSnapshot
	for _, s := range samples {
		switch s.Name {
		case "/cpu/classes/total:cpu-seconds":
			out.cpuTotalSeconds = s.Value.Float64()
		case "/cpu/classes/gc/total:cpu-seconds":
			out.cpuGCSeconds = s.Value.Float64()
		case "/gc/heap/allocs:bytes":
			out.heapAllocsBytes = s.Value.Uint64()
		case "/gc/heap/allocs:objects":
			out.heapAllocsObjects = s.Value.Uint64()
		}
	}
	return out
}

func cpuFraction(after, before runtimeMetricsSnapshot) float64 {
	total := after.cpuTotalSeconds - before.cpuTotalSeconds
	if total <= 0 {
		return 0
	}
	gc := after.cpuGCSeconds - before.cpuGCSeconds
	if gc < 0 {
		return 0
	}
	return gc / total
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func avgPause(after, before runtime.MemStats) time.Duration {
	gcCount := after.NumGC - before.NumGC
	if gcCount == 0 {
		return 0
	}
	return time.Duration((after.PauseTotalNs - before.PauseTotalNs) / uint64(gcCount))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	Graph      graphInfo      `json:"graph"`
	GC         gcInfo         `json:"gc"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
	GitCommit string `json:"git_commit,omitempty"`
}

type workloadInfo struct {
	Profile       string  `json:"profile"`
	Signals       int     `json:"signals"`
	Layers        int     `json:"layers"`
	Fanout        int     `json:"fanout"`
	Writers       int     `json:"writers"`
	DurationMS    int64   `json:"duration_ms"`
	WPSPerWriter  float64 `json:"wps_per_writer"`
	MaxProcs      int     `json:"max_procs"`
	MemLimitBytes int64   `json:"mem_limit_bytes"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	WritesTotal        uint64  `json:"writes_total"`
	WritesPerSec       float64 `json:"writes_per_sec"`
	WritesPerSecWriter float64 `json:"writes_per_sec_per_writer"`
}

type graphInfo struct {
	NodesLive          int     `json:"nodes_live"`
	EdgesLive          int     `json:"edges_live"`
	Recomputes         uint64  `json:"recomputes_total"`
	EffectRuns         uint64  `json:"effect_runs_total"`
	Propagations       uint64  `json:"propagations_total"`
	MarkedTotal        uint64  `json:"marked_total"`
	RecomputesPerWrite float64 `json:"recomputes_per_write"`
	MarkedPerWrite     float64 `json:"marked_per_write"`
}

type gcInfo struct {
	AllocMB       float64 `json:"alloc_mb"`
	HeapLiveMB    float64 `json:"heap_live_mb"`
	NumGC         uint32  `json:"num_gc"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
	PauseAvgMS    float64 `json:"pause_avg_ms"`
	GCCPUFraction float64 `json:"gc_cpu_fraction"`
	AllocsObjects uint64  `json:"allocs_objects"`
}

type errorInfo struct {
	WriteFailures uint64 `json:"write_failures"`
	ComputeErrors uint64 `json:"compute_errors"`
	BudgetTrips   uint64 `json:"budget_trips"`
}

func buildReport(
	cfg benchConfig,
	elapsed time.Duration,
	latencies []time.Duration,
	obs *benchObserver,
	effectRuns *atomic.Uint64,
	writesTotal, writeFailures uint64,
	nodesLive, edgesLive int,
	before runtime.MemStats,
	after runtime.MemStats,
	beforeMetrics runtimeMetricsSnapshot,
	afterMetrics runtimeMetricsSnapshot,
) benchReport {
	elapsedSeconds := math.Max(0.001, elapsed.Seconds())
	writesPerSec := float64(writesTotal) / elapsedSeconds
	writesPerSecWriter := writesPerSec / float64(cfg.Writers)

	latency := latencyInfo{}
	if len(latencies) > 0 {
		latency = latencyInfo{
			Min: ms(latencies[0]),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(latencies[len(latencies)-1]),
		}
	}

	recomputes := obs.recomputes.Load()
	marked := obs.marked.Load()
	recomputesPerWrite := 0.0
	markedPerWrite := 0.0
	if writesTotal > 0 {
		recomputesPerWrite = float64(recomputes) / float64(writesTotal)
		markedPerWrite = float64(marked) / float64(writesTotal)
	}

	pauseTotal := time.Duration(after.PauseTotalNs - before.PauseTotalNs)
	pauseAvg := avgPause(after, before)

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
			GitCommit: gitCommit(),
		},
		Workload: workloadInfo{
			Profile:       cfg.Profile,
			Signals:       cfg.Signals,
			Layers:        cfg.Layers,
			Fanout:        cfg.Fanout,
			Writers:       cfg.Writers,
			DurationMS:    cfg.Duration.Milliseconds(),
			WPSPerWriter:  cfg.WPS,
			MaxProcs:      cfg.MaxProcs,
			MemLimitBytes: cfg.MemLimitBytes,
		},
		LatencyMS: latency,
		Throughput: throughputInfo{
			WritesTotal:        writesTotal,
			WritesPerSec:       writesPerSec,
			WritesPerSecWriter: writesPerSecWriter,
		},
		Graph: graphInfo{
			NodesLive:          nodesLive,
			EdgesLive:          edgesLive,
			Recomputes:         recomputes,
			EffectRuns:         effectRuns.Load(),
			Propagations:       obs.propagations.Load(),
			MarkedTotal:        marked,
			RecomputesPerWrite: recomputesPerWrite,
			MarkedPerWrite:     markedPerWrite,
		},
		GC: gcInfo{
			AllocMB:       float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:    float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:         after.NumGC - before.NumGC,
			PauseTotalMS:  ms(pauseTotal),
			PauseAvgMS:    ms(pauseAvg),
			GCCPUFraction: cpuFraction(afterMetrics, beforeMetrics),
			AllocsObjects: afterMetrics.heapAllocsObjects - beforeMetrics.heapAllocsObjects,
		},
		Errors: errorInfo{
			WriteFailures: writeFailures,
			ComputeErrors: obs.recomputeErrs.Load(),
			BudgetTrips:   obs.budgetTrips.Load(),
		},
	}
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Ripple Graph Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Signals: %d\n", report.Workload.Signals)
	fmt.Fprintf(w, "Memo layers: %d (fanout %d)\n", report.Workload.Layers, report.Workload.Fanout)
	fmt.Fprintf(w, "Writers: %d\n", report.Workload.Writers)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Target per-writer rate: %.2f writes/s\n", report.Workload.WPSPerWriter)
	if report.Workload.MaxProcs > 0 {
		fmt.Fprintf(w, "GOMAXPROCS cap: %d\n", report.Workload.MaxProcs)
	}
	if report.Workload.MemLimitBytes > 0 {
		fmt.Fprintf(w, "GOMEMLIMIT cap: %.2f GiB\n", float64(report.Workload.MemLimitBytes)/float64(gib))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total writes: %d\n", report.Throughput.WritesTotal)
	fmt.Fprintf(w, "Throughput: %.1f writes/s (%.2f per writer)\n", report.Throughput.WritesPerSec, report.Throughput.WritesPerSecWriter)
	fmt.Fprintf(w, "Write failures: %d\n", report.Errors.WriteFailures)
	fmt.Fprintln(w)

	if report.LatencyMS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "Propagation latency (Set -> eager drain complete):")
		fmt.Fprintf(w, "  min: %.3f ms\n", report.LatencyMS.Min)
		fmt.Fprintf(w, "  p50: %.3f ms\n", report.LatencyMS.P50)
		fmt.Fprintf(w, "  p95: %.3f ms\n", report.LatencyMS.P95)
		fmt.Fprintf(w, "  p99: %.3f ms\n", report.LatencyMS.P99)
		fmt.Fprintf(w, "  max: %.3f ms\n", report.LatencyMS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Graph:")
	fmt.Fprintf(w, "  nodes: %d (edges %d)\n", report.Graph.NodesLive, report.Graph.EdgesLive)
	fmt.Fprintf(w, "  recomputes: %d (%.2f per write)\n", report.Graph.Recomputes, report.Graph.RecomputesPerWrite)
	fmt.Fprintf(w, "  effect runs: %d\n", report.Graph.EffectRuns)
	fmt.Fprintf(w, "  propagations: %d\n", report.Graph.Propagations)
	fmt.Fprintf(w, "  marked/write: %.2f\n", report.Graph.MarkedPerWrite)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC (process-wide):")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (avg)\n", report.GC.PauseAvgMS)
	fmt.Fprintf(w, "  gc_cpu:    %.2f%%\n", report.GC.GCCPUFraction*100)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func gitCommit() string {
	if val := strings.TrimSpace(os.Getenv("RIPPLE_GIT_COMMIT")); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv("GIT_COMMIT")); val != "" {
		return val
	}
	cmd := exec.Command("git", "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
