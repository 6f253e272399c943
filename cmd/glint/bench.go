package main

import (
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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/glintui/glint/internal/config"
	"github.com/glintui/glint/internal/errors"
	"github.com/glintui/glint/pkg/reactive"
)

type profile struct {
	Name       string
	Iterations int
	FanOut     int
	ChainDepth int
}

var profiles = map[string]profile{
	"fast": {
		Name:       "fast",
		Iterations: 10000,
		FanOut:     16,
		ChainDepth: 8,
	},
	"standard": {
		Name:       "standard",
		Iterations: 50000,
		FanOut:     64,
		ChainDepth: 16,
	},
	"stress": {
		Name:       "stress",
		Iterations: 200000,
		FanOut:     128,
		ChainDepth: 32,
	},
}

type benchConfig struct {
	Profile    string
	Iterations int
	FanOut     int
	ChainDepth int
	JSONOutput string
}

func benchCmd() *cobra.Command {
	var (
		profileName string
		iterations  int
		fanOut      int
		depth       int
		jsonOut     string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure write-to-settled latency and throughput",
		Long: `Measure the runtime under five synthetic graph shapes.

Each scenario times individual writes from Set to settled, then
reports latency percentiles, throughput, and the recompute/effect/
flush counts the writes produced. A JSON report goes to stdout (or
--json=FILE); the human summary goes to stderr.

Scenarios:
  signal_fan_out  one signal observed by fan-out effects
  memo_diamond    one signal, two memos, one joining memo, one effect
  memo_chain      a depth-long chain of memos behind one effect
  effect_rerun    one effect rerunning with a cleanup between runs
  batch_flush     fan-out signals written together in one batch

Profiles:
  fast      10000 iterations, fan-out 16, chain depth 8
  standard  50000 iterations, fan-out 64, chain depth 16
  stress    200000 iterations, fan-out 128, chain depth 32

Examples:
  glint bench
  glint bench --profile fast
  glint bench --iterations 5000 --json report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(profileName, iterations, fanOut, depth, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Workload profile: fast, standard, or stress")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Writes per scenario (overrides profile)")
	cmd.Flags().IntVar(&fanOut, "fan-out", 0, "Effects per signal (overrides profile)")
	cmd.Flags().IntVar(&depth, "depth", 0, "Memo chain depth (overrides profile)")
	cmd.Flags().StringVar(&jsonOut, "json", "-", "JSON report path, - for stdout")

	return cmd
}

func runBench(profileName string, iterations, fanOut, depth int, jsonOut string) error {
	cfg, err := config.LoadOrDefault()
	if err != nil {
		return err
	}

	bc, err := resolveBenchConfig(cfg, profileName, iterations, fanOut, depth, jsonOut)
	if err != nil {
		return err
	}

	debug.SetGCPercent(100)

	fmt.Fprintf(os.Stderr, "Running %s profile: %d iterations, fan-out %d, chain depth %d\n\n",
		bc.Profile, bc.Iterations, bc.FanOut, bc.ChainDepth)

	runtime.GC()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	beforeMetrics := readRuntimeMetrics()

	scenarios := []scenarioInfo{
		runScenario("signal_fan_out", bc, benchSignalFanOut),
		runScenario("memo_diamond", bc, benchMemoDiamond),
		runScenario("memo_chain", bc, benchMemoChain),
		runScenario("effect_rerun", bc, benchEffectRerun),
		runScenario("batch_flush", bc, benchBatchFlush),
	}

	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	afterMetrics := readRuntimeMetrics()

	report := buildReport(bc, scenarios, before, after, beforeMetrics, afterMetrics)

	writeSummary(os.Stderr, report)
	return writeJSON(bc.JSONOutput, report)
}

func resolveBenchConfig(cfg *config.Config, profileName string, iterations, fanOut, depth int, jsonOut string) (benchConfig, error) {
	name := profileName
	if name == "" {
		name = cfg.Bench.Profile
	}
	if name == "" {
		name = config.DefaultBenchProfile
	}

	p, ok := profiles[name]
	if !ok {
		return benchConfig{}, errors.New("E121").
			WithDetail(fmt.Sprintf("No profile named %q. Available profiles: fast, standard, stress.", name)).
			WithExample("glint bench --profile fast")
	}

	bc := benchConfig{
		Profile:    p.Name,
		Iterations: p.Iterations,
		FanOut:     p.FanOut,
		ChainDepth: p.ChainDepth,
		JSONOutput: jsonOut,
	}

	// glint.json overrides the profile, flags override both.
	if cfg.Bench.Iterations > 0 {
		bc.Iterations = cfg.Bench.Iterations
	}
	if cfg.Bench.FanOut > 0 {
		bc.FanOut = cfg.Bench.FanOut
	}
	if iterations != 0 {
		bc.Iterations = iterations
	}
	if fanOut != 0 {
		bc.FanOut = fanOut
	}
	if depth != 0 {
		bc.ChainDepth = depth
	}

	if bc.Iterations <= 0 {
		return benchConfig{}, errors.New("E102").WithDetail("iterations must be positive")
	}
	if bc.FanOut <= 0 {
		return benchConfig{}, errors.New("E102").WithDetail("fan-out must be positive")
	}
	if bc.ChainDepth <= 0 {
		return benchConfig{}, errors.New("E102").WithDetail("chain depth must be positive")
	}

	return bc, nil
}

func runScenario(name string, bc benchConfig, fn func(benchConfig) []time.Duration) scenarioInfo {
	before := reactive.Stats()
	start := time.Now()
	samples := fn(bc)
	total := time.Since(start)
	after := reactive.Stats()

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	latency := latencyInfo{}
	if len(samples) > 0 {
		latency = latencyInfo{
			Min: us(samples[0]),
			P50: us(percentile(samples, 0.50)),
			P95: us(percentile(samples, 0.95)),
			P99: us(percentile(samples, 0.99)),
			Max: us(samples[len(samples)-1]),
		}
	}

	totalSeconds := math.Max(0.000001, total.Seconds())

	return scenarioInfo{
		Name:       name,
		Ops:        uint64(len(samples)),
		TotalMS:    ms(total),
		OpsPerSec:  float64(len(samples)) / totalSeconds,
		LatencyUS:  latency,
		Writes:     after.Writes - before.Writes,
		Recomputes: after.Recomputes - before.Recomputes,
		EffectRuns: after.EffectRuns - before.EffectRuns,
		Flushes:    after.Flushes - before.Flushes,
	}
}

// benchSignalFanOut times writes to one signal observed by FanOut effects.
func benchSignalFanOut(bc benchConfig) []time.Duration {
	return reactive.CreateRoot(func(dispose func()) []time.Duration {
		defer dispose()

		src := reactive.NewSignal(0)
		var sink int
		for i := 0; i < bc.FanOut; i++ {
			reactive.CreateEffect(func() reactive.Cleanup {
				sink += src.Get()
				return nil
			})
		}

		samples := make([]time.Duration, 0, bc.Iterations)
		for i := 1; i <= bc.Iterations; i++ {
			start := time.Now()
			src.Set(i)
			samples = append(samples, time.Since(start))
		}
		return samples
	})
}

// benchMemoDiamond times writes through a two-branch memo diamond.
func benchMemoDiamond(bc benchConfig) []time.Duration {
	return reactive.CreateRoot(func(dispose func()) []time.Duration {
		defer dispose()

		src := reactive.NewSignal(0)
		left := reactive.NewMemo(func() int { return src.Get() + 1 })
		right := reactive.NewMemo(func() int { return src.Get() * 2 })
		top := reactive.NewMemo(func() int { return left.Get() + right.Get() })

		var sink int
		reactive.CreateEffect(func() reactive.Cleanup {
			sink += top.Get()
			return nil
		})

		samples := make([]time.Duration, 0, bc.Iterations)
		for i := 1; i <= bc.Iterations; i++ {
			start := time.Now()
			src.Set(i)
			samples = append(samples, time.Since(start))
		}
		return samples
	})
}

// benchMemoChain times writes through a ChainDepth-long memo chain.
func benchMemoChain(bc benchConfig) []time.Duration {
	return reactive.CreateRoot(func(dispose func()) []time.Duration {
		defer dispose()

		src := reactive.NewSignal(0)
		prev := reactive.NewMemo(func() int { return src.Get() + 1 })
		for d := 1; d < bc.ChainDepth; d++ {
			link := prev
			prev = reactive.NewMemo(func() int { return link.Get() + 1 })
		}
		last := prev

		var sink int
		reactive.CreateEffect(func() reactive.Cleanup {
			sink += last.Get()
			return nil
		})

		samples := make([]time.Duration, 0, bc.Iterations)
		for i := 1; i <= bc.Iterations; i++ {
			start := time.Now()
			src.Set(i)
			samples = append(samples, time.Since(start))
		}
		return samples
	})
}

// benchEffectRerun times an effect that returns a cleanup on every run.
func benchEffectRerun(bc benchConfig) []time.Duration {
	return reactive.CreateRoot(func(dispose func()) []time.Duration {
		defer dispose()

		src := reactive.NewSignal(0)
		var sink int
		reactive.CreateEffect(func() reactive.Cleanup {
			sink += src.Get()
			return func() { sink-- }
		})

		samples := make([]time.Duration, 0, bc.Iterations)
		for i := 1; i <= bc.Iterations; i++ {
			start := time.Now()
			src.Set(i)
			samples = append(samples, time.Since(start))
		}
		return samples
	})
}

// benchBatchFlush times batches that write FanOut signals and flush once.
func benchBatchFlush(bc benchConfig) []time.Duration {
	return reactive.CreateRoot(func(dispose func()) []time.Duration {
		defer dispose()

		signals := make([]*reactive.Signal[int], bc.FanOut)
		var sink int
		for i := range signals {
			sig := reactive.NewSignal(0)
			signals[i] = sig
			reactive.CreateEffect(func() reactive.Cleanup {
				sink += sig.Get()
				return nil
			})
		}

		samples := make([]time.Duration, 0, bc.Iterations)
		for i := 1; i <= bc.Iterations; i++ {
			start := time.Now()
			reactive.Batch(func() {
				for _, sig := range signals {
					sig.Set(i)
				}
			})
			samples = append(samples, time.Since(start))
		}
		return samples
	})
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

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

type benchReport struct {
	Version   string         `json:"version"`
	Run       runInfo        `json:"run"`
	Workload  workloadInfo   `json:"workload"`
	Scenarios []scenarioInfo `json:"scenarios"`
	GC        gcInfo         `json:"gc"`
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
	Profile    string `json:"profile"`
	Iterations int    `json:"iterations"`
	FanOut     int    `json:"fan_out"`
	ChainDepth int    `json:"chain_depth"`
}

type scenarioInfo struct {
	Name       string      `json:"name"`
	Ops        uint64      `json:"ops"`
	TotalMS    float64     `json:"total_ms"`
	OpsPerSec  float64     `json:"ops_per_sec"`
	LatencyUS  latencyInfo `json:"latency_us"`
	Writes     uint64      `json:"writes"`
	Recomputes uint64      `json:"recomputes"`
	EffectRuns uint64      `json:"effect_runs"`
	Flushes    uint64      `json:"flushes"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
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

func buildReport(
	bc benchConfig,
	scenarios []scenarioInfo,
	before runtime.MemStats,
	after runtime.MemStats,
	beforeMetrics runtimeMetricsSnapshot,
	afterMetrics runtimeMetricsSnapshot,
) benchReport {
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
			Profile:    bc.Profile,
			Iterations: bc.Iterations,
			FanOut:     bc.FanOut,
			ChainDepth: bc.ChainDepth,
		},
		Scenarios: scenarios,
		GC: gcInfo{
			AllocMB:       float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:    float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:         after.NumGC - before.NumGC,
			PauseTotalMS:  ms(pauseTotal),
			PauseAvgMS:    ms(pauseAvg),
			GCCPUFraction: cpuFraction(afterMetrics, beforeMetrics),
			AllocsObjects: afterMetrics.heapAllocsObjects - beforeMetrics.heapAllocsObjects,
		},
	}
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Glint Runtime Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Iterations: %d\n", report.Workload.Iterations)
	fmt.Fprintf(w, "Fan-out: %d\n", report.Workload.FanOut)
	fmt.Fprintf(w, "Chain depth: %d\n", report.Workload.ChainDepth)
	fmt.Fprintln(w)

	for _, s := range report.Scenarios {
		fmt.Fprintf(w, "%s:\n", s.Name)
		fmt.Fprintf(w, "  ops:     %d (%.0f/s, %.1f ms total)\n", s.Ops, s.OpsPerSec, s.TotalMS)
		fmt.Fprintf(w, "  write:   min %.2f / p50 %.2f / p95 %.2f / p99 %.2f / max %.2f us\n",
			s.LatencyUS.Min, s.LatencyUS.P50, s.LatencyUS.P95, s.LatencyUS.P99, s.LatencyUS.Max)
		fmt.Fprintf(w, "  cascade: %d writes, %d recomputes, %d effect runs, %d flushes\n",
			s.Writes, s.Recomputes, s.EffectRuns, s.Flushes)
		fmt.Fprintln(w)
	}

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
			return errors.New("E122").
				WithDetail(fmt.Sprintf("Could not create %q.", path)).
				Wrap(err)
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func gitCommit() string {
	if val := strings.TrimSpace(os.Getenv("GLINT_GIT_COMMIT")); val != "" {
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
