package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/glintui/glint/internal/config"
	"github.com/glintui/glint/internal/errors"
	"github.com/glintui/glint/pkg/devtools"
	"github.com/glintui/glint/pkg/reactive"
	"github.com/glintui/glint/pkg/telemetry"
)

func demoCmd() *cobra.Command {
	var (
		steps    int
		interval time.Duration
		serveDev bool
		addr     string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted reactive scenario",
		Long: `Run a scripted counter/diamond scenario against the runtime.

A counter signal feeds two derived values (double and parity) that
join in a label, and an effect prints the label on every change.
Every fifth step performs two writes inside a batch, so the effect
still runs once.

With --devtools the command enables the graph debug registry, exports
Prometheus metrics, and serves the live inspector until interrupted.

Examples:
  glint demo
  glint demo --steps=50 --interval=100ms
  glint demo --devtools --addr=127.0.0.1:7000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(steps, interval, serveDev, addr)
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 20, "Number of writes to perform")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 250*time.Millisecond, "Delay between writes")
	cmd.Flags().BoolVarP(&serveDev, "devtools", "d", false, "Serve the live inspector while the demo runs")
	cmd.Flags().StringVar(&addr, "addr", "", "Inspector listen address (default from glint.json)")

	return cmd
}

func runDemo(steps int, interval time.Duration, serveDev bool, addr string) error {
	cfg, err := config.LoadOrDefault()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if addr != "" {
		cfg.Devtools.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Debug {
		reactive.DebugMode = true
	}
	if cfg.Debug || serveDev {
		reactive.EnableGraphDebug()
		defer reactive.DisableGraphDebug()
	}

	printBanner()
	fmt.Println("  demo")
	fmt.Println()

	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
	}()

	// Inspector
	var srv *devtools.Server
	devErr := make(chan error, 1)
	if serveDev {
		registry := prometheus.NewRegistry()
		metrics := telemetry.Metrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithSubsystem(cfg.Metrics.Subsystem),
			telemetry.WithRegistry(registry),
		)
		removeMetrics := metrics.Install()
		defer removeMetrics()

		srv = devtools.NewServer(devtools.ServerOptions{
			Addr:     cfg.DevtoolsAddr(),
			Gatherer: registry,
		})
		go func() { devErr <- srv.Serve(ctx) }()
		success("Inspector listening on %s", cfg.DevtoolsURL())
	}

	// Build the graph under a disposable root.
	var (
		count       *reactive.Signal[int]
		history     *reactive.SliceSignal[string]
		disposeRoot func()
	)
	reactive.CreateRoot(func(dispose func()) struct{} {
		disposeRoot = dispose

		count = reactive.NewSignal(0).WithName("count")

		double := reactive.NewMemo(func() int {
			return count.Get() * 2
		}).WithName("double")

		parity := reactive.NewMemo(func() string {
			if count.Get()%2 == 0 {
				return "even"
			}
			return "odd"
		}).WithName("parity")

		label := reactive.NewMemo(func() string {
			return fmt.Sprintf("count=%d double=%d parity=%s", count.Get(), double.Get(), parity.Get())
		}).WithName("label")

		history = reactive.NewSliceSignal[string](nil)

		reactive.CreateEffect(func() reactive.Cleanup {
			line := label.Get()
			history.Append(line)
			info("%s", line)
			return nil
		}, reactive.EffectName("printer"))

		return struct{}{}
	})
	defer disposeRoot()

	// Drive the scenario
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

loop:
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			warn("Interrupted after %d steps", i-1)
			break loop
		case <-ticker.C:
		}

		if i%5 == 0 {
			// Two writes, one flush, one printed line.
			reactive.NamedBatch("demo:burst", func() {
				count.Update(func(n int) int { return n + 1 })
				count.Update(func(n int) int { return n + 1 })
			})
		} else {
			count.Update(func(n int) int { return n + 1 })
		}
	}

	stats := reactive.Stats()
	fmt.Println()
	success("Demo complete")
	info("writes: %d   recomputes: %d   effect runs: %d   flushes: %d",
		stats.Writes, stats.Recomputes, stats.EffectRuns, stats.Flushes)
	info("lines recorded: %d", len(history.Get()))

	if srv != nil {
		fmt.Println()
		info("Inspector serving at %s", cfg.DevtoolsURL())
		info("Press Ctrl-C to stop")
		select {
		case err := <-devErr:
			if err != nil {
				errorMsg("Inspector stopped unexpectedly")
				return errors.New("E123").Wrap(err)
			}
		case <-ctx.Done():
			srv.Close()
			<-devErr
		}
	}

	return nil
}
