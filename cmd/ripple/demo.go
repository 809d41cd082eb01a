package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ripple-go/ripple/internal/errors"
	"github.com/ripple-go/ripple/pkg/devtools"
	"github.com/ripple-go/ripple/pkg/reactive"
	"github.com/ripple-go/ripple/pkg/telemetry"
)

func demoCmd() *cobra.Command {
	var (
		addr        string
		interval    time.Duration
		withMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a live demo graph with the inspector attached",
		Long: `Run a small reactive graph that updates itself on a timer and
serve the inspector over it.

The graph has two source signals (a tick counter and a jitter value),
derived memos for a synthetic load curve and its smoothed average, a
filtered even-tick stream, and a task that refetches a report whenever
the even tick advances. Open the inspector in a browser to watch nodes
recompute and task fetches settle live.

Examples:
  ripple demo
  ripple demo --addr=:7000 --interval=250ms
  ripple demo --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(addr, interval, withMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:6390", "Inspector listen address")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Tick interval for the demo writers")
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "Expose Prometheus metrics at /metrics")

	return cmd
}

func runDemo(addr string, interval time.Duration, withMetrics bool) error {
	if interval <= 0 {
		return errors.New("E101").WithDetail("--interval must be > 0")
	}

	rt := reactive.NewRuntime(reactive.WithRuntimeName("demo"))

	insp := devtools.NewServer(rt)
	defer insp.Close()

	mux := http.NewServeMux()
	mux.Handle("/", insp.Handler())
	if withMetrics {
		m := telemetry.NewMetrics(telemetry.WithSubsystem("demo"))
		rt.Observe(m)
		defer rt.Unobserve(m)
		mux.Handle("/metrics", promhttp.Handler())
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New("E102").
			WithDetail(fmt.Sprintf("Could not listen on %s", addr)).
			WithSuggestion("Pass a free port with --addr").
			Wrap(err)
	}

	httpServer := &http.Server{Handler: mux}
	go func() {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errorMsg("inspector server: %v", err)
		}
	}()
	defer func() {
		_ = httpServer.Shutdown(context.Background())
	}()

	var scope *reactive.Scope
	var graph demoGraph
	rt.Run(func() {
		scope = reactive.NewScope().WithName("demo")
		scope.Run(func() {
			graph = buildDemoGraph()
		})
	})
	defer scope.Dispose()

	printBanner()
	fmt.Println("  demo")
	fmt.Println()
	success("Inspector listening on http://%s", ln.Addr())
	if withMetrics {
		info("Metrics at http://%s/metrics", ln.Addr())
	}
	if host, _, splitErr := net.SplitHostPort(addr); splitErr == nil && (host == "" || host == "0.0.0.0" || host == "::") {
		warn("Inspector is reachable from other machines; bind localhost to keep it private")
	}
	info("Press Ctrl+C to stop")
	fmt.Println()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			fmt.Println("\n\n  Shutting down...")
			return nil
		case <-ticker.C:
			graph.tick(rt)
		}
	}
}

// demoGraph is the inspectable workload: two sources, a derived chain, and
// a task keyed off the even-tick stream.
type demoGraph struct {
	ticks    *reactive.Signal[int]
	jitter   *reactive.Signal[float64]
	load     *reactive.Memo[float64]
	smoothed *reactive.Memo[float64]
	even     *reactive.Memo[int]
	feed     *reactive.Task[string]
	status   *reactive.Effect
}

func buildDemoGraph() demoGraph {
	ticks := reactive.NewSignal(0).WithName("ticks")
	jitter := reactive.NewSignal(0.0).WithName("jitter")

	load := reactive.NewMemo(func() float64 {
		base := math.Sin(float64(ticks.Get()) / 9)
		return 50 + 40*base + 10*jitter.Get()
	}).WithName("load")

	smoothed := reactive.Scan(load, 0.0, func(acc, v float64) float64 {
		if acc == 0 {
			return v
		}
		return acc*0.8 + v*0.2
	}).WithName("smoothed")

	even := reactive.Filter(ticks, func(n int) bool { return n%2 == 0 }).WithName("even-ticks")

	feed := reactive.WatchTask(
		func() int { return even.Get() },
		func(ctx context.Context, tick int) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(120 * time.Millisecond):
			}
			return fmt.Sprintf("report-%04d", tick), nil
		},
		reactive.WithTaskName[string]("feed"),
		reactive.WithStaleTime[string](3*time.Second),
	)

	status := reactive.CreateEffect(func() reactive.Cleanup {
		n := ticks.Get()
		if n > 0 && n%10 == 0 {
			info("tick %d  load %.1f  smoothed %.1f  feed %q", n, load.Peek(), smoothed.Peek(), feed.Peek())
		}
		return nil
	}, reactive.WithEffectName("status"))

	return demoGraph{
		ticks:    ticks,
		jitter:   jitter,
		load:     load,
		smoothed: smoothed,
		even:     even,
		feed:     feed,
		status:   status,
	}
}

// tick advances both sources in one batch so the graph sees a single
// propagation pass per interval.
func (g *demoGraph) tick(rt *reactive.Runtime) {
	rt.Run(func() {
		_ = reactive.Batch(func() {
			_ = g.ticks.Update(func(n int) int { return n + 1 })
			_ = g.jitter.Set(rand.Float64())
		})
	})
}
