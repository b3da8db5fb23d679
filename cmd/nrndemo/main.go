// nrndemo runs a toy multi-rank integrate-and-fire simulation through the
// progress manager, then feeds the recorded spike trains to the analysis
// helpers. It exercises the whole library in-process: no MPI launcher or
// external simulator required.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	logrusr "github.com/bombsimon/logrusr/v3"
	"github.com/go-logr/logr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nrnutil/nrnutil/analysis"
	"github.com/nrnutil/nrnutil/manager"
	"github.com/nrnutil/nrnutil/progress"
	"github.com/nrnutil/nrnutil/sim"
	"github.com/nrnutil/nrnutil/sim/local"
	"github.com/nrnutil/nrnutil/tracing"
)

var (
	ranks          int
	tstop          float64
	tstep          float64
	cadence        float64
	configFile     string
	description    string
	logLevel       int
	plainOutput    bool
	verboseIter    bool
	enableJaeger   bool
	jaegerEndpoint string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nrndemo",
		Short: "Demo driver for the nrnutil progress manager",
		RunE: func(c *cobra.Command, args []string) error {
			return run(c.Context())
		},
	}
	rootCmd.Flags().IntVar(&ranks, "ranks", 2, "number of in-process ranks")
	rootCmd.Flags().Float64Var(&tstop, "tstop", 1000, "simulated-time horizon (ms)")
	rootCmd.Flags().Float64Var(&tstep, "tstep", 1.0, "integration step (ms)")
	rootCmd.Flags().Float64Var(&cadence, "cadence", 0, "progress update cadence (ms), defaults to tstep")
	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML run configuration, overrides the flags above")
	rootCmd.Flags().StringVar(&description, "desc", "lif sweep", "progress bar description")
	rootCmd.Flags().IntVar(&logLevel, "verbose", 4, "logging level")
	rootCmd.Flags().BoolVar(&plainOutput, "plain", false, "force the line-printing renderer")
	rootCmd.Flags().BoolVar(&verboseIter, "iter-progress", false, "show a bar for the post-processing loop")
	rootCmd.Flags().BoolVar(&enableJaeger, "enable-jaeger", false, "export phase spans to jaeger")
	rootCmd.Flags().StringVar(&jaegerEndpoint, "jaeger-endpoint", "http://localhost:14268/api/traces", "jaeger collector endpoint")
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logrusLog := logrus.New()
	logrusLog.SetOutput(os.Stdout)
	logrusLog.SetFormatter(&logrus.TextFormatter{})
	logrusLog.SetLevel(logrus.Level(logLevel))
	log := logrusr.New(logrusLog)

	tp, err := tracing.InitProvider(tracing.Options{
		EnableJaeger:   enableJaeger,
		JaegerEndpoint: jaegerEndpoint,
	})
	if err != nil {
		return err
	}
	defer tracing.Shutdown(ctx, log, tp)

	cfg := sim.Config{Horizon: tstop, Step: tstep, Cadence: cadence}
	if configFile != "" {
		cfg, err = sim.LoadConfig(configFile)
		if err != nil {
			return err
		}
	} else {
		cfg.Defaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	group, err := local.NewGroup(ranks)
	if err != nil {
		return err
	}

	spikes := make([][]float64, ranks)
	g, ctx := errgroup.WithContext(ctx)
	for rank := 0; rank < ranks; rank++ {
		g.Go(func() error {
			return runRank(ctx, log, group, cfg, rank, spikes)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return report(log, cfg, spikes)
}

// runRank drives one rank's engine through a full managed session.
func runRank(ctx context.Context, log logr.Logger, group *local.Group, cfg sim.Config, rank int, spikes [][]float64) error {
	pc, err := group.Context(rank)
	if err != nil {
		return err
	}

	eng := local.NewEngine(cfg.Step)
	cell := newCell(rank, cfg.Horizon)
	eng.OnInit(cell.reset)
	eng.OnStep(cell.step)

	mgr, err := manager.New(
		manager.WithEngine(eng),
		manager.WithCoordination(pc),
		manager.WithConfig(cfg),
		manager.WithLogger(log),
		manager.WithOutput(os.Stderr),
		manager.WithIsTerminal(isTerminal),
	)
	if err != nil {
		return err
	}

	return mgr.Session(ctx, func(ctx context.Context, m *manager.Manager) error {
		if err := m.Execute(ctx, manager.InitOptions{Description: description}); err != nil {
			return err
		}
		spikes[rank] = cell.spikes
		return nil
	})
}

func isTerminal(w io.Writer) bool {
	if plainOutput {
		return false
	}
	return progress.IsTerminal(w)
}

// report runs the analysis helpers over the recorded trains.
func report(log logr.Logger, cfg sim.Config, spikes [][]float64) error {
	for train := range progress.Slice(spikes, verboseIter, progress.WithDescription("post-processing")) {
		log.Info("recorded spikes", "count", len(train))
	}

	first := spikes[0]
	last := spikes[len(spikes)-1]
	if len(first) < 2 || len(last) < 2 {
		log.Info("too few spikes for analysis")
		return nil
	}

	s2n, err := analysis.SignalToNoise(intervals(first), intervals(last))
	if err != nil {
		return err
	}
	fmt.Printf("interspike-interval s/n between rank 0 and rank %d: %.4f\n", len(spikes)-1, s2n)

	bp, err := analysis.FirstBurstPause(first, analysis.BurstPauseOptions{
		Cutoff:         cfg.Horizon * 0.1,
		EpochDuration:  cfg.Horizon / 4,
		PauseThreshold: quietWindow / 2,
	})
	if err != nil {
		return err
	}
	for i := range bp.First {
		fmt.Printf("epoch %d: first spike %.1f ms, burst %.1f ms, pause %.1f ms\n",
			i, bp.First[i], bp.Burst[i], bp.Pause[i])
	}
	return nil
}

// intervals returns the inter-spike intervals of a train.
func intervals(train []float64) []float64 {
	isi := make([]float64, 0, len(train)-1)
	for i := 1; i < len(train); i++ {
		isi = append(isi, train[i]-train[i-1])
	}
	return isi
}
