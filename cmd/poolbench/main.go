// Command poolbench drives a configurable claim/release workload
// against a stockpile pool and reports throughput and pool statistics.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/stockpile/internal/bench"
	"github.com/ajitpratap0/stockpile/pkg/config"
	"github.com/ajitpratap0/stockpile/pkg/logger"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:           "poolbench",
		Short:         "Benchmark driver for stockpile object pools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "poolbench: %v\n", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		goroutines int
		duration   time.Duration
		resizeTo   int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the claim/release workload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if goroutines > 0 {
				settings.Workload.Goroutines = goroutines
			}
			if duration > 0 {
				settings.Workload.Duration = duration
			}
			if resizeTo > 0 {
				settings.Workload.ResizeTo = resizeTo
			}
			if err := settings.Validate(); err != nil {
				return err
			}

			if err := logger.Init(logger.Config{
				Level:    settings.Observability.LogLevel,
				Encoding: settings.Observability.LogEncoding,
			}); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			log := logger.With(zap.String("component", "poolbench"))

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("starting workload",
				zap.Int("goroutines", settings.Workload.Goroutines),
				zap.Duration("duration", settings.Workload.Duration),
				zap.Int("pool_size", settings.Pool.Size))

			report, err := bench.NewRunner(settings, log).Run(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML settings file")
	cmd.Flags().IntVarP(&goroutines, "threads", "t", 0, "Override workload goroutines")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Override workload duration")
	cmd.Flags().IntVar(&resizeTo, "resize-to", 0, "Resize the pool to this target halfway through")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the poolbench version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "poolbench %s\n", version)
		},
	}
}
