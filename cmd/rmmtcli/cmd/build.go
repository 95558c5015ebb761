package cmd

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/succinctlab/rmmt/internal/loader"
	"github.com/succinctlab/rmmt/pkg/rmmt"
	"github.com/succinctlab/rmmt/pkg/writer"
)

var (
	buildWorkers int
	buildMode    string
	buildOutput  string
)

// buildCmd implements the core-level CLI contract: construct an rmMt index
// from a balanced-parentheses file and report either a timing line or a
// memory-usage line to stdout.
var buildCmd = &cobra.Command{
	Use:   "build <path>",
	Short: "Construct an rmMt index from a balanced-parentheses input file",
	Long: `build reads path, interprets byte i as an open parenthesis bit
(1 iff the byte is '(', 0 otherwise, including ')'), and runs the parallel
rmMt construction algorithm over the resulting bitstring.

In the default "timing" mode, stdout reports one CSV line:
  <workers>,<path>,<n>,<seconds>

In "memory" mode, stdout reports:
  <path>,<n>,<mem_total_start>,<mem_total_end>,<mem_peak>,<mem_curr_start>,<mem_curr_end>`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "w", 0, "Number of construction workers (0 selects runtime.NumCPU())")
	buildCmd.Flags().StringVarP(&buildMode, "mode", "m", "timing", "Report mode: timing or memory")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Optional path to write a JSON build summary")
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := args[0]
	log := GetLogger()

	l := loader.NewFileLoader(log)
	ctx := context.Background()

	bits, err := l.LoadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load input file: %w", err)
	}
	n := bits.Len()

	switch buildMode {
	case "timing":
		start := time.Now()
		tree, err := rmmt.Build(ctx, bits, rmmt.BuildOptions{Workers: buildWorkers})
		if err != nil {
			return fmt.Errorf("construction failed: %w", err)
		}
		elapsed := time.Since(start)

		workers := buildWorkers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		fmt.Printf("%d,%s,%d,%.6f\n", workers, path, n, elapsed.Seconds())

		return writeBuildSummary(buildOutput, path, n, workers, elapsed, tree)

	case "memory":
		var before runtime.MemStats
		runtime.ReadMemStats(&before)
		memTotalStart := before.TotalAlloc
		memCurrStart := before.HeapAlloc

		peak := memCurrStart
		stopSample := make(chan struct{})
		sampleDone := make(chan struct{})
		go func() {
			defer close(sampleDone)
			ticker := time.NewTicker(5 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-stopSample:
					return
				case <-ticker.C:
					var m runtime.MemStats
					runtime.ReadMemStats(&m)
					if m.HeapAlloc > peak {
						peak = m.HeapAlloc
					}
				}
			}
		}()

		_, err := rmmt.Build(ctx, bits, rmmt.BuildOptions{Workers: buildWorkers})
		close(stopSample)
		<-sampleDone
		if err != nil {
			return fmt.Errorf("construction failed: %w", err)
		}

		var after runtime.MemStats
		runtime.ReadMemStats(&after)

		fmt.Printf("%s,%d,%d,%d,%d,%d,%d\n",
			path, n, memTotalStart, after.TotalAlloc, peak, memCurrStart, after.HeapAlloc)
		return nil

	default:
		return fmt.Errorf("invalid mode: %q (valid: timing, memory)", buildMode)
	}
}

// buildSummary is the optional --output artifact: a snapshot of the
// construction result, independent of the build_run persistence the
// scheduler-driven path writes to the database.
type buildSummary struct {
	InputPath       string  `json:"input_path"`
	InputBits       int     `json:"input_bits"`
	Workers         int     `json:"workers"`
	NumChunks       int     `json:"num_chunks"`
	Height          int     `json:"height"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func writeBuildSummary(path, inputPath string, n, workers int, elapsed time.Duration, tree *rmmt.Tree) error {
	if path == "" {
		return nil
	}

	summary := buildSummary{
		InputPath:       inputPath,
		InputBits:       n,
		Workers:         workers,
		NumChunks:       tree.NumChunks(),
		Height:          tree.Height(),
		DurationSeconds: elapsed.Seconds(),
	}

	w := writer.NewPrettyJSONWriter[buildSummary]()
	if err := w.WriteToFile(summary, path); err != nil {
		return fmt.Errorf("failed to write build summary: %w", err)
	}
	return nil
}
