package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/succinctlab/rmmt/internal/loader"
	"github.com/succinctlab/rmmt/pkg/rmmt"
)

var queryWorkers int

// queryCmd builds an rmMt index from path and runs a single navigation
// query against it, for manual spot-checking of the invariants the
// construction is meant to preserve.
var queryCmd = &cobra.Command{
	Use:   "query <path> <kind> <i> [d]",
	Short: "Run a single navigation query against a built rmMt index",
	Long: `query builds an rmMt index from path and evaluates one navigation
primitive at position i (and, for fwd_search/bwd_search, relative target d).

Supported kinds: sum, fwd_search, bwd_search, find_close, find_open,
rank_0, rank_1, select_0, select_1.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntVarP(&queryWorkers, "workers", "w", 0, "Number of construction workers (0 selects runtime.NumCPU())")
}

func runQuery(cmd *cobra.Command, args []string) error {
	path := args[0]
	kind := args[1]

	i, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", args[2], err)
	}

	var d int
	if len(args) == 4 {
		d, err = strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid target %q: %w", args[3], err)
		}
	}

	ctx := context.Background()
	l := loader.NewFileLoader(GetLogger())

	bits, err := l.LoadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load input file: %w", err)
	}

	tree, err := rmmt.Build(ctx, bits, rmmt.BuildOptions{Workers: queryWorkers})
	if err != nil {
		return fmt.Errorf("construction failed: %w", err)
	}

	if i < 0 || i >= tree.Len() {
		return fmt.Errorf("position %d out of range [0, %d)", i, tree.Len())
	}

	result, err := evaluate(tree, kind, i, d)
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}

func evaluate(tree *rmmt.Tree, kind string, i, d int) (int, error) {
	switch kind {
	case "sum":
		return tree.Sum(i), nil
	case "fwd_search":
		return tree.FwdSearch(i, d), nil
	case "bwd_search":
		return tree.BwdSearch(i, d), nil
	case "find_close":
		return tree.FindClose(i), nil
	case "find_open":
		return tree.FindOpen(i), nil
	case "rank_0":
		return tree.Rank0(i), nil
	case "rank_1":
		return tree.Rank1(i), nil
	case "select_0":
		return tree.Select0(i), nil
	case "select_1":
		return tree.Select1(i), nil
	default:
		return 0, fmt.Errorf("unknown query kind: %q", kind)
	}
}
