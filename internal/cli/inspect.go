package cli

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/catalog/store"
	sgio "github.com/matzehuels/stampgrid/pkg/io"
	"github.com/matzehuels/stampgrid/pkg/policy"
)

type inspectOpts struct {
	run   string
	limit int
}

// inspectCommand creates the inspect command for catalogs and run indexes.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect [catalog.json | runs.db]",
		Short: "Summarize a catalog or list recorded runs",
		Long: `For a catalog, print its grid, the PSF handling it resolves to and
per-column statistics. For a run index (.db), list the recorded runs, or
the realizations of one run with --run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if filepath.Ext(args[0]) == ".db" {
				return c.inspectIndex(cmd.Context(), args[0], &opts)
			}
			return c.inspectCatalog(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&opts.run, "run", "", "show the realizations of this run id")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum number of runs to list (0 = all)")

	return cmd
}

func (c *CLI) inspectCatalog(ctx context.Context, path string) error {
	logger := loggerFromContext(ctx)
	cat, err := sgio.ImportJSON(path)
	if err != nil {
		return err
	}
	if err := cat.CheckGrid(); err != nil {
		return err
	}

	m := cat.Meta
	fmt.Println(StyleTitle.Render(filepath.Base(path)))
	printKeyValue("Rows", strconv.Itoa(cat.Len()))
	printKeyValue("Grid", fmt.Sprintf("%d x %d, stamp %d px", m.NX, m.NY, m.StampSize))
	printKeyValue("SNC", fmt.Sprintf("type %d (%d per source)", m.SNCType, max(m.NSNC, 1)))
	printKeyValue("Kinds", strings.Join(kindCounts(cat), ", "))
	if pol, err := policy.Resolve(cat, logger); err != nil {
		printWarning("%v", err)
	} else {
		printKeyValue("PSF", pol.String())
	}
	fmt.Println(renderTable([]string{"column", "mean", "std", "min", "max", "rows"}, columnStats(cat)))
	return nil
}

// kindCounts returns "Kind: n" entries in first-seen order.
func kindCounts(cat *catalog.Catalog) []string {
	counts := map[string]int{}
	var order []string
	for _, r := range cat.Rows {
		k := string(r.Type)
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]string, len(order))
	for i, k := range order {
		out[i] = fmt.Sprintf("%s: %d", k, counts[k])
	}
	return out
}

// columnStats summarizes every numeric column over the rows that carry it.
func columnStats(cat *catalog.Catalog) [][]string {
	var rows [][]string
	for _, name := range cat.Columns() {
		var vals []float64
		for _, v := range cat.Column(name, math.NaN()) {
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			std = 0
		}
		rows = append(rows, []string{
			name,
			formatFloat(mean),
			formatFloat(std),
			formatFloat(floats.Min(vals)),
			formatFloat(floats.Max(vals)),
			strconv.Itoa(len(vals)),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 5, 64)
}

func (c *CLI) inspectIndex(ctx context.Context, path string, opts *inspectOpts) error {
	idx, err := store.Open(path, loggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer idx.Close()

	if opts.run != "" {
		return printRealizations(ctx, idx, opts.run)
	}

	runs, err := idx.Runs(ctx, opts.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No runs recorded")
		return nil
	}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.Name,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(r.NCat),
			strconv.Itoa(r.NRea),
			strconv.FormatUint(r.Seed, 10),
		}
	}
	fmt.Println(renderTable([]string{"run", "name", "created", "ncat", "nrea", "seed"}, rows))
	return nil
}

func printRealizations(ctx context.Context, idx *store.Store, runID string) error {
	run, err := idx.Run(ctx, runID)
	if err != nil {
		return err
	}
	reas, err := idx.Realizations(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Println(StyleTitle.Render(run.Name) + " " + StyleDim.Render(run.OutDir))
	rows := make([][]string, len(reas))
	for i, r := range reas {
		cached := ""
		if r.Cached {
			cached = "yes"
		}
		rows[i] = []string{
			fmt.Sprintf("%d/%d", r.Catalog, r.Index),
			filepath.Base(r.Science),
			r.Policy,
			strconv.Itoa(r.Neighbors),
			r.Duration.String(),
			cached,
		}
	}
	fmt.Println(renderTable([]string{"cat/rea", "image", "psf", "neighbors", "time", "cached"}, rows))
	return nil
}
