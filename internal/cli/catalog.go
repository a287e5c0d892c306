package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	sgio "github.com/matzehuels/stampgrid/pkg/io"
	"github.com/matzehuels/stampgrid/pkg/pipeline"
)

type catalogOpts struct {
	config string
	output string
	seed   uint64
	n      int
	nc     int
}

// catalogCommand creates the catalog command that draws one truth catalog.
func (c *CLI) catalogCommand() *cobra.Command {
	var opts catalogOpts

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Draw a truth catalog from a config file",
		Long: `Draw one catalog of truth parameters on a stamp grid and write it as JSON.

Without --config a small built-in Sersic setup is used. --n and --nc
override the grid of the config file.`,
		Example: `  stampgrid catalog -c sersic.toml -o cat.json
  stampgrid catalog --n 100 --nc 10 --seed 3 -o cat.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCatalog(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "simulation config (.toml, .yaml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "cat.json", "output catalog path")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().IntVar(&opts.n, "n", 0, "number of distinct sources")
	cmd.Flags().IntVar(&opts.nc, "nc", 0, "number of distinct columns")

	return cmd
}

func (c *CLI) runCatalog(cmd *cobra.Command, opts *catalogOpts) error {
	logger := loggerFromContext(cmd.Context())
	cfg, _, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.n > 0 {
		cfg.Catalog.N = opts.n
	}
	if opts.nc > 0 {
		cfg.Catalog.NC = opts.nc
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	seed := opts.seed
	if seed == 0 {
		seed = cfg.Run.Seed
	}

	prog := newProgress(logger)
	cat, err := pipeline.NewCatalog(cfg, pipeline.CatalogRand(seed, 0), logger)
	if err != nil {
		return err
	}
	if err := sgio.ExportJSON(cat, opts.output); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Drew %d rows", cat.Len()))

	printSuccess("Catalog written")
	printKeyValue("Grid", fmt.Sprintf("%d x %d stamps of %d px", cat.Meta.NX, cat.Meta.NY, cat.Meta.StampSize))
	printFile(opts.output)
	printNextStep("Draw images", "stampgrid draw "+opts.output)
	return nil
}
