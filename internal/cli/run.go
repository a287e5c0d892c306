package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stampgrid/pkg/pipeline"
)

type runOpts struct {
	config  string
	name    string
	ncat    int
	nrea    int
	workers int
	seed    uint64
	outdir  string
	index   string
	refresh bool
	noCache bool
	noIndex bool
}

// runCommand creates the run command that draws a whole simulation set.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Draw several catalogs with several image realizations each",
		Long: `Draw ncat catalogs and nrea image realizations per catalog into
<outdir>/<name>/. Existing sets are extended, never overwritten.

Composed realizations are cached by content, and every run is recorded in
a SQLite index (<outdir>/runs.db unless configured otherwise).`,
		Example: `  stampgrid run -c sersic.toml --ncat 4 --nrea 10 --workers 8
  stampgrid run -c sersic.toml --outdir /data/sim --no-cache`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "simulation config (.toml, .yaml)")
	cmd.Flags().StringVar(&opts.name, "name", "", "set name (default: distribution name)")
	cmd.Flags().IntVar(&opts.ncat, "ncat", 0, "number of catalogs")
	cmd.Flags().IntVar(&opts.nrea, "nrea", 0, "realizations per catalog")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "parallel compositions (default: CPU count)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "run seed")
	cmd.Flags().StringVarP(&opts.outdir, "outdir", "o", "", "output root directory")
	cmd.Flags().StringVar(&opts.index, "index", "", "run index path")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the realization cache")
	cmd.Flags().BoolVar(&opts.noIndex, "no-index", false, "do not record the run")

	return cmd
}

func (c *CLI) runRun(cmd *cobra.Command, opts *runOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg, cfgDir, err := loadConfig(opts.config)
	if err != nil {
		return err
	}

	popts := pipeline.Options{
		Config:    cfg,
		Name:      opts.name,
		NCat:      opts.ncat,
		NRea:      opts.nrea,
		Workers:   opts.workers,
		Seed:      opts.seed,
		OutDir:    opts.outdir,
		ConfigDir: cfgDir,
		Refresh:   opts.refresh,
		Logger:    logger,
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	indexPath := ""
	if !opts.noIndex {
		indexPath = firstNonEmpty(opts.index, cfg.Run.Index, filepath.Join(popts.OutDir, indexName))
	}
	runner, err := c.newRunner(ctx, cfg, opts.noCache, indexPath)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Run %s finished", res.RunID))

	printSuccess("Simulation set %s", StyleTitle.Render(res.Name))
	printRunStats(res.Stats.Catalogs, res.Stats.Realizations, res.Stats.CacheHits)
	for _, cr := range res.Catalogs {
		printFile(cr.Path)
	}
	if indexPath != "" {
		printDetail("Index: %s", indexPath)
		printNextStep("List runs", "stampgrid inspect "+indexPath)
	}
	return nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
