package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stampgrid/pkg/compose"
	sgio "github.com/matzehuels/stampgrid/pkg/io"
	"github.com/matzehuels/stampgrid/pkg/neighbors"
	"github.com/matzehuels/stampgrid/pkg/pipeline"
	"github.com/matzehuels/stampgrid/pkg/render"
)

type drawOpts struct {
	config      string
	output      string
	truth       string
	psf         string
	psfDir      string
	seed        uint64
	sersicCut   float64
	supersample int
	noNoise     bool
	noJitterPSF bool
}

// drawCommand creates the draw command that composes one catalog.
func (c *CLI) drawCommand() *cobra.Command {
	var opts drawOpts

	cmd := &cobra.Command{
		Use:   "draw [catalog.json]",
		Short: "Compose the stamp grid images of a catalog",
		Long: `Compose the science image of a catalog, and optionally its noiseless
truth image and its PSF image, as FITS files.

Drawing switches and neighbors come from --config when given; flags
override them. Relative PSF stamp paths resolve against --psf-dir, which
defaults to the directory of the catalog.`,
		Example: `  stampgrid draw cat.json -o galimg.fits
  stampgrid draw cat.json -o galimg.fits --truth trugalimg.fits --psf-image psfimg.fits`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDraw(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "simulation config for draw settings and neighbors")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "science image path (default <catalog>_galimg.fits)")
	cmd.Flags().StringVar(&opts.truth, "truth", "", "also write the noiseless unconvolved image here")
	cmd.Flags().StringVar(&opts.psf, "psf-image", "", "also write the PSF image here")
	cmd.Flags().StringVar(&opts.psfDir, "psf-dir", "", "directory for relative PSF stamp paths")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().Float64Var(&opts.sersicCut, "sersiccut", 0, "truncate Sersic profiles at this many radii")
	cmd.Flags().IntVar(&opts.supersample, "supersample", render.DefaultSupersample, "subsamples per pixel axis")
	cmd.Flags().BoolVar(&opts.noNoise, "no-noise", false, "skip CCD noise")
	cmd.Flags().BoolVar(&opts.noJitterPSF, "no-jitter-psf", false, "do not jitter analytic PSFs")

	return cmd
}

func (c *CLI) runDraw(cmd *cobra.Command, catPath string, opts *drawOpts) error {
	logger := loggerFromContext(cmd.Context())
	cfg, _, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	cat, err := sgio.ImportJSON(catPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("sersiccut") {
		cfg.Draw.SersicCut = opts.sersicCut
	}
	if opts.noNoise {
		cfg.Draw.NoNoise = true
	}
	if opts.noJitterPSF {
		off := false
		cfg.Draw.JitterPSF = &off
	}
	seed := opts.seed
	if seed == 0 {
		seed = cfg.Run.Seed
	}

	popts := pipeline.Options{Config: cfg, Seed: seed, Logger: logger, ConfigDir: opts.psfDir}
	if popts.ConfigDir == "" {
		popts.ConfigDir = filepath.Dir(catPath)
	}
	copts := pipeline.ComposeOptions(&popts, 0, 0)
	copts.Renderer = render.Engine{Supersample: opts.supersample}
	copts.Logger = logger
	if opts.config != "" && cfg.Neighbors != nil {
		if copts.Neighbors, err = neighbors.New(*cfg.Neighbors); err != nil {
			return err
		}
	}

	sinks := compose.Sinks{Science: opts.output, Truth: opts.truth, PSF: opts.psf}
	if sinks.Science == "" {
		sinks.Science = strings.TrimSuffix(catPath, filepath.Ext(catPath)) + pipeline.ScienceSuffix
	}

	prog := newProgress(logger)
	res, written, err := compose.Run(cat, copts, sinks)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Composed %d stamps", cat.Len()))

	for _, w := range res.Policy.Warnings() {
		printWarning("%s", w)
	}
	printSuccess("Images written")
	printKeyValue("PSF", res.Policy.String())
	if res.Neighbors > 0 {
		printKeyValue("Neighbors", fmt.Sprintf("%d per stamp", res.Neighbors))
	}
	for _, p := range written {
		printFile(p)
	}
	printNextStep("Preview", "stampgrid preview "+written[0])
	return nil
}
