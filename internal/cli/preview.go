package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stampgrid/pkg/raster"
)

type previewOpts struct {
	output  string
	stretch float64
	size    float64
	colors  int
}

// previewCommand creates the preview command that renders FITS to PNG.
func (c *CLI) previewCommand() *cobra.Command {
	var opts previewOpts

	cmd := &cobra.Command{
		Use:   "preview [image.fits]",
		Short: "Render a FITS image as a PNG heatmap",
		Example: `  stampgrid preview 0_galimg.fits
  stampgrid preview 0_galimg.fits --stretch 10 -o grid.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			out := opts.output
			if out == "" {
				out = strings.TrimSuffix(in, filepath.Ext(in)) + ".png"
			}
			im, err := raster.ReadFITS(in)
			if err != nil {
				return err
			}
			err = raster.WritePreview(out, im, raster.PreviewOptions{
				Title:   filepath.Base(in),
				Size:    opts.size,
				Stretch: opts.stretch,
				Colors:  opts.colors,
			})
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("preview written", "width", im.W, "height", im.H)
			printSuccess("Preview written")
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "PNG path (default <image>.png)")
	cmd.Flags().Float64Var(&opts.stretch, "stretch", 0, "asinh softening scale (0 = linear)")
	cmd.Flags().Float64Var(&opts.size, "size", 6, "edge length in inches")
	cmd.Flags().IntVar(&opts.colors, "colors", 0, "palette size (default 64)")

	return cmd
}
