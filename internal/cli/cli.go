// Package cli implements the stampgrid command-line interface.
//
// # Commands
//
//   - catalog: draw a truth catalog from a config file
//   - draw: compose the images of one catalog
//   - run: draw ncat catalogs with nrea realizations each
//   - inspect: summarize a catalog or the run index
//   - preview: render a FITS image to PNG
//   - cache: manage the realization cache
//   - completion, version
//
// All commands support --verbose (-v) for debug-level logging and --quiet
// (-q) for warnings only. The logger travels in the command context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stampgrid/pkg/buildinfo"
	"github.com/matzehuels/stampgrid/pkg/cache"
	"github.com/matzehuels/stampgrid/pkg/catalog/store"
	"github.com/matzehuels/stampgrid/pkg/config"
	"github.com/matzehuels/stampgrid/pkg/pipeline"
)

const (
	// appName is the application name used for directories and display.
	appName = "stampgrid"

	// indexName is the run index file created inside the output directory.
	indexName = "runs.db"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stampgrid simulates grids of galaxy postage stamps",
		Long: `Stampgrid draws catalogs of galaxy truth parameters and renders them as
grids of noisy postage stamps, with optional truth and PSF images, for
training and calibrating shape measurement methods.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.drawCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// loadConfig reads path, or returns the built-in defaults when path is
// empty. The second result is the directory relative paths resolve against.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		return config.Default(), wd, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(abs), nil
}

// newRunner creates a pipeline runner with the cache selected by cfg and,
// unless indexPath is empty, the run index at indexPath.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool, indexPath string) (*pipeline.Runner, error) {
	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	var idx *store.Store
	if indexPath != "" {
		if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
			ch.Close()
			return nil, err
		}
		if idx, err = store.Open(indexPath, c.Logger); err != nil {
			ch.Close()
			return nil, err
		}
	}
	return pipeline.NewRunner(ch, newKeyer(cfg.Cache), idx, c.Logger), nil
}

// newKeyer returns the cache keyer, scoped when a prefix is configured.
func newKeyer(cc config.CacheConfig) cache.Keyer {
	if cc.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cc.Prefix)
}

func newCache(ctx context.Context, cc config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cc.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cc.Backend == config.CacheRedis {
		return cache.NewRedisCache(ctx, cc.RedisAddr)
	}
	dir := cc.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the file cache directory: $STAMPGRID_CACHE_DIR, or the
// per-user cache directory.
func cacheDir() (string, error) {
	if dir := os.Getenv(config.EnvCacheDir); dir != "" {
		return dir, nil
	}
	return cache.DefaultDir()
}
