// Package config loads simulation settings from TOML or YAML files.
//
// A file describes the catalog grid, the truth distribution, optional PSF
// stamps and neighbors, drawing switches, the multi-run layout and the
// realization cache. The format is chosen by file extension.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/neighbors"
	"github.com/matzehuels/stampgrid/pkg/params"
)

// Environment overrides.
const (
	EnvRedisAddr = "STAMPGRID_REDIS_ADDR"
	EnvCacheDir  = "STAMPGRID_CACHE_DIR"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// CatalogConfig sizes the stamp grid.
type CatalogConfig struct {
	N          int            `toml:"n" yaml:"n"`
	NC         int            `toml:"nc" yaml:"nc"`
	StampSize  int            `toml:"stampsize" yaml:"stampsize"`
	PixelScale float64        `toml:"pixelscale" yaml:"pixelscale"`
	IDPrefix   string         `toml:"id_prefix" yaml:"id_prefix"`
	Extra      map[string]any `toml:"extra" yaml:"extra"`
}

// DrawConfig holds the per-composition switches.
type DrawConfig struct {
	SersicCut float64 `toml:"sersiccut" yaml:"sersiccut"`
	JitterPSF *bool   `toml:"jitter_psf" yaml:"jitter_psf"`
	Truth     bool    `toml:"truth" yaml:"truth"`
	PSF       bool    `toml:"psf" yaml:"psf"`
	NoNoise   bool    `toml:"no_noise" yaml:"no_noise"`
}

// RunConfig lays out a multi-catalog run.
type RunConfig struct {
	NCat    int    `toml:"ncat" yaml:"ncat"`
	NRea    int    `toml:"nrea" yaml:"nrea"`
	Workers int    `toml:"workers" yaml:"workers"`
	Seed    uint64 `toml:"seed" yaml:"seed"`
	OutDir  string `toml:"outdir" yaml:"outdir"`
	// Index is the SQLite run index; empty means <outdir>/runs.db.
	Index string `toml:"index" yaml:"index"`
}

// CacheConfig selects the realization cache.
type CacheConfig struct {
	Backend   string `toml:"backend" yaml:"backend"`
	Dir       string `toml:"dir" yaml:"dir"`
	RedisAddr string `toml:"redis_addr" yaml:"redis_addr"`
	TTL       string `toml:"ttl" yaml:"ttl"`
	// Prefix scopes every cache key, so several projects can share one
	// backend.
	Prefix string `toml:"prefix" yaml:"prefix"`
}

// TTLDuration parses TTL; empty means no expiry.
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfiguration, err, "cache ttl %q", c.TTL)
	}
	return d, nil
}

// Config is a complete simulation description.
type Config struct {
	Catalog   CatalogConfig     `toml:"catalog" yaml:"catalog"`
	Params    params.Config     `toml:"params" yaml:"params"`
	PSF       *catalog.PSFInfo  `toml:"psf" yaml:"psf"`
	Neighbors *neighbors.Config `toml:"neighbors" yaml:"neighbors"`
	Draw      DrawConfig        `toml:"draw" yaml:"draw"`
	Run       RunConfig         `toml:"run" yaml:"run"`
	Cache     CacheConfig       `toml:"cache" yaml:"cache"`
}

// Default returns a small Sersic simulation.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{N: 10, NC: 2, StampSize: catalog.DefaultStampSize, PixelScale: catalog.DefaultPixelScale},
		Params: params.Config{
			Name:    "sersic",
			SNCType: 2,
			Types:   []string{"Sersic"},
			Stat: map[string]float64{
				"tru_sky_level":  100,
				"tru_gain":       1,
				"tru_read_noise": 0,
				"tru_psf_sigma":  1.5,
				"tru_psf_g1":     0,
				"tru_psf_g2":     0,
			},
			Fields: map[string]params.Spec{
				"tru_flux":    params.Uniform(500, 2000),
				"tru_rad":     params.Uniform(2, 6),
				"tru_sersicn": {Choices: []float64{1, 2, 3, 4}},
			},
			Ellipticity: &params.EllipticitySpec{Sigma: 0.25, Max: 0.9},
		},
		Run:   RunConfig{NCat: 1, NRea: 1, Seed: 1, OutDir: "sim"},
		Cache: CacheConfig{Backend: CacheFile},
	}
}

// Load reads path, chosen by extension (.toml, .yaml, .yml), on top of the
// defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	cfg := Default()
	// The distribution comes from the file alone.
	cfg.Params = params.Config{}
	if err := Decode(data, Format(path), cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format returns "toml" or "yaml" from the extension of path. Unknown
// extensions default to TOML.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "toml"
}

// Decode unmarshals data in the given format into cfg.
func Decode(data []byte, format string, cfg *Config) error {
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return err
		}
		return nil
	case "toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "unknown config keys: %v", undecoded)
		}
		return nil
	}
	return errors.New(errors.ErrCodeUnsupported, "config format %q", format)
}

// Save writes cfg to path in the format implied by its extension.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create config directory")
	}
	var buf bytes.Buffer
	switch Format(path) {
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode yaml")
		}
		enc.Close()
	default:
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode toml")
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write config %s", path)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.Backend = CacheRedis
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := errors.ValidateGrid(c.Catalog.N, c.Catalog.NC); err != nil {
		return err
	}
	if c.Catalog.StampSize != 0 {
		if err := errors.ValidateStampSize(c.Catalog.StampSize); err != nil {
			return err
		}
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Neighbors != nil {
		if err := c.Neighbors.Validate(); err != nil {
			return err
		}
	}
	if c.Draw.SersicCut < 0 {
		return errors.Configuration("draw.sersiccut must be >= 0")
	}
	if c.Run.NCat < 0 || c.Run.NRea < 0 || c.Run.Workers < 0 {
		return errors.Configuration("run counts must be >= 0")
	}
	switch c.Cache.Backend {
	case "", CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.Configuration("cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.Configuration("unknown cache backend %q", c.Cache.Backend)
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return err
	}
	return nil
}
