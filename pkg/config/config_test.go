package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/params"
)

const tomlConfig = `
[catalog]
n = 4
nc = 2
stampsize = 32

[params]
name = "gauss"
snc_type = 2
types = ["Gaussian"]

[params.stat]
tru_sky_level = 10.0
tru_gain = 1.0
tru_read_noise = 0.5

[params.fields.tru_flux]
min = 100.0
max = 200.0

[params.fields.tru_sigma]
value = 2.0

[params.ellipticity]
sigma = 0.2
max = 0.8

[neighbors]
nn_min = 1
nn_max = 3
placement = "ring"
convolve = true

[neighbors.ring]
rmin = 4.0
rmax = 10.0

[neighbors.profile]
types = ["Gaussian"]

[neighbors.profile.fields.tru_flux]
value = 30.0

[neighbors.profile.fields.tru_sigma]
value = 1.0

[neighbors.profile.ellipticity]
sigma = 0.1

[run]
ncat = 2
nrea = 3
seed = 99

[cache]
backend = "file"
ttl = "1h"
`

const yamlConfig = `
catalog:
  n: 4
  nc: 2
  stampsize: 32
params:
  name: gauss
  snc_type: 2
  types: [Gaussian]
  stat:
    tru_sky_level: 10
    tru_gain: 1
    tru_read_noise: 0.5
  fields:
    tru_flux: {min: 100, max: 200}
    tru_sigma: {value: 2}
  ellipticity: {sigma: 0.2, max: 0.8}
neighbors:
  nn_min: 1
  nn_max: 3
  placement: ring
  convolve: true
  ring: {rmin: 4, rmax: 10}
  profile:
    types: [Gaussian]
    fields:
      tru_flux: {value: 30}
      tru_sigma: {value: 1}
    ellipticity: {sigma: 0.1}
run:
  ncat: 2
  nrea: 3
  seed: 99
cache:
  backend: file
  ttl: 1h
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFormatsAgree(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvCacheDir, "")
	a, err := Load(writeFile(t, "sim.toml", tomlConfig))
	require.NoError(t, err)
	b, err := Load(writeFile(t, "sim.yaml", yamlConfig))
	require.NoError(t, err)

	if diff := cmp.Diff(a, b, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("toml and yaml configs differ (-toml +yaml):\n%s", diff)
	}

	require.Equal(t, 4, a.Catalog.N)
	require.Equal(t, 2.0, *a.Params.Fields["tru_sigma"].Value)
	require.Equal(t, params.Uniform(100, 200), a.Params.Fields["tru_flux"])
	require.Equal(t, 3, a.Neighbors.NNMax)
	require.Equal(t, 10.0, *a.Neighbors.Ring.RMax)
	require.Equal(t, uint64(99), a.Run.Seed)

	ttl, err := a.Cache.TTLDuration()
	require.NoError(t, err)
	require.Equal(t, time.Hour, ttl)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	tests := []struct {
		name, file, body string
		code             errors.Code
	}{
		{"unknown toml key", "a.toml", "[catalog]\nn = 2\nnc = 1\nbogus = 1\n", errors.ErrCodeInvalidFormat},
		{"unknown yaml key", "a.yml", "catalog:\n  n: 2\n  nc: 1\n  bogus: 1\n", errors.ErrCodeInvalidFormat},
		{"bad grid", "a.toml", "[catalog]\nn = 10\nnc = 3\n", errors.ErrCodeConfiguration},
		{"odd stamp", "a.toml", "[catalog]\nn = 2\nnc = 1\nstampsize = 33\n", errors.ErrCodeConfiguration},
		{"bad backend", "a.toml", "[catalog]\nn = 2\nnc = 1\n[cache]\nbackend = \"s3\"\n", errors.ErrCodeConfiguration},
		{"bad ttl", "a.toml", "[catalog]\nn = 2\nnc = 1\n[cache]\nttl = \"soon\"\n", errors.ErrCodeConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Load code = %v, want %v (err %v)", got, tt.code, err)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvCacheDir, "/tmp/stampgrid-cache")
	cfg, err := Load(writeFile(t, "a.toml", "[catalog]\nn = 2\nnc = 1\n"))
	require.NoError(t, err)
	require.Equal(t, CacheRedis, cfg.Cache.Backend)
	require.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	require.Equal(t, "/tmp/stampgrid-cache", cfg.Cache.Dir)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvCacheDir, "")
	for _, name := range []string{"out.toml", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			want := Default()
			require.NoError(t, want.Save(path))
			got, err := Load(path)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("roundtrip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	for path, want := range map[string]string{
		"a.toml": "toml", "a.yaml": "yaml", "A.YML": "yaml", "noext": "toml",
	} {
		if got := Format(path); got != want {
			t.Errorf("Format(%q) = %q, want %q", path, got, want)
		}
	}
}
