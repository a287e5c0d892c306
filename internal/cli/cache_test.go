package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/stampgrid/pkg/cache"
	"github.com/matzehuels/stampgrid/pkg/config"
)

func TestCacheDirEnv(t *testing.T) {
	want := t.TempDir()
	t.Setenv(config.EnvCacheDir, want)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirDefault(t *testing.T) {
	t.Setenv(config.EnvCacheDir, "")
	dir, err := cacheDir()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	if filepath.Base(dir) != appName {
		t.Errorf("cacheDir() = %q, want suffix %q", dir, appName)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvCacheDir, dir)

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := t.Context()
	for _, k := range []string{"catalog:a", "realization:b"} {
		if err := fc.Set(ctx, k, []byte("x"), 0); err != nil {
			t.Fatal(err)
		}
	}

	root := New(os.Stderr, LogWarn).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, ok, _ := fc.Get(ctx, "catalog:a"); ok {
		t.Error("entry survived cache clear")
	}
}
