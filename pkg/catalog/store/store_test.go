package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigrates(t *testing.T) {
	s := openTest(t)
	v, err := s.Version()
	require.NoError(t, err)
	if v != 2 {
		t.Errorf("Version() = %d, want 2", v)
	}
}

func TestOpenTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.RecordRun(context.Background(), &Run{ID: "a", Name: "first"}))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	r, err := s.Run(context.Background(), "a")
	require.NoError(t, err)
	if r.Name != "first" {
		t.Errorf("Name = %q, want %q", r.Name, "first")
	}
}

func TestMemory(t *testing.T) {
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.RecordRun(context.Background(), &Run{ID: "m"}))
	runs, err := s.Runs(context.Background(), 0)
	require.NoError(t, err)
	if len(runs) != 1 {
		t.Errorf("len(Runs) = %d, want 1", len(runs))
	}
}

func TestRunRoundtrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	want := &Run{
		ID:         "r1",
		Name:       "20261019_abc",
		CreatedAt:  time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		ConfigHash: "deadbeef",
		NCat:       2,
		NRea:       3,
		Seed:       1 << 63,
		OutDir:     "/tmp/out",
	}
	require.NoError(t, s.RecordRun(ctx, want))

	got, err := s.Run(ctx, "r1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Run mismatch (-want +got):\n%s", diff)
	}
}

func TestRunNotFound(t *testing.T) {
	s := openTest(t)
	_, err := s.Run(context.Background(), "missing")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Run(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestRecordRunRequiresID(t *testing.T) {
	s := openTest(t)
	err := s.RecordRun(context.Background(), &Run{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("RecordRun() error = %v, want INVALID_INPUT", err)
	}
}

func TestRecordRunDuplicate(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.RecordRun(ctx, &Run{ID: "dup"}))
	if err := s.RecordRun(ctx, &Run{ID: "dup"}); err == nil {
		t.Error("second RecordRun() succeeded, want primary key error")
	}
}

func TestRunsOrderAndLimit(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.RecordRun(ctx, &Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"new", "mid"}, ids); diff != "" {
		t.Errorf("Runs ids (-want +got):\n%s", diff)
	}
}

func TestCatalogsAndRealizations(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.RecordRun(ctx, &Run{ID: "r", NCat: 2, NRea: 2}))

	for i := 1; i >= 0; i-- {
		require.NoError(t, s.RecordCatalog(ctx, Catalog{RunID: "r", Index: i, Path: "c.json", Rows: 4, Hash: "h"}))
	}
	cats, err := s.Catalogs(ctx, "r")
	require.NoError(t, err)
	if len(cats) != 2 || cats[0].Index != 0 || cats[1].Index != 1 {
		t.Errorf("Catalogs() = %+v, want indices [0 1]", cats)
	}

	want := []Realization{
		{RunID: "r", Catalog: 0, Index: 0, Science: "0_galimg.fits", Policy: "analytic-gaussian", Duration: 1500 * time.Millisecond},
		{RunID: "r", Catalog: 0, Index: 1, Science: "1_galimg.fits", Truth: "1_trugalimg.fits", Policy: "analytic-gaussian", Neighbors: 2, Cached: true},
		{RunID: "r", Catalog: 1, Index: 0, Science: "0_galimg.fits", PSF: "0_psfimg.fits", Policy: "loaded-psf-stamp"},
	}
	for i := len(want) - 1; i >= 0; i-- {
		require.NoError(t, s.RecordRealization(ctx, want[i]))
	}
	got, err := s.Realizations(ctx, "r")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Realizations mismatch (-want +got):\n%s", diff)
	}

	// Re-recording replaces the row.
	updated := want[0]
	updated.Cached = true
	require.NoError(t, s.RecordRealization(ctx, updated))
	got, err = s.Realizations(ctx, "r")
	require.NoError(t, err)
	if len(got) != 3 || !got[0].Cached {
		t.Errorf("after replace: len = %d cached = %v, want 3 true", len(got), got[0].Cached)
	}
}

func TestMigrateLogger(t *testing.T) {
	l := &migrateLogger{logger: openTest(t).logger}
	l.Printf("applied %d", 1)
	if l.Verbose() {
		t.Error("Verbose() = true, want false")
	}
}
