package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "out/jobs.csv", ReplaceExt("out/jobs.json", "csv"))
	assert.Equal(t, "jobs.json", ReplaceExt("jobs", ".json"))
	assert.Equal(t, "", ReplaceExt("", ".json"))
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "jobs.json")

	require.NoError(t, WriteAtomic(target, []byte("[]"), 0o644))
	require.NoError(t, WriteAtomic(target, []byte(`[{"id":1}]`), 0o644))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestListByModTime(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"c.json", "a.json", "b.json"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.csv"), []byte("x"), 0o644))

	got, err := ListByModTime(dir, ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "c.json"),
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
	}, got)
}
