package jsonfile_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/pkg/jsonfile"
)

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	f := jsonfile.New[[]string](filepath.Join(t.TempDir(), "list.json"))
	v, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestUpdateRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "list.json")
	f := jsonfile.New[[]string](path)

	require.NoError(t, f.Update(func(v *[]string) error {
		*v = append(*v, "a", "b")
		return nil
	}))

	again := jsonfile.New[[]string](path)
	v, err := again.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestUpdateErrorLeavesFile(t *testing.T) {
	t.Parallel()
	f := jsonfile.New[[]string](filepath.Join(t.TempDir(), "list.json"))
	require.NoError(t, f.Update(func(v *[]string) error { *v = []string{"keep"}; return nil }))

	err := f.Update(func(v *[]string) error {
		*v = nil
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	v, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, v)
}

func TestConcurrentAppends(t *testing.T) {
	t.Parallel()
	f := jsonfile.New[[]int](filepath.Join(t.TempDir(), "n.json"))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.Update(func(v *[]int) error {
				*v = append(*v, i)
				return nil
			}))
		}()
	}
	wg.Wait()

	v, err := f.Load()
	require.NoError(t, err)
	assert.Len(t, v, 20)
}

func TestLoadCorruptFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := jsonfile.New[[]int](path).Load()
	assert.Error(t, err)
}
