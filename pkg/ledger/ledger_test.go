package ledger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndContains(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "hashes.json"), nil)

	assert.False(t, l.Contains("abc"))
	assert.True(t, l.Add("abc"))
	assert.True(t, l.Contains("abc"))
	assert.False(t, l.Add("abc"), "second Add of same hash should report duplicate")
	assert.Equal(t, 1, l.Len())
}

func TestRemoveReleasesClaim(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "hashes.json"), nil)

	require.True(t, l.Add("abc"))
	l.AddPerceptual("abc", 0xCAFE)
	l.Remove("abc")

	assert.False(t, l.Contains("abc"))
	assert.Zero(t, l.Len())
	_, ok := l.NearDuplicate(0xCAFE, 0)
	assert.False(t, ok, "removed hash must not match perceptually either")

	assert.True(t, l.Add("abc"), "a released hash must be claimable again")
}

func TestFlushAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashes.json")

	l := New(path, nil)
	l.Add("aaa")
	l.Add("bbb")
	l.AddPerceptual("aaa", 0xDEADBEEF)
	require.NoError(t, l.Flush())

	reloaded := New(path, nil)
	require.NoError(t, reloaded.Load())

	assert.True(t, reloaded.Contains("aaa"))
	assert.True(t, reloaded.Contains("bbb"))
	assert.Equal(t, 2, reloaded.Len())

	sha, ok := reloaded.NearDuplicate(0xDEADBEEF, 0)
	require.True(t, ok)
	assert.Equal(t, "aaa", sha)
}

func TestLoadLegacyFlatArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloaded_hashes.json")
	require.NoError(t, os.WriteFile(path, []byte(`["h1", "h2", "h3"]`), 0644))

	l := New(path, nil)
	require.NoError(t, l.Load())

	assert.Equal(t, 3, l.Len())
	assert.True(t, l.Contains("h2"))
}

func TestLoadMergesExtraLedgers(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.json")
	extra := filepath.Join(dir, "extra.json")
	require.NoError(t, os.WriteFile(main, []byte(`{"hashes": ["a"]}`), 0644))
	require.NoError(t, os.WriteFile(extra, []byte(`["b", "c"]`), 0644))

	l := New(main, nil)
	require.NoError(t, l.Load(extra))

	assert.Equal(t, 3, l.Len())
	assert.True(t, l.Contains("a"))
	assert.True(t, l.Contains("c"))
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(`["keep"]`), 0644))
	require.NoError(t, os.WriteFile(bad, []byte(`{{{ not json`), 0644))

	l := New(good, nil)
	require.NoError(t, l.Load(bad), "malformed extra ledger must not abort loading")

	assert.True(t, l.Contains("keep"))
	assert.Equal(t, 1, l.Len())
}

func TestLoadMissingFileIsFine(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "nope.json"), nil)
	require.NoError(t, l.Load())
	assert.Zero(t, l.Len())
}

func TestNearDuplicateThreshold(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "hashes.json"), nil)
	l.AddPerceptual("orig", 0b1111)

	// Distance 1 away.
	sha, ok := l.NearDuplicate(0b1110, 5)
	require.True(t, ok)
	assert.Equal(t, "orig", sha)

	// Far away.
	_, ok = l.NearDuplicate(^uint64(0), 5)
	assert.False(t, ok)
}

func TestConcurrentAdd(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "hashes.json"), nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Add("same-hash") {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimed, "exactly one goroutine should claim a hash")
}
