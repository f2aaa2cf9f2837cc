package fetcher

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCache_WriteReadFresh(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Write("AAPL.json", []byte(`{"cik":320193}`)))

	assert.True(t, c.Fresh("AAPL.json", time.Hour))
	assert.False(t, c.Fresh("MSFT.json", time.Hour))

	data, err := c.Read("AAPL.json")
	require.NoError(t, err)
	assert.Equal(t, `{"cik":320193}`, string(data))
}

func TestFileCache_Stale(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Write("tickers.json", []byte("{}")))

	// Backdate the entry beyond the TTL.
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(c.Path("tickers.json"), old, old))

	assert.False(t, c.Fresh("tickers.json", 24*time.Hour))
	assert.True(t, c.Fresh("tickers.json", 30*24*time.Hour))
}

func TestFileCache_Overwrite(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Write("q.json", []byte("one")))
	require.NoError(t, c.Write("q.json", []byte("two")))

	data, err := c.Read("q.json")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestFileCache_EvictAndClear(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Write("a.json", []byte("a")))
	require.NoError(t, c.Write("b.json", []byte("b")))

	require.NoError(t, c.Evict("a.json"))
	require.NoError(t, c.Evict("a.json")) // already gone

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, c.Fresh("b.json", time.Hour))
}
