package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("storage.backend", "sqlite"))
	require.NoError(t, store.Set("storage.backend", "postgres"))

	val, ok := store.Get("storage.backend")
	assert.True(t, ok)
	assert.Equal(t, "postgres", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("ingest.batch_size", int64(250)))
	require.NoError(t, store.Set("embedding.rate_limit", "2.5"))
	require.NoError(t, store.Set("demo.enabled", "true"))
	require.NoError(t, store.Set("llm.timeout", "45s"))

	assert.Equal(t, 250, store.GetInt("ingest.batch_size"))
	assert.Equal(t, "250", store.GetString("ingest.batch_size"))
	assert.Equal(t, 2.5, store.GetFloat("embedding.rate_limit"))
	assert.True(t, store.GetBool("demo.enabled"))
	assert.Equal(t, 45*time.Second, store.GetDuration("llm.timeout"))

	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Zero(t, store.GetDuration("missing"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("ingest.batch_size", i)
			_ = store.GetInt("ingest.batch_size")
		}()
	}
	wg.Wait()

	_, ok := store.Get("ingest.batch_size")
	assert.True(t, ok)
}
