package idgen

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator_Monotonic(t *testing.T) {
	g := NewULIDGenerator()
	now := time.Now()
	prev := g.Make(now)
	require.Len(t, prev, IDLength)
	for i := 0; i < 1000; i++ {
		id := g.Make(now)
		require.Len(t, id, IDLength)
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestULIDGenerator_Alphanumeric(t *testing.T) {
	id := NewULIDGenerator().Make(time.Now())
	for _, c := range id {
		assert.True(t, (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z'), "unexpected char %q", c)
	}
}

func TestULIDGenerator_Concurrent(t *testing.T) {
	g := NewULIDGenerator()
	var (
		m    sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 256; j++ {
				id := g.Make(time.Now())
				m.Lock()
				seen[id] = struct{}{}
				m.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 16*256)
}
