package stats

import (
	"os"
	"sync"
	"testing"

	"github.com/kjk/betterguid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemory(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				m.Record("truncated")
				return
			}
			m.Record(OutcomeOK)
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 40, m.Count(OutcomeOK))
	require.EqualValues(t, 10, m.Count("truncated"))
	require.Zero(t, m.Count(OutcomeTimeout))
	require.Equal(t, []string{OutcomeOK, "truncated"}, m.Outcomes())

	snap := m.Snapshot()
	m.Record(OutcomeOK)
	require.EqualValues(t, 40, snap[OutcomeOK])
}

// Runs only when GPEEK_TEST_REDIS points at a disposable Redis server.
func TestRedis(t *testing.T) {
	addr := os.Getenv("GPEEK_TEST_REDIS")
	if addr == "" {
		t.Skip("GPEEK_TEST_REDIS not set")
	}

	key := "gpeek:test:" + betterguid.New()
	r, err := NewRedis(RedisOptions{Addr: addr, Key: key}, zap.NewNop())
	require.NoError(t, err)
	defer func() {
		r.client.Del(key)
		r.Close()
	}()

	r.Record(OutcomeOK)
	r.Record(OutcomeOK)
	r.Record("malformed header")

	counts, err := r.Counts()
	require.NoError(t, err)
	require.Equal(t, map[string]int64{OutcomeOK: 2, "malformed header": 1}, counts)
}
