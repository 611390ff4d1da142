// Package stats counts how request heads turned out: parsed, or which kind of
// failure ended them.
package stats

import (
	"sort"
	"strconv"
	"sync"

	"github.com/go-redis/redis"
	"go.uber.org/zap"
)

// Outcome names. Parse failures use the parser's kind names.
const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
)

// Recorder receives one call per handled connection.
type Recorder interface {
	Record(outcome string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(string) {}

// Memory keeps counters in process.
type Memory struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemory() *Memory {
	return &Memory{counts: make(map[string]int64)}
}

func (m *Memory) Record(outcome string) {
	m.mu.Lock()
	m.counts[outcome]++
	m.mu.Unlock()
}

func (m *Memory) Count(outcome string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[outcome]
}

// Snapshot copies the current counters.
func (m *Memory) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// Outcomes lists recorded outcome names, sorted.
func (m *Memory) Outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.counts))
	for k := range m.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Redis increments one field per outcome in a Redis hash, so several gpeek
// processes can share counters.
type Redis struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedis connects and pings the server.
func NewRedis(opts RedisOptions, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client, key: opts.Key, logger: logger}, nil
}

// Record never fails the caller; Redis errors are logged.
func (r *Redis) Record(outcome string) {
	if err := r.client.HIncrBy(r.key, outcome, 1).Err(); err != nil {
		r.logger.Warn("stats: redis hincrby failed",
			zap.String("key", r.key), zap.String("outcome", outcome), zap.Error(err))
	}
}

// Counts reads back every counter in the hash.
func (r *Redis) Counts() (map[string]int64, error) {
	raw, err := r.client.HGetAll(r.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
