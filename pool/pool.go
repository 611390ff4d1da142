// Package pool runs connection jobs on a fixed number of workers.
package pool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var (
	ErrPoolClosed  = errors.New("pool: closed")
	ErrInvalidSize = errors.New("pool: size must be greater than zero")
	ErrNilJob      = errors.New("pool: nil job")
)

// ShutdownTimeout bounds how long Shutdown waits for idle workers to exit
// once every job has finished.
var ShutdownTimeout = 10 * time.Second

// Job is one unit of work, typically the handling of a single connection.
type Job func()

// Pool is a fixed-size worker pool. Submit blocks while every worker is busy;
// Shutdown waits for all submitted jobs before releasing the workers.
type Pool struct {
	workers *ants.Pool
	logger  *zap.Logger

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

type antsLogger struct {
	sugar *zap.SugaredLogger
}

func (l antsLogger) Printf(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// New starts size workers.
func New(size int, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{logger: logger}

	workers, err := ants.NewPool(size,
		ants.WithPreAlloc(true),
		ants.WithNonblocking(false),
		ants.WithLogger(antsLogger{logger.Sugar()}),
		ants.WithPanicHandler(func(v interface{}) {
			logger.Error("pool: job panicked", zap.Any("panic", v), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pool: create workers: %w", err)
	}
	p.workers = workers
	return p, nil
}

// Submit hands job to the first free worker. It returns ErrPoolClosed once
// Shutdown has started.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.pending.Add(1)
	p.mu.Unlock()

	err := p.workers.Submit(func() {
		defer p.pending.Done()
		job()
	})
	if err != nil {
		p.pending.Done()
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Shutdown stops accepting jobs, waits for every accepted job to finish and
// then releases the workers, returning once every worker goroutine has exited
// or ShutdownTimeout has passed. Only the first call does anything; later
// calls return ErrPoolClosed.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	p.mu.Unlock()

	p.pending.Wait()
	if err := p.workers.ReleaseTimeout(ShutdownTimeout); err != nil {
		return fmt.Errorf("pool: join workers: %w", err)
	}
	p.logger.Debug("pool: shut down", zap.Int("size", p.workers.Cap()))
	return nil
}

// Size is the number of workers.
func (p *Pool) Size() int { return p.workers.Cap() }

// Running is the number of live worker goroutines; zero after Shutdown.
func (p *Pool) Running() int { return p.workers.Running() }
