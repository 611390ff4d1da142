// Package server accepts connections with gnet, peeks each one's request head
// and hands it to a worker pool that parses it and answers with a Handler.
package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/gnet"
	"go.uber.org/zap"

	"github.com/leslie2050/gpeek/parser"
	"github.com/leslie2050/gpeek/pool"
	"github.com/leslie2050/gpeek/stats"
)

const timeWheelSlots = 60

// Options configures a Server.
type Options struct {
	Addr        string
	Multicore   bool
	ReadTimeout time.Duration // longest wait for a complete head
	Tick        time.Duration // time wheel step and shutdown poll interval
	PoolSize    int
	BufferSize  int
}

// Server ...
type Server struct {
	*gnet.EventServer

	Addr    string
	Handler Handler

	WorkerPool    *pool.Pool
	ConnManager   *ConnManager
	connTimeWheel *TimeWheel

	opts     Options
	logger   *zap.Logger
	recorder stats.Recorder

	stopping  int32
	ready     chan struct{}
	readyOnce sync.Once
}

// NewServer ...
func NewServer(opts Options, logger *zap.Logger, recorder stats.Recorder) (*Server, error) {
	if opts.ReadTimeout <= 0 || opts.Tick <= 0 {
		return nil, errors.New("server: read timeout and tick must be positive")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = parser.DefaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = stats.Nop{}
	}

	workerPool, err := pool.New(opts.PoolSize, logger)
	if err != nil {
		return nil, err
	}

	server := &Server{
		Addr:        opts.Addr,
		WorkerPool:  workerPool,
		ConnManager: NewConnManager(logger),
		opts:        opts,
		logger:      logger,
		recorder:    recorder,
		ready:       make(chan struct{}),
	}
	server.connTimeWheel = NewTimeWheel(opts.Tick, timeWheelSlots, timeWheelJob)

	return server, nil
}

// Start serves until Stop is called or the listener fails, then shuts the
// worker pool down. A nil handler answers with NewEchoHandler(false).
func (server *Server) Start(handler Handler) error {
	if handler == nil {
		handler = NewEchoHandler(false)
	}
	server.Handler = handler
	server.ConnManager.Start()

	err := gnet.Serve(server, fmt.Sprintf("tcp://%s", server.Addr),
		gnet.WithMulticore(server.opts.Multicore),
		gnet.WithCodec(&headCodec{}),
		gnet.WithTicker(true),
	)

	server.shutdown()
	return err
}

// Stop asks the event loops to shut down; Start returns once they have and
// every dispatched connection has been answered.
func (server *Server) Stop() {
	atomic.StoreInt32(&server.stopping, 1)
}

// Ready is closed once the listener is accepting connections.
func (server *Server) Ready() <-chan struct{} {
	return server.ready
}

func (server *Server) shutdown() {
	if err := server.WorkerPool.Shutdown(); err != nil && !errors.Is(err, pool.ErrPoolClosed) {
		server.logger.Error("server: worker pool shutdown", zap.Error(err))
	}
	server.connTimeWheel.Stop()
	server.ConnManager.Stop()
	server.logger.Info("server stopped", zap.String("addr", server.Addr))
}

// OnInitComplete ...
func (server *Server) OnInitComplete(srv gnet.Server) (action gnet.Action) {
	server.logger.Info("server is listening",
		zap.String("addr", srv.Addr.String()),
		zap.Bool("multicore", srv.Multicore),
		zap.Int("loops", srv.NumEventLoop),
		zap.Int("workers", server.WorkerPool.Size()),
	)

	server.connTimeWheel.Start()
	server.readyOnce.Do(func() { close(server.ready) })

	return
}

// OnOpened ...
func (server *Server) OnOpened(c gnet.Conn) (out []byte, action gnet.Action) {
	sess := newSession(c, server.opts.BufferSize)
	c.SetContext(sess)

	server.ConnManager.Add(sess.ID)
	server.connTimeWheel.AddTimer(server.opts.ReadTimeout, sess.ID, &jobParam{server, sess})

	server.logger.Debug("connection opened", zap.String("conn", sess.ID), zap.String("remote", sess.RemoteAddr()))
	return
}

// OnClosed ...
func (server *Server) OnClosed(c gnet.Conn, err error) (action gnet.Action) {
	sess, ok := c.Context().(*Session)
	if !ok {
		return
	}

	server.connTimeWheel.RemoveTimer(sess.ID)
	server.ConnManager.Free(sess.ID)

	server.logger.Debug("connection closed",
		zap.String("conn", sess.ID),
		zap.Duration("open", time.Since(sess.OpenedAt)),
		zap.Error(err),
	)
	return
}

// React runs once the codec has a head frame for the connection.
func (server *Server) React(frame []byte, c gnet.Conn) (out []byte, action gnet.Action) {
	sess, ok := c.Context().(*Session)
	if !ok {
		return nil, gnet.Close
	}
	if !sess.claim() {
		// the read timeout got there first
		return
	}
	server.connTimeWheel.RemoveTimer(sess.ID)

	err := server.dispatch(sess, func() (*parser.Request, error) {
		return parser.Parse(sess.Head())
	})
	if err != nil {
		server.logger.Warn("server: dispatch failed", zap.String("conn", sess.ID), zap.Error(err))
		return nil, gnet.Close
	}
	return
}

// Tick ...
func (server *Server) Tick() (delay time.Duration, action gnet.Action) {
	if atomic.LoadInt32(&server.stopping) == 1 {
		return 0, gnet.Shutdown
	}
	return server.opts.Tick, gnet.None
}

// dispatch submits the handling of sess to the worker pool. parse runs on the
// worker.
func (server *Server) dispatch(sess *Session, parse func() (*parser.Request, error)) error {
	return server.WorkerPool.Submit(func() {
		defer func() {
			if err := sess.Close(); err != nil {
				server.logger.Debug("server: close", zap.String("conn", sess.ID), zap.Error(err))
			}
		}()

		param := &HandlerParam{Writer: sess, Session: sess, Server: server}
		param.Request, param.Err = parse()

		outcome := Outcome(param.Err)
		server.recorder.Record(outcome)
		if param.Err != nil {
			server.logger.Info("request head rejected",
				zap.String("conn", sess.ID),
				zap.String("outcome", outcome),
				zap.Error(param.Err),
			)
		} else {
			server.logger.Debug("request head parsed",
				zap.String("conn", sess.ID),
				zap.String("method", param.Request.Method),
				zap.String("path", param.Request.Path),
			)
		}

		server.Handler(param)
	})
}

// Outcome names the result of reading one head, for stats.
func Outcome(err error) string {
	switch {
	case err == nil:
		return stats.OutcomeOK
	case errors.Is(err, ErrReadTimeout):
		return stats.OutcomeTimeout
	default:
		return parser.KindOf(err).String()
	}
}

type jobParam struct {
	server *Server
	sess   *Session
}

// read timeout job: answer the connection if its head never became ready
func timeWheelJob(data interface{}) {
	param, ok := data.(*jobParam)
	if !ok || param.server == nil || param.sess == nil {
		return
	}
	if !param.sess.claim() {
		return
	}

	server := param.server
	server.logger.Info("request head read timeout",
		zap.String("conn", param.sess.ID),
		zap.Duration("timeout", server.opts.ReadTimeout),
	)

	err := server.dispatch(param.sess, func() (*parser.Request, error) {
		return nil, ErrReadTimeout
	})
	if err != nil {
		_ = param.sess.Close()
	}
}
