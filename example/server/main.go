package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/leslie2050/gpeek/config"
	"github.com/leslie2050/gpeek/logger"
	"github.com/leslie2050/gpeek/server"
	"github.com/leslie2050/gpeek/stats"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	v := config.New(*configPath)
	conf, err := config.Load(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, level, err := logger.New(logger.Options{
		Level:      conf.Log.Level,
		File:       conf.Log.File,
		MaxSizeMB:  conf.Log.MaxSizeMB,
		MaxBackups: conf.Log.MaxBackups,
		MaxAgeDays: conf.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *configPath != "" {
		config.Watch(v, func(c *config.Config, ev fsnotify.Event, err error) {
			if err != nil {
				log.Warn("config reload rejected", zap.String("file", ev.Name), zap.Error(err))
				return
			}
			if err := logger.SetLevel(level, c.Log.Level); err != nil {
				log.Warn("config reload: bad log level", zap.String("level", c.Log.Level), zap.Error(err))
				return
			}
			log.Info("config reloaded", zap.String("file", ev.Name), zap.String("level", c.Log.Level))
		})
	}

	var recorder stats.Recorder = stats.NewMemory()
	if conf.Stats.RedisAddr != "" {
		r, err := stats.NewRedis(stats.RedisOptions{
			Addr:     conf.Stats.RedisAddr,
			Password: conf.Stats.RedisPassword,
			DB:       conf.Stats.RedisDB,
			Key:      conf.Stats.RedisKey,
		}, log)
		if err != nil {
			log.Fatal("stats: redis unavailable", zap.String("addr", conf.Stats.RedisAddr), zap.Error(err))
		}
		defer r.Close()
		recorder = r
	}

	s, err := server.NewServer(server.Options{
		Addr:        conf.Server.Addr,
		Multicore:   conf.Server.Multicore,
		ReadTimeout: conf.Server.ReadTimeout,
		Tick:        conf.Server.Tick,
		PoolSize:    conf.Pool.Size,
		BufferSize:  conf.Parser.BufferSize,
	}, log, recorder)
	if err != nil {
		log.Fatal("server: create", zap.Error(err))
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		log.Info("signal received, stopping", zap.Stringer("signal", <-sig))
		s.Stop()
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			fields := []zap.Field{zap.Int64("established", s.ConnManager.Established()), zap.Int("live_workers", s.WorkerPool.Running())}
			if m, ok := recorder.(*stats.Memory); ok {
				fields = append(fields, zap.Any("outcomes", m.Snapshot()))
			}
			log.Info("status", fields...)
		}
	}()

	if err := s.Start(server.NewEchoHandler(conf.Handler.StrictHeaders)); err != nil {
		log.Fatal("server: serve", zap.Error(err))
	}
}
