/*
Copyright (C) 2026  kvlog Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dc0d/onexit"
	units "github.com/docker/go-units"
	"github.com/spf13/pflag"

	"github.com/launix-de/kvlog/engine"
	"github.com/launix-de/kvlog/server"
	"github.com/launix-de/kvlog/threadpool"
)

func main() {
	var (
		dir         = pflag.StringP("dir", "d", "kvlog-data", "data directory")
		addr        = pflag.StringP("addr", "a", "127.0.0.1:4000", "listen address")
		dashAddr    = pflag.String("dashboard-addr", "", "optional HTTP address for the websocket stats dashboard")
		engineName  = pflag.String("engine", engine.Name, "storage engine: kvlog or sqlite")
		concurrency = pflag.IntP("concurrency", "c", 4, "reader-pool / worker-pool concurrency")
		poolKind    = pflag.String("pool", "shared", "worker pool: naive, shared, or steal")
		threshold   = pflag.String("compaction-threshold", "1MiB", "stale-byte threshold that triggers compaction (kvlog engine only)")
		verbose     = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	thresholdBytes, err := units.RAMInBytes(*threshold)
	if err != nil {
		log.Error("invalid --compaction-threshold", "value", *threshold, "error", err)
		os.Exit(1)
	}

	e, err := engine.OpenSelected(*engineName, *dir, *concurrency, uint64(thresholdBytes), log)
	if err != nil {
		log.Error("failed to open engine", "error", err)
		os.Exit(1)
	}

	pool := newPool(*poolKind, *concurrency, log)
	dispatcher := engine.NewDispatcher(e, pool)

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Error("failed to listen", "addr", *addr, "error", err)
		os.Exit(1)
	}

	var stats *server.StatsHub
	if kvlog, ok := e.(*engine.KvlogEngine); ok {
		stats = server.NewStatsHub(kvlog, 2*time.Second, log)
		if *dashAddr != "" {
			go serveDashboard(*dashAddr, stats, log)
		}
	}

	srv := server.New(listener, dispatcher, log, stats)

	// Cleanup runs once on SIGINT/SIGTERM via onexit.Register.
	onexit.Register(func() {
		log.Info("shutting down")
		if stats != nil {
			stats.Close()
		}
		srv.Shutdown()
		if err := dispatcher.Close(); err != nil {
			log.Warn("error closing engine", "error", err)
		}
	})

	log.Info("kvlog server listening", "addr", listener.Addr().String(), "engine", *engineName, "pool", *poolKind)
	if err := srv.Serve(); err != nil {
		log.Info("server stopped", "error", err)
	}
}

func newPool(kind string, concurrency int, log *slog.Logger) threadpool.ThreadPool {
	switch kind {
	case "naive":
		return threadpool.NewNaiveThreadPool()
	case "steal":
		return threadpool.NewStealingThreadPool(concurrency, 64)
	case "shared", "":
		return threadpool.NewSharedQueueThreadPool(concurrency, concurrency*16, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown --pool %q, falling back to shared\n", kind)
		return threadpool.NewSharedQueueThreadPool(concurrency, concurrency*16, log)
	}
}

func serveDashboard(addr string, stats *server.StatsHub, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/stats", stats)
	log.Info("stats dashboard listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("stats dashboard stopped", "error", err)
	}
}
