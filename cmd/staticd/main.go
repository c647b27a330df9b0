package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"time"

	"dqx0.com/go/staticd/internal/obs"
	"dqx0.com/go/staticd/staticd"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	var cfg staticd.Config
	var (
		level = flag.String("log-level", "info", "minimum log level: debug, info, warn, error")
		stats = flag.Bool("stats", false, "print request counters on exit")
	)
	flag.StringVar(&cfg.Root, "r", cwd, "document root (shorthand)")
	flag.StringVar(&cfg.Root, "docroot", cwd, "path to the root server directory")
	flag.StringVar(&cfg.Host, "host", staticd.DefaultHost, "bind host")
	flag.IntVar(&cfg.Port, "p", staticd.DefaultPort, "bind port (shorthand)")
	flag.IntVar(&cfg.Port, "port", staticd.DefaultPort, "bind port")
	flag.IntVar(&cfg.Workers, "w", runtime.NumCPU(), "number of workers (shorthand)")
	flag.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "number of workers")
	flag.IntVar(&cfg.Backlog, "backlog", staticd.DefaultBacklog, "accepted connections waiting for a worker")
	flag.IntVar(&cfg.MaxLineBytes, "max-line", 64<<10, "maximum request or header line length in bytes")
	flag.DurationVar(&cfg.ReadTimeout, "read-timeout", 30*time.Second, "per-connection read deadline, 0 disables")
	flag.DurationVar(&cfg.WriteTimeout, "write-timeout", 30*time.Second, "per-connection write deadline, 0 disables")
	flag.BoolVar(&cfg.ListDirectories, "list-dirs", false, "render an index for directories without index.html")
	flag.Parse()

	minLevel, err := obs.ParseLevel(*level)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Logger = obs.StdLogger{L: log.New(os.Stderr, "", log.LstdFlags), Min: minLevel}

	var meter *obs.MemMeter
	if *stats {
		meter = obs.NewMemMeter()
		cfg.Meter = meter
	}

	srv, err := staticd.NewServer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.ListenAndServe(ctx)
	if meter != nil {
		printStats(meter)
	}
	if err != nil && !errors.Is(err, staticd.ErrServerClosed) {
		log.Fatal(err)
	}
}

func printStats(m *obs.MemMeter) {
	counters := m.Counters()
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(os.Stderr, "%-60s %8.0f\n", k, counters[k])
	}
}
