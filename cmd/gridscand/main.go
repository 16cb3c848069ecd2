package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/onnimonni/gridscan/internal/cache"
	"github.com/onnimonni/gridscan/internal/cache/keys"
	"github.com/onnimonni/gridscan/internal/cache/memstore"
	"github.com/onnimonni/gridscan/internal/cache/redisstore"
	"github.com/onnimonni/gridscan/internal/core/config"
	"github.com/onnimonni/gridscan/internal/core/httpclient"
	"github.com/onnimonni/gridscan/internal/core/observability"
	"github.com/onnimonni/gridscan/internal/core/server"
	"github.com/onnimonni/gridscan/internal/fetch"
	"github.com/onnimonni/gridscan/internal/gfs"
	"github.com/onnimonni/gridscan/internal/grib"
	"github.com/onnimonni/gridscan/internal/invalidation/kafkarun"
	"github.com/onnimonni/gridscan/internal/logger"
	"github.com/onnimonni/gridscan/internal/met"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "gridscand",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting gridscand",
		"addr", cfg.Addr,
		"version", Version,
		"gfs_filter_url", cfg.GFSFilterURL,
		"met_base_url", cfg.MetBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store cache.Store
	if cfg.RedisAddr != "" {
		rs, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		store = rs
		appLog.Info("resource cache on redis", "addr", cfg.RedisAddr)
	} else {
		store = memstore.New(cfg.ResourceCacheEntries)
		appLog.Info("resource cache in process", "entries", cfg.ResourceCacheEntries)
	}
	defer func() { _ = store.Close() }()

	outbound := httpclient.NewOutbound(cfg.FetchTimeout)

	gfsFetcher := fetch.NewCaching(appLog,
		fetch.NewHTTP(appLog, outbound, "gfs", cfg.GFSUserAgent),
		store, cfg.ResourceCacheTTL,
		func(locator string) string {
			date, hour := runFromLocator(locator)
			return keys.Resource("gfs", date, hour, locator)
		})
	opener := grib.NewDecoder()

	metFetcher := fetch.NewHTTP(appLog, outbound, "met", cfg.MetUserAgent)
	pointClient := met.NewClient(appLog, metFetcher, cfg.MetBaseURL, store, cfg.MetCacheTTL, cfg.MetH3Res)

	tables := func() *gfs.Table {
		desc := gfs.NewDescriptor(time.Now())
		return gfs.NewTable(appLog, desc, cfg.GFSFilterURL, gfsFetcher, opener)
	}

	deps := server.Deps{Tables: tables, Point: pointClient}

	if cfg.Invalidation.Enabled {
		runner := kafkarun.New(appLog, cfg.Invalidation, store)
		if err := runner.Start(ctx); err != nil {
			appLog.Error("invalidation runner start failed", "err", err)
			return 1
		}
		defer runner.Stop()
		deps.Readiness = runner
	}

	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server error", "err", err)
		return 1
	}
	appLog.Info("shutdown complete")
	return 0
}

// runFromLocator recovers the model run from a filter-endpoint locator so
// cached resources group under their run's key prefix. Locators the
// pattern does not match fall into the 00z bucket of an empty date, which
// only weakens invalidation granularity, never correctness.
func runFromLocator(locator string) (date string, hour int) {
	hour = 0
	if i := strings.Index(locator, "dir=%2Fgfs."); i >= 0 {
		rest := locator[i+len("dir=%2Fgfs."):]
		if len(rest) >= 8 {
			date = rest[:8]
		}
		if j := strings.Index(rest, "%2F"); j >= 0 && len(rest) >= j+5 {
			if h, err := strconv.Atoi(rest[j+3 : j+5]); err == nil {
				hour = h
			}
		}
	}
	return date, hour
}
