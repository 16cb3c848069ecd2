// Package config reads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultUserAgent identifies outbound requests to the met.no API, which
// rejects anonymous clients. Overridable via MET_USER_AGENT.
const DefaultUserAgent = "gridscan/0.1 github.com/onnimonni/gridscan"

type InvalidationCfg struct {
	Enabled          bool
	Brokers          []string
	Topic            string
	GroupID          string
	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

type Config struct {
	Addr     string
	LogLevel string

	// GFS gridded feed.
	GFSFilterURL string
	GFSUserAgent string
	BatchSize    int

	// met.no point forecast feed.
	MetBaseURL   string
	MetUserAgent string
	MetH3Res     int
	MetCacheTTL  time.Duration

	// Resource cache (fetched GRIB bytes). Redis when RedisAddr is set,
	// otherwise an in-process LRU.
	RedisAddr            string
	ResourceCacheTTL     time.Duration
	ResourceCacheEntries int
	CacheOpTimeout       time.Duration

	FetchTimeout time.Duration

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	res := getint("MET_H3_RES", 8)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:         getenv("ADDR", ":8080"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		GFSFilterURL: getenv("GFS_FILTER_URL", "https://nomads.ncep.noaa.gov/cgi-bin/filter_gfs_0p25.pl"),
		GFSUserAgent: getenv("GFS_USER_AGENT", DefaultUserAgent),
		BatchSize:    getint("BATCH_SIZE", 2048),

		MetBaseURL:   getenv("MET_BASE_URL", "https://api.met.no/weatherapi/locationforecast/2.0/compact"),
		MetUserAgent: getenv("MET_USER_AGENT", DefaultUserAgent),
		MetH3Res:     res,
		MetCacheTTL:  getduration("MET_CACHE_TTL", 30*time.Minute),

		RedisAddr:            getenv("REDIS_ADDR", ""),
		ResourceCacheTTL:     getduration("RESOURCE_CACHE_TTL", 6*time.Hour),
		ResourceCacheEntries: getint("RESOURCE_CACHE_ENTRIES", 64),
		CacheOpTimeout:       getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),

		FetchTimeout: getduration("FETCH_TIMEOUT", 120*time.Second),

		Invalidation: InvalidationCfg{
			Enabled:          getbool("INVALIDATION_ENABLED", false),
			Brokers:          splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:            getenv("KAFKA_TOPIC", "model-runs"),
			GroupID:          getenv("KAFKA_GROUP_ID", "gridscan-invalidator"),
			SessionTimeout:   getduration("KAFKA_SESSION_TIMEOUT", 10*time.Second),
			Heartbeat:        getduration("KAFKA_HEARTBEAT", 3*time.Second),
			RebalanceTimeout: getduration("KAFKA_REBALANCE_TIMEOUT", 60*time.Second),
			InitialOldest:    getbool("KAFKA_INITIAL_OLDEST", false),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
