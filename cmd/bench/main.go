// README: Smoke and load runner against a deployed API; executes HTTP/DB/Redis checks and prints results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusSkip:
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL        string
	DSN            string
	RedisAddr      string
	MigrationPath  string
	ApplyMigration bool
	RiderToken     string
	TripID         string
	Strict         bool
	Timeout        time.Duration
	Concurrency    int
	Duration       time.Duration
}

// flagEnv seeds flag defaults from the environment; explicit flags still win.
var flagEnv = map[string]string{
	"base-url":        "OPENSEAT_BENCH_BASE_URL",
	"dsn":             "OPENSEAT_DB_DSN",
	"redis":           "OPENSEAT_REDIS_ADDR",
	"migration":       "OPENSEAT_BENCH_MIGRATION",
	"apply-migration": "OPENSEAT_BENCH_APPLY_MIGRATION",
	"rider-token":     "OPENSEAT_BENCH_RIDER_TOKEN",
	"trip":            "OPENSEAT_BENCH_TRIP_ID",
	"strict":          "OPENSEAT_BENCH_STRICT",
	"timeout":         "OPENSEAT_BENCH_TIMEOUT",
	"concurrency":     "OPENSEAT_BENCH_CONCURRENCY",
	"duration":        "OPENSEAT_BENCH_DURATION",
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	flag.StringVar(&cfg.DSN, "dsn", "", "Postgres DSN")
	flag.StringVar(&cfg.RedisAddr, "redis", "", "Redis address")
	flag.StringVar(&cfg.MigrationPath, "migration", "migrations/0001_init.sql", "Migration SQL path")
	flag.BoolVar(&cfg.ApplyMigration, "apply-migration", false, "Apply migration SQL before checks")
	flag.StringVar(&cfg.RiderToken, "rider-token", "", "Firebase ID token of a rider for booking checks")
	flag.StringVar(&cfg.TripID, "trip", "", "Active trip id used by booking checks")
	flag.BoolVar(&cfg.Strict, "strict", false, "Fail on skipped checks")
	flag.DurationVar(&cfg.Timeout, "timeout", 60*time.Second, "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", 20, "Concurrency for load checks")
	flag.DurationVar(&cfg.Duration, "duration", 10*time.Second, "Duration for load checks")

	for name, key := range flagEnv {
		if v := os.Getenv(key); v != "" {
			if err := flag.Set(name, v); err != nil {
				fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", key, v, err)
			}
		}
	}
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}
