// README: Smoke and load checks: infrastructure, schema, public API surface, booking contention.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"openseat/internal/infra"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := infra.NewDB(ctx, r.cfg.DSN); err == nil {
			r.db = db
		} else {
			fmt.Printf("postgres unavailable: %v\n", err)
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = infra.NewRedis(r.cfg.RedisAddr)
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis lock round trip",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				start := time.Now()
				unlock, err := infra.NewRedisLocker(r.redis, time.Second).Lock(ctx, "bench")
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				unlock()
				return Result{Status: statusPass, Latency: time.Since(start)}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: statusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				if err := infra.ApplySQLFile(ctx, r.db, r.cfg.MigrationPath); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("%d tables", len(tables))}
			},
		},

		httpCase("API: health", http.MethodGet, base+"/health", "", nil, 200),
		httpCase("Search: missing locations -> 400", http.MethodGet, base+"/api/search", "", nil, 400),
		httpCase("Search: ranked results", http.MethodGet, base+"/api/search?from=Ikeja&to=Victoria%20Island&preferred_time=08:00", "", nil, 200),
		httpCase("Search: bad time range -> 400", http.MethodGet, base+"/api/search?from=Ikeja&to=Lekki&time_range=nine-ten", "", nil, 400),
		httpCase("Trips: unknown id -> 404", http.MethodGet, base+"/api/trips/00000000-0000-0000-0000-000000000000", "", nil, 404),
		httpCase("Auth: bookings without token -> 401", http.MethodGet, base+"/api/bookings", "", nil, 401),
		httpCase("Payments: test card", http.MethodGet, base+"/api/payments/test-card", "", nil, 200),
		httpCase("Payments: webhook without reference -> 400", http.MethodPost, base+"/api/payments/webhook", "", map[string]any{"ResponseCode": "00"}, 400),
		httpCase("Payments: webhook unknown reference -> 404", http.MethodPost, base+"/api/payments/webhook", "", map[string]any{"transaction_ref": "OPENRIDE-00000000000000-00000000", "ResponseCode": "00"}, 404),

		{
			Name: "Bookings: rider creates pending booking",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.RiderToken == "" || r.cfg.TripID == "" {
					return Result{Status: statusSkip, Note: "rider-token and trip required"}
				}
				return r.expect(ctx, http.MethodPost, base+"/api/bookings", r.cfg.RiderToken,
					map[string]any{"route_id": r.cfg.TripID, "seats_booked": 1}, 201)
			},
		},
		{
			Name: "Bookings: seat count out of range -> 400",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.RiderToken == "" || r.cfg.TripID == "" {
					return Result{Status: statusSkip, Note: "rider-token and trip required"}
				}
				return r.expect(ctx, http.MethodPost, base+"/api/bookings", r.cfg.RiderToken,
					map[string]any{"route_id": r.cfg.TripID, "seats_booked": 8}, 400)
			},
		},
		{
			Name: "Concurrency: parallel bookings never 5xx",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.RiderToken == "" || r.cfg.TripID == "" {
					return Result{Status: statusSkip, Note: "rider-token and trip required"}
				}
				return concurrentBookings(ctx, r, base+"/api/bookings")
			},
		},

		{
			Name: "Perf: search throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/search?from=Ikeja&to=Lekki")
			},
		},
	}
}

func httpCase(name, method, url, token string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, method, url, token, body, want)
		},
	}
}

func (r *Runner) do(ctx context.Context, method, url, token string, body any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (r *Runner) expect(ctx context.Context, method, url, token string, body any, want int) Result {
	start := time.Now()
	code, err := r.do(ctx, method, url, token, body)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	latency := time.Since(start)
	if code == want {
		return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", code)}
	}
	return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d want=%d", code, want)}
}

func concurrentBookings(ctx context.Context, r *Runner, url string) Result {
	payload := map[string]any{"route_id": r.cfg.TripID, "seats_booked": 1}
	var wg sync.WaitGroup
	var created, serverErrs int64
	start := make(chan struct{})

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			code, err := r.do(ctx, http.MethodPost, url, r.cfg.RiderToken, payload)
			switch {
			case err != nil || code >= 500:
				atomic.AddInt64(&serverErrs, 1)
			case code == http.StatusCreated:
				atomic.AddInt64(&created, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if serverErrs > 0 {
		return Result{Status: statusFail, Note: fmt.Sprintf("created=%d errors=%d", created, serverErrs)}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("created=%d", created)}
}

func perfLoad(ctx context.Context, r *Runner, url string) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				if _, err := r.do(ctx, http.MethodGet, url, "", nil); err != nil {
					atomic.AddInt64(&errCount, 1)
					continue
				}
				atomic.AddInt64(&count, 1)
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}
