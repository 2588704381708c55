// README: Bench checks: environment, quote API contract and quote throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
	token string
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
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}
	if r.cfg.JWTSecret != "" {
		if tok, err := benchToken(r.cfg.JWTSecret, r.cfg.Timeout); err == nil {
			r.token = tok
		}
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

// benchToken signs a short-lived caller token the API accepts.
func benchToken(secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  "bench",
		"role": "operator",
		"exp":  time.Now().Add(ttl + time.Minute).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Env: buses table readable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				var typed int
				err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM buses WHERE type IS NOT NULL").Scan(&typed)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS", Note: fmt.Sprintf("typed buses=%d", typed)}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		httpCase("API: health", http.MethodGet, base+"/health", nil, false, http.StatusOK, nil),
		httpCase("Auth: quote without token -> 401", http.MethodPost, base+"/api/quote", map[string]any{
			"vehicles": []string{"hiace"}, "distance_km": 10,
		}, false, http.StatusUnauthorized, nil),
		httpCase("Quote: hiace 10 km", http.MethodPost, base+"/api/quote", map[string]any{
			"vehicles": []string{"hiace"}, "distance_km": 10, "event": "none",
		}, true, http.StatusOK, expectPayables(6200, 5600)),
		httpCase("Quote: mixed fleet wedding 100 km", http.MethodPost, base+"/api/quote", map[string]any{
			"vehicle_counts": map[string]int{"hiace": 2, "coaster": 1}, "distance_km": 100, "event": "wedding",
		}, true, http.StatusOK, expectPayables(267150, 240575)),
		httpCase("Quote: unknown vehicle -> 400", http.MethodPost, base+"/api/quote", map[string]any{
			"vehicles": []string{"limousine"}, "distance_km": 10,
		}, true, http.StatusBadRequest, nil),
		httpCase("Quote: unknown event -> 400", http.MethodPost, base+"/api/quote", map[string]any{
			"vehicles": []string{"hiace"}, "distance_km": 10, "event": "rave",
		}, true, http.StatusBadRequest, nil),
		httpCase("Quote: options", http.MethodGet, base+"/api/quote/options", nil, true, http.StatusOK, nil),
		httpCase("Quote: pdf", http.MethodPost, base+"/api/quote/pdf", map[string]any{
			"vehicles": []string{"coaster"}, "distance_km": 42,
		}, true, http.StatusOK, nil),
		{
			Name: "Perf: quote throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.token == "" {
					return Result{Status: "SKIP", Note: "no jwt secret"}
				}
				return perfLoad(ctx, r, base+"/api/quote", map[string]any{
					"vehicles":    []string{"hiace", "coaster", "coaster"},
					"distance_km": 137.5,
					"event":       "funeral",
				})
			},
		},
	}
}

// expectPayables checks the rounded client and bus totals of a quote response.
func expectPayables(client, bus float64) func([]byte) error {
	return func(body []byte) error {
		var resp struct {
			ClientPayable float64 `json:"client_payable"`
			BusPayable    float64 `json:"bus_payable"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return err
		}
		if resp.ClientPayable != client || resp.BusPayable != bus {
			return fmt.Errorf("payables %v/%v, want %v/%v", resp.ClientPayable, resp.BusPayable, client, bus)
		}
		return nil
	}
}

func httpCase(name, method, url string, body any, auth bool, wantStatus int, check func([]byte) error) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			if auth && r.token == "" {
				return Result{Status: "SKIP", Note: "no jwt secret"}
			}
			var payload io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				payload = bytes.NewReader(b)
			}
			req, err := http.NewRequestWithContext(ctx, method, url, payload)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			req.Header.Set("Content-Type", "application/json")
			if auth {
				req.Header.Set("Authorization", "Bearer "+r.token)
			}

			start := time.Now()
			resp, err := r.httpc.Do(req)
			latency := time.Since(start)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			defer resp.Body.Close()
			respBody, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != wantStatus {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if check != nil {
				if err := check(respBody); err != nil {
					return Result{Status: "FAIL", Latency: latency, Note: err.Error()}
				}
			}
			return Result{Status: "PASS", Latency: latency}
		},
	}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount, non2xx int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer "+r.token)
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				if resp.StatusCode >= 300 {
					non2xx++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	status := "PASS"
	if non2xx > 0 {
		status = "FAIL"
	}
	return Result{Status: status, Note: fmt.Sprintf("rps=%.1f errors=%d non2xx=%d", rps, errCount, non2xx)}
}
