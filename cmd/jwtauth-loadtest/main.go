package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/jwtauth"
	"github.com/MrEthical07/jwtauth/codec"
	"github.com/MrEthical07/jwtauth/jwt"
	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type tokenState struct {
	token string
	mu    sync.Mutex
}

func main() {
	var (
		tokens      = flag.Int("tokens", 10000, "number of tokens to issue before the timed phases")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (validate + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env is used; with the redis backend and no address, miniredis is started")
		envFile     = flag.String("env-file", ".env", "optional dotenv file loaded before reading JWTAUTH_* variables")
		verbose     = flag.Bool("v", false, "log engine warnings as JSON on stderr")
	)
	flag.Parse()

	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := jwtauth.LoadConfigFromEnv("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Secret) == 0 {
		key, err := jwt.GenerateSecretKey(64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate secret: %v\n", err)
			os.Exit(1)
		}
		cfg.Secret, _ = codec.Decode(key)
		fmt.Println("no JWTAUTH_SECRET set; using a random 64-byte key")
	}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	builder := jwtauth.New().WithConfig(cfg).WithLogger(logger)

	if cfg.Revocation.Backend == jwtauth.RevocationRedis {
		client, cleanup, err := redisClient(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		builder = builder.WithRedis(client)
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	for _, w := range cfg.Lint().BySeverity(jwtauth.LintWarn) {
		fmt.Printf("lint %s [%s]: %s\n", w.Code, w.Severity, w.Message)
	}

	ctx := context.Background()

	states := make([]tokenState, *tokens)
	fmt.Printf("issuing %d tokens (%s, revocation=%v backend=%s)...\n",
		*tokens, cfg.Algorithm, cfg.RevocationEnabled, cfg.Revocation.Backend)
	startSeed := time.Now()
	for i := 0; i < *tokens; i++ {
		token, err := engine.Login(ctx, map[string]any{"id": i, "name": fmt.Sprintf("user-%d", i)}, map[string]any{"role": "member"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = tokenState{token: token}
	}
	fmt.Printf("issued in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runValidatePhase(ctx, engine, states, *ops, *concurrency)
	refreshStats := runRefreshPhase(ctx, engine, states, *ops, *concurrency)
	logoutStats := runLogoutPhase(ctx, engine, states, *concurrency)

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)
	printStats("logout", logoutStats)
	printLatencyHistogram(engine.MetricsSnapshot())
}

func redisClient(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func runValidatePhase(ctx context.Context, engine *jwtauth.Engine, states []tokenState, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 7919, func(r *rand.Rand, _ int) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		token := state.token
		state.mu.Unlock()
		_, err := engine.Validate(ctx, token)
		return err
	})
}

func runRefreshPhase(ctx context.Context, engine *jwtauth.Engine, states []tokenState, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 6151, func(r *rand.Rand, _ int) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()
		next, err := engine.Refresh(ctx, state.token)
		if err == nil {
			state.token = next
		}
		return err
	})
}

func runLogoutPhase(ctx context.Context, engine *jwtauth.Engine, states []tokenState, concurrency int) phaseStats {
	return runPhase(len(states), concurrency, 3571, func(_ *rand.Rand, i int) error {
		state := &states[i]
		state.mu.Lock()
		defer state.mu.Unlock()
		ok, err := engine.Logout(ctx, state.token)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("logout rejected")
		}
		return nil
	})
}

func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func printLatencyHistogram(snap jwtauth.MetricsSnapshot) {
	buckets := snap.Histograms[jwtauth.MetricValidateLatency]
	if len(buckets) == 0 {
		return
	}
	fmt.Println("validate latency (engine histogram):")
	for i, n := range buckets {
		label := "+Inf"
		if i < len(jwtauth.HistogramBounds) {
			label = "<= " + jwtauth.HistogramBounds[i].String()
		}
		fmt.Printf("  %-10s %d\n", label, n)
	}
	fmt.Printf("  revoked rejections=%d backend errors=%d\n",
		snap.Counters[jwtauth.MetricRevokedRejected],
		snap.Counters[jwtauth.MetricRevocationBackendError],
	)
}
