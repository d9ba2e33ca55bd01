// Command goguard-loadtest drives concurrent Check and OTP traffic through an
// Engine and prints throughput and latency percentiles.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var loadPaths = []string{"/members", "/members", "/members", "/api/otp/email", "/api/otp/phone"}

func main() {
	var (
		ips         = flag.Int("ips", 10000, "number of distinct client addresses")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (check + otp)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		memory      = flag.Bool("memory", false, "use the in-process store instead of redis")
	)
	flag.Parse()

	if *ips <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "ips, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	s, cleanup, err := openStore(*redisAddr, *memory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cfg := goGuard.DefaultConfig()
	cfg.Geo.Enabled = false
	cfg.Metrics.Enabled = true

	engine, err := goGuard.New().
		WithConfig(cfg).
		WithStore(s).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	addrs := make([]string, *ips)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("10.%d.%d.%d", (i>>16)&0xFF, (i>>8)&0xFF, i&0xFF)
	}

	checkStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		req := goGuard.Request{
			IP:   addrs[r.Intn(len(addrs))],
			Path: loadPaths[r.Intn(len(loadPaths))],
		}
		_, err := engine.Check(ctx, req)
		return err
	})

	otpStats := runPhase(*ops, *concurrency, 6151, func(_ *rand.Rand, i int) error {
		key, err := goGuard.EmailOTPKey(fmt.Sprintf("load-%d@example.com", i))
		if err != nil {
			return err
		}
		code, err := engine.IssueOTP(ctx, key, time.Minute)
		if err != nil {
			return err
		}
		ok, err := engine.VerifyOTP(ctx, key, code)
		if err != nil {
			return err
		}
		if !ok {
			return goGuard.ErrInvalidOTP
		}
		return engine.ClearOTP(ctx, key)
	})

	snap := engine.MetricsSnapshot()

	fmt.Println("---- results ----")
	printStats("check", checkStats)
	printStats("otp", otpStats)
	fmt.Printf("decisions: admitted=%d rate_limited=%d suspicious=%d fail_open=%d\n",
		snap.Counters[goGuard.MetricCheckAdmitted],
		snap.Counters[goGuard.MetricCheckRateLimited],
		snap.Counters[goGuard.MetricCheckSuspicious],
		snap.Counters[goGuard.MetricCheckFailOpen],
	)
}

func openStore(addr string, memory bool) (store.Store, func(), error) {
	if memory {
		fmt.Println("using in-process store")
		return store.NewMemoryStore(), func() {}, nil
	}

	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return store.NewRedisStore(client, 0), mr.Close, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	fmt.Printf("using redis at %s\n", addr)
	return store.NewRedisStore(client, 250*time.Millisecond), func() {}, nil
}

// runPhase runs ops calls of fn across concurrency workers. Each worker gets
// its own random source seeded from seed.
func runPhase(ops, concurrency int, seed int64, fn func(r *rand.Rand, i int) error) phaseStats {
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
				err := fn(r, i)
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
