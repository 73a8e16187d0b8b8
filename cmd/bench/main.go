// Command bench runs a synthetic workload against the cache and exposes
// optional pprof/Prometheus endpoints. With -aof it also measures the
// persistence path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sineshashi/sinecache/cache"
	pmet "github.com/sineshashi/sinecache/metrics/prom"
	"github.com/sineshashi/sinecache/policy"
	"github.com/sineshashi/sinecache/policy/fifo"
	"github.com/sineshashi/sinecache/policy/lfu"
	"github.com/sineshashi/sinecache/policy/lru"
)

func main() {
	// ---- Flags ----
	var (
		capacity  = flag.Int("cap", 100_000, "cache capacity (entries)")
		polName   = flag.String("policy", "lru", "eviction policy: lru | lfu | fifo")
		aofDir    = flag.String("aof", "", "enable the append-only log in this directory; empty = disabled")
		aofPeriod = flag.Duration("aof_flush", 500*time.Millisecond, "log flush period; 0 = flush every write")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "sinecache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	var pol policy.Policy[string]
	switch *polName {
	case "lru":
		pol = lru.New[string]()
	case "lfu":
		pol = lfu.New[string]()
	case "fifo":
		pol = fifo.New[string]()
	default:
		log.Fatalf("unknown policy: %q (use lru, lfu, or fifo)", *polName)
	}
	opt := cache.Options[string, string]{
		MaxSize: *capacity,
		Policy:  pol,
		Metrics: metrics,
	}
	if *aofDir != "" {
		opt.Log = &cache.LogOptions[string, string]{
			Dir:         *aofDir,
			Name:        "bench",
			FlushPeriod: *aofPeriod,
		}
	}
	c, err := cache.New(opt)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer func() { _ = c.Close() }()

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *capacity / 2
	}
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		c.Put(k, "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if _, ok := c.Get(keyByZipf()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					k := keyByZipf()
					c.Put(k, "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if err := c.Err(); err != nil {
		log.Printf("WARNING: persistence error during run: %v", err)
	}

	// ---- Report ----
	opsTotal := atomic.LoadUint64(&total)
	r := atomic.LoadUint64(&reads)
	w := atomic.LoadUint64(&writes)
	h := atomic.LoadUint64(&hits)
	m := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if r > 0 {
		hitRate = float64(h) / float64(r) * 100
	}
	fmt.Printf("policy=%s cap=%d aof=%q workers=%d duration=%v\n",
		*polName, *capacity, *aofDir, workersN, elapsed.Round(time.Millisecond))
	fmt.Printf("ops=%d (%.0f ops/s) reads=%d writes=%d hits=%d misses=%d hit-rate=%.1f%% size=%d\n",
		opsTotal, float64(opsTotal)/elapsed.Seconds(), r, w, h, m, hitRate, c.Size())
}
