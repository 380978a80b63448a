package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/2019UGEC100/matching-engine-go/pkg/config"
	"github.com/2019UGEC100/matching-engine-go/pkg/engine"
	"github.com/2019UGEC100/matching-engine-go/pkg/logging"
	"github.com/2019UGEC100/matching-engine-go/pkg/metrics"
	"github.com/2019UGEC100/matching-engine-go/pkg/model"
)

type StatsSummary struct {
	TotalRequests int            `json:"total_requests"`
	Concurrency   int            `json:"concurrency"`
	DurationSec   float64        `json:"duration_sec"`
	ReqPerSec     float64        `json:"req_per_sec"`
	MeanMs        float64        `json:"mean_ms"`
	MaxMs         float64        `json:"max_ms"`
	P50Ms         float64        `json:"p50_ms"`
	P90Ms         float64        `json:"p90_ms"`
	P99Ms         float64        `json:"p99_ms"`
	Statuses      map[string]int `json:"statuses"`
}

type TradeSummary struct {
	Trades        int    `json:"trades"`
	TotalQuantity int64  `json:"total_quantity"`
	Notional      string `json:"notional"`
}

func main() {
	cfg := config.LoadFromEnv(os.Getenv("ENV_FILE"))

	var (
		workers     = flag.Int("c", cfg.Load.Workers, "concurrency (goroutines)")
		perWorker   = flag.Int("n", cfg.Load.OrdersPerWorker, "orders per worker")
		sleepMs     = flag.Int("sleep", int(cfg.Load.Sleep/time.Millisecond), "ms sleep between orders per goroutine")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		verbose     = flag.Bool("verbose", false, "print every submitted order")
		logLevel    = flag.String("log-level", cfg.LogLevel, "log level")
		metricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address while running, e.g. :9090")
	)
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	eng, err := engine.New(cfg.Engine,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		logger.Fatal("engine init failed", zap.Error(err))
	}

	if *metricsAddr != "" {
		srv := serveMetrics(*metricsAddr, reg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	load := cfg.Load
	var wg sync.WaitGroup

	// Stats collection
	var mu sync.Mutex
	durations := make([]float64, 0, (*workers)*(*perWorker)) // ms
	statuses := make(map[string]int)

	start := time.Now()

	worker := func(id int) {
		defer wg.Done()
		rng := rand.New(rand.NewSource(*seed + int64(id)))
		for j := 0; j < *perWorker; j++ {
			side := model.SELL
			if rng.Intn(2) == 0 {
				side = model.BUY
			}
			security := rng.Intn(cfg.Engine.MaxSecurities)
			qty := load.MinQuantity + rng.Int63n(load.MaxQuantity-load.MinQuantity+1)
			price := load.MinPrice + float64(rng.Intn(load.PriceSpread))

			if *verbose {
				fmt.Printf("[SUBMIT] %-4s | Security: %4d | Qty: %3d | Price: %.2f\n", side, security, qty, price)
			}

			t0 := time.Now()
			res := eng.Submit(side, security, qty, price)
			elapsed := time.Since(t0).Seconds() * 1000.0 // ms

			mu.Lock()
			durations = append(durations, elapsed)
			statuses[res.Status.String()]++
			mu.Unlock()

			if *sleepMs > 0 {
				time.Sleep(time.Duration(*sleepMs) * time.Millisecond)
			}
		}
	}

	// Launch workers
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go worker(i)
	}

	wg.Wait()
	elapsedTotal := time.Since(start).Seconds()

	summary := summarize(durations, *workers, elapsedTotal)
	summary.Statuses = statuses
	trades := summarizeTrades(eng.AllTrades())

	fmt.Printf("SUMMARY: total=%d concurrency=%d duration=%.2fs req/s=%.2f\n",
		summary.TotalRequests, summary.Concurrency, summary.DurationSec, summary.ReqPerSec)
	fmt.Printf("LATENCY(ms): mean=%.3f max=%.3f p50=%.3f p90=%.3f p99=%.3f\n",
		summary.MeanMs, summary.MaxMs, summary.P50Ms, summary.P90Ms, summary.P99Ms)
	fmt.Printf("TRADES: count=%d quantity=%d notional=%s\n",
		trades.Trades, trades.TotalQuantity, trades.Notional)

	js, _ := json.MarshalIndent(struct {
		Stats  StatsSummary `json:"stats"`
		Trades TradeSummary `json:"trades"`
	}{summary, trades}, "", "  ")
	fmt.Printf("\nJSON:\n%s\n", string(js))
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("metrics server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listen error", zap.Error(err))
		}
	}()
	return srv
}

// summarize computes latency stats over durations (ms); it sorts in place.
func summarize(durations []float64, concurrency int, elapsedSec float64) StatsSummary {
	sent := len(durations)
	sort.Float64s(durations)
	var sum float64
	var max float64
	for _, v := range durations {
		sum += v
		if v > max {
			max = v
		}
	}
	mean := 0.0
	if sent > 0 {
		mean = sum / float64(sent)
	}

	p := func(q float64) float64 {
		if sent == 0 {
			return 0
		}
		// nearest-rank style
		idx := int(math.Floor(q*float64(sent-1) + 0.5))
		if idx < 0 {
			idx = 0
		}
		if idx >= sent {
			idx = sent - 1
		}
		return durations[idx]
	}

	rps := 0.0
	if elapsedSec > 0 {
		rps = float64(sent) / elapsedSec
	}

	return StatsSummary{
		TotalRequests: sent,
		Concurrency:   concurrency,
		DurationSec:   elapsedSec,
		ReqPerSec:     rps,
		MeanMs:        mean,
		MaxMs:         max,
		P50Ms:         p(0.50),
		P90Ms:         p(0.90),
		P99Ms:         p(0.99),
	}
}

// summarizeTrades totals quantity and notional; notional is summed in
// decimal so it does not drift with float rounding.
func summarizeTrades(trades []model.Trade) TradeSummary {
	notional := decimal.Zero
	var qty int64
	for _, tr := range trades {
		qty += tr.Quantity
		notional = notional.Add(decimal.NewFromFloat(tr.Price).Mul(decimal.NewFromInt(tr.Quantity)))
	}
	return TradeSummary{
		Trades:        len(trades),
		TotalQuantity: qty,
		Notional:      notional.StringFixed(2),
	}
}
