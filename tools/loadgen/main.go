// Command loadgen generates load against a running utang ledger API.
//
// It replays a configurable mix of balance reads, entry listings, credit
// sales and payments for a set of existing customers, then prints latency
// percentiles per operation. Customers are supplied as a file with one
// customer ID per line, typically exported after seeding.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/tindahan/tools/loadgen/internal/metrics"
)

type options struct {
	baseURL       string
	tenantID      string
	customersFile string
	workers       int
	duration      time.Duration
	readRatio     int
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "Base URL of the ledger API")
	flag.StringVar(&opts.tenantID, "tenant", "", "Tenant ID sent as X-Tenant-ID")
	flag.StringVar(&opts.customersFile, "customers", "", "File with one customer ID per line")
	flag.IntVar(&opts.workers, "workers", 8, "Number of concurrent workers")
	flag.DurationVar(&opts.duration, "duration", 30*time.Second, "How long to run")
	flag.IntVar(&opts.readRatio, "read-ratio", 80, "Percentage of requests that are reads (0-100)")
	flag.Parse()

	if opts.tenantID == "" || opts.customersFile == "" {
		fmt.Fprintln(os.Stderr, "both -tenant and -customers are required")
		flag.Usage()
		os.Exit(1)
	}
	if opts.readRatio < 0 || opts.readRatio > 100 {
		fmt.Fprintln(os.Stderr, "-read-ratio must be between 0 and 100")
		os.Exit(1)
	}

	customers, err := loadCustomers(opts.customersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load customers: %v\n", err)
		os.Exit(1)
	}
	if len(customers) == 0 {
		fmt.Fprintln(os.Stderr, "customers file is empty")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen := &generator{
		opts:      opts,
		customers: customers,
		client:    &http.Client{Timeout: 10 * time.Second},
		recorders: make(map[string]*metrics.Recorder),
	}
	for _, op := range []string{"balance", "entries", "sale", "payment"} {
		gen.recorders[op] = metrics.NewRecorder()
	}

	fmt.Printf("running %d workers against %s for %s (%d customers, %d%% reads)\n",
		opts.workers, opts.baseURL, opts.duration, len(customers), opts.readRatio)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < opts.workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			gen.run(ctx, rand.New(rand.NewSource(seed)))
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()

	gen.report(time.Since(start))
}

// generator issues requests and records their outcomes per operation
type generator struct {
	opts      options
	customers []string
	client    *http.Client
	recorders map[string]*metrics.Recorder
}

func (g *generator) run(ctx context.Context, rng *rand.Rand) {
	for ctx.Err() == nil {
		customer := g.customers[rng.Intn(len(g.customers))]

		roll := rng.Intn(100)
		switch {
		case roll < g.opts.readRatio/2:
			g.do(ctx, "balance", http.MethodGet,
				fmt.Sprintf("/api/v1/ledger/customers/%s/balance", customer), nil)
		case roll < g.opts.readRatio:
			g.do(ctx, "entries", http.MethodGet,
				fmt.Sprintf("/api/v1/ledger/customers/%s/entries?page=1&page_size=20", customer), nil)
		case roll < g.opts.readRatio+(100-g.opts.readRatio)/2:
			body := fmt.Sprintf(
				`{"customer_id":%q,"total_amount":"%d.00","paid_amount":"0","occurred_at":%q}`,
				customer, 10+rng.Intn(490), time.Now().UTC().Format(time.RFC3339))
			g.do(ctx, "sale", http.MethodPost, "/api/v1/ledger/sales", []byte(body))
		default:
			// Payments against a low balance come back 422; that still
			// exercises the locked read-validate-append path.
			body := fmt.Sprintf(`{"amount":"%d.00","note":"loadgen"}`, 1+rng.Intn(50))
			g.do(ctx, "payment", http.MethodPost,
				fmt.Sprintf("/api/v1/ledger/customers/%s/payments", customer), []byte(body))
		}
	}
}

func (g *generator) do(ctx context.Context, op, method, path string, body []byte) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.opts.baseURL+path, reader)
	if err != nil {
		g.recorders[op].Record(0, 0)
		return
	}
	req.Header.Set("X-Tenant-ID", g.opts.tenantID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		g.recorders[op].Record(0, latency)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	g.recorders[op].Record(resp.StatusCode, latency)
}

func (g *generator) report(elapsed time.Duration) {
	ops := make([]string, 0, len(g.recorders))
	for op := range g.recorders {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	var total, errors int64
	fmt.Printf("\n%-8s %8s %8s %10s %10s %10s %10s\n",
		"op", "count", "errors", "p50", "p95", "p99", "max")
	for _, op := range ops {
		snap := g.recorders[op].Snapshot()
		total += snap.Total
		errors += snap.Errors
		if snap.Total == 0 {
			continue
		}
		fmt.Printf("%-8s %8d %8d %10s %10s %10s %10s\n",
			op, snap.Total, snap.Errors,
			round(snap.P50), round(snap.P95), round(snap.P99), round(snap.Max))
	}
	fmt.Printf("\n%d requests in %s (%.1f req/s), %d errors\n",
		total, elapsed.Round(time.Millisecond),
		float64(total)/elapsed.Seconds(), errors)
}

func round(d time.Duration) string {
	return d.Round(100 * time.Microsecond).String()
}

// loadCustomers reads customer IDs, one per line, ignoring blanks and
// lines starting with #.
func loadCustomers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, scanner.Err()
}
