// Command loadtest drives the read API of a running clanwatch server.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

var (
	baseURL      = flag.String("url", "http://127.0.0.1:8090", "server base url")
	numWorkers   = flag.Int("workers", 50, "concurrent workers")
	testDuration = flag.Duration("duration", 10*time.Second, "duration of each phase")
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

type memberRow struct {
	Name string `json:"name"`
}

type goldWeek struct {
	Key int64 `json:"key"`
}

func main() {
	flag.Parse()
	fmt.Println("=== ClanWatch Load Test ===")
	fmt.Printf("Target: %s | Workers: %d | Duration: %s\n\n", *baseURL, *numWorkers, *testDuration)

	fmt.Print("Waiting for server... ")
	if !waitForServer() {
		fmt.Println("FAILED: server not responding")
		return
	}
	fmt.Println("OK")

	var members []memberRow
	if err := getJSON("/members", &members); err != nil || len(members) == 0 {
		fmt.Printf("No members to query (%v), run an update first\n", err)
		return
	}
	var weeks []goldWeek
	_ = getJSON("/gold/weeks", &weeks)
	fmt.Printf("Members: %d | Gold weeks: %d\n", len(members), len(weeks))

	pickMember := func(rng *rand.Rand) string {
		return members[rng.Intn(len(members))].Name
	}

	fmt.Println("\n--- Phase 1: Dashboard views ---")
	runPhase(*testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.25:
			return doGet("GET /overview", "/overview")
		case r < 0.50:
			return doGet("GET /members", "/members")
		case r < 0.65:
			return doGet("GET /alerts", "/alerts")
		case r < 0.80 && len(weeks) > 0:
			week := weeks[rng.Intn(len(weeks))].Key
			return doGet("GET /gold", fmt.Sprintf("/gold?week=%d", week))
		default:
			return doGet("GET /market", "/market")
		}
	})

	fmt.Println("\n--- Phase 2: Player drill-down with refreshes ---")
	runPhase(*testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.01:
			return doPost("POST /refresh", "/refresh")
		case r < 0.35:
			return doGet("GET /player", "/player?name="+url.QueryEscape(pickMember(rng)))
		case r < 0.55:
			return doGet("GET /player/logs", "/player/logs?name="+url.QueryEscape(pickMember(rng)))
		case r < 0.75:
			q := url.Values{"a": {pickMember(rng)}, "b": {pickMember(rng)}}
			return doGet("GET /compare", "/compare?"+q.Encode())
		default:
			return doGet("GET /logs", "/logs?member="+url.QueryEscape(pickMember(rng)))
		}
	})
}

func waitForServer() bool {
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(*baseURL + "/health")
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func getJSON(path string, out any) error {
	resp, err := httpClient.Get(*baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < *numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
					totalOps.Add(1)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps, totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
}

func doGet(endpoint, path string) result {
	start := time.Now()
	resp, err := httpClient.Get(*baseURL + path)
	return finish(endpoint, start, resp, err)
}

func doPost(endpoint, path string) result {
	start := time.Now()
	resp, err := httpClient.Post(*baseURL+path, "application/json", nil)
	return finish(endpoint, start, resp, err)
}

// finish drains resp; 404 counts as success since a compared or
// requested member may lack a profile.
func finish(endpoint string, start time.Time, resp *http.Response, err error) result {
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	ok := resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound
	return result{endpoint, resp.StatusCode, lat, !ok}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
