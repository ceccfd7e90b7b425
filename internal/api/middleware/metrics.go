package middleware

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// Metrics keeps plain request counters. It wraps the whole router so every
// route is counted without per-route wiring.
type Metrics struct {
	requestsTotal uint64

	mu       sync.Mutex
	byStatus map[int]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{byStatus: make(map[int]uint64)}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&m.requestsTotal, 1)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.mu.Lock()
		m.byStatus[rec.status]++
		m.mu.Unlock()
	})
}

func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "http_requests_total %d\n", atomic.LoadUint64(&m.requestsTotal))

	m.mu.Lock()
	statuses := make([]int, 0, len(m.byStatus))
	for status := range m.byStatus {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	for _, status := range statuses {
		fmt.Fprintf(w, "http_responses_total{status=\"%d\"} %d\n", status, m.byStatus[status])
	}
	m.mu.Unlock()
}
