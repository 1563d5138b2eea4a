package http

import (
	"fmt"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Service:   "coinjar-api",
		Version:   s.opts.Version,
	})
}

// handleMetrics reports request, security and history cache counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	cacheStats := s.ledger.CacheStats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_last_response_microseconds Duration of the most recent request\n")
	fmt.Fprintf(w, "# TYPE http_last_response_microseconds gauge\n")
	fmt.Fprintf(w, "http_last_response_microseconds %d\n\n", traceMetrics.LastResponseTime)

	fmt.Fprintf(w, "# HELP history_cache_entries Reconstructed series held in the history cache\n")
	fmt.Fprintf(w, "# TYPE history_cache_entries gauge\n")
	fmt.Fprintf(w, "history_cache_entries %d\n\n", cacheStats.Size)

	fmt.Fprintf(w, "# HELP history_cache_hits_total History cache hits\n")
	fmt.Fprintf(w, "# TYPE history_cache_hits_total counter\n")
	fmt.Fprintf(w, "history_cache_hits_total %d\n\n", cacheStats.Hits)

	fmt.Fprintf(w, "# HELP history_cache_misses_total History cache misses\n")
	fmt.Fprintf(w, "# TYPE history_cache_misses_total counter\n")
	fmt.Fprintf(w, "history_cache_misses_total %d\n\n", cacheStats.Misses)

	fmt.Fprintf(w, "# HELP history_cache_evictions_total Entries evicted to stay within the size bound\n")
	fmt.Fprintf(w, "# TYPE history_cache_evictions_total counter\n")
	fmt.Fprintf(w, "history_cache_evictions_total %d\n\n", cacheStats.Evictions)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Server uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}
