package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.pinger == nil {
		checks["storage"] = "ok"
	} else if err := s.pinger.Ping(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
		s.logger.WarnContext(ctx, "Readiness check failed", "check", "storage", "error", err)
	} else {
		checks["storage"] = "ok"
	}

	checks["ledger"] = map[string]any{
		"version": s.ledger.Version(),
		"status":  "ok",
	}
	checks["cache"] = map[string]any{
		"summary_entries": s.summaryCache.Size(),
		"status":          "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Data(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	ledgerStats := s.ledger.Stats()
	cacheStats := s.summaryCache.Stats()
	uptime := s.now().Sub(s.startedAt)

	w.WriteHeader(http.StatusOK)

	// Prometheus text exposition format
	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)
	writeMetric(w, "http_response_time_avg_microseconds", "gauge", "Average HTTP response time", traceMetrics.AverageResponseTime)
	writeMetric(w, "ledger_mutations_total", "counter", "Committed ledger mutations", ledgerStats.Mutations)
	writeMetric(w, "ledger_persist_failures_total", "counter", "Failed state saves", ledgerStats.PersistFailures)
	writeMetric(w, "ledger_publish_failures_total", "counter", "Failed summary publications", ledgerStats.PublishFailures)
	writeMetric(w, "cache_hits_total", "counter", "Total summary cache hits", cacheStats.Hits)
	writeMetric(w, "cache_misses_total", "counter", "Total summary cache misses", cacheStats.Misses)
	writeMetric(w, "cache_entries", "gauge", "Current summary cache entries", cacheStats.Size)
	writeMetric(w, "rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	writeMetric(w, "blocked_requests_total", "counter", "Suspicious requests rejected", securityMetrics.BlockedRequests)
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(uptime.Seconds()))
}

func writeMetric[N int | int64 | uint64](w http.ResponseWriter, name, kind, help string, value N) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
