package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthResponse is the body of the metrics server's liveness probe.
type HealthResponse struct {
	Status string `json:"status"`
}

// startMetricsServer starts the Prometheus metrics HTTP server. It runs in a
// background goroutine and shuts down gracefully when ctx is cancelled.
//
// Endpoints:
//   - GET /metrics - Prometheus scrape endpoint
//   - GET /health - liveness probe, always 200
//
// METRICS_PORT sets the listen port (default 9090).
func startMetricsServer(ctx context.Context, logger *slog.Logger) *http.Server {
	port := getMetricsPort()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// getMetricsPort reads METRICS_PORT, defaulting to 9090 on absence or an
// invalid value.
func getMetricsPort() int {
	portStr := os.Getenv("METRICS_PORT")
	if portStr == "" {
		return 9090
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 9090
	}

	return port
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}
