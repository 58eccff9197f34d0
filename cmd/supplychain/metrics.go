package main

import (
	"log/slog"

	"supplychain/internal/config"
	"supplychain/internal/metrics"
	"supplychain/internal/metrics/datadog"
	"supplychain/internal/metrics/prompush"
)

// setupMetrics installs the selected metrics backend and returns a function
// that flushes it. Selection order for every setting: flag, env, config.
// A backend that fails to initialize leaves the nop backend in place.
func setupMetrics(f *rootFlags, p config.Pipeline, log *slog.Logger) (flush func()) {
	name := firstNonEmpty(f.metricsBackend, getenv("METRICS_BACKEND"), p.Metrics.Backend)
	flush = func() {}

	var (
		b   metrics.Backend
		err error
	)
	switch name {
	case "", "none":
		log.Debug("metrics: disabled")
		return flush
	case "pushgateway":
		url := firstNonEmpty(f.pushgatewayURL, getenv("PUSHGATEWAY_URL"), p.Metrics.PushgatewayURL, "http://localhost:9091")
		b, err = prompush.NewBackend(p.Job, url)
		log.Debug("metrics", "backend", name, "url", url, "job", p.Job)
	case "datadog":
		addr := firstNonEmpty(f.dogstatsdAddr, getenv("DOGSTATSD_ADDR"), p.Metrics.DogstatsdAddr, "127.0.0.1:8125")
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "supplychain.",
			GlobalTags: []string{"job:" + p.Job},
		})
		log.Debug("metrics", "backend", name, "addr", addr)
	default:
		log.Warn("metrics: unknown backend; metrics disabled", "backend", name)
		return flush
	}
	if err != nil {
		log.Warn("metrics: failed to init backend; using nop", "backend", name, "err", err)
		return flush
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush error", "err", err)
		}
	}
}
