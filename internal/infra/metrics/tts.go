package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(ttsCallsLatencyMs)
}

var ttsCallsLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "tts_calls_latency_ms",
		Help:    "Speech synthesis call latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000, 60000},
	},
	[]string{"provider", "model", "success"},
)

func ObserveSynthesis(provider, model string, latency time.Duration, success bool) {
	ttsCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latency / time.Millisecond))
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
