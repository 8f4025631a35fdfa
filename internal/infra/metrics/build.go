package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tts_batch_build_info",
		Help: "Always 1; labels identify the running batch synthesis build and its default tts provider.",
	},
	[]string{"version", "commit", "go_version", "default_provider"},
)

// SetBuildInfo publishes the build labels. Call once at startup.
func SetBuildInfo(version, commit, defaultProvider string) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit, runtime.Version(), defaultProvider).Set(1)
}
