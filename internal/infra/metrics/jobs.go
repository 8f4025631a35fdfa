package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(batchJobsCreatedTotal, batchJobsFinishedTotal, batchSegmentsTotal, batchSegmentsInFlight, archiveBuildsTotal)
}

var (
	batchJobsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_jobs_created_total",
			Help: "Total number of batch synthesis jobs accepted.",
		},
	)

	batchJobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_jobs_finished_total",
			Help: "Total number of batch jobs that reached a terminal state, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	batchSegmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_segments_processed_total",
			Help: "Total number of segments processed, labeled by outcome.",
		},
		[]string{"outcome"}, // 'success', 'failure'
	)

	batchSegmentsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "batch_segments_in_flight",
			Help: "Segments currently being synthesized across all jobs.",
		},
	)

	archiveBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_archive_builds_total",
			Help: "Archive builds labeled by result.",
		},
		[]string{"result"}, // 'ok', 'no_artifacts', 'not_finished', 'error'
	)
)

func IncJobCreated() { batchJobsCreatedTotal.Inc() }

func IncJobFinished(status string) {
	batchJobsFinishedTotal.WithLabelValues(norm(status)).Inc()
}

func IncSegment(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	batchSegmentsTotal.WithLabelValues(outcome).Inc()
}

// SegmentStarted bumps the in-flight gauge; call the returned func when done.
func SegmentStarted() func() {
	batchSegmentsInFlight.Inc()
	return batchSegmentsInFlight.Dec
}

func IncArchive(result string) {
	archiveBuildsTotal.WithLabelValues(norm(result)).Inc()
}
