// Package metrics holds the Prometheus collectors of the service
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "redditclone"

// Refresh and submission outcomes used as label values
const (
	ResultOK           = "ok"
	ResultError        = "error"
	ResultSuperseded   = "superseded"
	ResultUnauthorized = "unauthorized"
	ResultInvalid      = "invalid"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	commentSubmissions *prometheus.CounterVec
	commentRefreshes   *prometheus.CounterVec
	refreshDuration    prometheus.Histogram
	votes              *prometheus.CounterVec
	liveStreams        prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commentSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_submissions_total",
			Help:      "Comment submissions by result.",
		}, []string{"result"}),
		commentRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_refreshes_total",
			Help:      "Comment list refreshes by result.",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comment_refresh_duration_seconds",
			Help:      "Time spent fetching a post's comment list from the backend.",
			Buckets:   prometheus.DefBuckets,
		}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes cast by action.",
		}, []string{"action"}),
		liveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_comment_streams",
			Help:      "Open live comment streams.",
		}),
	}
	reg.MustRegister(m.commentSubmissions, m.commentRefreshes, m.refreshDuration, m.votes, m.liveStreams)
	return m
}

func (m *Metrics) CommentSubmitted(result string) {
	if m == nil {
		return
	}
	m.commentSubmissions.WithLabelValues(result).Inc()
}

func (m *Metrics) CommentsRefreshed(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.commentRefreshes.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.refreshDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) VoteCast(action string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(action).Inc()
}

// StreamOpened increments the open stream gauge and returns the matching decrement
func (m *Metrics) StreamOpened() func() {
	if m == nil {
		return func() {}
	}
	m.liveStreams.Inc()
	return m.liveStreams.Dec
}
