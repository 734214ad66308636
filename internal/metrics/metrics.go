/**
 * Prometheus metrics for the OCR web service
 *
 * The aggregator owns a bounded rolling window of recent confidence scores and
 * republishes the window mean as a gauge on every observation.
 */

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WindowSize bounds the rolling score window used for the running average.
const WindowSize = 1000

// Aggregator tracks prediction metrics. Observe is safe for concurrent use;
// the append/evict/recompute sequence holds one lock so the window never
// exceeds WindowSize and the gauge always matches the retained scores.
type Aggregator struct {
	mu        sync.Mutex
	window    []float64
	threshold float64

	predictionsTotal prometheus.Counter
	scoreHistogram   prometheus.Histogram
	lowScoreTotal    prometheus.Counter
	scoreAverage     prometheus.Gauge
}

// NewAggregator creates an aggregator registered on reg. Scores below
// threshold increment the low-score counter.
func NewAggregator(reg prometheus.Registerer, threshold float64) *Aggregator {
	factory := promauto.With(reg)

	return &Aggregator{
		window:    make([]float64, 0, WindowSize),
		threshold: threshold,
		predictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions.",
		}),
		scoreHistogram: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "prediction_score",
			Help: "Histogram of prediction confidence scores.",
		}),
		lowScoreTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "low_score_predictions_total",
			Help: "Number of predictions with score below threshold.",
		}),
		scoreAverage: factory.NewGauge(prometheus.GaugeOpts{
			Name: "prediction_score_average",
			Help: "Average prediction score over the rolling window.",
		}),
	}
}

// Observe records one prediction score.
func (a *Aggregator) Observe(score float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.predictionsTotal.Inc()
	a.scoreHistogram.Observe(score)

	if score < a.threshold {
		a.lowScoreTotal.Inc()
	}

	a.window = append(a.window, score)
	if len(a.window) > WindowSize {
		// oldest out first; shift in place so the backing array stays bounded
		copy(a.window, a.window[1:])
		a.window = a.window[:WindowSize]
	}

	a.scoreAverage.Set(mean(a.window))
}

// WindowLen returns the number of scores currently retained.
func (a *Aggregator) WindowLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.window)
}

// Average returns the arithmetic mean of the retained scores, 0 when empty.
func (a *Aggregator) Average() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return mean(a.window)
}

func mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
