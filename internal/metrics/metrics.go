package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/leakprobe/internal/model"
)

const namespace = "leakprobe"

// Score buckets cover the [0,1] range with the default flag and trigger thresholds on edges
var ScoreBuckets = []float64{0, 0.1, 0.15, 0.25, 0.3, 0.35, 0.45, 0.6, 0.8, 1}

// Collector holds the engine's metrics on a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	runs            prometheus.Counter
	runDuration     prometheus.Histogram
	questionsScored *prometheus.CounterVec
	ruleScores      prometheus.Histogram
	finalScores     prometheus.Histogram
	judgeBatches    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	verdicts        *prometheus.CounterVec
	flagged         prometheus.Counter
}

// NewCollector registers all metrics on a fresh registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed document runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a document run, judge calls included.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
		}),
		questionsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_scored_total",
			Help:      "Questions given a rule-based score, by style.",
		}, []string{"style"}),
		ruleScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_score",
			Help:      "Distribution of rule-based leakage scores.",
			Buckets:   ScoreBuckets,
		}),
		finalScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Distribution of finalized leakage scores.",
			Buckets:   ScoreBuckets,
		}),
		judgeBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_batches_total",
			Help:      "Semantic judge batch calls, by result.",
		}, []string{"result"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_cache_hits_total",
			Help:      "Verdicts served from the cache instead of the judge.",
		}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Usable judge verdicts, by verdict and confidence.",
		}, []string{"verdict", "confidence"}),
		flagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flagged_questions_total",
			Help:      "Questions whose final score exceeded the flag threshold.",
		}),
	}

	c.registry.MustRegister(
		c.runs, c.runDuration, c.questionsScored, c.ruleScores, c.finalScores,
		c.judgeBatches, c.cacheHits, c.verdicts, c.flagged,
	)
	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveRuleScore records one rule-scored question
func (c *Collector) ObserveRuleScore(style model.QuestionStyle, score float64) {
	if c == nil {
		return
	}
	c.questionsScored.WithLabelValues(string(style)).Inc()
	c.ruleScores.Observe(score)
}

// ObserveJudge records one validation pass
func (c *Collector) ObserveJudge(batches, failed, cacheHits int) {
	if c == nil {
		return
	}
	if ok := batches - failed; ok > 0 {
		c.judgeBatches.WithLabelValues("ok").Add(float64(ok))
	}
	if failed > 0 {
		c.judgeBatches.WithLabelValues("failed").Add(float64(failed))
	}
	c.cacheHits.Add(float64(cacheHits))
}

// ObserveVerdict records one verdict applied by the reconciler
func (c *Collector) ObserveVerdict(v model.ValidationVerdict) {
	if c == nil {
		return
	}
	c.verdicts.WithLabelValues(string(v.Verdict), string(v.Confidence)).Inc()
}

// ObserveRun records a finished run and its final scores
func (c *Collector) ObserveRun(report *model.Report, outcomes []model.Outcome, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.runs.Inc()
	c.runDuration.Observe(elapsed.Seconds())
	c.flagged.Add(float64(report.FlaggedCount))
	for _, o := range outcomes {
		c.finalScores.Observe(o.FinalScore)
	}
}
