package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(generationPromptTokens, generationSeconds, buildInfo) }

var (
	generationPromptTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_prompt_tokens_total",
			Help:      "Estimated prompt tokens sent to the text generator.",
		},
		[]string{"provider", "model"},
	)

	generationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Text generation latency by provider and outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider", "model", "outcome"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Always 1; labels carry the running build.",
		},
		[]string{"version", "commit", "go_version"},
	)
)

func ObserveGeneration(provider, model string, promptTokens int, latency time.Duration, ok bool) {
	p, m := norm(provider), norm(model)
	generationPromptTokens.WithLabelValues(p, m).Add(float64(promptTokens))
	generationSeconds.WithLabelValues(p, m, outcome(ok)).Observe(latency.Seconds())
}

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}
