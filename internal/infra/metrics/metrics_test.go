package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMustRegister_Idempotent(t *testing.T) {
	require.NotPanics(t, func() {
		MustRegister()
		MustRegister()
	})
}

func TestCounters_NormalizeLabels(t *testing.T) {
	before := testutil.ToFloat64(chatJobsProcessedTotal.WithLabelValues("completed"))
	IncChatJob(" COMPLETED ")
	require.Equal(t, before+1, testutil.ToFloat64(chatJobsProcessedTotal.WithLabelValues("completed")))

	before = testutil.ToFloat64(chatJobDispatchTotal.WithLabelValues("pool", "dropped"))
	IncDispatch("Pool", "Dropped")
	require.Equal(t, before+1, testutil.ToFloat64(chatJobDispatchTotal.WithLabelValues("pool", "dropped")))
}

func TestObserveHTTP_UnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404"))
	ObserveHTTP("", "GET", 404, 3*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404")))
}

func TestObserveGeneration_SplitsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(generationPromptTokens.WithLabelValues("gemini", "gemini-2.5-flash"))
	ObserveGeneration("Gemini", "gemini-2.5-flash", 42, time.Second, false)
	require.Equal(t, before+42, testutil.ToFloat64(generationPromptTokens.WithLabelValues("gemini", "gemini-2.5-flash")))
	require.Equal(t, 1, testutil.CollectAndCount(generationSeconds.WithLabelValues("gemini", "gemini-2.5-flash", "error").(prometheus.Histogram)))
}
