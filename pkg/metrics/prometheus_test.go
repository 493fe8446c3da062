package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCountsEvents(t *testing.T) {
	m := NewPrometheus("")
	m.ParameterChanged("budget", "value_change")
	m.PropagationApplied("derived")
	m.PropagationSkipped("cycle")
	m.ExpressionFailed("condition")
	m.ValidationCompleted("budget", false)
	m.CacheLookup("dependencies", true)
	m.CacheLookup("dependencies", false)

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			counts[family.GetName()] += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), counts["formengine_parameter_changes_total"])
	assert.Equal(t, float64(1), counts["formengine_propagations_applied_total"])
	assert.Equal(t, float64(1), counts["formengine_propagations_skipped_total"])
	assert.Equal(t, float64(1), counts["formengine_expression_failures_total"])
	assert.Equal(t, float64(1), counts["formengine_validations_total"])
	assert.Equal(t, float64(2), counts["formengine_cache_lookups_total"])
}

func TestPrometheusHandlerServesMetrics(t *testing.T) {
	m := NewPrometheus("test")
	m.PropagationApplied("direct")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `test_propagations_applied_total{dependency_type="direct"} 1`)
}

func TestOrNop(t *testing.T) {
	assert.IsType(t, Nop{}, OrNop(nil))
	m := NewPrometheus("other")
	assert.Same(t, m, OrNop(m))
}
