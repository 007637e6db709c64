package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_RegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ReportSubmitted("web")
	m.Escalation("created")
	m.AssignmentTransitioned("cleaned")
	m.AlertQuery(3)
	m.SetGroups(4, 1)

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 8)
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetricsForTesting()

	m.ReportSubmitted("sms")
	m.ReportSubmitted("sms")
	m.PropagationSkip(2)
	m.PropagationSkip(0)
	m.SetGroups(5, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReportsSubmitted.WithLabelValues("sms")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PropagationSkipped))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ActiveGroups))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EligibleGroups))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ReportSubmitted("web")
		m.Escalation("created")
		m.AssignmentTransitioned("cleaned")
		m.PropagationSkip(1)
		m.AlertQuery(0)
		m.SetGroups(1, 1)
	})
}
