package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.Observe("create_account", "")
	r.Observe("create_account", "")
	r.Observe("authenticate", "AuthenticationFailed")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("create_account", OutcomeSuccess, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("authenticate", OutcomeFailure, "AuthenticationFailed")))

	expected := `
# HELP identity_operations_total Number of identity operations by outcome and error kind.
# TYPE identity_operations_total counter
identity_operations_total{kind="",operation="create_account",outcome="success"} 2
identity_operations_total{kind="AuthenticationFailed",operation="authenticate",outcome="failure"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "identity_operations_total"))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Observe("authenticate", "") })
}

func TestNewRecorder_WithoutRegistry(t *testing.T) {
	r := NewRecorder(nil)
	r.Observe("update_profile", "ValidationFailed")
	assert.Equal(t, 1, testutil.CollectAndCount(r.Collector()))
}
