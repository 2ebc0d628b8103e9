package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"rfbmarket/internal/workflow"
)

var _ workflow.Observer = (*Metrics)(nil)

func TestCounters(t *testing.T) {
	m := New("rfbmarket", prometheus.NewRegistry())

	m.Transition(workflow.StepDetails, workflow.StepPricing)
	m.Transition(workflow.StepDetails, workflow.StepPricing)
	m.GuardFailed(workflow.StepPricing, "final_amount")
	m.OTPVerified("mismatch")
	m.OTPVerified("verified")
	m.Delivered(true)
	m.Delivered(false)
	m.ObserveHTTP("GET", "/api/rfbs", 200, 15*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("Step1_Details", "Step2_Pricing")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.guardFailures.WithLabelValues("Step2_Pricing", "final_amount")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.otpResults.WithLabelValues("mismatch")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("error")))
	require.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New("rfbmarket", reg)
	require.Panics(t, func() { New("rfbmarket", reg) })
}
