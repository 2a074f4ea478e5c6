package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCascadeStep(t *testing.T) {
	before := testutil.ToFloat64(cascadeSteps.WithLabelValues("bond_details", "failed"))
	RecordCascadeStep("bond_details", false)
	assert.Equal(t, before+1, testutil.ToFloat64(cascadeSteps.WithLabelValues("bond_details", "failed")))
}

func TestRecordStaleWrite(t *testing.T) {
	before := testutil.ToFloat64(staleWrites.WithLabelValues("balance"))
	RecordStaleWrite("balance")
	assert.Equal(t, before+1, testutil.ToFloat64(staleWrites.WithLabelValues("balance")))
}

func TestHandlerExposesWalletMetrics(t *testing.T) {
	RecordCascadeStarted()
	RecordBridgeCall("get_balance", true, 10*time.Millisecond)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body := rr.Body.String()
	assert.Contains(t, body, "wallet_cascade_started_total")
	assert.Contains(t, body, "wallet_bridge_request_duration_seconds")
}
