package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSnapshot(t *testing.T) {
	SetSnapshot(3, 1, true, false)
	assert.Equal(t, 3.0, testutil.ToFloat64(UserEvents.WithLabelValues("deposited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(UserEvents.WithLabelValues("withdrawn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(DepositLocked))
	assert.Equal(t, 0.0, testutil.ToFloat64(WithdrawEligible))

	SetSnapshot(3, 2, false, true)
	assert.Equal(t, 0.0, testutil.ToFloat64(DepositLocked))
	assert.Equal(t, 1.0, testutil.ToFloat64(WithdrawEligible))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Refreshes.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mixer_refreshes_total")
	assert.Contains(t, string(body), "mixer_deposit_locked")
}
