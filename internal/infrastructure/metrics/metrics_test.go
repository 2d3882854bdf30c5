package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	req := require.New(t)
	m := New()

	m.TokenVerified(ResultOK)
	m.TokenVerified(ResultExpired)
	m.TokenVerified(ResultExpired)
	m.Admission(AdmissionFull)
	m.ObserveHTTPRequest("GET", "/api/health", 200, 5*time.Millisecond)

	req.Equal(1.0, testutil.ToFloat64(m.tokenVerifications.WithLabelValues(ResultOK)))
	req.Equal(2.0, testutil.ToFloat64(m.tokenVerifications.WithLabelValues(ResultExpired)))
	req.Equal(1.0, testutil.ToFloat64(m.admissions.WithLabelValues(AdmissionFull)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	req.Equal(200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	req.NoError(err)
	req.Contains(string(body), `qr_token_verifications_total{result="expired"} 2`)
	req.Contains(string(body), `gym_http_requests_total{method="GET",route="/api/health",status="200"} 1`)

	// independent registries
	other := New()
	req.Equal(0.0, testutil.ToFloat64(other.tokenVerifications.WithLabelValues(ResultOK)))
}
