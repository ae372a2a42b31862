package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/2beens/trackfit/internal/telemetry/metrics"
)

func TestPanicRecovery(t *testing.T) {
	tests := []struct {
		name       string
		panics     bool
		wantStatus int
		wantPanics float64
	}{
		{name: "no panic", wantStatus: http.StatusOK},
		{name: "panic", panics: true, wantStatus: http.StatusInternalServerError, wantPanics: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metricsManager := metrics.NewTestManager()
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
				if tt.panics {
					panic("bad entry")
				}
			})

			rr := httptest.NewRecorder()
			// recovery runs inside LogRequest in the server chain
			LogRequest()(PanicRecovery(metricsManager)(next)).ServeHTTP(rr, httptest.NewRequest("POST", "/entries", nil))

			assert.True(t, called)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
			assert.Equal(t, tt.wantPanics, testutil.ToFloat64(metricsManager.CounterHandleRequestPanic))
		})
	}
}

func TestPanicRecovery_AbortHandlerRepanics(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		PanicRecovery(nil)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	})
}
