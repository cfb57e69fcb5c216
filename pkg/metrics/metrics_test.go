package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/mp3.go/pkg/yx5300"
)

func gatherValues(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "{" + lp.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			}
		}
	}
	return values
}

func TestPlayerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlayerMetrics(reg)
	var obs yx5300.Observer = m

	obs.RequestSent(yx5300.NewRequest(yx5300.CmdSetVolume, 0, 20))
	obs.RequestSent(yx5300.NewRequest(yx5300.CmdQueryVolume, 0, 0))
	obs.RequestSent(yx5300.NewRequest(yx5300.CmdQueryVolume, 0, 0))
	obs.StatusReported(yx5300.Status{Code: yx5300.StatusAckOK})
	obs.StatusReported(yx5300.Status{Code: yx5300.StatusVolume, Data: 20})
	obs.StatusReported(yx5300.Status{Code: yx5300.StatusTimeout})
	obs.BytesDiscarded(3)
	obs.BytesDiscarded(2)

	values := gatherValues(t, reg)
	require.Equal(t, 1.0, values["mp3_requests_total{set-volume}"])
	require.Equal(t, 2.0, values["mp3_requests_total{query-volume}"])
	require.Equal(t, 1.0, values["mp3_statuses_total{ack}"])
	require.Equal(t, 1.0, values["mp3_statuses_total{timeout}"])
	require.Equal(t, 5.0, values["mp3_discarded_bytes_total"])
	require.Equal(t, 20.0, values["mp3_volume"])
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	NewPlayerMetrics(reg).BytesDiscarded(1)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "mp3_discarded_bytes_total 1"))
	require.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}
