package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmbridge/pkg/datum"
	"github.com/srediag/shmbridge/pkg/shm"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestMetrics_Observe(t *testing.T) {
	m, err := New(prometheus.NewRegistry(), nil)
	require.NoError(t, err)

	m.ObserveTransfer(datum.DirectionWrite, datum.KindBytes, 10)
	m.ObserveTransfer(datum.DirectionWrite, datum.KindBytes, 5)
	m.ObserveFailure(datum.DirectionRead, datum.KindString)

	assert.Equal(t, 2.0, counterValue(t, m.transfers.WithLabelValues("write", "bytes")))
	assert.Equal(t, 15.0, counterValue(t, m.bytes.WithLabelValues("write", "bytes")))
	assert.Equal(t, 1.0, counterValue(t, m.failures.WithLabelValues("read", "string")))
	assert.Equal(t, 0.0, counterValue(t, m.transfers.WithLabelValues("read", "bytes")))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, nil)
	require.NoError(t, err)
	_, err = New(reg, nil)
	assert.Error(t, err)
}

func TestMetrics_WithBridge(t *testing.T) {
	reg := prometheus.NewRegistry()
	mgr, err := shm.NewManager(shm.NewMemoryAccessor())
	require.NoError(t, err)
	defer mgr.Close()

	m, err := New(reg, mgr.Len)
	require.NoError(t, err)
	bridge := datum.NewBridge(mgr, datum.WithRecorder(m), datum.WithTransferWindow(0, 1<<10))

	desc, err := bridge.Write(datum.NewString("hello"))
	require.NoError(t, err)
	_, err = bridge.Read(desc)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch f.GetType() {
			case dto.MetricType_COUNTER:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				values[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["shmbridge_transfers_total"])
	assert.Equal(t, 10.0, values["shmbridge_transfer_bytes_total"])
	assert.Equal(t, 1.0, values["shmbridge_regions"])
}

func TestRegisterFreeSpace(t *testing.T) {
	reg := prometheus.NewRegistry()
	free := func(dir string) (uint64, error) {
		if dir == "/missing" {
			return 0, errors.New("no such directory")
		}
		return 4096, nil
	}
	require.NoError(t, RegisterFreeSpace(reg, []string{"/dev/shm", "/missing", "/dev/shm"}, free))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "shmbridge_dir_free_bytes", families[0].GetName())
	got := map[string]float64{}
	for _, m := range families[0].GetMetric() {
		got[m.GetLabel()[0].GetValue()] = m.GetGauge().GetValue()
	}
	assert.Len(t, got, 2)
	assert.Equal(t, 4096.0, got["/dev/shm"])
	assert.True(t, math.IsNaN(got["/missing"]))
}
