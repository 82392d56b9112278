package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.TokenAcquisitions.WithLabelValues(OutcomeCached).Inc()
	m.CatalogFetches.WithLabelValues(OutcomeFetched).Add(2)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			got[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, got["cpwidget_token_acquisitions_total"])
	assert.Equal(t, 2.0, got["cpwidget_catalog_fetches_total"])
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = Nop()
		_ = Nop()
	})
}
