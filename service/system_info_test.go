package service

import (
	"testing"

	"github.com/carebridge/compliance-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemInfoDefaults(t *testing.T) {
	svc, err := NewSystemInfoService()
	require.NoError(t, err)

	assert.Equal(t, ":8080", svc.GetListenAddress())
	assert.Equal(t, view.DefaultBandThresholds(), svc.GetBandThresholds())
	assert.Equal(t, 365, svc.GetRetentionDays())
}

func TestSystemInfoThresholdOverrides(t *testing.T) {
	t.Setenv(SCORE_EXCELLENT_THRESHOLD, "90")
	t.Setenv(SCORE_GOOD_THRESHOLD, "75")
	t.Setenv(SCORE_ACCEPTABLE_THRESHOLD, "50")

	svc, err := NewSystemInfoService()
	require.NoError(t, err)

	assert.Equal(t, view.BandThresholds{Excellent: 90, Good: 75, Acceptable: 50}, svc.GetBandThresholds())
}

func TestSystemInfoThresholdOrderingEnforced(t *testing.T) {
	t.Setenv(SCORE_GOOD_THRESHOLD, "99")

	_, err := NewSystemInfoService()
	require.Error(t, err)
}

func TestSystemInfoInvalidThresholdValue(t *testing.T) {
	t.Setenv(SCORE_EXCELLENT_THRESHOLD, "not-a-number")

	_, err := NewSystemInfoService()
	require.Error(t, err)
}

func TestSystemInfoRetentionOverride(t *testing.T) {
	t.Setenv(RETENTION_DAYS, "90")

	svc, err := NewSystemInfoService()
	require.NoError(t, err)

	assert.Equal(t, 90, svc.GetRetentionDays())
}
