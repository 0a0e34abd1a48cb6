package icron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTriggerInfo(t *testing.T) {
	ref := time.Date(2024, 1, 1, 10, 7, 0, 0, time.UTC)

	info, err := GetTriggerInfo("*/15 * * * *", ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC), info.Next)
	assert.Equal(t, 15*time.Minute, info.Interval)
	assert.Equal(t, 8*time.Minute, info.TimeUntilNext)
}

func TestGetTriggerInfo_Descriptor(t *testing.T) {
	ref := time.Date(2024, 1, 1, 10, 7, 0, 0, time.UTC)

	info, err := GetTriggerInfo("@daily", ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), info.Next)
	assert.Equal(t, 24*time.Hour, info.Interval)
}

func TestGetTriggerInfo_Invalid(t *testing.T) {
	_, err := GetTriggerInfo("not a cron", time.Now())
	require.Error(t, err)
}
