package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func istDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, ServiceZone)
}

func TestComputeStatusMidPeriod(t *testing.T) {
	start := istDate(2024, time.January, 1)
	duration := 7

	status := ComputeStatus(&start, &duration, true, istDate(2024, time.January, 5))

	require.NotNil(t, status.DaysLeft)
	assert.Equal(t, 3, *status.DaysLeft)
	assert.False(t, status.Blocked)
	assert.True(t, status.ExpiringSoon)
}

func TestComputeStatusExpired(t *testing.T) {
	start := istDate(2024, time.January, 1)
	duration := 7

	status := ComputeStatus(&start, &duration, true, istDate(2024, time.January, 9))

	require.NotNil(t, status.DaysLeft)
	assert.Equal(t, 0, *status.DaysLeft)
	assert.True(t, status.Blocked)
	assert.False(t, status.ExpiringSoon, "expired clients are not expiring, they are expired")
}

func TestComputeStatusExpiredIgnoresManualToggle(t *testing.T) {
	start := istDate(2024, time.January, 1)
	duration := 7

	status := ComputeStatus(&start, &duration, true, istDate(2024, time.February, 1))
	assert.True(t, status.Blocked)
	assert.Equal(t, 0, *status.DaysLeft)

	status = ComputeStatus(&start, &duration, false, istDate(2024, time.February, 1))
	assert.True(t, status.Blocked)
}

func TestComputeStatusBeforeStartShowsFullDuration(t *testing.T) {
	start := istDate(2024, time.March, 10)
	duration := 30

	status := ComputeStatus(&start, &duration, true, istDate(2024, time.March, 1))

	require.NotNil(t, status.DaysLeft)
	assert.Equal(t, 30, *status.DaysLeft)
	assert.False(t, status.Blocked)
	assert.False(t, status.ExpiringSoon)
}

func TestComputeStatusExpiresToday(t *testing.T) {
	start := istDate(2024, time.January, 1)
	duration := 7

	// On the end day itself the countdown reads zero but the service is
	// still live until the day rolls over.
	status := ComputeStatus(&start, &duration, true, istDate(2024, time.January, 8))

	require.NotNil(t, status.DaysLeft)
	assert.Equal(t, 0, *status.DaysLeft)
	assert.False(t, status.Blocked)
	assert.True(t, status.ExpiringSoon)
}

func TestComputeStatusNoPeriod(t *testing.T) {
	status := ComputeStatus(nil, nil, true, istDate(2024, time.January, 5))
	assert.Nil(t, status.DaysLeft)
	assert.False(t, status.Blocked)
	assert.False(t, status.ExpiringSoon)

	status = ComputeStatus(nil, nil, false, istDate(2024, time.January, 5))
	assert.Nil(t, status.DaysLeft)
	assert.True(t, status.Blocked, "without a period, blocked reflects is_active alone")
}

func TestComputeStatusManualOff(t *testing.T) {
	start := istDate(2024, time.January, 1)
	duration := 30

	status := ComputeStatus(&start, &duration, false, istDate(2024, time.January, 5))
	assert.True(t, status.Blocked)
	assert.False(t, status.ExpiringSoon)
}

func TestComputeStatusDayTruncationAcrossZones(t *testing.T) {
	start := istDate(2024, time.January, 1)
	duration := 7

	// 23:30 UTC on Jan 4 is already 05:00 Jan 5 in IST; the countdown must
	// use the IST calendar day.
	now := time.Date(2024, time.January, 4, 23, 30, 0, 0, time.UTC)
	status := ComputeStatus(&start, &duration, true, now)

	require.NotNil(t, status.DaysLeft)
	assert.Equal(t, 3, *status.DaysLeft)
}

func TestComputeStatusNeverNegative(t *testing.T) {
	start := istDate(2020, time.June, 1)
	duration := 10

	for _, day := range []int{12, 30, 365} {
		status := ComputeStatus(&start, &duration, true, start.AddDate(0, 0, day))
		require.NotNil(t, status.DaysLeft)
		assert.GreaterOrEqual(t, *status.DaysLeft, 0)
	}
}
