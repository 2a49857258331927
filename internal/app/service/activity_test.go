package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xqian/apparel-crm-backend/internal/app/model"
)

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

func TestClassifyActivity_NeverOrdered(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, model.ActivityDeeplyInactive, ClassifyActivity(nil, 0, now))
}

func TestClassifyActivity_HighlyActive(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	got := ClassifyActivity(daysAgo(now, 5), 2, now)
	assert.Equal(t, model.ActivityHighlyActive, got)

	got = ClassifyActivity(daysAgo(now, 5), 3, now)
	assert.Equal(t, model.ActivityHighlyActive, got)
}

func TestClassifyActivity_SingleRecentOrder(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	got := ClassifyActivity(daysAgo(now, 5), 1, now)
	assert.Equal(t, model.ActivityActive, got)
}

func TestClassifyActivity_Tiers(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		days int
		want model.ActivityLevel
	}{
		{1, model.ActivityActive},
		{30, model.ActivityActive},
		{31, model.ActivitySlightlyInactive},
		{90, model.ActivitySlightlyInactive},
		{91, model.ActivityModeratelyInactive},
		{180, model.ActivityModeratelyInactive},
		{181, model.ActivityHeavilyInactive},
		{365, model.ActivityHeavilyInactive},
		{366, model.ActivityDeeplyInactive},
		{1000, model.ActivityDeeplyInactive},
	}

	for _, tc := range cases {
		got := ClassifyActivity(daysAgo(now, tc.days), 0, now)
		assert.Equal(t, tc.want, got, "days=%d", tc.days)
	}
}

func TestClassifyActivity_BoundaryFavorsActiveTier(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	// Exactly 30 days, to the second
	last := now.AddDate(0, 0, -30)
	assert.Equal(t, model.ActivityActive, ClassifyActivity(&last, 1, now))

	// 30 days and 12 hours is still day 30 after truncation
	past := last.Add(-12 * time.Hour)
	assert.Equal(t, model.ActivityActive, ClassifyActivity(&past, 1, now))

	// Day 31 falls out of the active window
	past = now.AddDate(0, 0, -31)
	assert.Equal(t, model.ActivitySlightlyInactive, ClassifyActivity(&past, 0, now))
}

func TestClassifyActivity_FrequencyIgnoredOutsideActiveWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	// A stale last order keeps the member inactive regardless of the
	// trailing-month count handed in.
	got := ClassifyActivity(daysAgo(now, 400), 2, now)
	assert.Equal(t, model.ActivityDeeplyInactive, got)

	got = ClassifyActivity(daysAgo(now, 60), 3, now)
	assert.Equal(t, model.ActivitySlightlyInactive, got)
}
