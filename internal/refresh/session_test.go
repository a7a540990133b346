package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func nyTime(t *testing.T, weekday time.Weekday, hour, min int) time.Time {
	t.Helper()
	// 2026-08-03 is a Monday
	base := time.Date(2026, 8, 3, hour, min, 0, 0, marketTZ)
	return base.AddDate(0, 0, int(weekday-time.Monday))
}

func TestSessionAt(t *testing.T) {
	tests := []struct {
		name    string
		weekday time.Weekday
		hour    int
		min     int
		want    Session
	}{
		{"market open", time.Monday, 9, 30, SessionRegular},
		{"midday", time.Wednesday, 12, 0, SessionRegular},
		{"just before close", time.Friday, 15, 59, SessionRegular},
		{"at close", time.Monday, 16, 0, SessionExtended},
		{"pre-market", time.Tuesday, 4, 0, SessionExtended},
		{"just before open", time.Tuesday, 9, 29, SessionExtended},
		{"after-hours", time.Thursday, 19, 59, SessionExtended},
		{"evening", time.Monday, 20, 0, SessionOvernight},
		{"small hours", time.Tuesday, 2, 30, SessionOvernight},
		{"saturday", time.Saturday, 12, 0, SessionWeekend},
		{"sunday", time.Sunday, 12, 0, SessionWeekend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionAt(nyTime(t, tt.weekday, tt.hour, tt.min)))
		})
	}
}

func TestSessionIntervals(t *testing.T) {
	assert.Equal(t, 5*time.Minute, SessionRegular.Interval())
	assert.Equal(t, 10*time.Minute, SessionExtended.Interval())
	assert.Equal(t, 15*time.Minute, SessionWeekend.Interval())
	assert.Equal(t, 20*time.Minute, SessionOvernight.Interval())
}
