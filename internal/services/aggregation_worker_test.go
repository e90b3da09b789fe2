package services

import (
	"testing"
	"time"

	"mindpulse-be/internal/models"
)

func TestPeriodWindow(t *testing.T) {
	at := time.Date(2026, 8, 30, 14, 35, 12, 0, time.UTC) // a Sunday

	tests := []struct {
		name       string
		periodType models.PeriodType
		wantStart  time.Time
		wantEnd    time.Time
	}{
		{
			name:       "hourly truncates to the hour",
			periodType: models.PeriodHourly,
			wantStart:  time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC),
			wantEnd:    time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC),
		},
		{
			name:       "daily truncates to midnight",
			periodType: models.PeriodDaily,
			wantStart:  time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
			wantEnd:    time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "weekly starts on Monday",
			periodType: models.PeriodWeekly,
			wantStart:  time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
			wantEnd:    time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "monthly starts on the first",
			periodType: models.PeriodMonthly,
			wantStart:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PeriodWindow(at, tt.periodType)
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("PeriodWindow() = [%v, %v), want [%v, %v)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPeriodWindowMondayIsWeekStart(t *testing.T) {
	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	start, _ := PeriodWindow(monday, models.PeriodWeekly)
	if !start.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week containing a Monday should start that Monday, got %v", start)
	}
}

func TestPeriodWindowsAreContiguous(t *testing.T) {
	at := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	for _, pt := range []models.PeriodType{models.PeriodHourly, models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly} {
		start, end := PeriodWindow(at, pt)
		prevStart, prevEnd := PeriodWindow(start.Add(-time.Second), pt)
		if !prevEnd.Equal(start) {
			t.Errorf("%s: previous window [%v, %v) does not abut [%v, %v)", pt, prevStart, prevEnd, start, end)
		}
	}
}
