package repository

import (
	"testing"
	"time"

	"fieldcrm_backend/internal/leads/domain"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestDueForFollowUp(t *testing.T) {
	today := time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name      string
		status    domain.Status
		scheduled *time.Time
		want      bool
	}{
		{"scheduled today in hold", domain.StatusHold, datePtr(2026, 8, 31), true},
		{"scheduled today in contacted", domain.StatusContacted, datePtr(2026, 8, 31), true},
		{"ringing without a schedule", domain.StatusRinging, nil, true},
		{"ringing with a future schedule", domain.StatusRinging, datePtr(2026, 9, 10), true},
		{"overdue in new", domain.StatusNew, datePtr(2026, 8, 20), true},
		{"overdue in hold", domain.StatusHold, datePtr(2026, 8, 30), true},
		{"overdue in contacted", domain.StatusContacted, datePtr(2026, 8, 20), false},
		{"overdue in declined", domain.StatusDeclined, datePtr(2026, 8, 20), false},
		{"scheduled tomorrow in hold", domain.StatusHold, datePtr(2026, 9, 1), false},
		{"no schedule in new", domain.StatusNew, nil, false},
	}

	for _, tc := range cases {
		lead := Lead{Status: tc.status, ScheduledCallDate: tc.scheduled}
		if got := DueForFollowUp(lead, today); got != tc.want {
			t.Errorf("%s: due = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// A schedule for the same calendar day counts as due regardless of the
// time-of-day on either side of the comparison.
func TestDueForFollowUpIgnoresTimeOfDay(t *testing.T) {
	lateEvening := time.Date(2026, 8, 31, 23, 55, 0, 0, time.UTC)
	lead := Lead{Status: domain.StatusHold, ScheduledCallDate: datePtr(2026, 8, 31)}
	if !DueForFollowUp(lead, lateEvening) {
		t.Errorf("same-day schedule not due at a later time of day")
	}
}
