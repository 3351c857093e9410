package services

import "time"

// ServiceZone is the fixed civil timezone all service-period math runs in.
// Subscriptions are sold in whole IST business days, so status must be
// pinned to IST day boundaries rather than flipping mid-day on instants.
var ServiceZone = time.FixedZone("IST", 5*3600+30*60)

// ExpiringSoonDays is the reminder window before a period ends.
const ExpiringSoonDays = 7

// PeriodStatus is the derived, never-stored service state of a client.
type PeriodStatus struct {
	DaysLeft     *int `json:"days_left"`
	Blocked      bool `json:"blocked"`
	ExpiringSoon bool `json:"expiring_soon"`
}

// truncateToDay returns midnight of t in the service zone.
func truncateToDay(t time.Time) time.Time {
	local := t.In(ServiceZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ServiceZone)
}

// ComputeStatus turns (start date, duration, manual toggle, now) into the
// derived service state. Both now and startDate are truncated to IST
// midnight before any arithmetic so comparisons never straddle midnight in
// different zones.
//
// Without a start date or duration no expiry claim can be made: DaysLeft
// is nil and Blocked reflects the manual toggle alone. Before the period
// begins the full duration is reported, not a negative days-until-start.
// After expiry the countdown clamps at zero.
func ComputeStatus(startDate *time.Time, durationDays *int, isActive bool, now time.Time) PeriodStatus {
	if startDate == nil || durationDays == nil {
		return PeriodStatus{Blocked: !isActive}
	}

	today := truncateToDay(now)
	start := truncateToDay(*startDate)
	end := start.AddDate(0, 0, *durationDays)

	var daysLeft int
	if today.Before(start) {
		daysLeft = *durationDays
	} else {
		daysLeft = int((end.Sub(today) + 24*time.Hour - 1) / (24 * time.Hour))
		if daysLeft < 0 {
			daysLeft = 0
		}
	}

	blocked := !isActive || today.After(end)

	return PeriodStatus{
		DaysLeft:     &daysLeft,
		Blocked:      blocked,
		ExpiringSoon: daysLeft <= ExpiringSoonDays && !blocked,
	}
}
