package schedule

import (
	"time"
)

// NextPickup computes the next effective pickup date on or after from.
//
// The base candidate is the nearest occurrence of the service weekday (from
// itself counts). Regional alert delays are applied first and stack;
// holiday closure delays are applied strictly afterwards, one day per
// qualifying holiday, re-evaluating the week window after each shift.
// Before returning, the pickup from earlier in from's week is re-resolved
// under the same rules: if its delayed date lands on or after from, that
// date is still the current one and is returned instead.
//
// ErrInvalidServiceDay is the only failure; missing anchor dates, empty
// rule sets and the like simply contribute no delay.
func NextPickup(cfg ScheduleConfig, rules []DisruptionRule, from time.Time) (*ResolvedPickup, error) {
	serviceDay, err := ParseServiceDay(cfg.ServiceDay)
	if err != nil {
		return nil, err
	}
	from = Midnight(from)

	// Lookback: a pickup earlier in this week may have been delayed into
	// the present or future.
	if back := weekdayIndex(from.Weekday()) - weekdayIndex(serviceDay); back > 0 {
		recent := applyDelays(from.AddDate(0, 0, -back), rules)
		if !recent.Date.Before(from) {
			return recent, nil
		}
	}

	ahead := (weekdayIndex(serviceDay) - weekdayIndex(from.Weekday()) + 7) % 7
	return applyDelays(from.AddDate(0, 0, ahead), rules), nil
}

// PickupsBetween enumerates every effective pickup date in [start, end],
// in order. The sequence is strictly increasing and duplicate-free.
func PickupsBetween(cfg ScheduleConfig, rules []DisruptionRule, start, end time.Time) ([]ResolvedPickup, error) {
	if _, err := ParseServiceDay(cfg.ServiceDay); err != nil {
		return nil, err
	}

	var pickups []ResolvedPickup
	cur := Midnight(start)
	end = Midnight(end)
	for !cur.After(end) {
		p, err := NextPickup(cfg, rules, cur)
		if err != nil {
			return nil, err
		}
		if p.Date.After(end) {
			break
		}
		if n := len(pickups); n == 0 || p.Date.After(pickups[n-1].Date) {
			pickups = append(pickups, *p)
		}
		cur = p.Date.AddDate(0, 0, 1)
	}
	return pickups, nil
}

// applyDelays runs the alert pass and then the holiday pass over candidate,
// collecting the contributing rules in application order.
func applyDelays(candidate time.Time, rules []DisruptionRule) *ResolvedPickup {
	var applied []DisruptionRule

	// Alerts are selected against the week of the base candidate and their
	// day counts stack independently.
	baseWeek := WeekStart(candidate)
	for _, r := range rules {
		if r.Kind != RuleKindRegionalAlert || !r.CausesDelay || r.DelayDays <= 0 {
			continue
		}
		if !r.ApplicableWeek.IsZero() && !r.ApplicableWeek.Equal(baseWeek) {
			continue
		}
		candidate = candidate.AddDate(0, 0, r.DelayDays)
		applied = append(applied, r)
	}

	// Each qualifying holiday pushes the candidate one day. The week
	// window is recomputed after every shift: a shift can move the
	// candidate into a week where a later holiday newly qualifies.
	for _, r := range rules {
		if r.Kind != RuleKindHolidayClosure || !r.CausesDelay || r.AnchorDate.IsZero() {
			continue
		}
		weekStart := WeekStart(candidate)
		weekEnd := weekStart.AddDate(0, 0, 6)
		if r.AnchorDate.Before(weekStart) || r.AnchorDate.After(weekEnd) {
			continue
		}
		if r.AnchorDate.After(candidate) {
			continue
		}
		candidate = candidate.AddDate(0, 0, 1)
		applied = append(applied, r)
	}

	return &ResolvedPickup{Date: candidate, Applied: applied}
}

// weekdayIndex numbers weekdays Monday=0 through Sunday=6, matching the
// Monday-anchored week used everywhere in this package.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
