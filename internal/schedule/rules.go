// Package schedule contains the pickup data model and the date resolver.
//
// The resolver is pure: it operates on an immutable ScheduleConfig and a
// rule set produced by the extract package, performs no I/O, and holds no
// state between calls. All dates are calendar dates normalized to midnight
// UTC; there is no time-of-day or timezone arithmetic anywhere in this
// package.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Resolution errors.
var (
	// ErrInvalidServiceDay is returned when a ScheduleConfig carries a
	// service day that is not one of the seven weekday names. It is the
	// only fatal input to the resolver.
	ErrInvalidServiceDay = errors.New("unrecognized service day")
)

// RuleKind identifies the source of a disruption rule.
type RuleKind string

// Disruption rule kinds.
const (
	RuleKindHolidayClosure RuleKind = "holiday_closure"
	RuleKindRegionalAlert  RuleKind = "regional_alert"
)

// AlertKind classifies the announcement text of a regional alert.
type AlertKind string

// Regional alert classifications.
const (
	AlertOneDayDelay AlertKind = "one_day_delay"
	AlertNoService   AlertKind = "no_service"
	AlertConditional AlertKind = "conditional"
	AlertNone        AlertKind = "none"
)

// Region identifies the county and state a household belongs to. It selects
// which regional alerts apply.
type Region struct {
	County string
	State  string
}

func (r Region) String() string {
	return fmt.Sprintf("%s County, %s", r.County, r.State)
}

// DisruptionRule is a normalized delay record derived from a single
// announcement, regardless of whether it came from the holiday schedule or
// the service alerts page.
type DisruptionRule struct {
	Kind RuleKind

	// Label is a human-readable name for diagnostics. It carries no logic.
	Label string

	// CausesDelay reports whether this rule can shift a pickup. When false
	// the resolver ignores the rule entirely, including DelayDays.
	CausesDelay bool

	// DelayDays is how many days a pickup is pushed when the rule applies.
	// Holiday closures always imply one day; alerts carry an explicit
	// count, possibly zero. Never negative.
	DelayDays int

	// AnchorDate is the holiday's own date. The zero value means the date
	// could not be parsed; such rules never shift a pickup.
	AnchorDate time.Time

	// ApplicableWeek is the Monday-anchored start of the week an alert is
	// scoped to. The zero value means the alert applies regardless of week.
	ApplicableWeek time.Time

	// AlertKind is set for regional alerts only.
	AlertKind AlertKind

	// Notes holds exception and footnote lines attached for diagnostics.
	Notes []string

	// RawText retains the announcement text the rule was derived from.
	RawText string
}

// ResolvedPickup is a single resolved collection date together with the
// rules that contributed delay to it, in the order they were applied.
type ResolvedPickup struct {
	Date    time.Time
	Applied []DisruptionRule
}

// ScheduleConfig is the immutable per-household configuration. It is
// created once at setup time and never mutated.
type ScheduleConfig struct {
	// ServiceDay is the weekday collection normally occurs on, e.g.
	// "Thursday".
	ServiceDay string

	// Region selects which regional alerts are relevant. May be the zero
	// value when the household's county could not be resolved; alerts are
	// then skipped.
	Region Region

	// ZipCode is retained for identification and event UIDs.
	ZipCode string
}

var serviceDays = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
	"Sunday":    time.Sunday,
}

// ParseServiceDay maps a weekday name to its time.Weekday. Names are
// case-sensitive, matching the configuration surface.
func ParseServiceDay(name string) (time.Weekday, error) {
	day, ok := serviceDays[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidServiceDay, name)
	}
	return day, nil
}

// Date builds a calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Midnight truncates t to its calendar date at midnight UTC.
func Midnight(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// WeekStart returns the Monday of the week containing d.
func WeekStart(d time.Time) time.Time {
	d = Midnight(d)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
