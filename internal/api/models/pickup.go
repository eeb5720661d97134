// Package models defines the request and response shapes of the CurbCycle
// API.
package models

import (
	"fmt"
	"time"

	"github.com/curbcycle/curbcycle/internal/schedule"
)

// dateLayout is the wire format for calendar dates. No time-of-day is ever
// exposed.
const dateLayout = "2006-01-02"

// Disruption describes one rule that contributed delay to a pickup.
type Disruption struct {
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	DelayDays int    `json:"delayDays"`
	Date      string `json:"date,omitempty"`
	AlertKind string `json:"alertKind,omitempty"`
}

// NextPickup is the response for GET /v1/pickups/next.
type NextPickup struct {
	Date        string       `json:"date"`
	ServiceDay  string       `json:"serviceDay"`
	DaysUntil   int          `json:"daysUntil"`
	Disruptions []Disruption `json:"disruptions"`
}

// PickupEvent is a single all-day calendar event. End is exclusive, per
// calendar convention for all-day events.
type PickupEvent struct {
	UID         string       `json:"uid"`
	Summary     string       `json:"summary"`
	Start       string       `json:"start"`
	End         string       `json:"end"`
	Description string       `json:"description,omitempty"`
	Disruptions []Disruption `json:"disruptions,omitempty"`
}

// Calendar is the response for GET /v1/pickups/calendar.
type Calendar struct {
	Events []PickupEvent `json:"events"`
}

// Schedule is the response for GET /v1/schedule.
type Schedule struct {
	ZipCode     string      `json:"zipCode"`
	ServiceDay  string      `json:"serviceDay"`
	County      string      `json:"county,omitempty"`
	State       string      `json:"state,omitempty"`
	Alert       *Disruption `json:"alert,omitempty"`
	LastRefresh *time.Time  `json:"lastRefresh,omitempty"`
}

// RefreshResult is the response for POST /v1/refresh.
type RefreshResult struct {
	Status      string    `json:"status"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// NewDisruption maps a resolver rule to its wire shape.
func NewDisruption(r schedule.DisruptionRule) Disruption {
	d := Disruption{
		Kind:      string(r.Kind),
		Label:     r.Label,
		DelayDays: r.DelayDays,
		AlertKind: string(r.AlertKind),
	}
	if r.Kind == schedule.RuleKindHolidayClosure {
		d.DelayDays = 1
		d.AlertKind = ""
	}
	if !r.AnchorDate.IsZero() {
		d.Date = r.AnchorDate.Format(dateLayout)
	}
	return d
}

// NewNextPickup maps a resolved pickup to its wire shape.
func NewNextPickup(p *schedule.ResolvedPickup, cfg schedule.ScheduleConfig, from time.Time) NextPickup {
	disruptions := make([]Disruption, 0, len(p.Applied))
	for _, r := range p.Applied {
		disruptions = append(disruptions, NewDisruption(r))
	}
	return NextPickup{
		Date:        p.Date.Format(dateLayout),
		ServiceDay:  cfg.ServiceDay,
		DaysUntil:   int(p.Date.Sub(schedule.Midnight(from)).Hours() / 24),
		Disruptions: disruptions,
	}
}

// NewPickupEvent maps a resolved pickup to a calendar event.
func NewPickupEvent(p schedule.ResolvedPickup, cfg schedule.ScheduleConfig) PickupEvent {
	var disruptions []Disruption
	for _, r := range p.Applied {
		disruptions = append(disruptions, NewDisruption(r))
	}
	return PickupEvent{
		UID:         fmt.Sprintf("pickup_%s_%s", p.Date.Format(dateLayout), cfg.ZipCode),
		Summary:     "Waste pickup",
		Start:       p.Date.Format(dateLayout),
		End:         p.Date.AddDate(0, 0, 1).Format(dateLayout),
		Description: fmt.Sprintf("Service day: %s", cfg.ServiceDay),
		Disruptions: disruptions,
	}
}
