// Package worker provides background schedule refresh processing for
// CurbCycle.
package worker

import (
	"fmt"
	"strings"
	"time"
)

// HouseholdTarget identifies one household whose schedule the worker keeps
// fresh.
type HouseholdTarget struct {
	// Name is a human-readable label for logs.
	Name string

	// ZipCode identifies the household's service area.
	ZipCode string

	// ServiceDay is the weekday collection normally occurs on.
	ServiceDay string
}

// RefreshConfig holds configuration for the schedule refresh job.
type RefreshConfig struct {
	// Targets are the households to refresh. If empty, uses
	// DefaultRefreshTargets.
	Targets []HouseholdTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3.
	Concurrency int

	// Timeout is the timeout for each household's refresh. Default: 30
	// seconds.
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:     DefaultRefreshTargets(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// DefaultRefreshTargets returns the default refresh targets, one household
// per major service area.
func DefaultRefreshTargets() []HouseholdTarget {
	return []HouseholdTarget{
		{Name: "Cincinnati", ZipCode: "45202", ServiceDay: "Thursday"},
		{Name: "Cleveland", ZipCode: "44102", ServiceDay: "Monday"},
		{Name: "Dayton", ZipCode: "45402", ServiceDay: "Wednesday"},
		{Name: "Columbus", ZipCode: "43215", ServiceDay: "Tuesday"},
		{Name: "Georgetown", ZipCode: "40324", ServiceDay: "Friday"},
	}
}

// ParseTargets parses a comma-separated list of zip:weekday pairs, e.g.
// "45202:Thursday,44102:Monday". Names default to the zip code.
func ParseTargets(raw string) ([]HouseholdTarget, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var targets []HouseholdTarget
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid refresh target %q, want zip:weekday", pair)
		}
		targets = append(targets, HouseholdTarget{
			Name:       parts[0],
			ZipCode:    parts[0],
			ServiceDay: parts[1],
		})
	}
	return targets, nil
}
