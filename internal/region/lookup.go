// Package region resolves a zip code to the county and state used to
// select relevant service alerts.
//
// Lookup is a pluggable capability with two strategies: a queryable
// reference dataset in Postgres and a small static fallback table. A chain
// selects by availability so an unavailable dataset degrades the lookup
// instead of failing the whole integration.
package region

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/schedule"
)

// Lookup errors.
var (
	// ErrNotFound is returned when a zip code is not in the dataset.
	ErrNotFound = errors.New("zip code not found")
)

// Lookup resolves a zip code to its county and state.
type Lookup interface {
	County(ctx context.Context, zipCode string) (schedule.Region, error)
}

// fallbackZips covers common zip codes in the hauler's service area, used
// when the reference dataset is unavailable.
var fallbackZips = map[string]schedule.Region{
	"45202": {County: "Hamilton", State: "OH"},
	"44102": {County: "Cuyahoga", State: "OH"},
	"45402": {County: "Montgomery", State: "OH"},
	"43215": {County: "Franklin", State: "OH"},
	"40324": {County: "Scott", State: "KY"},
	"47201": {County: "Clark", State: "IN"},
}

// StaticLookup answers from a fixed in-memory table.
type StaticLookup struct {
	table map[string]schedule.Region
}

// NewStaticLookup creates the fallback lookup.
func NewStaticLookup() *StaticLookup {
	return &StaticLookup{table: fallbackZips}
}

// County implements Lookup.
func (l *StaticLookup) County(_ context.Context, zipCode string) (schedule.Region, error) {
	r, ok := l.table[zipCode]
	if !ok {
		return schedule.Region{}, ErrNotFound
	}
	return r, nil
}

// ChainLookup tries each lookup in order. A failing strategy (other than a
// plain miss) is logged and skipped, never surfaced.
type ChainLookup struct {
	lookups []Lookup
	logger  zerolog.Logger
}

// NewChainLookup creates a lookup chain. Order matters: put the reference
// dataset first and the static fallback last.
func NewChainLookup(logger zerolog.Logger, lookups ...Lookup) *ChainLookup {
	return &ChainLookup{
		lookups: lookups,
		logger:  logger.With().Str("component", "region_lookup").Logger(),
	}
}

// County implements Lookup.
func (c *ChainLookup) County(ctx context.Context, zipCode string) (schedule.Region, error) {
	for _, l := range c.lookups {
		r, err := l.County(ctx, zipCode)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn().Err(err).Str("zip", zipCode).Msg("region lookup strategy failed, trying next")
		}
	}
	return schedule.Region{}, ErrNotFound
}
