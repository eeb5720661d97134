// Package pickup owns the per-household refresh cycle: fetch the hauler's
// pages, extract disruption rules, and serve resolved pickup dates from the
// latest immutable snapshot.
package pickup

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/extract"
	"github.com/curbcycle/curbcycle/internal/region"
	"github.com/curbcycle/curbcycle/internal/schedule"
)

// DefaultRefreshInterval matches the hauler's publishing cadence; the
// pages change at most a few times a week.
const DefaultRefreshInterval = 12 * time.Hour

// CalendarHorizon caps how far ahead pickup events are enumerated.
const CalendarHorizon = 90 * 24 * time.Hour

// Service errors.
var (
	// ErrNoSnapshot is returned by readers before the first successful
	// refresh.
	ErrNoSnapshot = errors.New("no schedule snapshot available yet")
)

// Fetcher abstracts the hauler client.
type Fetcher interface {
	HolidaySchedule(ctx context.Context, zipCode string) ([]byte, error)
	ServiceAlerts(ctx context.Context) ([]byte, error)
}

// ServiceConfig holds configuration for a household's pickup service.
type ServiceConfig struct {
	// ZipCode identifies the household.
	ZipCode string

	// ServiceDay is the weekday collection normally occurs on.
	ServiceDay string

	// Fetcher retrieves the hauler's pages.
	Fetcher Fetcher

	// Regions resolves the household's county for alert selection. May be
	// nil; alerts are then skipped.
	Regions region.Lookup

	// Logger for service operations.
	Logger zerolog.Logger

	// RefreshInterval between automatic refreshes (default 12h).
	RefreshInterval time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Service resolves pickup dates for one household. Readers always see the
// last successfully built snapshot; refreshes are coalesced so at most one
// fetch cycle is in flight at a time.
type Service struct {
	cfg       schedule.ScheduleConfig
	hasRegion bool

	fetcher  Fetcher
	holidays *extract.HolidayExtractor
	alerts   *extract.AlertExtractor
	logger   zerolog.Logger
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	snapshot   *Snapshot
	inflight   chan struct{}
	refreshErr error
}

// NewService creates the pickup service, resolving the household's region
// up front. A failed lookup is not fatal: the service runs without
// regional alerts.
func NewService(ctx context.Context, cfg ServiceConfig) *Service {
	logger := cfg.Logger.With().
		Str("component", "pickup_service").
		Str("zip", cfg.ZipCode).
		Logger()

	interval := cfg.RefreshInterval
	if interval == 0 {
		interval = DefaultRefreshInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Service{
		cfg: schedule.ScheduleConfig{
			ServiceDay: cfg.ServiceDay,
			ZipCode:    cfg.ZipCode,
		},
		fetcher:  cfg.Fetcher,
		holidays: extract.NewHolidayExtractor(logger),
		alerts:   extract.NewAlertExtractor(logger),
		logger:   logger,
		interval: interval,
		now:      now,
	}

	if cfg.Regions != nil {
		r, err := cfg.Regions.County(ctx, cfg.ZipCode)
		if err != nil {
			logger.Warn().Err(err).Msg("could not resolve county, service alerts disabled")
		} else {
			s.cfg.Region = r
			s.hasRegion = true
			logger.Info().Stringer("region", r).Msg("resolved household region")
		}
	}

	return s
}

// Config returns the household's immutable schedule configuration.
func (s *Service) Config() schedule.ScheduleConfig {
	return s.cfg
}

// Snapshot returns the latest snapshot, or ErrNoSnapshot before the first
// successful refresh.
func (s *Service) Snapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return s.snapshot, nil
}

// NextPickup resolves the next effective pickup date on or after from.
func (s *Service) NextPickup(from time.Time) (*schedule.ResolvedPickup, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return schedule.NextPickup(s.cfg, snap.Rules(), from)
}

// Calendar enumerates pickup events in [start, end], clamped to today and
// to the 90-day horizon.
func (s *Service) Calendar(start, end time.Time) ([]schedule.ResolvedPickup, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	today := schedule.Midnight(s.now())
	start = schedule.Midnight(start)
	if start.Before(today) {
		start = today
	}
	horizon := start.Add(CalendarHorizon)
	end = schedule.Midnight(end)
	if end.After(horizon) {
		end = horizon
	}

	return schedule.PickupsBetween(s.cfg, snap.Rules(), start, end)
}

// Refresh fetches and re-extracts the rule set, swapping in a new snapshot
// on success. Concurrent calls are coalesced: a call made while a refresh
// is in flight waits for that refresh and returns its result. On failure
// the previous snapshot stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if ch := s.inflight; ch != nil {
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		err := s.refreshErr
		s.mu.Unlock()
		return err
	}
	ch := make(chan struct{})
	s.inflight = ch
	s.mu.Unlock()

	err := s.refresh(ctx)

	s.mu.Lock()
	s.refreshErr = err
	s.inflight = nil
	s.mu.Unlock()
	close(ch)

	return err
}

func (s *Service) refresh(ctx context.Context) error {
	started := s.now()

	scheduleHTML, err := s.fetcher.HolidaySchedule(ctx, s.cfg.ZipCode)
	if err != nil {
		s.logger.Warn().Err(err).Msg("holiday schedule fetch failed, keeping last snapshot")
		return err
	}

	holidays, err := s.holidays.Extract(bytes.NewReader(scheduleHTML))
	if err != nil {
		s.logger.Warn().Err(err).Msg("holiday schedule extraction failed, keeping last snapshot")
		return err
	}

	// A broken alerts page must not block pickup resolution: the refresh
	// proceeds with no alert rule.
	var alert *schedule.DisruptionRule
	if s.hasRegion {
		alertsHTML, alertErr := s.fetcher.ServiceAlerts(ctx)
		if alertErr != nil {
			s.logger.Warn().Err(alertErr).Msg("service alerts fetch failed, continuing without alert")
		} else {
			alert, alertErr = s.alerts.Extract(bytes.NewReader(alertsHTML), s.cfg.Region, s.now())
			if alertErr != nil {
				s.logger.Warn().Err(alertErr).Msg("service alerts extraction failed, continuing without alert")
				alert = nil
			}
		}
	}

	snap := &Snapshot{
		Holidays:  holidays,
		Alert:     alert,
		FetchedAt: s.now(),
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Info().
		Int("holidays", len(holidays)).
		Bool("alert", alert != nil).
		Dur("duration", s.now().Sub(started)).
		Msg("schedule snapshot refreshed")

	return nil
}

// Run refreshes immediately and then on the configured interval until the
// context is canceled.
func (s *Service) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("initial refresh failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refresh loop stopped")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled refresh failed")
			}
		}
	}
}
