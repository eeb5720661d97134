package pickup_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/curbcycle/internal/pickup"
	"github.com/curbcycle/curbcycle/internal/region"
	"github.com/curbcycle/curbcycle/internal/schedule"
)

// Fixtures for the week of Monday 2026-01-19.
const (
	holidayPage = `
<html><body>
  <h3 class="tab">Test Holiday</h3>
  <div class="repeatable-content">
    <div class="text">
      <h3>Monday, January 19, 2026</h3>
      <p>Service will not occur and will move to one day later.</p>
    </div>
  </div>
</body></html>`

	alertsPage = `
<html><body>
<h3>Ohio Service Alerts</h3>
<div class="repeatable-content">
  <ul><li>Hamilton: All services are on a one-day delay for the week of Jan. 19.</li></ul>
</div>
</body></html>`

	emptyPage = `<html><body></body></html>`
)

// stubFetcher serves canned pages and counts calls.
type stubFetcher struct {
	mu           sync.Mutex
	holidayHTML  string
	holidayErr   error
	alertsHTML   string
	alertsErr    error
	holidayCalls int
	alertsCalls  int

	// gate, when set, blocks HolidaySchedule until closed. started is
	// signaled once per blocked call.
	gate    chan struct{}
	started chan struct{}
}

func (f *stubFetcher) HolidaySchedule(_ context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	f.holidayCalls++
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holidayErr != nil {
		return nil, f.holidayErr
	}
	return []byte(f.holidayHTML), nil
}

func (f *stubFetcher) ServiceAlerts(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertsCalls++
	if f.alertsErr != nil {
		return nil, f.alertsErr
	}
	return []byte(f.alertsHTML), nil
}

func (f *stubFetcher) setHolidayErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holidayErr = err
}

func (f *stubFetcher) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holidayCalls, f.alertsCalls
}

func newTestService(t *testing.T, fetcher *stubFetcher, regions region.Lookup) *pickup.Service {
	t.Helper()
	return pickup.NewService(context.Background(), pickup.ServiceConfig{
		ZipCode:    "45202",
		ServiceDay: "Thursday",
		Fetcher:    fetcher,
		Regions:    regions,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return schedule.Date(2026, time.January, 20) },
	})
}

func TestService_RefreshBuildsSnapshot(t *testing.T) {
	fetcher := &stubFetcher{holidayHTML: holidayPage, alertsHTML: alertsPage}
	svc := newTestService(t, fetcher, region.NewStaticLookup())

	require.NoError(t, svc.Refresh(context.Background()))

	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Holidays, 1)
	require.NotNil(t, snap.Alert)
	assert.Equal(t, 1, snap.Alert.DelayDays)

	// From Monday the 19th: Thursday the 22nd, plus one day for the alert
	// and one for the Monday holiday.
	p, err := svc.NextPickup(schedule.Date(2026, time.January, 19))
	require.NoError(t, err)
	assert.Equal(t, schedule.Date(2026, time.January, 24), p.Date)
	assert.Len(t, p.Applied, 2)
}

func TestService_ReadersFailBeforeFirstRefresh(t *testing.T) {
	svc := newTestService(t, &stubFetcher{holidayHTML: emptyPage}, nil)

	_, err := svc.Snapshot()
	assert.ErrorIs(t, err, pickup.ErrNoSnapshot)

	_, err = svc.NextPickup(schedule.Date(2026, time.January, 20))
	assert.ErrorIs(t, err, pickup.ErrNoSnapshot)

	_, err = svc.Calendar(schedule.Date(2026, time.January, 20), schedule.Date(2026, time.February, 20))
	assert.ErrorIs(t, err, pickup.ErrNoSnapshot)
}

func TestService_FailedRefreshKeepsLastSnapshot(t *testing.T) {
	fetcher := &stubFetcher{holidayHTML: holidayPage, alertsHTML: alertsPage}
	svc := newTestService(t, fetcher, region.NewStaticLookup())

	require.NoError(t, svc.Refresh(context.Background()))
	first, err := svc.Snapshot()
	require.NoError(t, err)

	fetcher.setHolidayErr(errors.New("site is down"))
	assert.Error(t, svc.Refresh(context.Background()))

	second, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, first, second, "failed refresh must not evict the last good snapshot")
}

func TestService_AlertFailureDoesNotBlockRefresh(t *testing.T) {
	fetcher := &stubFetcher{holidayHTML: holidayPage, alertsErr: errors.New("alerts page broken")}
	svc := newTestService(t, fetcher, region.NewStaticLookup())

	require.NoError(t, svc.Refresh(context.Background()))

	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Holidays, 1)
	assert.Nil(t, snap.Alert)
}

func TestService_UnresolvedRegionSkipsAlerts(t *testing.T) {
	fetcher := &stubFetcher{holidayHTML: holidayPage, alertsHTML: alertsPage}

	svc := pickup.NewService(context.Background(), pickup.ServiceConfig{
		ZipCode:    "99999", // not in the fallback table
		ServiceDay: "Thursday",
		Fetcher:    fetcher,
		Regions:    region.NewStaticLookup(),
		Logger:     zerolog.Nop(),
	})

	require.NoError(t, svc.Refresh(context.Background()))

	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, snap.Alert)

	_, alertsCalls := fetcher.counts()
	assert.Zero(t, alertsCalls, "alerts page must not be fetched without a region")
}

func TestService_CalendarClampsToToday(t *testing.T) {
	fetcher := &stubFetcher{holidayHTML: emptyPage}
	svc := newTestService(t, fetcher, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	// Requesting from well in the past; today is Tuesday 2026-01-20.
	pickups, err := svc.Calendar(schedule.Date(2026, time.January, 1), schedule.Date(2026, time.February, 10))
	require.NoError(t, err)

	require.NotEmpty(t, pickups)
	assert.Equal(t, schedule.Date(2026, time.January, 22), pickups[0].Date)
}

func TestService_CalendarCapsHorizon(t *testing.T) {
	fetcher := &stubFetcher{holidayHTML: emptyPage}
	svc := newTestService(t, fetcher, nil)
	require.NoError(t, svc.Refresh(context.Background()))

	start := schedule.Date(2026, time.January, 20)
	pickups, err := svc.Calendar(start, start.AddDate(1, 0, 0))
	require.NoError(t, err)

	require.NotEmpty(t, pickups)
	horizon := start.Add(pickup.CalendarHorizon)
	for _, p := range pickups {
		assert.False(t, p.Date.After(horizon), "pickup %s beyond horizon", p.Date)
	}
}

func TestService_ConcurrentRefreshesCoalesce(t *testing.T) {
	fetcher := &stubFetcher{
		holidayHTML: emptyPage,
		gate:        make(chan struct{}),
		started:     make(chan struct{}, 1),
	}
	svc := newTestService(t, fetcher, nil)

	errs := make(chan error, 2)
	go func() { errs <- svc.Refresh(context.Background()) }()

	// Wait until the first refresh is inside the fetch, then pile on a
	// second call.
	<-fetcher.started
	go func() { errs <- svc.Refresh(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	close(fetcher.gate)

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	holidayCalls, _ := fetcher.counts()
	assert.Equal(t, 1, holidayCalls, "concurrent refreshes must share one fetch cycle")
}
