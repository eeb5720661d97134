package extract_test

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/curbcycle/internal/extract"
	"github.com/curbcycle/curbcycle/internal/schedule"
)

const holidayPage = `
<html><body>
<div class="accordion">
  <h3 class="tab">New Year's Day</h3>
  <div class="repeatable-content">
    <div class="text">
      <h3>Thursday, January 1, 2026</h3>
      <p>Rumpke offices will be closed in observance of the holiday.</p>
      <p>Service will not occur and will move to one day later for the remainder of the week.</p>
    </div>
  </div>

  <h3 class="tab">Martin Luther King Jr. Day</h3>
  <div class="repeatable-content">
    <div class="text">
      <h3>Monday, Jan. 19, 2026</h3>
      <p>There will be no service delays. Offices remain open.</p>
    </div>
  </div>

  <h3 class="tab">Labor Day</h3>
  <div class="repeatable-content">
    <div class="text">
      <h3>Monday, Sept. 7, 2026</h3>
      <p>Friday customers will move to Saturday.</p>
      <p>Note: drop-off locations remain open.</p>
    </div>
  </div>
</div>
</body></html>`

func TestHolidayExtractor_Extract(t *testing.T) {
	extractor := extract.NewHolidayExtractor(zerolog.Nop())

	rules, err := extractor.Extract(strings.NewReader(holidayPage))
	require.NoError(t, err)
	require.Len(t, rules, 3)

	newYears := rules[0]
	assert.Equal(t, schedule.RuleKindHolidayClosure, newYears.Kind)
	assert.Equal(t, "New Year's Day", newYears.Label)
	assert.True(t, newYears.CausesDelay)
	assert.Equal(t, 1, newYears.DelayDays)
	assert.Equal(t, schedule.Date(2026, time.January, 1), newYears.AnchorDate)
	assert.Contains(t, newYears.RawText, "Service will not occur")

	mlk := rules[1]
	assert.Equal(t, "Martin Luther King Jr. Day", mlk.Label)
	assert.False(t, mlk.CausesDelay, "explicit 'no service delays' must override")
	assert.Equal(t, 0, mlk.DelayDays)
	assert.Equal(t, schedule.Date(2026, time.January, 19), mlk.AnchorDate)

	laborDay := rules[2]
	assert.True(t, laborDay.CausesDelay)
	assert.Equal(t, schedule.Date(2026, time.September, 7), laborDay.AnchorDate,
		"'Sept.' abbreviation must be normalized")
	require.Len(t, laborDay.Notes, 1)
	assert.Contains(t, laborDay.Notes[0], "drop-off locations")
}

func TestHolidayExtractor_SkipsMalformedSections(t *testing.T) {
	page := `
<html><body>
  <div class="repeatable-content">
    <div class="text"><p>Section with no heading.</p></div>
  </div>
  <h3 class="tab">Thanksgiving</h3>
  <div class="repeatable-content">
    <div class="text">
      <h3>Thursday, November 26, 2026</h3>
      <p>No service. Collection is delayed one day.</p>
    </div>
  </div>
</body></html>`

	extractor := extract.NewHolidayExtractor(zerolog.Nop())

	rules, err := extractor.Extract(strings.NewReader(page))
	require.NoError(t, err)

	require.Len(t, rules, 1)
	assert.Equal(t, "Thanksgiving", rules[0].Label)
}

func TestHolidayExtractor_UnparseableDateKeepsRule(t *testing.T) {
	page := `
<html><body>
  <h3 class="tab">Memorial Day</h3>
  <div class="repeatable-content">
    <div class="text">
      <h3>Sometime in late May</h3>
      <p>Service will not occur on the holiday.</p>
    </div>
  </div>
</body></html>`

	extractor := extract.NewHolidayExtractor(zerolog.Nop())

	rules, err := extractor.Extract(strings.NewReader(page))
	require.NoError(t, err)

	require.Len(t, rules, 1)
	assert.True(t, rules[0].AnchorDate.IsZero(), "unparseable date stays unset")
	assert.True(t, rules[0].CausesDelay)
}

func TestHolidayExtractor_EmptyPage(t *testing.T) {
	extractor := extract.NewHolidayExtractor(zerolog.Nop())

	rules, err := extractor.Extract(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, rules)
}
