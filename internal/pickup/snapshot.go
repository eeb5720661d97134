package pickup

import (
	"time"

	"github.com/curbcycle/curbcycle/internal/schedule"
)

// Snapshot is one immutable refresh result. Rule sets are recomputed
// wholesale every cycle; a snapshot is never patched in place, only
// replaced.
type Snapshot struct {
	// Holidays are the rules extracted from the holiday schedule page.
	Holidays []schedule.DisruptionRule

	// Alert is the household region's active service alert, if any.
	Alert *schedule.DisruptionRule

	// FetchedAt records when the refresh completed.
	FetchedAt time.Time
}

// Rules returns the combined rule set handed to the resolver.
func (s *Snapshot) Rules() []schedule.DisruptionRule {
	rules := make([]schedule.DisruptionRule, 0, len(s.Holidays)+1)
	rules = append(rules, s.Holidays...)
	if s.Alert != nil {
		rules = append(rules, *s.Alert)
	}
	return rules
}
