// Package urgency classifies tasks by time remaining in their pickup
// window. Classification is pure: callers re-invoke it on a display tick
// (roughly every minute for lists, every second for a live countdown) so
// the text stays fresh; the package itself keeps no timer and no state.
package urgency

import (
	"fmt"
	"time"
)

// Tier is the urgency bucket shown to the driver.
type Tier string

const (
	TierUrgent  Tier = "urgent"
	TierWarning Tier = "warning"
	TierNormal  Tier = "normal"
)

// Thresholds as a fraction of the deadline window remaining. The tier is
// a function of the percentage left, not of absolute time, so a 24h and
// a 72h window both turn urgent over their final quarter.
const (
	urgentFraction  = 0.25
	warningFraction = 0.50
)

// Result is the classification of a single task at one instant. It is
// derived data: Remaining depends on wall-clock now, so results must not
// be cached across time.
type Result struct {
	// Remaining is the time left until the deadline, negative once the
	// task is overdue.
	Remaining time.Duration

	// Overdue reports whether the deadline has passed.
	Overdue bool

	// DisplayText is the countdown shown to the driver, "Xh Ym" or
	// "Xd Yh", prefixed with "Kasni" when overdue.
	DisplayText string

	// Tier is the urgency bucket.
	Tier Tier
}

// Classify computes the urgency of a task created at createdAt with a
// deadline window of deadlineHours, as observed at now. A nonpositive
// window classifies as immediately overdue rather than dividing by zero.
func Classify(createdAt time.Time, deadlineHours float64, now time.Time) Result {
	if deadlineHours <= 0 {
		late := now.Sub(createdAt)
		if late < 0 {
			late = 0
		}
		return Result{
			Remaining:   -late,
			Overdue:     true,
			DisplayText: "Kasni " + formatSpan(late),
			Tier:        TierUrgent,
		}
	}

	window := time.Duration(deadlineHours * float64(time.Hour))
	remaining := createdAt.Add(window).Sub(now)

	if remaining <= 0 {
		return Result{
			Remaining:   remaining,
			Overdue:     true,
			DisplayText: "Kasni " + formatSpan(-remaining),
			Tier:        TierUrgent,
		}
	}

	tier := TierNormal
	switch fractionLeft := float64(remaining) / float64(window); {
	case fractionLeft <= urgentFraction:
		tier = TierUrgent
	case fractionLeft <= warningFraction:
		tier = TierWarning
	}

	return Result{
		Remaining:   remaining,
		DisplayText: formatSpan(remaining),
		Tier:        tier,
	}
}

// formatSpan renders a nonnegative duration as "Xd Yh" above a day and
// "Xh Ym" below it.
func formatSpan(d time.Duration) string {
	minutes := int(d / time.Minute)
	hours := minutes / 60
	if hours >= 24 {
		return fmt.Sprintf("%dd %dh", hours/24, hours%24)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes%60)
}
