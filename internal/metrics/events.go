package metrics

import (
	"strings"
	"time"
)

// ActivityCategory groups logged exercise.
type ActivityCategory string

const (
	ActivityRun   ActivityCategory = "RUN"
	ActivitySwim  ActivityCategory = "SWIM"
	ActivityCycle ActivityCategory = "CYCLE"
	ActivityGym   ActivityCategory = "GYM"
	ActivityOther ActivityCategory = "OTHER"
)

// ParseActivityCategory matches value case-insensitively; unknown values fall
// back to ActivityOther.
func ParseActivityCategory(value string) ActivityCategory {
	switch c := ActivityCategory(strings.ToUpper(strings.TrimSpace(value))); c {
	case ActivityRun, ActivitySwim, ActivityCycle, ActivityGym:
		return c
	default:
		return ActivityOther
	}
}

// Event is a logged energy intake or expenditure. The only implementations
// are MealEvent and ActivityEvent.
type Event interface {
	OccurredOn() time.Time
	energy() (eaten, burned float64)
}

// MealEvent is food eaten on a given day.
type MealEvent struct {
	Calories float64
	Date     time.Time
}

// OccurredOn implements Event.
func (m MealEvent) OccurredOn() time.Time { return m.Date }

func (m MealEvent) energy() (float64, float64) { return m.Calories, 0 }

// ActivityEvent is exercise performed on a given day.
type ActivityEvent struct {
	Category       ActivityCategory
	DurationMin    int
	CaloriesBurned int
	Date           time.Time
}

// OccurredOn implements Event.
func (a ActivityEvent) OccurredOn() time.Time { return a.Date }

func (a ActivityEvent) energy() (float64, float64) { return 0, float64(a.CaloriesBurned) }

// DayOf truncates t to its calendar date, expressed as midnight UTC. The
// year, month and day are read in t's own location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
