package metrics

import (
	"iter"
	"time"
)

// SubtractBMR fixes the balance formula for every caller: basal burn counts
// as expenditure whenever the profile allows computing it.
const SubtractBMR = true

// BalanceStatus labels the sign of a caloric balance.
type BalanceStatus string

const (
	Surplus BalanceStatus = "Surplus"
	Deficit BalanceStatus = "Deficit"
	Zero    BalanceStatus = "Zero"
)

// Classify labels a balance by its sign.
func Classify(balance float64) BalanceStatus {
	switch {
	case balance > 0:
		return Surplus
	case balance < 0:
		return Deficit
	default:
		return Zero
	}
}

// NetBalance is eaten minus burned, minus bmr when it is available.
func NetBalance(eaten, burned, bmr float64, bmrAvailable bool) float64 {
	balance := eaten - burned
	if SubtractBMR && bmrAvailable {
		balance -= bmr
	}
	return balance
}

// DailyMetrics is the energy balance of a single calendar day.
type DailyMetrics struct {
	Date         time.Time     `json:"date"`
	Eaten        float64       `json:"total_eaten"`
	Burned       float64       `json:"total_burned"`
	BMR          float64       `json:"bmr"`
	BMRAvailable bool          `json:"bmr_available"`
	Balance      float64       `json:"balance"`
	Status       BalanceStatus `json:"status"`
}

// RangeMetrics is the per-day breakdown and totals of an inclusive date range.
type RangeMetrics struct {
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Days        []DailyMetrics `json:"days"`
	TotalEaten  float64        `json:"total_eaten"`
	TotalBurned float64        `json:"total_burned"`
	TotalBMR    float64        `json:"total_bmr"`
	Balance     float64        `json:"balance"`
	Status      BalanceStatus  `json:"status"`
}

// Daily aggregates the events dated on day. Events on other days are ignored.
func Daily(p Profile, events []Event, day time.Time) DailyMetrics {
	day = DayOf(day)

	var eaten, burned float64
	for _, ev := range events {
		if !DayOf(ev.OccurredOn()).Equal(day) {
			continue
		}
		e, b := ev.energy()
		eaten += e
		burned += b
	}

	return daily(p, day, eaten, burned)
}

// Days yields one DailyMetrics per calendar day in [start, end], ascending.
// Days without events are included with zero totals. The sequence can be
// ranged over any number of times.
func Days(p Profile, events []Event, start, end time.Time) iter.Seq[DailyMetrics] {
	first, last := DayOf(start), DayOf(end)

	return func(yield func(DailyMetrics) bool) {
		type totals struct{ eaten, burned float64 }
		byDay := make(map[time.Time]totals)
		for _, ev := range events {
			d := DayOf(ev.OccurredOn())
			if d.Before(first) || d.After(last) {
				continue
			}
			e, b := ev.energy()
			t := byDay[d]
			t.eaten += e
			t.burned += b
			byDay[d] = t
		}

		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			t := byDay[d]
			if !yield(daily(p, d, t.eaten, t.burned)) {
				return
			}
		}
	}
}

// Range collects Days and sums it. An inverted range produces no days.
func Range(p Profile, events []Event, start, end time.Time) RangeMetrics {
	out := RangeMetrics{Start: DayOf(start), End: DayOf(end), Days: []DailyMetrics{}}

	for day := range Days(p, events, start, end) {
		out.Days = append(out.Days, day)
		out.TotalEaten += day.Eaten
		out.TotalBurned += day.Burned
		out.TotalBMR += day.BMR
		out.Balance += day.Balance
	}
	out.Status = Classify(out.Balance)
	return out
}

func daily(p Profile, day time.Time, eaten, burned float64) DailyMetrics {
	bmr, ok := BMR(p, day)
	balance := NetBalance(eaten, burned, bmr, ok)
	return DailyMetrics{
		Date:         day,
		Eaten:        eaten,
		Burned:       burned,
		BMR:          bmr,
		BMRAvailable: ok,
		Balance:      balance,
		Status:       Classify(balance),
	}
}
