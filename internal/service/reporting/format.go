package reporting

import (
	"fmt"
	"strings"

	"github.com/caloriebalance/tracker/internal/domain/models"
	"github.com/caloriebalance/tracker/internal/metrics"
)

// FormatDay renders one day's balance for chat replies. Figures are whole kcal.
func FormatDay(d metrics.DailyMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Balance for %s\n", d.Date.Format(models.DateLayout))
	fmt.Fprintf(&b, "Eaten: %s kcal\n", kcal(d.Eaten))
	fmt.Fprintf(&b, "Burned: %s kcal\n", kcal(d.Burned))
	if d.BMRAvailable {
		fmt.Fprintf(&b, "BMR: %s kcal\n", kcal(d.BMR))
	} else {
		b.WriteString("BMR: unavailable (complete your profile)\n")
	}
	fmt.Fprintf(&b, "Balance: %s kcal (%s)", signedKcal(d.Balance), d.Status)
	return b.String()
}

// FormatRange renders a range summary with one line per day.
func FormatRange(rm metrics.RangeMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Balance %s – %s\n", rm.Start.Format(models.DateLayout), rm.End.Format(models.DateLayout))
	for _, d := range rm.Days {
		fmt.Fprintf(&b, "%s %s: %s (%s)\n", d.Date.Format("Mon"), d.Date.Format("01-02"), signedKcal(d.Balance), d.Status)
	}
	fmt.Fprintf(&b, "Eaten: %s kcal\n", kcal(rm.TotalEaten))
	fmt.Fprintf(&b, "Burned: %s kcal\n", kcal(rm.TotalBurned))
	fmt.Fprintf(&b, "BMR: %s kcal\n", kcal(rm.TotalBMR))
	fmt.Fprintf(&b, "Balance: %s kcal (%s)", signedKcal(rm.Balance), rm.Status)
	return b.String()
}

// FormatBMI renders a BMI result, or a hint when it is unavailable.
func FormatBMI(result metrics.BMIResult, ok bool) string {
	if !ok {
		return "BMI unavailable: set your weight and height first."
	}
	return fmt.Sprintf("BMI %.2f (%s)", result.Value, result.Category)
}

func kcal(v float64) string {
	return fmt.Sprintf("%.0f", metrics.Round(v, metrics.SummaryPlaces))
}

func signedKcal(v float64) string {
	return fmt.Sprintf("%+.0f", metrics.Round(v, metrics.SummaryPlaces))
}
