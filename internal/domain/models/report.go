package models

import (
	"time"

	"github.com/caloriebalance/tracker/internal/metrics"
)

// WeeklyReport is the stored summary of one user's week.
type WeeklyReport struct {
	ID          string                `bson:"_id" json:"id"`
	UserID      string                `bson:"user_id" json:"user"`
	WeekStart   time.Time             `bson:"week_start" json:"week_start"`
	WeekEnd     time.Time             `bson:"week_end" json:"week_end"`
	TotalEaten  float64               `bson:"total_eaten" json:"total_eaten"`
	TotalBurned float64               `bson:"total_burned" json:"total_burned"`
	TotalBMR    float64               `bson:"total_bmr" json:"total_bmr"`
	Balance     float64               `bson:"balance" json:"balance"`
	Status      metrics.BalanceStatus `bson:"status" json:"status"`
	Days        []DailyReport         `bson:"days" json:"days"`
	CreatedAt   time.Time             `bson:"created_at" json:"created_at"`
}

// DailyReport is one day row of a WeeklyReport.
type DailyReport struct {
	Date    time.Time             `bson:"date" json:"date"`
	Eaten   float64               `bson:"eaten" json:"eaten"`
	Burned  float64               `bson:"burned" json:"burned"`
	BMR     float64               `bson:"bmr" json:"bmr"`
	Balance float64               `bson:"balance" json:"balance"`
	Status  metrics.BalanceStatus `bson:"status" json:"status"`
}

// NewWeeklyReport copies range metrics into a storable report.
func NewWeeklyReport(id, userID string, rm metrics.RangeMetrics, now time.Time) WeeklyReport {
	days := make([]DailyReport, 0, len(rm.Days))
	for _, d := range rm.Days {
		days = append(days, DailyReport{
			Date:    d.Date,
			Eaten:   d.Eaten,
			Burned:  d.Burned,
			BMR:     d.BMR,
			Balance: d.Balance,
			Status:  d.Status,
		})
	}

	return WeeklyReport{
		ID:          id,
		UserID:      userID,
		WeekStart:   rm.Start,
		WeekEnd:     rm.End,
		TotalEaten:  rm.TotalEaten,
		TotalBurned: rm.TotalBurned,
		TotalBMR:    rm.TotalBMR,
		Balance:     rm.Balance,
		Status:      rm.Status,
		Days:        days,
		CreatedAt:   now,
	}
}
