package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caloriebalance/tracker/internal/domain/models"
	"github.com/caloriebalance/tracker/internal/metrics"
	"github.com/caloriebalance/tracker/internal/repository/sheets"
	"github.com/caloriebalance/tracker/internal/service/tracker"
)

const (
	weeklyWriteRange = "Weekly!A:H"
	weeklyKeyRange   = "Weekly!A:B"
)

// RangeSource computes range metrics for a user.
type RangeSource interface {
	RangeSummary(ctx context.Context, userID string, start, end time.Time) (metrics.RangeMetrics, error)
	Today() time.Time
}

// ReportStore persists generated reports.
type ReportStore interface {
	SaveWeeklyReport(ctx context.Context, report models.WeeklyReport) error
}

// Service builds, stores and exports weekly reports.
type Service struct {
	source RangeSource
	store  ReportStore
	sheet  sheets.Repository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewService wires a new reporting service instance. sheet may be nil when
// spreadsheet export is disabled.
func NewService(source RangeSource, store ReportStore, sheet sheets.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source: source,
		store:  store,
		sheet:  sheet,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// GenerateWeeklyReport summarises the current week (Monday through today) for
// userID, stores it and exports it. It returns the stored report and its
// chat-friendly text.
func (s *Service) GenerateWeeklyReport(ctx context.Context, userID string) (models.WeeklyReport, string, error) {
	end := s.source.Today()
	start := tracker.WeekStart(end)

	rm, err := s.source.RangeSummary(ctx, userID, start, end)
	if err != nil {
		return models.WeeklyReport{}, "", fmt.Errorf("compute weekly range: %w", err)
	}

	report := models.NewWeeklyReport(s.newID(), userID, rm, s.now().UTC())
	if err := s.store.SaveWeeklyReport(ctx, report); err != nil {
		return models.WeeklyReport{}, "", fmt.Errorf("save weekly report: %w", err)
	}

	if s.sheet != nil {
		// The stored report is the source of truth; export failures are logged only.
		if err := s.exportToSheet(ctx, report); err != nil {
			s.logger.Warn("weekly report export failed", zap.String("user", userID), zap.Error(err))
		}
	}

	return report, FormatRange(rm), nil
}

func (s *Service) exportToSheet(ctx context.Context, report models.WeeklyReport) error {
	weekStart := report.WeekStart.Format(models.DateLayout)

	rows, err := s.sheet.ReadRange(ctx, weeklyKeyRange)
	if err != nil {
		return fmt.Errorf("load exported weeks: %w", err)
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		if fmt.Sprint(row[0]) == report.UserID && parseDateCell(row[1]) == weekStart {
			s.logger.Debug("week already exported", zap.String("user", report.UserID), zap.String("week", weekStart))
			return nil
		}
	}

	out := make([][]interface{}, 0, len(report.Days))
	for _, d := range report.Days {
		out = append(out, []interface{}{
			report.UserID,
			weekStart,
			d.Date.Format(models.DateLayout),
			metrics.Round(d.Eaten, metrics.SummaryPlaces),
			metrics.Round(d.Burned, metrics.SummaryPlaces),
			metrics.Round(d.BMR, metrics.SummaryPlaces),
			metrics.Round(d.Balance, metrics.SummaryPlaces),
			string(d.Status),
		})
	}

	return s.sheet.AppendRows(ctx, weeklyWriteRange, out)
}

func parseDateCell(value interface{}) string {
	str := fmt.Sprint(value)
	if len(str) > len(models.DateLayout) {
		str = str[:len(models.DateLayout)]
	}
	return str
}
