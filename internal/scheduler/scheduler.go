package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/caloriebalance/tracker/internal/config"
	"github.com/caloriebalance/tracker/internal/domain/models"
	"github.com/caloriebalance/tracker/internal/service/whatsapp"
)

// ProfileLister returns the users that receive weekly reports.
type ProfileLister interface {
	ListProfilesWithPhone(ctx context.Context) ([]models.Profile, error)
}

// ReportGenerator builds a user's weekly report and its text summary.
type ReportGenerator interface {
	GenerateWeeklyReport(ctx context.Context, userID string) (models.WeeklyReport, string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	cfg          config.ReportingConfig
	profiles     ProfileLister
	reportingSvc ReportGenerator
	messagingSvc whatsapp.MessagingService
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler running in the configured timezone.
// messagingSvc may be nil, in which case reports are only stored.
func NewScheduler(cfg config.ReportingConfig, profiles ProfileLister, reportingSvc ReportGenerator, messagingSvc whatsapp.MessagingService, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		cfg:          cfg,
		profiles:     profiles,
		reportingSvc: reportingSvc,
		messagingSvc: messagingSvc,
		logger:       logger,
	}, nil
}

// Start registers the weekly report job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendWeeklyReports); err != nil {
		return fmt.Errorf("schedule weekly report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent, failed := s.RunWeeklyReports(ctx)
	s.logger.Info("weekly reports finished", zap.Int("sent", sent), zap.Int("failed", failed))
}

// RunWeeklyReports generates the weekly report of every user with a phone
// number and delivers it. One user's failure does not stop the others.
func (s *Scheduler) RunWeeklyReports(ctx context.Context) (sent, failed int) {
	profiles, err := s.profiles.ListProfilesWithPhone(ctx)
	if err != nil {
		s.logger.Error("failed to list profiles", zap.Error(err))
		return 0, 0
	}

	for _, p := range profiles {
		if ctx.Err() != nil {
			s.logger.Warn("weekly report run cancelled", zap.Error(ctx.Err()))
			return sent, failed
		}

		_, text, err := s.reportingSvc.GenerateWeeklyReport(ctx, p.UserID)
		if err != nil {
			s.logger.Error("failed to generate weekly report", zap.String("user", p.UserID), zap.Error(err))
			failed++
			continue
		}

		if s.messagingSvc == nil {
			continue
		}

		req := models.OutboundMessageRequest{To: p.Phone, Message: text}
		if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
			s.logger.Error("failed to send weekly report", zap.String("user", p.UserID), zap.Error(err))
			failed++
			continue
		}
		sent++
	}

	return sent, failed
}
