package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/config"
	"github.com/mamadbah2/challans/internal/domain/models"
	"github.com/mamadbah2/challans/internal/service/whatsapp"
)

const jobTimeout = 2 * time.Minute

// Refresher reloads the returnable item projection.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// DigestBuilder renders the overdue reminder.
type DigestBuilder interface {
	OverdueDigest(ctx context.Context) (models.OverdueDigest, error)
}

// DigestStore keeps a history of sent reminders.
type DigestStore interface {
	SaveOverdueDigest(ctx context.Context, digest models.OverdueDigest) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	tracker      Refresher
	reportingSvc DigestBuilder
	messagingSvc whatsapp.MessagingService
	digests      DigestStore
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.Config, tracker Refresher, reportingSvc DigestBuilder, messagingSvc whatsapp.MessagingService, digests DigestStore, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard five field cron expressions, evaluated in the business timezone.
	c := cron.New(cron.WithLocation(cfg.Location()))

	return &Scheduler{
		cron:         c,
		tracker:      tracker,
		reportingSvc: reportingSvc,
		messagingSvc: messagingSvc,
		digests:      digests,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the daily reminder and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("reminder_schedule", s.cfg.Reminders.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.Reminders.CronSchedule, s.sendOverdueReminder); err != nil {
		return fmt.Errorf("schedule overdue reminder: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendOverdueReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.RunOverdueReminder(ctx); err != nil {
		s.logger.Error("overdue reminder failed", zap.Error(err))
	}
}

// RunOverdueReminder refreshes the tracker, builds the digest, delivers it
// when there is something to report and stores it. Delivery failures are
// recorded on the digest rather than returned.
func (s *Scheduler) RunOverdueReminder(ctx context.Context) (models.OverdueDigest, error) {
	s.logger.Info("generating overdue reminder")

	if err := s.tracker.Refresh(ctx); err != nil {
		return models.OverdueDigest{}, fmt.Errorf("refresh tracker: %w", err)
	}

	digest, err := s.reportingSvc.OverdueDigest(ctx)
	if err != nil {
		return models.OverdueDigest{}, fmt.Errorf("build digest: %w", err)
	}

	if digest.Overdue+digest.DueSoon > 0 && s.cfg.WhatsApp.Enabled() {
		req := models.OutboundMessageRequest{
			To:        s.cfg.WhatsApp.ReminderTo,
			Message:   digest.Message,
			Reference: digest.ID,
		}
		if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
			s.logger.Error("failed to send overdue reminder", zap.Error(err))
		} else {
			digest.Delivered = true
			s.logger.Info("overdue reminder sent successfully",
				zap.Int("overdue", digest.Overdue),
				zap.Int("due_soon", digest.DueSoon))
		}
	}

	if err := s.digests.SaveOverdueDigest(ctx, digest); err != nil {
		return digest, fmt.Errorf("save digest: %w", err)
	}
	return digest, nil
}
