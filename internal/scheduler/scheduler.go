package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"osld-portal/internal/config"
)

// ReminderSender creates the due-today reminders for a calendar day
type ReminderSender interface {
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
}

// Scheduler handles periodic tasks
type Scheduler struct {
	cron      *cron.Cron
	reminders ReminderSender
	config    *config.SchedulerConfig
	location  *time.Location
	now       func() time.Time
	timeout   time.Duration
}

// NewScheduler creates a new scheduler. Cron expressions are evaluated in loc,
// the portal timezone.
func NewScheduler(reminders ReminderSender, cfg *config.SchedulerConfig, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reminders: reminders,
		config:    cfg,
		location:  loc,
		now:       time.Now,
		timeout:   5 * time.Minute,
	}
}

// Start registers all enabled tasks and starts the cron runner
func (s *Scheduler) Start() error {
	slog.Info("Starting scheduler",
		"deadline_reminders_enabled", s.config.EnableDeadlineReminders,
		"timezone", s.location.String())

	if s.config.EnableDeadlineReminders {
		if err := s.addTask(s.config.DeadlineReminderCron, "deadline_reminders", s.sendDeadlineReminders); err != nil {
			return err
		}
	}

	s.cron.Start()
	slog.Info("Scheduler started", "tasks", len(s.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running tasks to finish
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// addTask parses a standard five-field cron expression and registers task
func (s *Scheduler) addTask(cronExpr, taskName string, task func()) error {
	id, err := s.cron.AddFunc(cronExpr, func() {
		slog.Info("Running scheduled task", "task", taskName)
		task()
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression for %s: %w", taskName, err)
	}

	slog.Info("Scheduled task registered", "task", taskName, "cron", cronExpr, "entry_id", id)
	return nil
}

// sendDeadlineReminders reminds organizations of reports due today
func (s *Scheduler) sendDeadlineReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := s.now().In(s.location)
	sent, err := s.reminders.SendDueReminders(ctx, now)
	if err != nil {
		slog.Error("Deadline reminders failed", "reminders_sent", sent, "error", err)
		return
	}

	slog.Info("Deadline reminders completed", "date", now.Format("2006-01-02"), "reminders_sent", sent)
}
