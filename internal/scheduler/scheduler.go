package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/omarshaarawi/poolpicks/internal/config"
	"github.com/omarshaarawi/poolpicks/internal/metrics"
)

const jobTimeout = 2 * time.Minute

// Messages is the part of the pool service the scheduled jobs push to chat.
// An empty message means there is nothing to send.
type Messages interface {
	GetPromptMessage(ctx context.Context) (string, error)
	GetReminderMessage(ctx context.Context) (string, error)
	GetResultsMessage(ctx context.Context) (string, error)
}

type Scheduler struct {
	s           gocron.Scheduler
	cfg         config.Schedule
	messages    Messages
	metrics     *metrics.Metrics
	sendMessage func(string) error
}

func NewScheduler(cfg config.Schedule, messages Messages, m *metrics.Metrics, sendMessage func(string) error) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load location %q: %w", cfg.Timezone, err)
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:           s,
		cfg:         cfg,
		messages:    messages,
		metrics:     m,
		sendMessage: sendMessage,
	}, nil
}

func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		cron string
		task func(context.Context) (string, error)
	}{
		// Research prompt - Tuesday morning once the slate is set
		{"prompt", s.cfg.PromptCron, s.messages.GetPromptMessage},
		// Missing picks reminder - Wednesday evening
		{"reminder", s.cfg.ReminderCron, s.messages.GetReminderMessage},
		// Last week's results - Tuesday morning after Monday night
		{"results", s.cfg.ResultsCron, s.messages.GetResultsMessage},
	}

	for _, job := range jobs {
		_, err := s.s.NewJob(
			gocron.CronJob(job.cron, false),
			gocron.NewTask(s.run, job.name, job.task),
			gocron.WithName(job.name),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s job: %w", job.name, err)
		}
		slog.Info("Scheduled job", "job", job.name, "cron", job.cron, "timezone", s.cfg.Timezone)
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) run(name string, task func(context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	text, err := task(ctx)
	if err != nil {
		slog.Error("Scheduled job failed", "job", name, "error", err)
		s.metrics.JobRun(name, false)
		return
	}
	if text == "" {
		slog.Info("Scheduled job had nothing to send", "job", name)
		s.metrics.JobRun(name, true)
		return
	}
	if err := s.sendMessage(text); err != nil {
		slog.Error("Failed to send scheduled message", "job", name, "error", err)
		s.metrics.JobRun(name, false)
		return
	}
	s.metrics.JobRun(name, true)
}
