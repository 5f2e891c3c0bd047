package scheduler

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarshaarawi/poolpicks/internal/config"
	"github.com/omarshaarawi/poolpicks/internal/metrics"
)

type fakeMessages struct {
	reminder string
	err      error
}

func (f *fakeMessages) GetPromptMessage(ctx context.Context) (string, error) {
	return "prompt", f.err
}

func (f *fakeMessages) GetReminderMessage(ctx context.Context) (string, error) {
	return f.reminder, f.err
}

func (f *fakeMessages) GetResultsMessage(ctx context.Context) (string, error) {
	return "results", f.err
}

func defaultSchedule() config.Schedule {
	return config.Schedule{
		PromptCron:   "0 9 * * 2",
		ReminderCron: "0 18 * * 3",
		ResultsCron:  "0 10 * * 2",
		Timezone:     "America/Chicago",
	}
}

func TestStartRegistersJobs(t *testing.T) {
	s, err := NewScheduler(defaultSchedule(), &fakeMessages{}, metrics.New(), func(string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	var names []string
	for _, j := range s.s.Jobs() {
		names = append(names, j.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"prompt", "reminder", "results"}, names)
}

func TestBadSchedule(t *testing.T) {
	cfg := defaultSchedule()
	cfg.Timezone = "Mars/Olympus"
	_, err := NewScheduler(cfg, &fakeMessages{}, metrics.New(), nil)
	assert.Error(t, err)

	cfg = defaultSchedule()
	cfg.ReminderCron = "every wednesday"
	s, err := NewScheduler(cfg, &fakeMessages{}, metrics.New(), nil)
	require.NoError(t, err)
	assert.ErrorContains(t, s.Start(), "reminder")
}

func TestRun(t *testing.T) {
	var sent []string
	send := func(text string) error {
		sent = append(sent, text)
		return nil
	}

	messages := &fakeMessages{}
	s, err := NewScheduler(defaultSchedule(), messages, metrics.New(), send)
	require.NoError(t, err)

	s.run("prompt", messages.GetPromptMessage)
	s.run("reminder", messages.GetReminderMessage)
	assert.Equal(t, []string{"prompt"}, sent, "empty reminder is not sent")

	messages.reminder = "picks due"
	s.run("reminder", messages.GetReminderMessage)
	assert.Equal(t, []string{"prompt", "picks due"}, sent)

	messages.err = errors.New("espn down")
	s.run("results", messages.GetResultsMessage)
	assert.Len(t, sent, 2)
}
