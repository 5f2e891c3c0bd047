package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	unsetEnv(t, "CONFIDENCE_MAX", "WEEK_MIN", "WEEK_MAX", "WEEK_SCALES", "PROMPT_CRON", "REMINDER_CRON", "RESULTS_CRON", "TIMEZONE", "LOG_LEVEL")

	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, 20, c.Pool.ConfidenceMax)
	assert.Equal(t, 1, c.Pool.WeekMin)
	assert.Equal(t, 18, c.Pool.WeekMax)
	assert.Equal(t, map[int]int{14: 14, 18: 17}, c.Pool.WeekScales)
	assert.Equal(t, 14, c.Pool.ScaleFor(14))
	assert.Equal(t, 17, c.Pool.ScaleFor(18))
	assert.Equal(t, 20, c.Pool.ScaleFor(3))
	assert.Equal(t, slog.LevelInfo, c.Level())
}

func TestNewFromEnvironment(t *testing.T) {
	unsetEnv(t, "WEEK_MIN", "WEEK_MAX", "PROMPT_CRON", "REMINDER_CRON", "RESULTS_CRON", "TIMEZONE")
	t.Setenv("CONFIDENCE_MAX", "16")
	t.Setenv("WEEK_SCALES", "17:10")
	t.Setenv("PARTICIPANT", "Sam")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHAT_ID", "42")

	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, 16, c.Pool.ConfidenceMax)
	assert.Equal(t, map[int]int{17: 10}, c.Pool.WeekScales)
	assert.Equal(t, "Sam", c.Pool.Participant)
	assert.Equal(t, int64(42), c.TelegramBot.ChatID)
	assert.Equal(t, slog.LevelDebug, c.Level())

	layout := c.Pool.Layout()
	assert.Equal(t, 16, layout.ConfidenceMax)
	assert.Equal(t, 10, layout.ScaleFor(17))
	assert.Equal(t, 2, layout.HeaderRows)
}

// unsetEnv clears keys for the duration of the test; envconfig treats an
// empty value as set.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Pool: Pool{ConfidenceMax: 20, WeekMin: 1, WeekMax: 18, WeekScales: map[int]int{14: 14}},
			Schedule: Schedule{
				PromptCron:   "0 9 * * 2",
				ReminderCron: "0 18 * * 3",
				ResultsCron:  "0 10 * * 2",
				Timezone:     "UTC",
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "zero confidence max", mutate: func(c *Config) { c.Pool.ConfidenceMax = 0 }},
		{name: "inverted weeks", mutate: func(c *Config) { c.Pool.WeekMin, c.Pool.WeekMax = 10, 2 }},
		{name: "scale above max", mutate: func(c *Config) { c.Pool.WeekScales = map[int]int{14: 25} }},
		{name: "scale for unknown week", mutate: func(c *Config) { c.Pool.WeekScales = map[int]int{30: 10} }},
		{name: "bad cron", mutate: func(c *Config) { c.Schedule.ReminderCron = "every wednesday" }},
		{name: "bad timezone", mutate: func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
	}

	c := valid()
	require.NoError(t, c.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestFilePaths(t *testing.T) {
	f := Files{OutputDir: "out"}

	assert.Equal(t, filepath.Join("out", "week03_prompt.md"), f.PromptPath(3))
	assert.Equal(t, filepath.Join("out", "week14_analysis.json"), f.AnalysisPath(14))
	assert.Equal(t, filepath.Join("out", "week07_report.md"), f.ReportPath(7))

	at := time.Date(2025, 9, 9, 14, 5, 3, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "backups", "grid_backup_20250909_140503.xlsx"), f.BackupPath(at))
}
