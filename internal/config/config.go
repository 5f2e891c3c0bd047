package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"

	"github.com/omarshaarawi/poolpicks/internal/pool"
)

type Config struct {
	Pool        Pool
	Files       Files
	ESPNAPI     ESPNAPI
	GenAI       GenAI
	TelegramBot TelegramBot
	Schedule    Schedule
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
}

type Pool struct {
	ConfidenceMax int         `envconfig:"CONFIDENCE_MAX" default:"20"`
	WeekMin       int         `envconfig:"WEEK_MIN" default:"1"`
	WeekMax       int         `envconfig:"WEEK_MAX" default:"18"`
	WeekScales    map[int]int `envconfig:"WEEK_SCALES" default:"14:14,18:17"`
	Participant   string      `envconfig:"PARTICIPANT" default:"Me"`
}

type Files struct {
	GridPath       string `envconfig:"GRID_PATH" default:"confidence_picks.xlsx"`
	GridSheet      string `envconfig:"GRID_SHEET" default:"Picks"`
	OutputDir      string `envconfig:"OUTPUT_DIR" default:"output"`
	DBPath         string `envconfig:"DB_PATH" default:"picks_history.db"`
	VocabularyPath string `envconfig:"VOCABULARY_PATH"`
}

type ESPNAPI struct {
	Year    int    `envconfig:"SEASON_YEAR" default:"2025"`
	BaseURL string `envconfig:"ESPN_BASE_URL" default:"https://site.api.espn.com/apis/site/v2/sports/football/nfl"`
}

type GenAI struct {
	APIKey string `envconfig:"GEMINI_API_KEY"`
	Model  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
}

// TelegramBot is only needed by the daemon; CLI commands run without it.
type TelegramBot struct {
	Token  string `envconfig:"TELEGRAM_TOKEN"`
	ChatID int64  `envconfig:"CHAT_ID"`
}

type Schedule struct {
	PromptCron   string `envconfig:"PROMPT_CRON" default:"0 9 * * 2"`
	ReminderCron string `envconfig:"REMINDER_CRON" default:"0 18 * * 3"`
	ResultsCron  string `envconfig:"RESULTS_CRON" default:"0 10 * * 2"`
	Timezone     string `envconfig:"TIMEZONE" default:"America/Chicago"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Pool.ConfidenceMax <= 0 {
		errs = append(errs, fmt.Errorf("CONFIDENCE_MAX: %w", pool.ErrInvalidConfidenceMax))
	}
	if c.Pool.WeekMin < 1 || c.Pool.WeekMin > c.Pool.WeekMax {
		errs = append(errs, fmt.Errorf("WEEK_MIN/WEEK_MAX: invalid range %d..%d", c.Pool.WeekMin, c.Pool.WeekMax))
	}
	for week, scale := range c.Pool.WeekScales {
		if week < c.Pool.WeekMin || week > c.Pool.WeekMax {
			errs = append(errs, fmt.Errorf("WEEK_SCALES: week %d outside %d..%d", week, c.Pool.WeekMin, c.Pool.WeekMax))
		}
		if scale <= 0 || scale > c.Pool.ConfidenceMax {
			errs = append(errs, fmt.Errorf("WEEK_SCALES: week %d scale %d outside 1..%d", week, scale, c.Pool.ConfidenceMax))
		}
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for name, spec := range map[string]string{
		"PROMPT_CRON":   c.Schedule.PromptCron,
		"REMINDER_CRON": c.Schedule.ReminderCron,
		"RESULTS_CRON":  c.Schedule.ResultsCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}

	return errors.Join(errs...)
}

// Layout is the grid layout implied by the pool rules.
func (p Pool) Layout() pool.Layout {
	layout := pool.DefaultLayout()
	layout.ConfidenceMax = p.ConfidenceMax
	layout.WeekMin = p.WeekMin
	layout.WeekMax = p.WeekMax
	layout.Scales = p.WeekScales
	return layout
}

func (p Pool) ScaleFor(week int) int {
	return p.Layout().ScaleFor(week)
}

func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (f Files) PromptPath(week int) string {
	return filepath.Join(f.OutputDir, fmt.Sprintf("week%02d_prompt.md", week))
}

func (f Files) AnalysisPath(week int) string {
	return filepath.Join(f.OutputDir, fmt.Sprintf("week%02d_analysis.json", week))
}

func (f Files) ReportPath(week int) string {
	return filepath.Join(f.OutputDir, fmt.Sprintf("week%02d_report.md", week))
}

func (f Files) BackupPath(at time.Time) string {
	return filepath.Join(f.OutputDir, "backups", fmt.Sprintf("grid_backup_%s.xlsx", at.Format("20060102_150405")))
}
