package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SheetsAccessToken string `yaml:"sheets_access_token"`

	QueueSpreadsheetID string `yaml:"queue_spreadsheet_id"`
	QueueSheetName     string `yaml:"queue_sheet_name"`
	StatsSpreadsheetID string `yaml:"stats_spreadsheet_id"`
	StatsSheetName     string `yaml:"stats_sheet_name"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	NotifyChannelID string `yaml:"notify_channel_id"`

	DBPath             string `yaml:"db_path"`
	CompactionSchedule string `yaml:"compaction_schedule"`
	ReminderSchedule   string `yaml:"reminder_schedule"`
	LookaheadDays      int    `yaml:"lookahead_days"`
	MinForecastDays    int    `yaml:"min_forecast_days"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
	Timezone           string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.SheetsAccessToken, "SHEETS_ACCESS_TOKEN")
	envOverride(&cfg.QueueSpreadsheetID, "QUEUE_SPREADSHEET_ID")
	envOverride(&cfg.QueueSheetName, "QUEUE_SHEET_NAME")
	envOverride(&cfg.StatsSpreadsheetID, "STATS_SPREADSHEET_ID")
	envOverride(&cfg.StatsSheetName, "STATS_SHEET_NAME")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.NotifyChannelID, "NOTIFY_CHANNEL_ID")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.CompactionSchedule, "COMPACTION_SCHEDULE")
	envOverride(&cfg.ReminderSchedule, "REMINDER_SCHEDULE")
	envOverrideInt(&cfg.LookaheadDays, "LOOKAHEAD_DAYS")
	envOverrideInt(&cfg.MinForecastDays, "MIN_FORECAST_DAYS")
	envOverrideInt(&cfg.HTTPTimeoutSeconds, "HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.QueueSheetName == "" {
		cfg.QueueSheetName = "Queue"
	}
	if cfg.StatsSheetName == "" {
		cfg.StatsSheetName = "Stats"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./queuebot.db"
	}
	if cfg.LookaheadDays == 0 {
		cfg.LookaheadDays = 15
	}
	if cfg.MinForecastDays == 0 {
		cfg.MinForecastDays = minForecastDays
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields
	required := map[string]string{
		"sheets_access_token":  cfg.SheetsAccessToken,
		"queue_spreadsheet_id": cfg.QueueSpreadsheetID,
		"stats_spreadsheet_id": cfg.StatsSpreadsheetID,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}

	if cfg.LookaheadDays < 1 {
		log.Fatalf("invalid lookahead_days '%d': must be >= 1", cfg.LookaheadDays)
	}
	if cfg.MinForecastDays < 3 {
		log.Fatalf("invalid min_forecast_days '%d': must be >= 3 (a two-day fit has no degrees of freedom)", cfg.MinForecastDays)
	}
	if cfg.CompactionSchedule != "" {
		if _, err := parseCronSchedule(cfg.CompactionSchedule); err != nil {
			log.Fatalf("invalid compaction_schedule '%s': %v", cfg.CompactionSchedule, err)
		}
	}
	if cfg.ReminderSchedule != "" {
		if _, err := parseCronSchedule(cfg.ReminderSchedule); err != nil {
			log.Fatalf("invalid reminder_schedule '%s': %v", cfg.ReminderSchedule, err)
		}
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
		cfg.Timezone = time.Local.String()
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
