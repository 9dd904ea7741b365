// Package config holds the engine's YAML settings and the secrets it reads
// from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	StoreSheets = "sheets"
	StoreSQLite = "sqlite"
)

type Config struct {
	Sheets struct {
		ConfigSpreadsheetID  string `yaml:"config_spreadsheet_id"`
		OutputSpreadsheetID  string `yaml:"output_spreadsheet_id"`
		MappingSpreadsheetID string `yaml:"mapping_spreadsheet_id"`

		Users           string `yaml:"users"`
		NotifySettings  string `yaml:"notify_settings"`
		Output          string `yaml:"output"`
		JobMapping      string `yaml:"job_mapping"`
		FacilityMapping string `yaml:"facility_mapping"`

		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"sheets"`

	Mail struct {
		Sender  string        `yaml:"sender"`
		Host    string        `yaml:"host"`
		Port    int           `yaml:"port"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"mail"`

	Run struct {
		Workers        int           `yaml:"workers"`
		AccountTimeout time.Duration `yaml:"account_timeout"`
		FreshnessDays  int           `yaml:"freshness_days"`
		NotifyOnlyDays int           `yaml:"notify_only_days"`
		LockFile       string        `yaml:"lock_file"`
	} `yaml:"run"`

	Enrich struct {
		Model             string  `yaml:"model"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"enrich"`

	Store struct {
		Backend    string `yaml:"backend"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"store"`

	Log struct {
		Dir        string `yaml:"dir"`
		InstantDir string `yaml:"instant_dir"`
		Level      string `yaml:"level"`
		Pretty     bool   `yaml:"pretty"`
	} `yaml:"log"`

	Watch struct {
		Interval time.Duration `yaml:"interval"`
		Addr     string        `yaml:"addr"`
	} `yaml:"watch"`
}

// Defaults is a complete working configuration; the file only overrides it.
func Defaults() Config {
	var c Config
	c.Sheets.ConfigSpreadsheetID = "1HzSM76jUtUOzHiy1zg3Ivqg_-nTn0iFwVwrzG82hQzU"
	c.Sheets.OutputSpreadsheetID = "1kOOWPTX3MNhBPXIuZcGn6WNT01iGWkJlbcSmlSAA8Qo"
	c.Sheets.MappingSpreadsheetID = "13SErWeTXqTbqgR3n16GT1__8LLI2r8egGx4defJbQ9k"
	c.Sheets.Users = "ユーザ"
	c.Sheets.NotifySettings = "通知設定"
	c.Sheets.Output = "応募者シート"
	c.Sheets.JobMapping = "職種_Akindo独自"
	c.Sheets.FacilityMapping = "施設形態_Akindo独自"
	c.Sheets.RequestsPerSecond = 1

	c.Mail.Sender = "system@en-gage.net"
	c.Mail.Host = "imap4.muumuu-mail.com"
	c.Mail.Port = 993
	c.Mail.Timeout = 60 * time.Second

	c.Run.Workers = 2
	c.Run.AccountTimeout = 120 * time.Second
	c.Run.FreshnessDays = 7
	c.Run.NotifyOnlyDays = 1
	c.Run.LockFile = "engine.lock"

	c.Enrich.Model = "gpt-4.1-nano"
	c.Enrich.RequestsPerSecond = 2

	c.Store.Backend = StoreSheets
	c.Store.SQLitePath = "applications.db"

	c.Log.Dir = "logs"
	c.Log.InstantDir = "logs_instant"
	c.Log.Level = "info"

	c.Watch.Interval = time.Minute
	c.Watch.Addr = "127.0.0.1:38471"
	return c
}

// Load reads path over Defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Env is everything read from the process environment.
type Env struct {
	GoogleCredentials     string `env:"GOOGLE_CREDENTIALS"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"credentials.json"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	ChatworkToken  string `env:"CHATWORK_TOKEN"`
	ChatworkRoomID string `env:"CHATWORK_ROOM_ID"`

	InstantLineToken   string `env:"INSTANT_LINE_ACCESS_TOKEN"`
	InstantLineGroupID string `env:"INSTANT_LINE_GROUP_ID"`

	DataDir string `env:"ENGINE_DATA_DIR"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("read environment: %w", err)
	}
	return e, nil
}

// Secrets maps keychain names to the fields they may fill.
func (e *Env) Secrets() map[string]*string {
	return map[string]*string{
		"OPENAI_API_KEY":            &e.OpenAIKey,
		"CHATWORK_TOKEN":            &e.ChatworkToken,
		"INSTANT_LINE_ACCESS_TOKEN": &e.InstantLineToken,
	}
}
