package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/jarvis/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Models    ModelsConfig    `koanf:"models"`
	Dispatch  DispatchConfig  `koanf:"dispatch"`
	Store     StoreConfig     `koanf:"store"`
	Journal   JournalConfig   `koanf:"journal"`
	Batch     BatchConfig     `koanf:"batch"`
	Report    ReportConfig    `koanf:"report"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Telegram  TelegramConfig  `koanf:"telegram"`
	Slack     SlackConfig     `koanf:"slack"`
	Memory    MemoryConfig    `koanf:"memory"`
	Prompts   PromptsConfig   `koanf:"prompts"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReadTimeout     string `koanf:"read_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

// LogConfig controls the optional rotated log file written next to stderr output.
type LogConfig struct {
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	Compress   bool   `koanf:"compress"`
}

type ModelsConfig struct {
	Default             string          `koanf:"default"`
	Fallback            string          `koanf:"fallback"`
	Embedding           string          `koanf:"embedding"`
	MaxFallbackAttempts int             `koanf:"max_fallback_attempts"`
	Registry            []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name"`
	Provider       string `koanf:"provider"`
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
}

type DispatchConfig struct {
	MaxRounds      int    `koanf:"max_rounds"`
	HistoryLimit   int    `koanf:"history_limit"`
	RequestTimeout string `koanf:"request_timeout"`
	TranscriptDir  string `koanf:"transcript_dir"`
}

// StoreConfig selects the tabular backend. "local" keeps a JSON workbook on
// disk; "google" talks to a Google Sheets spreadsheet.
type StoreConfig struct {
	Backend         string `koanf:"backend"`
	Path            string `koanf:"path"`
	SpreadsheetID   string `koanf:"spreadsheet_id"`
	CredentialsFile string `koanf:"credentials_file"`
	LockRetry       string `koanf:"lock_retry"`
	LockMaxRetry    int    `koanf:"lock_max_retry"`
}

type JournalConfig struct {
	Timezone        string `koanf:"timezone"`
	DefaultQuantity string `koanf:"default_quantity"`
}

type BatchConfig struct {
	LLMDelay     string `koanf:"llm_delay"`
	CoachEnabled bool   `koanf:"coach_enabled"`
}

type ReportConfig struct {
	To        string      `koanf:"to"`
	From      string      `koanf:"from"`
	Transport string      `koanf:"transport"`
	Days      int         `koanf:"days"`
	SMTP      SMTPConfig  `koanf:"smtp"`
	Gmail     GmailConfig `koanf:"gmail"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type GmailConfig struct {
	CredentialsFile string `koanf:"credentials_file"`
	User            string `koanf:"user"`
}

type SchedulerConfig struct {
	Enabled         bool              `koanf:"enabled"`
	TickInterval    string            `koanf:"tick_interval"`
	ShutdownTimeout string            `koanf:"shutdown_timeout"`
	StatePath       string            `koanf:"state_path"`
	Jobs            map[string]string `koanf:"jobs"`
}

type TelegramConfig struct {
	Enabled        bool    `koanf:"enabled"`
	BotToken       string  `koanf:"bot_token"`
	UpdateTimeout  int     `koanf:"update_timeout"`
	AllowedChatIDs []int64 `koanf:"allowed_chat_ids"`
	DedupTTL       string  `koanf:"dedup_ttl"`
	DedupPath      string  `koanf:"dedup_path"`
}

type SlackConfig struct {
	WebhookURL string `koanf:"webhook_url"`
}

type MemoryConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	TopK       int    `koanf:"top_k"`
}

type PromptsConfig struct {
	System string `koanf:"system"`
	Coach  string `koanf:"coach"`
	Diet   string `koanf:"diet"`
	Report string `koanf:"report"`
}

const (
	DefaultServerPort            = 9090
	DefaultServerLogLevel        = "info"
	DefaultServerReadTimeout     = "10s"
	DefaultServerShutdownTimeout = "10s"

	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 5

	DefaultModelDefault             = "gemini-2.5-flash"
	DefaultModelFallback            = "gpt-4o-mini"
	DefaultModelEmbedding           = "text-embedding-004"
	DefaultModelMaxFallbackAttempts = 2
	DefaultModelRequestTimeout      = "60s"

	DefaultDispatchMaxRounds      = 10
	DefaultDispatchHistoryLimit   = 40
	DefaultDispatchRequestTimeout = "90s"

	DefaultStoreBackend      = "local"
	DefaultStoreLockRetry    = "50ms"
	DefaultStoreLockMaxRetry = 100

	DefaultJournalTimezone        = "Local"
	DefaultJournalDefaultQuantity = "1 serving"

	DefaultBatchLLMDelay     = "2s"
	DefaultBatchCoachEnabled = true

	DefaultReportTransport = "log"
	DefaultReportDays      = 7
	DefaultReportSMTPPort  = 587

	DefaultSchedulerTickInterval    = "1m"
	DefaultSchedulerShutdownTimeout = "30s"
	DefaultSchedulerStatsCron       = "0 23 * * *"
	DefaultSchedulerDietCron        = "30 23 * * *"
	DefaultSchedulerSummaryCron     = "45 23 * * *"
	DefaultSchedulerReportCron      = "0 9 * * 1"

	DefaultTelegramUpdateTimeout = 60
	DefaultTelegramDedupTTL      = "24h"

	DefaultMemoryCollection = "facts"
	DefaultMemoryTopK       = 5
)

const DefaultSystemPrompt = `You are Jarvis, a personal fitness and diet assistant. Be professional but warm, with a little wit.
Rules:
1. Photo analysis: when the user sends a food photo, first describe what you see and ask for confirmation ("Looks like X and Y. Right?"). Only log after the user confirms.
2. Silent logging: when the user asks to record a meal or workout in text, call the matching tool right away. Do not announce that it was saved; continue the conversation naturally.
3. Use save_memory for durable personal facts (injuries, goals, preferences).
4. Use the date the user implies; otherwise assume today.`

const DefaultCoachPrompt = `You are a strength coach. Given one logged exercise with its sets, weights, reps, total volume and estimated one-rep max, reply with one or two short sentences of concrete feedback. No preamble.`

const DefaultDietPrompt = `You are a nutritionist. Given one day of meals, estimate total calories and score the day from 0 to 100.
Reply with JSON only: {"type":"diet","total_kcal":<number>,"score":<number>,"comment":"<one sentence>"}`

const DefaultReportPrompt = `Write a short weekly fitness report email in plain text from the numbers below. Celebrate progress, point out one thing to improve, keep it under 200 words.`

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.port":                  DefaultServerPort,
		"server.log_level":             DefaultServerLogLevel,
		"server.read_timeout":          DefaultServerReadTimeout,
		"server.shutdown_timeout":      DefaultServerShutdownTimeout,
		"log.max_size_mb":              DefaultLogMaxSizeMB,
		"log.max_backups":              DefaultLogMaxBackups,
		"log.compress":                 true,
		"models.default":               DefaultModelDefault,
		"models.fallback":              DefaultModelFallback,
		"models.embedding":             DefaultModelEmbedding,
		"models.max_fallback_attempts": DefaultModelMaxFallbackAttempts,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: "gemini"},
			{Name: DefaultModelEmbedding, Provider: "gemini"},
			{Name: DefaultModelFallback, Provider: "openai"},
		},
		"dispatch.max_rounds":        DefaultDispatchMaxRounds,
		"dispatch.history_limit":     DefaultDispatchHistoryLimit,
		"dispatch.request_timeout":   DefaultDispatchRequestTimeout,
		"dispatch.transcript_dir":    filepath.Join(os.Getenv("HOME"), pathutil.DataDirName, "transcripts"),
		"store.backend":              DefaultStoreBackend,
		"store.path":                 filepath.Join(os.Getenv("HOME"), pathutil.DataDirName, "workbook.json"),
		"store.lock_retry":           DefaultStoreLockRetry,
		"store.lock_max_retry":       DefaultStoreLockMaxRetry,
		"journal.timezone":           DefaultJournalTimezone,
		"journal.default_quantity":   DefaultJournalDefaultQuantity,
		"batch.llm_delay":            DefaultBatchLLMDelay,
		"batch.coach_enabled":        DefaultBatchCoachEnabled,
		"report.transport":           DefaultReportTransport,
		"report.days":                DefaultReportDays,
		"report.smtp.port":           DefaultReportSMTPPort,
		"report.gmail.user":          "me",
		"scheduler.enabled":          true,
		"scheduler.tick_interval":    DefaultSchedulerTickInterval,
		"scheduler.shutdown_timeout": DefaultSchedulerShutdownTimeout,
		"scheduler.state_path":       filepath.Join(os.Getenv("HOME"), pathutil.DataDirName, "scheduler.json"),
		"scheduler.jobs": map[string]string{
			"stats":   DefaultSchedulerStatsCron,
			"diet":    DefaultSchedulerDietCron,
			"summary": DefaultSchedulerSummaryCron,
			"report":  DefaultSchedulerReportCron,
		},
		"telegram.update_timeout": DefaultTelegramUpdateTimeout,
		"telegram.dedup_ttl":      DefaultTelegramDedupTTL,
		"telegram.dedup_path":     filepath.Join(os.Getenv("HOME"), pathutil.DataDirName, "telegram_updates.json"),
		"memory.enabled":          false,
		"memory.path":             filepath.Join(os.Getenv("HOME"), pathutil.DataDirName, "memory"),
		"memory.collection":       DefaultMemoryCollection,
		"memory.top_k":            DefaultMemoryTopK,
		"prompts.system":          DefaultSystemPrompt,
		"prompts.coach":           DefaultCoachPrompt,
		"prompts.diet":            DefaultDietPrompt,
		"prompts.report":          DefaultReportPrompt,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, pathutil.DataDirName, "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables: JARVIS_STORE_BACKEND -> store.backend
	k.Load(env.Provider("JARVIS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "JARVIS_")), "_", ".", 1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "gemini"
		}
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	injectAPIKey(&cfg, "gemini", "GEMINI_API_KEY")
	injectAPIKey(&cfg, "openai", "OPENAI_API_KEY")
	injectAPIKey(&cfg, "anthropic", "ANTHROPIC_API_KEY")
	if cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}

	return &cfg, nil
}

// injectAPIKey fills empty registry keys from the provider's conventional env var.
func injectAPIKey(cfg *Config, provider, envVar string) {
	key := os.Getenv(envVar)
	if key == "" {
		return
	}
	for i, m := range cfg.Models.Registry {
		if m.Provider == provider && m.APIKey == "" {
			cfg.Models.Registry[i].APIKey = key
		}
	}
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	for _, p := range []*string{
		&cfg.Store.Path,
		&cfg.Store.CredentialsFile,
		&cfg.Report.Gmail.CredentialsFile,
		&cfg.Scheduler.StatePath,
		&cfg.Telegram.DedupPath,
		&cfg.Memory.Path,
		&cfg.Dispatch.TranscriptDir,
		&cfg.Log.File,
	} {
		expanded, err := pathutil.Expand(*p)
		if err != nil {
			return err
		}
		if expanded != "" {
			*p = expanded
		}
	}

	return nil
}
