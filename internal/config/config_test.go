package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	// We pass nil for cmd to skip flags
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultModelDefault, cfg.Models.Default)
	assert.Equal(t, DefaultModelEmbedding, cfg.Models.Embedding)
	assert.Equal(t, DefaultDispatchMaxRounds, cfg.Dispatch.MaxRounds)
	assert.Equal(t, DefaultStoreBackend, cfg.Store.Backend)
	assert.Equal(t, DefaultJournalDefaultQuantity, cfg.Journal.DefaultQuantity)
	assert.Equal(t, DefaultBatchLLMDelay, cfg.Batch.LLMDelay)
	assert.Equal(t, DefaultReportDays, cfg.Report.Days)
	assert.Equal(t, DefaultSchedulerReportCron, cfg.Scheduler.Jobs["report"])
	assert.Equal(t, DefaultSystemPrompt, cfg.Prompts.System)
	assert.Contains(t, cfg.Store.Path, filepath.Join(".jarvis", "workbook.json"))
	require.Len(t, cfg.Models.Registry, 3)
	assert.Equal(t, "gemini", cfg.Models.Registry[0].Provider)
}

func TestLoadInjectsProviderKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")

	cfg, err := Load(nil)
	require.NoError(t, err)

	for _, m := range cfg.Models.Registry {
		switch m.Provider {
		case "gemini":
			assert.Equal(t, "g-key", m.APIKey, m.Name)
		case "openai":
			assert.Equal(t, "o-key", m.APIKey, m.Name)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("JARVIS_DISPATCH_MAX_ROUNDS", "4")
	t.Setenv("JARVIS_STORE_BACKEND", "google")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Dispatch.MaxRounds)
	assert.Equal(t, "google", cfg.Store.Backend)
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "custom.yaml")
	content := []byte(`
store:
  path: ~/data/book.json
report:
  to: me@example.com
  transport: smtp
  smtp:
    host: smtp.example.com
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Int("dispatch.max_rounds", 0, "")
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("dispatch.max_rounds", "3"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data", "book.json"), cfg.Store.Path)
	assert.Equal(t, "me@example.com", cfg.Report.To)
	assert.Equal(t, "smtp.example.com", cfg.Report.SMTP.Host)
	assert.Equal(t, 3, cfg.Dispatch.MaxRounds)
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("", DefaultBatchLLMDelay)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	d, err = DurationOrDefault("250ms", DefaultBatchLLMDelay)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	_, err = DurationOrDefault("soon", "")
	assert.Error(t, err)

	_, err = DurationOrDefault("", "")
	assert.Error(t, err)
}

func TestDurationOrDefaultDaysAndNegatives(t *testing.T) {
	d, err := DurationOrDefault(" 7d ", DefaultTelegramDedupTTL)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	_, err = DurationOrDefault("1.5d", "")
	assert.ErrorIs(t, err, jarvisErrors.ErrInvalidInput)

	_, err = DurationOrDefault("-5m", "")
	assert.ErrorIs(t, err, jarvisErrors.ErrInvalidInput)
}
