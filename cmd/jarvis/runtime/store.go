package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/harunnryd/jarvis/internal/config"
	"github.com/harunnryd/jarvis/internal/mail"
	"github.com/harunnryd/jarvis/internal/sheet"
)

// OpenStore is the default StoreFactory.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (sheet.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "local":
		retry, err := config.DurationOrDefault(cfg.LockRetry, config.DefaultStoreLockRetry)
		if err != nil {
			return nil, fmt.Errorf("store.lock_retry: %w", err)
		}
		return sheet.NewWorkbook(cfg.Path, retry, cfg.LockMaxRetry)
	case "google":
		return sheet.NewGoogleSheets(ctx, cfg.SpreadsheetID, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown store.backend %q (want local or google)", cfg.Backend)
	}
}

// NewSender picks the report transport.
func NewSender(ctx context.Context, cfg config.ReportConfig) (mail.Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case "", "log":
		return mail.LogSender{}, nil
	case "smtp":
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("report.smtp.host is required for the smtp transport")
		}
		return mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password), nil
	case "gmail":
		return mail.NewGmailSender(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.User)
	default:
		return nil, fmt.Errorf("unknown report.transport %q (want log, smtp or gmail)", cfg.Transport)
	}
}
