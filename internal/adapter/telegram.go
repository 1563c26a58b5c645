package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/jarvis/internal/concurrency"
	"github.com/harunnryd/jarvis/internal/config"
	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/idempotency"
	"github.com/harunnryd/jarvis/internal/logger"
	"github.com/harunnryd/jarvis/internal/model/contract"
	"github.com/harunnryd/jarvis/internal/session"
	"github.com/harunnryd/jarvis/internal/tool"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramSessionPrefix = "telegram:"
	maxPhotoBytes         = 10 << 20
	chatQueueSize         = 32
)

const telegramGreeting = "Hi, I'm Jarvis. Tell me what you ate or how you trained, or send a photo of your meal."

// telegramBot is the part of tgbotapi.BotAPI the adapter talks to.
type telegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type TelegramOptions struct {
	UpdateTimeout  int
	AllowedChatIDs []int64
	Dedup          *idempotency.Store
	DedupTTL       time.Duration
	HTTPClient     *http.Client
}

type TelegramAdapter struct {
	token      string
	responder  Responder
	opts       TelegramOptions
	allowed    map[int64]bool
	api        *tgbotapi.BotAPI
	bot        telegramBot
	httpClient *http.Client

	// One FIFO worker per chat: a chat's updates are handled one at a time,
	// in arrival order. Different chats proceed independently.
	mu          sync.Mutex
	queues      map[int64]chan tgbotapi.Update
	closed      bool
	workers     concurrency.Group
	quit        chan struct{}
	receiveDone chan struct{}
	stopOnce    sync.Once
}

func NewTelegramAdapter(token string, responder Responder, opts TelegramOptions) *TelegramAdapter {
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = config.DefaultTelegramUpdateTimeout
	}
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = 24 * time.Hour
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	allowed := make(map[int64]bool, len(opts.AllowedChatIDs))
	for _, id := range opts.AllowedChatIDs {
		allowed[id] = true
	}

	return &TelegramAdapter{
		token:      strings.TrimSpace(token),
		responder:  responder,
		opts:       opts,
		allowed:    allowed,
		httpClient: client,
		queues:     make(map[int64]chan tgbotapi.Update),
		quit:       make(chan struct{}),
	}
}

func (t *TelegramAdapter) Name() string {
	return "telegram"
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	if t.token == "" {
		return jarvisErrors.InvalidInput("telegram.bot_token is required")
	}

	api, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return jarvisErrors.External("telegram init", err)
	}
	slog.Info("Telegram adapter started", "user", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.opts.UpdateTimeout
	updates := api.GetUpdatesChan(u)

	receiveDone := make(chan struct{})
	t.mu.Lock()
	t.api = api
	t.bot = api
	t.receiveDone = receiveDone
	t.mu.Unlock()

	go func() {
		defer close(receiveDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.quit:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.enqueue(ctx, update)
			}
		}
	}()

	return nil
}

// enqueue hands an update to its chat's worker, starting the worker on the
// chat's first update.
func (t *TelegramAdapter) enqueue(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}
	chatID := update.Message.Chat.ID

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	q, ok := t.queues[chatID]
	if !ok {
		q = make(chan tgbotapi.Update, chatQueueSize)
		t.queues[chatID] = q
		t.workers.Go(fmt.Sprintf("telegram chat %d", chatID), func() {
			for u := range q {
				t.handleUpdate(ctx, u)
			}
		})
	}
	t.mu.Unlock()

	q <- update
}

// Stop stops polling, lets every chat drain its queue and waits for the
// in-flight turns.
func (t *TelegramAdapter) Stop(ctx context.Context) error {
	t.mu.Lock()
	api, receiveDone := t.api, t.receiveDone
	t.mu.Unlock()

	if api != nil {
		api.StopReceivingUpdates()
	}
	t.stopOnce.Do(func() { close(t.quit) })

	if receiveDone != nil {
		select {
		case <-receiveDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// The receive loop has exited, so nothing sends on the queues any more.
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		for _, q := range t.queues {
			close(q)
		}
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TelegramAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if t.opts.Dedup != nil {
		key := fmt.Sprintf("telegram:%d", update.UpdateID)
		if t.opts.Dedup.CheckAndMark(key, t.opts.DedupTTL) {
			slog.Debug("Duplicate telegram update dropped", "update_id", update.UpdateID)
			return
		}
		if err := t.opts.Dedup.Save(); err != nil {
			slog.Warn("Failed to persist telegram dedup keys", "error", err)
		}
	}

	chatID := msg.Chat.ID
	if len(t.allowed) > 0 && !t.allowed[chatID] {
		slog.Warn("Telegram message from chat not on the allow list", "chat_id", chatID)
		return
	}

	sessionID := telegramSessionPrefix + strconv.FormatInt(chatID, 10)
	ctx = logger.WithSessionID(ctx, sessionID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			t.sendText(ctx, chatID, telegramGreeting)
			return
		case "reset":
			if err := t.responder.Reset(sessionID); err != nil {
				t.sendText(ctx, chatID, jarvisErrors.UserMessage(err))
				return
			}
			t.sendText(ctx, chatID, "Conversation cleared.")
			return
		}
	}

	in := session.Input{Text: strings.TrimSpace(msg.Text)}
	if len(msg.Photo) > 0 {
		in.Text = strings.TrimSpace(msg.Caption)
		img, err := t.downloadPhoto(ctx, msg.Photo)
		if err != nil {
			slog.ErrorContext(ctx, "Telegram photo download failed", "error", err)
			t.sendText(ctx, chatID, jarvisErrors.UserMessage(err))
			return
		}
		in.Image = img
	}
	if in.Text == "" && in.Image == nil {
		return
	}

	if _, err := t.bot.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.DebugContext(ctx, "Typing action failed", "error", err)
	}

	ctx = tool.WithNotifier(ctx, tool.NotifierFunc(func(ctx context.Context, message string) {
		t.sendText(ctx, chatID, message)
	}))

	reply := t.responder.Respond(ctx, sessionID, in)
	if reply.Visible {
		t.sendText(ctx, chatID, reply.Text)
	}
}

// downloadPhoto fetches the largest size of a photo message.
func (t *TelegramAdapter) downloadPhoto(ctx context.Context, sizes []tgbotapi.PhotoSize) (*contract.Image, error) {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}

	url, err := t.bot.GetFileDirectURL(best.FileID)
	if err != nil {
		return nil, jarvisErrors.External("telegram file url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, jarvisErrors.Wrap(err, "telegram file request")
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, jarvisErrors.External("telegram file download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, jarvisErrors.External("telegram file download", fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, jarvisErrors.External("telegram file download", err)
	}
	return &contract.Image{MIMEType: http.DetectContentType(data), Data: data}, nil
}

func (t *TelegramAdapter) sendText(ctx context.Context, chatID int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.ErrorContext(ctx, "Telegram send failed", "chat_id", chatID, "error", err)
	}
}

// Send delivers content to a chat; sessionID is "telegram:<chat id>" or the bare id.
func (t *TelegramAdapter) Send(ctx context.Context, sessionID string, content string) error {
	t.mu.Lock()
	bot := t.bot
	t.mu.Unlock()
	if bot == nil {
		return jarvisErrors.Transient("telegram bot not initialized")
	}
	chatID, err := strconv.ParseInt(strings.TrimPrefix(sessionID, telegramSessionPrefix), 10, 64)
	if err != nil {
		return jarvisErrors.InvalidInput("invalid telegram session ID: " + sessionID)
	}
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, content)); err != nil {
		return jarvisErrors.External("telegram send", err)
	}
	return nil
}

func (t *TelegramAdapter) Health(ctx context.Context) error {
	t.mu.Lock()
	api := t.api
	t.mu.Unlock()
	if api == nil {
		return jarvisErrors.Transient("telegram bot not initialized")
	}
	if _, err := api.GetMe(); err != nil {
		return jarvisErrors.External("telegram getMe", err)
	}
	return nil
}
