// Package bot is the Telegram front-end: it maps chat commands, photos
// and inline buttons onto a per-chat generation workflow.
package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"diagram2terraform/internal/mediagroup"
	"diagram2terraform/internal/session"
	"diagram2terraform/internal/workflow"
)

// Messenger is the part of the Telegram client the handler needs.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) (int, error)
	EditKeyboard(chatID int64, messageID int, markup tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(callbackID, text string, alert bool) error
	SendTyping(chatID int64)
	SendDocument(chatID int64, name string, content []byte, caption string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

type Options struct {
	Messenger Messenger
	Sessions  *session.Store
	Logger    *slog.Logger
}

type Handler struct {
	tg         Messenger
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.Options{})
	}

	return &Handler{
		tg:       opts.Messenger,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

// Commands is the menu published to Telegram at startup.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Introduction"},
		{Command: "help", Description: "How to use the bot"},
		{Command: "provider", Description: "Choose AWS, GCP or Azure"},
		{Command: "tag", Description: "Add a tag: /tag key=value"},
		{Command: "untag", Description: "Remove a tag: /untag key"},
		{Command: "tags", Description: "List tags"},
		{Command: "generate", Description: "Generate Terraform files"},
		{Command: "reset", Description: "Start over"},
	}
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("tg:%d:%d", chatID, userID)
}

func (h *Handler) workflowFor(chatID, userID int64) *workflow.Workflow {
	return h.sessions.GetOrCreate(sessionKey(chatID, userID)).Workflow
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}

	switch {
	case msg.IsCommand():
		return h.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1]
		return h.handleImage(ctx, msg, photo.FileID, "diagram.jpg", "")
	case msg.Document != nil:
		if !strings.HasPrefix(strings.ToLower(msg.Document.MimeType), "image/") {
			return h.tg.SendText(msg.Chat.ID, msgNotAnImage)
		}
		return h.handleImage(ctx, msg, msg.Document.FileID, msg.Document.FileName, msg.Document.MimeType)
	case strings.TrimSpace(msg.Text) != "":
		return h.tg.SendText(msg.Chat.ID, msgUseCommands)
	}
	return nil
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return h.tg.SendText(chatID, msgStart)
	case "help":
		return h.tg.SendText(chatID, msgHelp)
	case "provider":
		if args == "" {
			return h.showProviderMenu(chatID, userID)
		}
		return h.selectProvider(chatID, userID, args)
	case "tag":
		return h.addTag(chatID, userID, args)
	case "untag":
		return h.removeTag(chatID, userID, args)
	case "tags":
		return h.tg.SendText(chatID, formatTags(h.workflowFor(chatID, userID).State()))
	case "generate":
		return h.generate(ctx, chatID, userID)
	case "reset":
		h.sessions.Delete(sessionKey(chatID, userID))
		return h.tg.SendText(chatID, msgReset)
	default:
		return h.tg.SendText(chatID, msgUnknownCommand)
	}
}
