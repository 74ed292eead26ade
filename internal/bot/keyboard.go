package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"diagram2terraform/internal/terraform"
)

const callbackPrefix = "tf"

func (h *Handler) showProviderMenu(chatID, userID int64) error {
	st := h.workflowFor(chatID, userID).State()
	_, err := h.tg.SendTextWithKeyboard(chatID, msgChooseProvider, providerKeyboard(userID, st.Provider))
	return err
}

func providerKeyboard(ownerID int64, selected terraform.Provider) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, info := range terraform.Providers() {
		label := string(info.Provider)
		if info.Provider == selected {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "provider", strings.ToLower(string(info.Provider)))))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🛠 Generate", cb(ownerID, "generate")),
		},
	)
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.Message.Chat == nil || q.From == nil {
		return nil
	}

	parts := strings.Split(strings.TrimSpace(q.Data), ":")
	if len(parts) < 3 || parts[0] != callbackPrefix {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		return h.tg.AnswerCallback(q.ID, msgNotYourMenu, true)
	}

	chatID := q.Message.Chat.ID
	switch parts[2] {
	case "provider":
		if len(parts) < 4 {
			return nil
		}
		p, ok := terraform.ParseProvider(parts[3])
		if !ok {
			return h.tg.AnswerCallback(q.ID, "Unknown provider", true)
		}
		_ = h.tg.AnswerCallback(q.ID, string(p), false)
		_ = h.tg.EditKeyboard(chatID, q.Message.MessageID, providerKeyboard(ownerID, p))
		return h.selectProvider(chatID, ownerID, parts[3])
	case "generate":
		_ = h.tg.AnswerCallback(q.ID, "Generating…", false)
		return h.generate(ctx, chatID, ownerID)
	}
	return nil
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", callbackPrefix, ownerID, strings.Join(parts, ":"))
}
