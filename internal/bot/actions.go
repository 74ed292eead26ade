package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"diagram2terraform/internal/mediagroup"
	"diagram2terraform/internal/terraform"
	"diagram2terraform/internal/workflow"
)

func (h *Handler) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID, name, mimeType string) error {
	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       msg.Chat.ID,
			UserID:       msg.From.ID,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
			FileName:     name,
			MimeType:     mimeType,
		})
		return nil
	}

	return h.storeImage(ctx, msg.Chat.ID, msg.From.ID, fileID, name, mimeType, msg.Caption)
}

// HandleMediaGroup stores the last image of a flushed album.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if group.Count > 1 {
		_ = h.tg.SendText(group.ChatID, fmt.Sprintf(msgAlbumNotice, group.Count))
	}

	last := group.Last
	if err := h.storeImage(ctx, group.ChatID, group.UserID, last.FileID, last.FileName, last.MimeType, group.Caption); err != nil {
		h.logger.Error("media group processing failed", "chat", group.ChatID, "err", err)
	}
}

func (h *Handler) storeImage(ctx context.Context, chatID, userID int64, fileID, name, mimeType, caption string) error {
	h.tg.SendTyping(chatID)

	data, downloadedType, err := h.tg.DownloadFile(ctx, fileID)
	if err != nil {
		h.logger.Error("image download failed", "chat", chatID, "err", err)
		return h.tg.SendText(chatID, msgDownloadFailed)
	}
	if mimeType == "" {
		mimeType = downloadedType
	}

	wf := h.workflowFor(chatID, userID)
	if err := wf.SetImage(workflow.Image{Data: data, MimeType: mimeType, Name: name}); err != nil {
		return h.tg.SendText(chatID, workflow.UserMessage(err))
	}

	if p, ok := providerFromCaption(caption); ok {
		if err := wf.SetProvider(p); err != nil {
			return h.tg.SendText(chatID, workflow.UserMessage(err))
		}
	}

	return h.tg.SendText(chatID, imageReceivedText(wf.State()))
}

func (h *Handler) selectProvider(chatID, userID int64, raw string) error {
	p, ok := terraform.ParseProvider(raw)
	if !ok {
		return h.tg.SendText(chatID, fmt.Sprintf("Unknown provider %q. Choose aws, gcp or azure.", raw))
	}

	wf := h.workflowFor(chatID, userID)
	if err := wf.SetProvider(p); err != nil {
		return h.tg.SendText(chatID, workflow.UserMessage(err))
	}
	return h.tg.SendText(chatID, providerSelectedText(wf.State()))
}

func (h *Handler) addTag(chatID, userID int64, args string) error {
	key, value, ok := parseTagArgs(args)
	if !ok {
		return h.tg.SendText(chatID, msgTagUsage)
	}

	wf := h.workflowFor(chatID, userID)
	if err := wf.AddTag(key, value); err != nil {
		return h.tg.SendText(chatID, workflow.UserMessage(err))
	}
	return h.tg.SendText(chatID, formatTags(wf.State()))
}

func (h *Handler) removeTag(chatID, userID int64, key string) error {
	if key == "" {
		return h.tg.SendText(chatID, msgUntagUsage)
	}

	wf := h.workflowFor(chatID, userID)
	wf.RemoveTag(key)
	return h.tg.SendText(chatID, formatTags(wf.State()))
}

// generate runs the workflow and delivers each file as a document, in order.
func (h *Handler) generate(ctx context.Context, chatID, userID int64) error {
	wf := h.workflowFor(chatID, userID)

	unsubscribe := wf.Subscribe(func(st workflow.State) {
		if st.Phase == workflow.PhaseLoading {
			h.tg.SendTyping(chatID)
			_ = h.tg.SendText(chatID, fmt.Sprintf(msgGenerating, st.Provider))
		}
	})
	st, err := wf.Generate(ctx)
	unsubscribe()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return h.tg.SendText(chatID, workflow.UserMessage(err))
	}

	switch st.Phase {
	case workflow.PhaseSucceeded:
	case workflow.PhaseFailed:
		return h.tg.SendText(chatID, st.Error)
	default:
		// Inputs changed while the model was working; the result was dropped.
		return nil
	}

	if len(st.Files) == 0 {
		return h.tg.SendText(chatID, msgEmptyResponse)
	}
	if st.Warning != "" {
		if err := h.tg.SendText(chatID, st.Warning); err != nil {
			return err
		}
	}

	caption := resultCaption(st)
	for i, f := range st.Files {
		fileCaption := ""
		if i == 0 {
			fileCaption = caption
		}
		if err := h.tg.SendDocument(chatID, f.FileName, []byte(f.Content), fileCaption); err != nil {
			h.logger.Error("send document failed", "chat", chatID, "file", f.FileName, "err", err)
			return h.tg.SendText(chatID, fmt.Sprintf("Failed to send %s.", f.FileName))
		}
	}
	return nil
}
