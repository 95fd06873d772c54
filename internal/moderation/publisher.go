package moderation

import (
	"context"
	"fmt"
	"log"

	"modrelay-bot/internal/database/models"
	"modrelay-bot/internal/locales"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// publishSubmission delivers an approved submission. In normal mode the
// destination is the public channel; in forward mode it is the deciding
// admin's chat, prefixed with the forwarding instruction banner, and the
// actual cross-post to the channel is the admin's manual step.
//
// There is no retry here: a failure is reported to the caller, which moves
// the submission to error status.
func (m *Manager) publishSubmission(ctx context.Context, sub *models.Submission, mode models.PublishMode, adminChatID int64) error {
	switch mode {
	case models.ModeNormal:
		return m.sendSubmissionContent(ctx, m.targetChannelID, sub, "")
	case models.ModeForward:
		localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
		banner := locales.GetMessage(localizer, "MsgForwardBanner", nil, nil)
		return m.sendSubmissionContent(ctx, adminChatID, sub, banner)
	default:
		return fmt.Errorf("unknown publish mode %q for submission %d", mode, sub.SeqID)
	}
}

// sendSubmissionContent delivers a submission's content to a chat, dispatching
// on the content kind. An optional banner is prepended to the body or caption;
// stickers cannot carry a caption, so the banner goes out as a separate
// message first.
func (m *Manager) sendSubmissionContent(ctx context.Context, chatID int64, sub *models.Submission, banner string) error {
	withBanner := func(text string) string {
		if banner == "" {
			return text
		}
		if text == "" {
			return banner
		}
		return banner + "\n\n" + text
	}

	switch sub.Kind {
	case models.KindText:
		_, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), withBanner(sub.Caption)))
		return err

	case models.KindPhotoSet:
		if len(sub.FileIDs) == 0 {
			return fmt.Errorf("photo-set submission %d has no content references", sub.SeqID)
		}
		if len(sub.FileIDs) == 1 {
			_, err := m.bot.SendPhoto(ctx, &telego.SendPhotoParams{
				ChatID:  tu.ID(chatID),
				Photo:   telego.InputFile{FileID: sub.FileIDs[0]},
				Caption: withBanner(sub.Caption),
			})
			return err
		}
		media := make([]telego.InputMedia, 0, len(sub.FileIDs))
		for i, fileID := range sub.FileIDs {
			photo := &telego.InputMediaPhoto{
				Type:  telego.MediaTypePhoto,
				Media: telego.InputFile{FileID: fileID},
			}
			if i == 0 {
				photo.Caption = withBanner(sub.Caption)
			}
			media = append(media, photo)
		}
		_, err := m.bot.SendMediaGroup(ctx, &telego.SendMediaGroupParams{
			ChatID: tu.ID(chatID),
			Media:  media,
		})
		return err

	case models.KindVideo:
		if len(sub.FileIDs) != 1 {
			return fmt.Errorf("video submission %d must have exactly one content reference", sub.SeqID)
		}
		_, err := m.bot.SendVideo(ctx, &telego.SendVideoParams{
			ChatID:  tu.ID(chatID),
			Video:   telego.InputFile{FileID: sub.FileIDs[0]},
			Caption: withBanner(sub.Caption),
		})
		return err

	case models.KindVoice:
		if len(sub.FileIDs) != 1 {
			return fmt.Errorf("voice submission %d must have exactly one content reference", sub.SeqID)
		}
		_, err := m.bot.SendVoice(ctx, &telego.SendVoiceParams{
			ChatID:  tu.ID(chatID),
			Voice:   telego.InputFile{FileID: sub.FileIDs[0]},
			Caption: withBanner(sub.Caption),
		})
		return err

	case models.KindDocument:
		if len(sub.FileIDs) != 1 {
			return fmt.Errorf("document submission %d must have exactly one content reference", sub.SeqID)
		}
		_, err := m.bot.SendDocument(ctx, &telego.SendDocumentParams{
			ChatID:   tu.ID(chatID),
			Document: telego.InputFile{FileID: sub.FileIDs[0]},
			Caption:  withBanner(sub.Caption),
		})
		return err

	case models.KindSticker:
		if len(sub.FileIDs) != 1 {
			return fmt.Errorf("sticker submission %d must have exactly one content reference", sub.SeqID)
		}
		if banner != "" {
			if _, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), banner)); err != nil {
				return err
			}
		}
		_, err := m.bot.SendSticker(ctx, &telego.SendStickerParams{
			ChatID:  tu.ID(chatID),
			Sticker: telego.InputFile{FileID: sub.FileIDs[0]},
		})
		return err

	default:
		log.Printf("[Publisher Sub:%d] Unknown content kind %q", sub.SeqID, sub.Kind)
		return fmt.Errorf("unknown content kind %q for submission %d", sub.Kind, sub.SeqID)
	}
}
