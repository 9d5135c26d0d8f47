// Copyright 2024-2026 Aiku AI

package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aiku/tg-editorial-relay/pkg/relay"
)

// Handler receives converted updates. Calls may run concurrently.
type Handler interface {
	HandleMessage(ctx context.Context, msg *relay.Message)
	HandleEdit(ctx context.Context, msg *relay.Message)
}

// Run long-polls for updates and dispatches each one to h on its own
// goroutine. It returns after ctx is cancelled and every in-flight handler
// has finished.
func (c *Client) Run(ctx context.Context, h Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	u.AllowedUpdates = []string{"message", "edited_message"}
	updates := c.bot.GetUpdatesChan(u)

	c.log.Info().Int("poll_timeout", c.pollTimeout).Msg("Listening for updates")
	c.consume(ctx, updates, h)
	c.bot.StopReceivingUpdates()
	c.handlers.Wait()
	c.log.Info().Msg("Update loop stopped")
}

func (c *Client) consume(ctx context.Context, updates tgbotapi.UpdatesChannel, h Handler) {
	// Handlers already running finish their work after shutdown starts.
	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				c.log.Warn().Msg("Update channel closed")
				return
			}
			c.dispatch(handlerCtx, h, update)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, h Handler, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := convertMessage(update.Message)
		c.spawn(update.UpdateID, func() { h.HandleMessage(ctx, msg) })
	case update.EditedMessage != nil:
		msg := convertMessage(update.EditedMessage)
		c.spawn(update.UpdateID, func() { h.HandleEdit(ctx, msg) })
	default:
		c.log.Trace().Int("update_id", update.UpdateID).Msg("Unhandled update type")
	}
}

func (c *Client) spawn(updateID int, fn func()) {
	c.handlers.Add(1)
	go func() {
		defer c.handlers.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.Error().
					Int("update_id", updateID).
					Interface("panic", r).
					Msg("Update handler panicked")
			}
		}()
		fn()
	}()
}

// convertMessage translates a Bot API message, including the message it
// replies to, into the relay's platform-neutral form.
func convertMessage(m *tgbotapi.Message) *relay.Message {
	if m == nil {
		return nil
	}
	msg := &relay.Message{
		Ref:     relay.MessageRef{MessageID: m.MessageID},
		Date:    m.Time(),
		Text:    m.Text,
		Caption: m.Caption,
	}
	if m.Chat != nil {
		msg.Ref.ChatID = m.Chat.ID
		msg.ChatType = relay.ChatType(m.Chat.Type)
	}
	if m.From != nil {
		msg.From = &relay.User{
			ID:        relay.UserID(m.From.ID),
			FirstName: m.From.FirstName,
			LastName:  m.From.LastName,
			Username:  m.From.UserName,
			IsBot:     m.From.IsBot,
		}
	}
	for _, p := range m.Photo {
		msg.Photo = append(msg.Photo, relay.PhotoSize{
			FileID:   p.FileID,
			Width:    p.Width,
			Height:   p.Height,
			FileSize: p.FileSize,
		})
	}
	if m.Video != nil {
		msg.Video = &relay.Media{Kind: relay.MediaVideo, FileID: m.Video.FileID}
	}
	if m.Document != nil {
		msg.Document = &relay.Media{Kind: relay.MediaDocument, FileID: m.Document.FileID}
	}
	if m.Animation != nil {
		msg.Animation = &relay.Media{Kind: relay.MediaAnimation, FileID: m.Animation.FileID}
	}
	msg.ReplyTo = convertMessage(m.ReplyToMessage)
	return msg
}
