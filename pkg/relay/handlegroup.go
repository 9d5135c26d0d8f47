// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
)

func (e *Engine) handleGroup(ctx context.Context, msg *Message) {
	if cmd, args, ok := msg.Command(); ok && (cmd == "ban" || cmd == "unban") {
		e.handleModeration(ctx, msg, cmd, args)
		return
	}
	if msg.ReplyTo != nil {
		e.handleReply(ctx, msg)
	}
}

// handleReply routes a group reply back to the user whose relayed message
// was replied to. Replies to anything but the bot's own messages are group
// chatter and are ignored.
func (e *Engine) handleReply(ctx context.Context, msg *Message) {
	parent := msg.ReplyTo
	if parent.From == nil || parent.From.ID != e.botID {
		return
	}

	target, err := DecodeIdentity(parent)
	if err != nil {
		e.log.Debug().Err(err).
			Int("message_id", msg.Ref.MessageID).
			Int("reply_to", parent.Ref.MessageID).
			Msg("Cannot determine reply target")
		return
	}

	log := e.log.With().
		Int64("user_id", int64(target)).
		Int("message_id", msg.Ref.MessageID).
		Logger()
	chatID := MakeChatID(target)

	var sent MessageRef
	media, isMedia := SelectMedia(msg)
	if msg.Text != "" {
		isMedia = false
		sent, err = e.transport.SendText(ctx, chatID, formatEditorialReply(msg.Text))
	} else if isMedia {
		sent, err = e.transport.SendMedia(ctx, chatID, media, formatEditorialMedia(msg.Caption))
	} else {
		log.Debug().Msg("Ignoring reply without text or supported media")
		return
	}
	if err != nil {
		e.logSendError(err, chatID, "Failed to deliver editorial reply")
		return
	}

	e.correlations.Record(msg.Ref, target, sent)
	e.metrics.Replies.WithLabelValues(contentKind(media, isMedia)).Inc()
	log.Info().Int("user_message_id", sent.MessageID).Msg("Delivered editorial reply")
}

// handleGroupEdit propagates an edit of a correlated group message to the
// user's copy. Media is never edited in place, and edits after the edit
// window only produce a notice.
func (e *Engine) handleGroupEdit(ctx context.Context, msg *Message) {
	c, ok := e.correlations.Lookup(msg.Ref)
	if !ok {
		e.log.Info().
			Int("message_id", msg.Ref.MessageID).
			Msg("Edited message has no correlation, ignoring")
		return
	}

	log := e.log.With().
		Int64("user_id", int64(c.Owner)).
		Int("message_id", msg.Ref.MessageID).
		Int("user_message_id", c.Peer.MessageID).
		Logger()
	chatID := MakeChatID(c.Owner)

	if age := e.now().Sub(msg.Date); age > e.editWindow {
		log.Info().Dur("age", age).Msg("Edit is past the edit window")
		e.metrics.Edits.WithLabelValues("too_old").Inc()
		e.notify(ctx, chatID, textTooOldToEdit)
		return
	}

	if msg.Text != "" {
		if err := e.transport.EditText(ctx, c.Peer, formatEditorialCorrection(msg.Text)); err != nil {
			log.Warn().Err(err).Msg("Failed to edit user message")
			e.metrics.Edits.WithLabelValues("failed").Inc()
			e.notify(ctx, chatID, textCannotEdit)
			return
		}
		log.Info().Msg("Propagated edit to user")
		e.metrics.Edits.WithLabelValues("propagated").Inc()
		return
	}

	if _, isMedia := SelectMedia(msg); isMedia {
		log.Info().Msg("Media edits are not propagated")
		e.metrics.Edits.WithLabelValues("media").Inc()
		e.notify(ctx, chatID, textMediaImmutable)
	}
}
