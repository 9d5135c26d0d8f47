// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
)

func (e *Engine) handlePrivate(ctx context.Context, msg *Message) {
	if cmd, _, ok := msg.Command(); ok {
		switch cmd {
		case "start":
			e.notify(ctx, msg.Ref.ChatID, e.welcomeText)
			return
		case "ban", "unban":
			// Moderation commands only work in the group.
			e.log.Debug().
				Int64("user_id", int64(msg.From.ID)).
				Str("command", cmd).
				Msg("Ignoring moderation command outside the group")
			return
		}
		// Anything else is relayed like ordinary text.
	}
	e.relayToGroup(ctx, msg)
}

// relayToGroup forwards a user's message into the group with the sender's
// identity embedded, and records the correlation on success.
func (e *Engine) relayToGroup(ctx context.Context, msg *Message) {
	sender := msg.From
	log := e.log.With().
		Int64("user_id", int64(sender.ID)).
		Int("message_id", msg.Ref.MessageID).
		Logger()

	if e.bans.IsBanned(sender.ID) {
		log.Info().Msg("Dropping message from banned user")
		e.metrics.Dropped.Inc()
		e.notify(ctx, MakeChatID(sender.ID), textBlocked)
		return
	}

	var (
		sent MessageRef
		err  error
	)
	media, isMedia := SelectMedia(msg)
	if isMedia {
		sent, err = e.transport.SendMedia(ctx, e.groupID, media, formatUserMedia(sender, msg.Caption))
	} else if msg.Text != "" {
		sent, err = e.transport.SendText(ctx, e.groupID, formatUserMessage(sender, msg.Text))
	} else {
		log.Debug().Msg("Ignoring message without text or supported media")
		return
	}
	if err != nil {
		e.logSendError(err, e.groupID, "Failed to relay message to group")
		return
	}

	e.correlations.Record(sent, sender.ID, msg.Ref)
	e.metrics.Relayed.WithLabelValues(contentKind(media, isMedia)).Inc()
	log.Info().Int("group_message_id", sent.MessageID).Msg("Relayed message to group")
}
