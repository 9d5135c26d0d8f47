// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
)

// handleModeration runs /ban and /unban. Both require the sender to be an
// administrator or the owner of the group.
func (e *Engine) handleModeration(ctx context.Context, msg *Message, cmd, args string) {
	log := e.log.With().
		Int64("admin_id", int64(msg.From.ID)).
		Str("command", cmd).
		Logger()

	if !e.admins.IsAdmin(ctx, msg.From.ID) {
		log.Info().Msg("Rejected moderation command from non-admin")
		e.metrics.Moderation.WithLabelValues(cmd, "denied").Inc()
		e.notify(ctx, e.groupID, textPermissionDenied)
		return
	}

	if args == "" {
		e.metrics.Moderation.WithLabelValues(cmd, "usage").Inc()
		if cmd == "ban" {
			e.notify(ctx, e.groupID, textBanUsage)
		} else {
			e.notify(ctx, e.groupID, textUnbanUsage)
		}
		return
	}

	target, err := ParseUserID(args)
	if err != nil {
		log.Debug().Err(err).Msg("Malformed moderation argument")
		e.metrics.Moderation.WithLabelValues(cmd, "bad_id").Inc()
		e.notify(ctx, e.groupID, textBadIDFormat)
		return
	}

	switch cmd {
	case "ban":
		e.banUser(ctx, target)
	case "unban":
		e.unbanUser(ctx, target)
	}
}

func (e *Engine) banUser(ctx context.Context, target UserID) {
	if _, err := e.bans.Ban(target); err != nil {
		e.log.Error().Err(err).Int64("user_id", int64(target)).Msg("Failed to persist ban")
		e.metrics.Moderation.WithLabelValues("ban", "save_failed").Inc()
		e.notify(ctx, e.groupID, textSaveFailed)
		return
	}
	e.log.Info().Int64("user_id", int64(target)).Msg("Banned user")
	e.metrics.Moderation.WithLabelValues("ban", "applied").Inc()

	e.notify(ctx, MakeChatID(target), textYouWereBanned)
	e.notify(ctx, e.groupID, formatBanned(target))
}

func (e *Engine) unbanUser(ctx context.Context, target UserID) {
	if !e.bans.IsBanned(target) {
		e.metrics.Moderation.WithLabelValues("unban", "not_banned").Inc()
		e.notify(ctx, e.groupID, formatNotBanned(target))
		return
	}
	removed, err := e.bans.Unban(target)
	if err != nil {
		e.log.Error().Err(err).Int64("user_id", int64(target)).Msg("Failed to persist unban")
		e.metrics.Moderation.WithLabelValues("unban", "save_failed").Inc()
		e.notify(ctx, e.groupID, textSaveFailed)
		return
	}
	if !removed {
		// Lost a race with a concurrent /unban.
		e.metrics.Moderation.WithLabelValues("unban", "not_banned").Inc()
		e.notify(ctx, e.groupID, formatNotBanned(target))
		return
	}
	e.log.Info().Int64("user_id", int64(target)).Msg("Unbanned user")
	e.metrics.Moderation.WithLabelValues("unban", "applied").Inc()

	e.notify(ctx, MakeChatID(target), textYouWereUnbanned)
	e.notify(ctx, e.groupID, formatUnbanned(target))
}
