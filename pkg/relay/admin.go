// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"

	"github.com/rs/zerolog"
)

// memberLookup is the part of Transport the admin gate needs.
type memberLookup interface {
	MemberStatus(ctx context.Context, chatID int64, userID UserID) (MemberStatus, error)
}

// AdminGate authorizes moderation commands against the group's member list.
type AdminGate struct {
	lookup  memberLookup
	groupID int64
	log     zerolog.Logger
}

// NewAdminGate creates a gate checking roles in the given group.
func NewAdminGate(lookup memberLookup, groupID int64, log zerolog.Logger) *AdminGate {
	return &AdminGate{
		lookup:  lookup,
		groupID: groupID,
		log:     log.With().Str("component", "admin_gate").Logger(),
	}
}

// IsAdmin reports whether the user is an administrator or the owner of the
// group. Lookup failures count as not an admin.
func (g *AdminGate) IsAdmin(ctx context.Context, userID UserID) bool {
	status, err := g.lookup.MemberStatus(ctx, g.groupID, userID)
	if err != nil {
		g.log.Warn().Err(err).
			Int64("user_id", int64(userID)).
			Int64("group_id", g.groupID).
			Msg("Failed to look up member status, denying")
		return false
	}
	return status == MemberCreator || status == MemberAdministrator
}
