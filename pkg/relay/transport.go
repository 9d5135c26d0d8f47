// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"errors"
)

// ErrBotBlocked is returned by a Transport when the recipient has blocked
// the bot. It is logged and never retried.
var ErrBotBlocked = errors.New("recipient blocked the bot")

// MemberStatus is a chat member's role as reported by the platform.
type MemberStatus string

const (
	MemberCreator       MemberStatus = "creator"
	MemberAdministrator MemberStatus = "administrator"
	MemberMember        MemberStatus = "member"
	MemberRestricted    MemberStatus = "restricted"
	MemberLeft          MemberStatus = "left"
	MemberKicked        MemberStatus = "kicked"
)

// Transport is the chat platform seen from the relay. Implementations must
// be safe for concurrent use; tests inject a mock.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string) (MessageRef, error)
	SendMedia(ctx context.Context, chatID int64, media Media, caption string) (MessageRef, error)
	// EditText replaces the text of a message the bot sent earlier.
	EditText(ctx context.Context, ref MessageRef, text string) error
	MemberStatus(ctx context.Context, chatID int64, userID UserID) (MemberStatus, error)
}
