// Copyright 2024-2026 Aiku AI

package relay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// UserID identifies an end-user on the chat platform. In private chats the
// user ID doubles as the chat ID.
type UserID int64

// MessageRef uniquely identifies a message within one chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

func (r MessageRef) String() string {
	return fmt.Sprintf("%d/%d", r.ChatID, r.MessageID)
}

// ErrInvalidUserID is returned by ParseUserID for malformed command arguments.
var ErrInvalidUserID = errors.New("invalid user id")

// MakeChatID returns the private chat ID for a user.
func MakeChatID(userID UserID) int64 {
	return int64(userID)
}

// FormatUserID renders a user ID the way it appears in relayed messages and
// admin confirmations.
func FormatUserID(userID UserID) string {
	return "#ID" + strconv.FormatInt(int64(userID), 10)
}

// ParseUserID parses a ban/unban argument. Both "#ID1001" and "1001" are
// accepted.
func ParseUserID(arg string) (UserID, error) {
	arg = strings.TrimSpace(arg)
	arg = strings.TrimPrefix(arg, "#ID")
	if arg == "" {
		return 0, ErrInvalidUserID
	}
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, arg)
	}
	return UserID(n), nil
}
