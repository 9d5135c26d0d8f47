// Copyright 2024-2026 Aiku AI

package relay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IdentityMarker precedes the sender identifier in every message the bot
// relays into the group. Changing it breaks decoding of messages already
// in the group.
const IdentityMarker = "ID пользователя: "

var (
	// ErrExtraction is wrapped by every identity decoding failure.
	ErrExtraction = errors.New("cannot extract user id")

	ErrNoContent         = fmt.Errorf("%w: message has no text or caption", ErrExtraction)
	ErrMarkerNotFound    = fmt.Errorf("%w: identity marker not found", ErrExtraction)
	ErrInvalidIdentifier = fmt.Errorf("%w: identifier is not a number", ErrExtraction)
)

// EncodeIdentity renders the trailing identity token for a relayed message.
func EncodeIdentity(userID UserID) string {
	return IdentityMarker + FormatUserID(userID)
}

// DecodeIdentity recovers the sender ID from a relayed message. Both the
// current "#ID1001" token and the older "#1001" token are understood. The
// last marker wins, since user text always precedes the appended token.
func DecodeIdentity(msg *Message) (UserID, error) {
	body := msg.Text
	if body == "" {
		body = msg.Caption
	}
	if body == "" {
		return 0, ErrNoContent
	}
	idx := strings.LastIndex(body, IdentityMarker)
	if idx < 0 {
		return 0, ErrMarkerNotFound
	}
	token, _, _ := strings.Cut(body[idx+len(IdentityMarker):], "\n")
	token = strings.ReplaceAll(token, "#", "")
	token = strings.TrimPrefix(token, "ID")
	n, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, token)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d is not a valid user id", ErrInvalidIdentifier, n)
	}
	return UserID(n), nil
}
