// Copyright 2024-2026 Aiku AI

package relay

import (
	"strings"
	"time"
	"unicode"
)

// ChatType is the platform chat kind a message was posted in.
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// MediaKind is one of the attachment kinds the relay forwards.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaDocument  MediaKind = "document"
	MediaAnimation MediaKind = "animation"
)

// Media is a platform-hosted attachment that can be re-sent by file ID.
type Media struct {
	Kind   MediaKind
	FileID string
}

// PhotoSize is one resolution variant of a photo.
type PhotoSize struct {
	FileID   string
	Width    int
	Height   int
	FileSize int
}

// User is the sender of a message.
type User struct {
	ID        UserID
	FirstName string
	LastName  string
	Username  string
	IsBot     bool
}

// FullName joins the first and last name the way the platform displays them.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Message is the platform-neutral view of an inbound message or edit.
type Message struct {
	Ref      MessageRef
	ChatType ChatType
	From     *User
	// Date is the message's original send time, also on edits.
	Date    time.Time
	Text    string
	Caption string

	Photo     []PhotoSize
	Video     *Media
	Document  *Media
	Animation *Media

	ReplyTo *Message
}

// IsPrivate reports whether the message was sent in a one-to-one chat.
func (m *Message) IsPrivate() bool {
	return m.ChatType == ChatPrivate
}

// Command returns the bot command name and its argument string if the text
// starts with a slash. Bot mentions ("/ban@relaybot") are stripped.
func (m *Message) Command() (name, args string, ok bool) {
	if !strings.HasPrefix(m.Text, "/") {
		return "", "", false
	}
	rest := m.Text[1:]
	name = rest
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], rest[i:]
	}
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// SelectMedia picks the attachment to relay. Photos resolve to their largest
// variant. Animations are checked before documents because the platform
// also fills the document field for GIFs.
func SelectMedia(m *Message) (Media, bool) {
	switch {
	case len(m.Photo) > 0:
		return Media{Kind: MediaPhoto, FileID: largestPhoto(m.Photo).FileID}, true
	case m.Video != nil:
		return Media{Kind: MediaVideo, FileID: m.Video.FileID}, true
	case m.Animation != nil:
		return Media{Kind: MediaAnimation, FileID: m.Animation.FileID}, true
	case m.Document != nil:
		return Media{Kind: MediaDocument, FileID: m.Document.FileID}, true
	default:
		return Media{}, false
	}
}

func largestPhoto(sizes []PhotoSize) PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height >= best.Width*best.Height {
			best = s
		}
	}
	return best
}
