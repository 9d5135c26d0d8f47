// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const (
	testGroupID int64  = -1001234567890
	testBotID   UserID = 5550001
	testAdminID UserID = 42
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// sentMessage is a captured SendText or SendMedia call.
type sentMessage struct {
	Ref   MessageRef
	Text  string
	Media *Media
}

// editCall is a captured EditText call.
type editCall struct {
	Ref  MessageRef
	Text string
}

// mockTransport records every call and hands out sequential message IDs.
type mockTransport struct {
	mu     sync.Mutex
	nextID int
	sent   []sentMessage
	edits  []editCall

	// Statuses maps users to their group role. Missing users are members.
	Statuses map[UserID]MemberStatus
	// SendErr fails sends to specific chats.
	SendErr   map[int64]error
	EditErr   error
	StatusErr error
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		nextID:   100,
		Statuses: map[UserID]MemberStatus{testAdminID: MemberAdministrator},
		SendErr:  make(map[int64]error),
	}
}

func (m *mockTransport) send(chatID int64, text string, media *Media) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.SendErr[chatID]; err != nil {
		return MessageRef{}, err
	}
	m.nextID++
	ref := MessageRef{ChatID: chatID, MessageID: m.nextID}
	m.sent = append(m.sent, sentMessage{Ref: ref, Text: text, Media: media})
	return ref, nil
}

func (m *mockTransport) SendText(_ context.Context, chatID int64, text string) (MessageRef, error) {
	return m.send(chatID, text, nil)
}

func (m *mockTransport) SendMedia(_ context.Context, chatID int64, media Media, caption string) (MessageRef, error) {
	return m.send(chatID, caption, &media)
}

func (m *mockTransport) EditText(_ context.Context, ref MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, editCall{Ref: ref, Text: text})
	return m.EditErr
}

func (m *mockTransport) MemberStatus(_ context.Context, _ int64, userID UserID) (MemberStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatusErr != nil {
		return "", m.StatusErr
	}
	if status, ok := m.Statuses[userID]; ok {
		return status, nil
	}
	return MemberMember, nil
}

func (m *mockTransport) Sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]sentMessage, len(m.sent))
	copy(cp, m.sent)
	return cp
}

func (m *mockTransport) SentTo(chatID int64) []sentMessage {
	var out []sentMessage
	for _, s := range m.Sent() {
		if s.Ref.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockTransport) Edits() []editCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]editCall, len(m.edits))
	copy(cp, m.edits)
	return cp
}

// newTestEngine builds an engine over a mock transport and a ban list in a
// temp dir, with the clock pinned to testNow.
func newTestEngine(t *testing.T) (*Engine, *mockTransport, *BanList) {
	t.Helper()
	tr := newMockTransport()
	bans := NewBanList(filepath.Join(t.TempDir(), "banned_users.json"), zerolog.Nop())
	if err := bans.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := NewEngine(EngineParams{
		Transport: tr,
		Bans:      bans,
		GroupID:   testGroupID,
		BotID:     testBotID,
		Log:       zerolog.Nop(),
	})
	e.now = func() time.Time { return testNow }
	return e, tr, bans
}

func testUser(id UserID) *User {
	return &User{ID: id, FirstName: "Alice", LastName: "Smith", Username: "alice"}
}

func privateText(from *User, msgID int, text string) *Message {
	return &Message{
		Ref:      MessageRef{ChatID: MakeChatID(from.ID), MessageID: msgID},
		ChatType: ChatPrivate,
		From:     from,
		Date:     testNow,
		Text:     text,
	}
}

func groupText(from *User, msgID int, text string) *Message {
	return &Message{
		Ref:      MessageRef{ChatID: testGroupID, MessageID: msgID},
		ChatType: ChatSupergroup,
		From:     from,
		Date:     testNow,
		Text:     text,
	}
}

// botMessage rebuilds the group copy the bot sent, as it appears in a
// reply's ReplyTo field.
func botMessage(s sentMessage) *Message {
	msg := &Message{
		Ref:      s.Ref,
		ChatType: ChatSupergroup,
		From:     &User{ID: testBotID, FirstName: "Relay", IsBot: true},
		Date:     testNow,
	}
	if s.Media != nil {
		msg.Caption = s.Text
	} else {
		msg.Text = s.Text
	}
	return msg
}
