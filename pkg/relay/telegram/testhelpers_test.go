// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aiku/tg-editorial-relay/pkg/relay"
)

const (
	testToken = "5550001:test-token"
	testBotID = 5550001
)

// apiCall is a recorded Bot API request.
type apiCall struct {
	Method string
	Form   url.Values
}

// apiFailure is a canned error response for one Bot API method.
type apiFailure struct {
	Code        int
	Description string
}

// fakeBotAPI simulates the Telegram Bot API over httptest. Every request is
// recorded and sends return sequential message IDs.
type fakeBotAPI struct {
	Server *httptest.Server

	mu     sync.Mutex
	calls  []apiCall
	nextID int

	// Statuses maps user IDs to their getChatMember status. Missing users
	// are members.
	Statuses map[int64]string
	// Fail makes specific methods return an API error.
	Fail map[string]apiFailure
}

func newFakeBotAPI(t *testing.T) *fakeBotAPI {
	t.Helper()
	f := &fakeBotAPI{
		nextID:   300,
		Statuses: make(map[int64]string),
		Fail:     make(map[string]apiFailure),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(f.Server.Close)
	return f
}

// Endpoint is the API endpoint format to pass to the client.
func (f *fakeBotAPI) Endpoint() string {
	return f.Server.URL + "/bot%s/%s"
}

func (f *fakeBotAPI) Calls(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBotAPI) handler(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	method := path.Base(r.URL.Path)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, apiCall{Method: method, Form: r.PostForm})

	if r.URL.Path != "/bot"+testToken+"/"+method {
		writeAPIError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if fail, ok := f.Fail[method]; ok {
		writeAPIError(w, fail.Code, fail.Description)
		return
	}

	switch method {
	case "getMe":
		writeAPIResult(w, map[string]any{
			"id":         testBotID,
			"is_bot":     true,
			"first_name": "Editorial Relay",
			"username":   "editorial_relay_bot",
		})
	case "sendMessage", "sendPhoto", "sendVideo", "sendDocument", "sendAnimation":
		chatID, _ := strconv.ParseInt(r.PostForm.Get("chat_id"), 10, 64)
		f.nextID++
		writeAPIResult(w, map[string]any{
			"message_id": f.nextID,
			"date":       1772366400,
			"chat":       map[string]any{"id": chatID, "type": "private"},
		})
	case "editMessageText":
		writeAPIResult(w, true)
	case "getChatMember":
		userID, _ := strconv.ParseInt(r.PostForm.Get("user_id"), 10, 64)
		status, ok := f.Statuses[userID]
		if !ok {
			status = "member"
		}
		writeAPIResult(w, map[string]any{
			"user":   map[string]any{"id": userID, "is_bot": false, "first_name": "U"},
			"status": status,
		})
	default:
		writeAPIError(w, http.StatusNotFound, "Not Found: method not found")
	}
}

func writeAPIResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func writeAPIError(w http.ResponseWriter, code int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":          false,
		"error_code":  code,
		"description": description,
	})
}

func newTestClient(t *testing.T, f *fakeBotAPI) *Client {
	t.Helper()
	c, err := NewClient(relay.TelegramConfig{
		Token:       testToken,
		APIEndpoint: f.Endpoint(),
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// recordingHandler collects the messages handed to it by the update loop.
type recordingHandler struct {
	mu       sync.Mutex
	messages []*relay.Message
	edits    []*relay.Message
	panicOn  string
}

func (h *recordingHandler) HandleMessage(_ context.Context, msg *relay.Message) {
	if h.panicOn != "" && msg.Text == h.panicOn {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *recordingHandler) HandleEdit(_ context.Context, msg *relay.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.edits = append(h.edits, msg)
}

func (h *recordingHandler) counts() (messages, edits int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages), len(h.edits)
}
