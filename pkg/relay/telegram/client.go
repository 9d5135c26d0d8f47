// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package telegram implements relay.Transport on the Telegram Bot API and
// delivers incoming updates to a relay handler.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/aiku/tg-editorial-relay/pkg/relay"
)

// Client is an authenticated bot session.
type Client struct {
	bot         *tgbotapi.BotAPI
	pollTimeout int
	log         zerolog.Logger

	// handlers tracks in-flight update handlers for shutdown.
	handlers sync.WaitGroup
}

var _ relay.Transport = (*Client)(nil)

// NewClient authenticates with the Bot API. An empty endpoint means the
// public api.telegram.org server.
func NewClient(cfg relay.TelegramConfig, log zerolog.Logger) (*Client, error) {
	log = log.With().Str("component", "telegram").Logger()
	_ = tgbotapi.SetLogger(botLogger{log: log})

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate bot: %w", err)
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 60
	}

	log.Info().
		Int64("bot_id", bot.Self.ID).
		Str("username", bot.Self.UserName).
		Msg("Authenticated")

	return &Client{
		bot:         bot,
		pollTimeout: pollTimeout,
		log:         log,
	}, nil
}

// BotID returns the bot account's own user ID.
func (c *Client) BotID() relay.UserID {
	return relay.UserID(c.bot.Self.ID)
}

// Username returns the bot account's username.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) (relay.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return relay.MessageRef{}, err
	}
	sent, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return relay.MessageRef{}, fmt.Errorf("failed to send message: %w", classifyError(err))
	}
	return sentRef(sent), nil
}

func (c *Client) SendMedia(ctx context.Context, chatID int64, media relay.Media, caption string) (relay.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return relay.MessageRef{}, err
	}

	file := tgbotapi.FileID(media.FileID)
	var cfg tgbotapi.Chattable
	switch media.Kind {
	case relay.MediaPhoto:
		photo := tgbotapi.NewPhoto(chatID, file)
		photo.Caption = caption
		cfg = photo
	case relay.MediaVideo:
		video := tgbotapi.NewVideo(chatID, file)
		video.Caption = caption
		cfg = video
	case relay.MediaDocument:
		doc := tgbotapi.NewDocument(chatID, file)
		doc.Caption = caption
		cfg = doc
	case relay.MediaAnimation:
		anim := tgbotapi.NewAnimation(chatID, file)
		anim.Caption = caption
		cfg = anim
	default:
		return relay.MessageRef{}, fmt.Errorf("unsupported media kind: %s", media.Kind)
	}

	sent, err := c.bot.Send(cfg)
	if err != nil {
		return relay.MessageRef{}, fmt.Errorf("failed to send %s: %w", media.Kind, classifyError(err))
	}
	return sentRef(sent), nil
}

func (c *Client) EditText(ctx context.Context, ref relay.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Request(tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text))
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", classifyError(err))
	}
	return nil
}

func (c *Client) MemberStatus(ctx context.Context, chatID int64, userID relay.UserID) (relay.MemberStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: int64(userID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get chat member: %w", classifyError(err))
	}
	return relay.MemberStatus(member.Status), nil
}

func sentRef(msg tgbotapi.Message) relay.MessageRef {
	ref := relay.MessageRef{MessageID: msg.MessageID}
	if msg.Chat != nil {
		ref.ChatID = msg.Chat.ID
	}
	return ref
}

// classifyError maps a Bot API 403 to relay.ErrBotBlocked. The platform
// answers 403 when the user blocked the bot or never started it.
func classifyError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %s", relay.ErrBotBlocked, apiErr.Message)
	}
	return err
}

// botLogger routes the Bot API library's own log lines into zerolog.
type botLogger struct {
	log zerolog.Logger
}

func (l botLogger) Println(v ...any) {
	l.log.Debug().Msg(fmt.Sprint(v...))
}

func (l botLogger) Printf(format string, v ...any) {
	l.log.Debug().Msgf(format, v...)
}
