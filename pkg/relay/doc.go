// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package relay implements an anonymous submission relay between users'
// private chats with a bot and a single moderation group.
//
// # Core Types
//
// [Engine] handles inbound messages and edits. A user's private message is
// forwarded into the group with the sender's identity embedded in the text;
// a group reply to one of those messages is routed back to the sender; an
// edit of such a reply is propagated to the user's copy within the edit
// window.
//
// [CorrelationTable] remembers which group message corresponds to which
// private message. [BanList] is the persisted set of blocked users, managed
// through the /ban and /unban group commands and enforced on every inbound
// message. [AdminGate] restricts those commands to group administrators.
//
// # Identity Marker
//
// The only link between a relayed group message and its sender is the
// trailing "ID пользователя: #ID<digits>" token written by [EncodeIdentity]
// and read back by [DecodeIdentity]. The decoder also accepts the older
// "#<digits>" form so messages relayed by earlier versions stay
// answerable. The marker text must not be changed.
//
// # Sub-packages
//
//   - telegram implements [Transport] on the Telegram Bot API and feeds
//     updates into the engine.
package relay
