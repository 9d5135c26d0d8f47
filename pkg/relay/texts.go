// Copyright 2024-2026 Aiku AI

package relay

import "fmt"

const noUsername = "no username"

const (
	textBlocked        = "You have been blocked and your messages are no longer delivered to the editorial team."
	textTooOldToEdit   = "The message is too old to edit. Please contact the editorial team for clarification."
	textCannotEdit     = "The message cannot be edited. Please contact the editorial team for clarification."
	textMediaImmutable = "Media cannot be edited. Please contact the editorial team for clarification."

	textPermissionDenied = "Only group administrators can use this command."
	textBanUsage         = "Usage: /ban <id> (for example /ban #ID123456 or /ban 123456)"
	textUnbanUsage       = "Usage: /unban <id> (for example /unban #ID123456 or /unban 123456)"
	textBadIDFormat      = "Invalid user ID. Use a number or the #ID<digits> form from a relayed message."
	textSaveFailed       = "Failed to save the ban list, nothing was changed. Check the bot logs."

	textYouWereBanned   = "You have been blocked by the editorial team."
	textYouWereUnbanned = "You have been unblocked and can write to the editorial team again."

	editorialMaterials = "Materials from the editorial team"

	// DefaultWelcomeText answers /start in a private chat.
	DefaultWelcomeText = "Hello, author!\n\n" +
		"Do you write poetry or prose? Then you are in the right place. " +
		"Send your work here and it will reach the editorial team.\n\n" +
		"What happens next?\n" +
		"- We read your text carefully.\n" +
		"- We give feedback if it is needed.\n" +
		"- And your work may be published!"
)

func formatUserMessage(from *User, text string) string {
	return fmt.Sprintf("Message from %s (@%s):\n\n%s\n\n%s", from.FullName(), username(from), text, EncodeIdentity(from.ID))
}

func formatUserMedia(from *User, caption string) string {
	return fmt.Sprintf("Media from %s (@%s):\n\n%s\n\n%s", from.FullName(), username(from), caption, EncodeIdentity(from.ID))
}

func formatEditorialReply(text string) string {
	return "Editorial reply:\n\n" + text
}

func formatEditorialCorrection(text string) string {
	return "Editorial reply (corrected):\n\n" + text
}

func formatEditorialMedia(caption string) string {
	if caption == "" {
		return editorialMaterials
	}
	return editorialMaterials + ":\n\n" + caption
}

func formatBanned(userID UserID) string {
	return fmt.Sprintf("User %s has been blocked.", FormatUserID(userID))
}

func formatUnbanned(userID UserID) string {
	return fmt.Sprintf("User %s has been unblocked.", FormatUserID(userID))
}

func formatNotBanned(userID UserID) string {
	return fmt.Sprintf("User %s is not blocked, nothing to do.", FormatUserID(userID))
}

func username(u *User) string {
	if u.Username == "" {
		return noUsername
	}
	return u.Username
}
