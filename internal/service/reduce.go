package service

import (
	"github.com/yeray-yas/ChatApp-sub003/internal/models"
)

// conversationSummary is one conversation reduced to what the chat list
// shows, before display-name resolution.
type conversationSummary struct {
	key           models.ConversationKey
	counterpartID string
	last          models.Message
	unreadCount   int
}

// reduceConversation folds a conversation's full message set into its
// summary. The unread count is recomputed from scratch on every call so it
// can never drift from the live message set. ok is false for a
// zero-message conversation, which is excluded from the view entirely
// rather than emitted with empty fields.
func reduceConversation(conv ownedConversation, currentUserID string) (conversationSummary, bool) {
	if len(conv.messages) == 0 {
		return conversationSummary{}, false
	}

	sum := conversationSummary{
		key:           conv.key,
		counterpartID: conv.counterpartID,
	}
	last := conv.messages[0]
	for _, m := range conv.messages {
		// Last message is the max timestamp; equal timestamps break the
		// tie by greatest id so a single computation is deterministic.
		if m.Timestamp > last.Timestamp || (m.Timestamp == last.Timestamp && m.ID > last.ID) {
			last = m
		}
		if m.UnreadFor(currentUserID) {
			sum.unreadCount++
		}
	}
	sum.last = last
	return sum, true
}
