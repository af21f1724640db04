package service

import (
	"github.com/yeray-yas/ChatApp-sub003/internal/models"
)

// ownedConversation is one snapshot conversation the current user
// participates in, annotated with the counterpart recovered from the
// canonical key.
type ownedConversation struct {
	key           models.ConversationKey
	counterpartID string
	messages      []models.Message
}

// partitionConversations selects the conversations that belong to
// currentUserID. Keys that do not parse or name other participants are
// skipped: the feed carries the full tree, not just this user's slice.
func partitionConversations(snap models.ConversationSnapshot, currentUserID string) []ownedConversation {
	if currentUserID == "" {
		return nil
	}
	owned := make([]ownedConversation, 0, len(snap.Conversations))
	for _, conv := range snap.Conversations {
		key, err := models.ParseConversationKey(conv.Key)
		if err != nil {
			continue
		}
		counterpartID, ok := key.Counterpart(currentUserID)
		if !ok {
			continue
		}
		owned = append(owned, ownedConversation{
			key:           key,
			counterpartID: counterpartID,
			messages:      conv.Messages,
		})
	}
	return owned
}
