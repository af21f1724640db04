package models

// ChatListItem is one row of the derived chat-list view. It is recomputed
// from the latest conversation snapshot on every relevant upstream change
// and is never persisted; its lifetime is bounded by the subscription that
// produced it.
type ChatListItem struct {
	ConversationKey   string `json:"conversation_key"`
	CounterpartID     string `json:"counterpart_id"`
	CounterpartName   string `json:"counterpart_name"`
	CounterpartAvatar string `json:"counterpart_avatar,omitempty"`
	CounterpartOnline bool   `json:"counterpart_online"`

	LastMessageBody      string      `json:"last_message_body"`
	LastMessageType      MessageType `json:"last_message_type"`
	LastMessageSenderID  string      `json:"last_message_sender_id"`
	LastMessageTimestamp int64       `json:"last_message_timestamp"`

	UnreadCount int `json:"unread_count"`
}
