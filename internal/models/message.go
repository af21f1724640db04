package models

type MessageType string

const (
	TextMessage  MessageType = "text"
	ImageMessage MessageType = "image"
)

type MessageStatus string

const (
	StatusSent MessageStatus = "sent"
	StatusRead MessageStatus = "read"
)

// Message is an immutable record owned by its conversation. The producer
// assigns ID and Timestamp; the only mutation after creation is the
// sent -> read status transition. Messages are never deleted.
type Message struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	SenderID string `gorm:"size:64;not null;index" json:"sender_id"`

	// Exactly one of ReceiverID (direct) or GroupID (group) is set.
	ReceiverID string `gorm:"size:64;index" json:"receiver_id,omitempty"`
	GroupID    string `gorm:"size:64;index" json:"group_id,omitempty"`

	Body      string        `gorm:"type:text;not null" json:"body"`
	Timestamp int64         `gorm:"not null;index" json:"timestamp"` // producer wall clock, ms
	Type      MessageType   `gorm:"type:varchar(20);default:'text'" json:"type"`
	Status    MessageStatus `gorm:"type:varchar(20);default:'sent';index" json:"status"`

	// Reply linkage carries a snapshot of the replied-to message so the
	// view never needs a second lookup.
	ReplyToID     string      `gorm:"size:36" json:"reply_to_id,omitempty"`
	ReplyToBody   string      `json:"reply_to_body,omitempty"`
	ReplyToSender string      `gorm:"size:64" json:"reply_to_sender,omitempty"`
	ReplyToType   MessageType `gorm:"size:20" json:"reply_to_type,omitempty"`
}

// UnreadFor reports whether the message counts against userID's unread
// total: addressed to them and not yet marked read.
func (m *Message) UnreadFor(userID string) bool {
	return m.ReceiverID == userID && m.Status != StatusRead
}

// IsGroup reports whether the message belongs to a group conversation.
func (m *Message) IsGroup() bool {
	return m.GroupID != ""
}
