package repository

import (
	"context"

	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error
	return &message, err
}

func (r *MessageRepository) FindConversation(ctx context.Context, key models.ConversationKey, limit int) ([]models.Message, error) {
	a, b := key.Participants()
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			a, b, b, a).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, err
}

// MarkConversationRead flips every sent message addressed to the user in
// the conversation with counterpartID to read and reports how many rows
// changed.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, userID, counterpartID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND status = ?",
			counterpartID, userID, models.StatusSent).
		Update("status", models.StatusRead)
	return res.RowsAffected, res.Error
}

// LoadSnapshot rebuilds the full direct-conversation tree from the
// messages table, grouped by canonical conversation key. Messages whose
// participant ids cannot form a key are skipped.
func (r *MessageRepository) LoadSnapshot(ctx context.Context) (models.ConversationSnapshot, error) {
	var snap models.ConversationSnapshot
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("receiver_id <> ''").
		Order("timestamp ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return snap, err
	}

	index := make(map[string]int)
	for _, m := range messages {
		key, err := models.NewConversationKey(m.SenderID, m.ReceiverID)
		if err != nil {
			continue
		}
		ks := key.String()
		i, ok := index[ks]
		if !ok {
			i = len(snap.Conversations)
			index[ks] = i
			snap.Conversations = append(snap.Conversations, models.ConversationMessages{Key: ks})
		}
		snap.Conversations[i].Messages = append(snap.Conversations[i].Messages, m)
	}

	return snap, nil
}

// CountGroupUnread counts group messages from other members newer than
// the member's read watermark.
func (r *MessageRepository) CountGroupUnread(ctx context.Context, groupID, userID string, sinceTimestamp int64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("group_id = ? AND sender_id <> ? AND timestamp > ?", groupID, userID, sinceTimestamp).
		Count(&count).Error
	return int(count), err
}
