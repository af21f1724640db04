package repository

import (
	"context"
	"errors"

	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"gorm.io/gorm"
)

type GroupReadStateRepository struct {
	db *gorm.DB
}

func NewGroupReadStateRepository(db *gorm.DB) *GroupReadStateRepository {
	return &GroupReadStateRepository{db: db}
}

// Get returns the member's read watermark for the group. A member who
// never marked the group read gets the zero watermark.
func (r *GroupReadStateRepository) Get(ctx context.Context, groupID, userID string) (*models.GroupReadState, error) {
	var state models.GroupReadState
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.GroupReadState{GroupID: groupID, UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// UpsertMonotonic advances the watermark; it never moves backwards, even
// when the caller passes an older timestamp.
func (r *GroupReadStateRepository) UpsertMonotonic(ctx context.Context, groupID, userID string, lastReadTimestamp int64) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO group_read_states (group_id, user_id, last_read_timestamp, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())
		ON CONFLICT (group_id, user_id) DO UPDATE
		SET last_read_timestamp = GREATEST(group_read_states.last_read_timestamp, EXCLUDED.last_read_timestamp),
			updated_at = NOW()
	`, groupID, userID, lastReadTimestamp).Error
}

func (r *GroupReadStateRepository) DeleteForMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupReadState{}).Error
}
