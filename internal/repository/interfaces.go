package repository

import (
	"context"
	"errors"

	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

// ErrProfileNotFound is returned by profile point-reads when no profile
// exists for the requested user id.
var ErrProfileNotFound = errors.New("profile not found")

// ErrGroupNotFound is returned by group lookups when no group exists for
// the requested id.
var ErrGroupNotFound = errors.New("group not found")

// ConversationFeed delivers live full snapshots of every conversation.
// Each emission carries complete state and supersedes the previous one.
// A listener failure terminates the subscription with that error; the
// feed never retries on its own.
type ConversationFeed interface {
	SubscribeConversations(ctx context.Context) *stream.Subscription[models.ConversationSnapshot]
}

// ProfileReader is the single-shot profile lookup used for display-name
// resolution. A missing profile is reported as ErrProfileNotFound.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// GroupDirectory exposes live group membership and per-group unread counts.
type GroupDirectory interface {
	// SubscribeMemberships emits the current set of group ids the user
	// belongs to, first immediately and then on every membership change.
	SubscribeMemberships(ctx context.Context, userID string) *stream.Subscription[[]string]
	// SubscribeGroupUnread emits the user's unread count for one group,
	// first immediately and then on every change.
	SubscribeGroupUnread(ctx context.Context, groupID, userID string) *stream.Subscription[int]
}

// SnapshotPublisher pushes a rebuilt conversation snapshot into the live
// feed after a write. Implemented by the same backend that serves
// ConversationFeed.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap models.ConversationSnapshot) error
}

// GroupNotifier is the live side of group writes: membership sets and
// unread counters kept in the fan-out backend, with change notifications
// for their subscriptions.
type GroupNotifier interface {
	AddMembership(ctx context.Context, groupID, userID string) error
	RemoveMembership(ctx context.Context, groupID, userID string) error
	IncrementUnread(ctx context.Context, groupID, userID string) error
	ResetUnread(ctx context.Context, groupID, userID string) error
}

// MessageRepositoryInterface defines the contract for message persistence operations
type MessageRepositoryInterface interface {
	Create(ctx context.Context, message *models.Message) error
	FindByID(ctx context.Context, id string) (*models.Message, error)
	FindConversation(ctx context.Context, key models.ConversationKey, limit int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, userID, counterpartID string) (int64, error)
	LoadSnapshot(ctx context.Context) (models.ConversationSnapshot, error)
	CountGroupUnread(ctx context.Context, groupID, userID string, sinceTimestamp int64) (int, error)
}

// ProfileRepositoryInterface defines the contract for profile persistence operations
type ProfileRepositoryInterface interface {
	Upsert(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SetOnline(ctx context.Context, userID string, online bool) error
}

// GroupRepositoryInterface defines the contract for group persistence operations
type GroupRepositoryInterface interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id string) (*models.Group, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	MemberIDs(ctx context.Context, groupID string) ([]string, error)
	UserGroupIDs(ctx context.Context, userID string) ([]string, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// GroupReadStateRepositoryInterface defines the contract for group read state operations
type GroupReadStateRepositoryInterface interface {
	Get(ctx context.Context, groupID, userID string) (*models.GroupReadState, error)
	UpsertMonotonic(ctx context.Context, groupID, userID string, lastReadTimestamp int64) error
	DeleteForMember(ctx context.Context, groupID, userID string) error
}
