package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
	"github.com/yeray-yas/ChatApp-sub003/internal/validation"
)

var (
	ErrInvalidID      = errors.New("invalid id")
	ErrEmptyBody      = errors.New("message body is empty")
	ErrNotGroupMember = errors.New("user is not a member of this group")
	ErrAlreadyMember  = errors.New("user is already a member of this group")
)

// ChatService is the write path. Every mutation ends by refreshing the
// live state the observe streams are built on: direct-message writes
// republish the full conversation snapshot, group writes update the
// membership sets and unread counters and notify their subscriptions.
type ChatService struct {
	messageRepo   repository.MessageRepositoryInterface
	profileRepo   repository.ProfileRepositoryInterface
	groupRepo     repository.GroupRepositoryInterface
	readStateRepo repository.GroupReadStateRepositoryInterface
	snapshots     repository.SnapshotPublisher
	notifier      repository.GroupNotifier
}

func NewChatService(
	messageRepo repository.MessageRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	readStateRepo repository.GroupReadStateRepositoryInterface,
	snapshots repository.SnapshotPublisher,
	notifier repository.GroupNotifier,
) *ChatService {
	return &ChatService{
		messageRepo:   messageRepo,
		profileRepo:   profileRepo,
		groupRepo:     groupRepo,
		readStateRepo: readStateRepo,
		snapshots:     snapshots,
		notifier:      notifier,
	}
}

type SendDirectMessageInput struct {
	ReceiverID string             `json:"receiver_id"`
	Body       string             `json:"body"`
	Type       models.MessageType `json:"type"`
	ReplyToID  string             `json:"reply_to_id"`
}

func (s *ChatService) SendDirectMessage(ctx context.Context, senderID string, input SendDirectMessageInput) (*models.Message, error) {
	if !validation.ValidateID(senderID) || !validation.ValidateID(input.ReceiverID) {
		return nil, ErrInvalidID
	}
	body := validation.TrimAndLimit(input.Body, validation.MaxMessageLength())
	if body == "" {
		return nil, ErrEmptyBody
	}

	message := &models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Body:       body,
		Timestamp:  time.Now().UnixMilli(),
		Type:       input.Type,
		Status:     models.StatusSent,
	}
	if message.Type == "" {
		message.Type = models.TextMessage
	}

	// Reply linkage is best effort: a missing original just sends the
	// message without the snapshot.
	if input.ReplyToID != "" {
		if orig, err := s.messageRepo.FindByID(ctx, input.ReplyToID); err == nil {
			message.ReplyToID = orig.ID
			message.ReplyToBody = orig.Body
			message.ReplyToSender = orig.SenderID
			message.ReplyToType = orig.Type
		}
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	if err := s.republishSnapshot(ctx); err != nil {
		return nil, err
	}
	return message, nil
}

// MarkConversationRead flips the sent messages addressed to userID in
// the conversation with counterpartID to read. The snapshot is only
// republished when something actually changed.
func (s *ChatService) MarkConversationRead(ctx context.Context, userID, counterpartID string) (int64, error) {
	if !validation.ValidateID(userID) || !validation.ValidateID(counterpartID) {
		return 0, ErrInvalidID
	}
	n, err := s.messageRepo.MarkConversationRead(ctx, userID, counterpartID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := s.republishSnapshot(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *ChatService) GetConversation(ctx context.Context, userID, counterpartID string, limit int) ([]models.Message, error) {
	key, err := models.NewConversationKey(userID, counterpartID)
	if err != nil {
		return nil, ErrInvalidID
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messageRepo.FindConversation(ctx, key, limit)
}

// republishSnapshot rebuilds the conversation tree from persistence and
// pushes it into the live feed, so observers always receive complete
// state rather than deltas.
func (s *ChatService) republishSnapshot(ctx context.Context) error {
	snap, err := s.messageRepo.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	return s.snapshots.PublishSnapshot(ctx, snap)
}

type SendGroupMessageInput struct {
	Body string             `json:"body"`
	Type models.MessageType `json:"type"`
}

func (s *ChatService) SendGroupMessage(ctx context.Context, senderID, groupID string, input SendGroupMessageInput) (*models.Message, error) {
	if !validation.ValidateID(senderID) || !validation.ValidateID(groupID) {
		return nil, ErrInvalidID
	}
	body := validation.TrimAndLimit(input.Body, validation.MaxMessageLength())
	if body == "" {
		return nil, ErrEmptyBody
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}

	message := &models.Message{
		ID:        uuid.NewString(),
		SenderID:  senderID,
		GroupID:   groupID,
		Body:      body,
		Timestamp: time.Now().UnixMilli(),
		Type:      input.Type,
		Status:    models.StatusSent,
	}
	if message.Type == "" {
		message.Type = models.TextMessage
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	members, err := s.groupRepo.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, uid := range members {
		if uid == senderID {
			continue
		}
		if err := s.notifier.IncrementUnread(ctx, groupID, uid); err != nil {
			return nil, err
		}
	}
	return message, nil
}

// MarkGroupRead advances the member's read watermark to now and zeroes
// their live counter.
func (s *ChatService) MarkGroupRead(ctx context.Context, userID, groupID string) error {
	if !validation.ValidateID(userID) || !validation.ValidateID(groupID) {
		return ErrInvalidID
	}
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotGroupMember
	}
	if err := s.readStateRepo.UpsertMonotonic(ctx, groupID, userID, time.Now().UnixMilli()); err != nil {
		return err
	}
	return s.notifier.ResetUnread(ctx, groupID, userID)
}

// GroupUnread recounts the member's unread total from persistence using
// their watermark. The live counter tracks the same quantity; this is
// the authoritative recount served over REST.
func (s *ChatService) GroupUnread(ctx context.Context, userID, groupID string) (int, error) {
	state, err := s.readStateRepo.Get(ctx, groupID, userID)
	if err != nil {
		return 0, err
	}
	return s.messageRepo.CountGroupUnread(ctx, groupID, userID, state.LastReadTimestamp)
}

func (s *ChatService) CreateGroup(ctx context.Context, name, creatorID string) (*models.Group, error) {
	if !validation.ValidateID(creatorID) {
		return nil, ErrInvalidID
	}
	if !validation.ValidateGroupName(name) {
		return nil, errors.New("invalid group name")
	}

	group := &models.Group{
		ID:        uuid.NewString(),
		Name:      validation.NormalizeGroupName(name),
		CreatorID: creatorID,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	if err := s.addMember(ctx, group.ID, creatorID); err != nil {
		return nil, err
	}
	return s.groupRepo.FindByID(ctx, group.ID)
}

func (s *ChatService) JoinGroup(ctx context.Context, groupID, userID string) error {
	if !validation.ValidateID(groupID) || !validation.ValidateID(userID) {
		return ErrInvalidID
	}
	if _, err := s.groupRepo.FindByID(ctx, groupID); err != nil {
		return err
	}
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return ErrAlreadyMember
	}
	return s.addMember(ctx, groupID, userID)
}

// addMember persists the membership, seeds the watermark at join time so
// earlier messages never count as unread, and notifies the member's live
// membership subscriptions.
func (s *ChatService) addMember(ctx context.Context, groupID, userID string) error {
	if err := s.groupRepo.AddMember(ctx, groupID, userID); err != nil {
		return err
	}
	if err := s.readStateRepo.UpsertMonotonic(ctx, groupID, userID, time.Now().UnixMilli()); err != nil {
		return err
	}
	return s.notifier.AddMembership(ctx, groupID, userID)
}

func (s *ChatService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	if !validation.ValidateID(groupID) || !validation.ValidateID(userID) {
		return ErrInvalidID
	}
	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}
	_ = s.readStateRepo.DeleteForMember(ctx, groupID, userID)
	return s.notifier.RemoveMembership(ctx, groupID, userID)
}

func (s *ChatService) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	return s.groupRepo.MemberIDs(ctx, groupID)
}

func (s *ChatService) UserGroups(ctx context.Context, userID string) ([]string, error) {
	return s.groupRepo.UserGroupIDs(ctx, userID)
}

func (s *ChatService) PutProfile(ctx context.Context, profile *models.Profile) error {
	if !validation.ValidateID(profile.UserID) {
		return ErrInvalidID
	}
	if !validation.ValidateDisplayName(profile.DisplayName) {
		return errors.New("invalid display name")
	}
	profile.DisplayName = validation.NormalizeDisplayName(profile.DisplayName)
	return s.profileRepo.Upsert(ctx, profile)
}

func (s *ChatService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profileRepo.GetProfile(ctx, userID)
}

func (s *ChatService) SetOnline(ctx context.Context, userID string, online bool) error {
	return s.profileRepo.SetOnline(ctx, userID, online)
}
