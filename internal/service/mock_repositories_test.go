package service

import (
	"context"
	"errors"
	"sort"

	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
)

// Map-backed fakes for the write path. They implement the repository
// interfaces over plain maps so service tests never need a database.

type MockMessageRepository struct {
	messages []*models.Message
	byID     map[string]*models.Message
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{byID: make(map[string]*models.Message)}
}

func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	cp := *message
	m.messages = append(m.messages, &cp)
	m.byID[cp.ID] = &cp
	return nil
}

func (m *MockMessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	if msg, ok := m.byID[id]; ok {
		cp := *msg
		return &cp, nil
	}
	return nil, errors.New("record not found")
}

func (m *MockMessageRepository) FindConversation(ctx context.Context, key models.ConversationKey, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ReceiverID == "" {
			continue
		}
		k, err := models.NewConversationKey(msg.SenderID, msg.ReceiverID)
		if err != nil || k != key {
			continue
		}
		out = append(out, *msg)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockMessageRepository) MarkConversationRead(ctx context.Context, userID, counterpartID string) (int64, error) {
	var n int64
	for _, msg := range m.messages {
		if msg.SenderID == counterpartID && msg.ReceiverID == userID && msg.Status == models.StatusSent {
			msg.Status = models.StatusRead
			n++
		}
	}
	return n, nil
}

func (m *MockMessageRepository) LoadSnapshot(ctx context.Context) (models.ConversationSnapshot, error) {
	var snap models.ConversationSnapshot
	index := make(map[string]int)
	for _, msg := range m.messages {
		if msg.ReceiverID == "" {
			continue
		}
		key, err := models.NewConversationKey(msg.SenderID, msg.ReceiverID)
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
		snap.Conversations[i].Messages = append(snap.Conversations[i].Messages, *msg)
	}
	return snap, nil
}

func (m *MockMessageRepository) CountGroupUnread(ctx context.Context, groupID, userID string, sinceTimestamp int64) (int, error) {
	count := 0
	for _, msg := range m.messages {
		if msg.GroupID == groupID && msg.SenderID != userID && msg.Timestamp > sinceTimestamp {
			count++
		}
	}
	return count, nil
}

type MockProfileRepository struct {
	profiles map[string]*models.Profile
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: make(map[string]*models.Profile)}
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	cp := *profile
	m.profiles[profile.UserID] = &cp
	return nil
}

func (m *MockProfileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrProfileNotFound
}

func (m *MockProfileRepository) SetOnline(ctx context.Context, userID string, online bool) error {
	if p, ok := m.profiles[userID]; ok {
		p.Online = online
	}
	return nil
}

type MockGroupRepository struct {
	groups      map[string]*models.Group
	memberships map[string]map[string]bool
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		groups:      make(map[string]*models.Group),
		memberships: make(map[string]map[string]bool),
	}
}

func (m *MockGroupRepository) Create(ctx context.Context, group *models.Group) error {
	m.groups[group.ID] = group
	return nil
}

func (m *MockGroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, repository.ErrGroupNotFound
}

func (m *MockGroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	if _, ok := m.memberships[groupID]; !ok {
		m.memberships[groupID] = make(map[string]bool)
	}
	m.memberships[groupID][userID] = true
	return nil
}

func (m *MockGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	if gm, ok := m.memberships[groupID]; ok {
		delete(gm, userID)
	}
	return nil
}

func (m *MockGroupRepository) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	for uid := range m.memberships[groupID] {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockGroupRepository) UserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for gid, gm := range m.memberships {
		if gm[userID] {
			ids = append(ids, gid)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockGroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	if gm, ok := m.memberships[groupID]; ok {
		return gm[userID], nil
	}
	return false, nil
}

type MockGroupReadStateRepository struct {
	states map[string]*models.GroupReadState
}

func NewMockGroupReadStateRepository() *MockGroupReadStateRepository {
	return &MockGroupReadStateRepository{states: make(map[string]*models.GroupReadState)}
}

func readStateKey(groupID, userID string) string {
	return groupID + "/" + userID
}

func (m *MockGroupReadStateRepository) Get(ctx context.Context, groupID, userID string) (*models.GroupReadState, error) {
	if s, ok := m.states[readStateKey(groupID, userID)]; ok {
		cp := *s
		return &cp, nil
	}
	return &models.GroupReadState{GroupID: groupID, UserID: userID}, nil
}

func (m *MockGroupReadStateRepository) UpsertMonotonic(ctx context.Context, groupID, userID string, lastReadTimestamp int64) error {
	key := readStateKey(groupID, userID)
	if s, ok := m.states[key]; ok {
		if lastReadTimestamp > s.LastReadTimestamp {
			s.LastReadTimestamp = lastReadTimestamp
		}
		return nil
	}
	m.states[key] = &models.GroupReadState{
		GroupID:           groupID,
		UserID:            userID,
		LastReadTimestamp: lastReadTimestamp,
	}
	return nil
}

func (m *MockGroupReadStateRepository) DeleteForMember(ctx context.Context, groupID, userID string) error {
	delete(m.states, readStateKey(groupID, userID))
	return nil
}

type MockSnapshotPublisher struct {
	published []models.ConversationSnapshot
}

func NewMockSnapshotPublisher() *MockSnapshotPublisher {
	return &MockSnapshotPublisher{}
}

func (m *MockSnapshotPublisher) PublishSnapshot(ctx context.Context, snap models.ConversationSnapshot) error {
	m.published = append(m.published, snap)
	return nil
}

// Latest returns the most recently published snapshot.
func (m *MockSnapshotPublisher) Latest() (models.ConversationSnapshot, bool) {
	if len(m.published) == 0 {
		return models.ConversationSnapshot{}, false
	}
	return m.published[len(m.published)-1], true
}

type MockGroupNotifier struct {
	unread  map[string]int
	members map[string]map[string]bool
}

func NewMockGroupNotifier() *MockGroupNotifier {
	return &MockGroupNotifier{
		unread:  make(map[string]int),
		members: make(map[string]map[string]bool),
	}
}

func (m *MockGroupNotifier) AddMembership(ctx context.Context, groupID, userID string) error {
	if _, ok := m.members[groupID]; !ok {
		m.members[groupID] = make(map[string]bool)
	}
	m.members[groupID][userID] = true
	return nil
}

func (m *MockGroupNotifier) RemoveMembership(ctx context.Context, groupID, userID string) error {
	if gm, ok := m.members[groupID]; ok {
		delete(gm, userID)
	}
	return nil
}

func (m *MockGroupNotifier) IncrementUnread(ctx context.Context, groupID, userID string) error {
	m.unread[readStateKey(groupID, userID)]++
	return nil
}

func (m *MockGroupNotifier) ResetUnread(ctx context.Context, groupID, userID string) error {
	m.unread[readStateKey(groupID, userID)] = 0
	return nil
}

// Unread reads the live counter the notifier tracks for a member.
func (m *MockGroupNotifier) Unread(groupID, userID string) int {
	return m.unread[readStateKey(groupID, userID)]
}

// HasMember reports whether the live membership set contains the user.
func (m *MockGroupNotifier) HasMember(groupID, userID string) bool {
	return m.members[groupID][userID]
}
