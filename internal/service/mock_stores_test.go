package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
	"github.com/yeray-yas/ChatApp-sub003/internal/testutil"
)

const testTimeout = testutil.Timeout

// MockConversationFeed is a scriptable feed for tests.
// It implements repository.ConversationFeed.
type MockConversationFeed struct {
	mu         sync.Mutex
	subscribed int
	active     int

	pushCh chan models.ConversationSnapshot
	failCh chan error
}

func NewMockConversationFeed() *MockConversationFeed {
	return &MockConversationFeed{
		pushCh: make(chan models.ConversationSnapshot),
		failCh: make(chan error, 1),
	}
}

func (m *MockConversationFeed) SubscribeConversations(ctx context.Context) *stream.Subscription[models.ConversationSnapshot] {
	m.mu.Lock()
	m.subscribed++
	m.active++
	m.mu.Unlock()
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[models.ConversationSnapshot]) {
		defer func() {
			m.mu.Lock()
			m.active--
			m.mu.Unlock()
		}()
		for {
			select {
			case snap := <-m.pushCh:
				if !e.Emit(snap) {
					return
				}
			case err := <-m.failCh:
				e.Close(err)
				return
			case <-ctx.Done():
				return
			}
		}
	})
}

// Push delivers one full snapshot to the live subscriber.
func (m *MockConversationFeed) Push(t *testing.T, snap models.ConversationSnapshot) {
	t.Helper()
	select {
	case m.pushCh <- snap:
	case <-time.After(testTimeout):
		t.Fatalf("no feed subscriber picked up the snapshot")
	}
}

// Fail terminates the live subscription with err.
func (m *MockConversationFeed) Fail(err error) {
	m.failCh <- err
}

func (m *MockConversationFeed) Subscribed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed
}

func (m *MockConversationFeed) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// WaitActive polls until want feed subscriptions are live.
func (m *MockConversationFeed) WaitActive(t *testing.T, want int) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if m.Active() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("active feed subscriptions = %d, want %d", m.Active(), want)
}

// MockProfileReader is a map-backed profile store for tests.
// It implements repository.ProfileReader.
type MockProfileReader struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	failing  map[string]error
	blocking map[string]chan struct{}
}

func NewMockProfileReader() *MockProfileReader {
	return &MockProfileReader{
		profiles: make(map[string]models.Profile),
		failing:  make(map[string]error),
		blocking: make(map[string]chan struct{}),
	}
}

func (m *MockProfileReader) Put(p models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
}

// FailWith makes lookups for userID return err.
func (m *MockProfileReader) FailWith(userID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[userID] = err
}

// BlockOn makes lookups for userID hang until release closes or the lookup
// context is cancelled.
func (m *MockProfileReader) BlockOn(userID string, release chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocking[userID] = release
}

func (m *MockProfileReader) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	release := m.blocking[userID]
	err := m.failing[userID]
	p, ok := m.profiles[userID]
	m.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

// MockGroupDirectory scripts membership and per-group count streams.
// It implements repository.GroupDirectory.
type MockGroupDirectory struct {
	mu              sync.Mutex
	membershipSubs  int
	groupActive     map[string]int
	groupSubscribed map[string]int

	membershipCh   chan []string
	membershipFail chan error
	countChs       map[string]chan int
	countFails     map[string]chan error
}

func NewMockGroupDirectory() *MockGroupDirectory {
	return &MockGroupDirectory{
		groupActive:     make(map[string]int),
		groupSubscribed: make(map[string]int),
		membershipCh:    make(chan []string),
		membershipFail:  make(chan error, 1),
		countChs:        make(map[string]chan int),
		countFails:      make(map[string]chan error),
	}
}

func (m *MockGroupDirectory) SubscribeMemberships(ctx context.Context, userID string) *stream.Subscription[[]string] {
	m.mu.Lock()
	m.membershipSubs++
	m.mu.Unlock()
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[[]string]) {
		for {
			select {
			case ids := <-m.membershipCh:
				if !e.Emit(ids) {
					return
				}
			case err := <-m.membershipFail:
				e.Close(err)
				return
			case <-ctx.Done():
				return
			}
		}
	})
}

// SubscribeGroupUnread hands each subscription its own channels so a
// cancelled producer from an earlier membership set can never consume a
// count meant for its replacement.
func (m *MockGroupDirectory) SubscribeGroupUnread(ctx context.Context, groupID, userID string) *stream.Subscription[int] {
	countCh := make(chan int)
	failCh := make(chan error, 1)
	m.mu.Lock()
	m.countChs[groupID] = countCh
	m.countFails[groupID] = failCh
	m.groupActive[groupID]++
	m.groupSubscribed[groupID]++
	m.mu.Unlock()
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[int]) {
		defer func() {
			m.mu.Lock()
			m.groupActive[groupID]--
			m.mu.Unlock()
		}()
		for {
			select {
			case n := <-countCh:
				if !e.Emit(n) {
					return
				}
			case err := <-failCh:
				e.Close(err)
				return
			case <-ctx.Done():
				return
			}
		}
	})
}

// PushMembership delivers a membership set to the live subscriber.
func (m *MockGroupDirectory) PushMembership(t *testing.T, groupIDs []string) {
	t.Helper()
	select {
	case m.membershipCh <- groupIDs:
	case <-time.After(testTimeout):
		t.Fatalf("no membership subscriber picked up the set")
	}
}

// PushCount delivers one unread count to groupID's newest subscription.
func (m *MockGroupDirectory) PushCount(t *testing.T, groupID string, n int) {
	t.Helper()
	m.mu.Lock()
	countCh := m.countChs[groupID]
	m.mu.Unlock()
	if countCh == nil {
		t.Fatalf("group %s was never subscribed", groupID)
	}
	select {
	case countCh <- n:
	case <-time.After(testTimeout):
		t.Fatalf("no subscriber for group %s picked up the count", groupID)
	}
}

// FailGroup terminates groupID's newest count stream with err.
func (m *MockGroupDirectory) FailGroup(groupID string, err error) {
	m.mu.Lock()
	failCh := m.countFails[groupID]
	m.mu.Unlock()
	if failCh != nil {
		failCh <- err
	}
}

// FailMembership terminates the membership stream with err.
func (m *MockGroupDirectory) FailMembership(err error) {
	m.membershipFail <- err
}

func (m *MockGroupDirectory) MembershipSubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.membershipSubs
}

func (m *MockGroupDirectory) ActiveGroupSubs(groupID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groupActive[groupID]
}

// WaitActiveGroupSubs polls until groupID has want live subscriptions.
func (m *MockGroupDirectory) WaitActiveGroupSubs(t *testing.T, groupID string, want int) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if m.ActiveGroupSubs(groupID) == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("group %s active subscriptions = %d, want %d", groupID, m.ActiveGroupSubs(groupID), want)
}

// WaitGroupSubscribed polls until groupID has been subscribed want times in
// total. The counter is monotonic, so this is a race-free gate for pushing
// counts after a resubscribe.
func (m *MockGroupDirectory) WaitGroupSubscribed(t *testing.T, groupID string, want int) {
	t.Helper()
	subscribed := func() int {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.groupSubscribed[groupID]
	}
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if subscribed() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("group %s subscribed %d times, want %d", groupID, subscribed(), want)
}

