package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yeray-yas/ChatApp-sub003/internal/identity"
	"github.com/yeray-yas/ChatApp-sub003/internal/testutil"
)

func newGroupTestService(groups *MockGroupDirectory, userID string) *ChatListService {
	return NewChatListService(NewMockConversationFeed(), NewMockProfileReader(), groups, identity.Static(userID))
}

func TestObserveTotalUnreadGroupsSums(t *testing.T) {
	groups := NewMockGroupDirectory()
	svc := newGroupTestService(groups, "u1")

	sub := svc.ObserveTotalUnreadGroups(context.Background())
	defer sub.Cancel()

	groups.PushMembership(t, []string{"g1", "g2"})
	groups.WaitActiveGroupSubs(t, "g1", 1)
	groups.WaitActiveGroupSubs(t, "g2", 1)

	// The first sum is held back until every group has reported once.
	groups.PushCount(t, "g1", 2)
	groups.PushCount(t, "g2", 3)
	if total := testutil.Recv(t, sub); total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	// Any single group's change re-emits the combined sum.
	groups.PushCount(t, "g1", 4)
	if total := testutil.Recv(t, sub); total != 7 {
		t.Errorf("total after g1 update = %d, want 7", total)
	}
}

func TestObserveTotalUnreadGroupsMembershipChange(t *testing.T) {
	groups := NewMockGroupDirectory()
	svc := newGroupTestService(groups, "u1")

	sub := svc.ObserveTotalUnreadGroups(context.Background())
	defer sub.Cancel()

	groups.PushMembership(t, []string{"gA", "gB"})
	groups.WaitActiveGroupSubs(t, "gA", 1)
	groups.WaitActiveGroupSubs(t, "gB", 1)
	groups.PushCount(t, "gA", 1)
	groups.PushCount(t, "gB", 2)
	if total := testutil.Recv(t, sub); total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}

	// Leaving gB tears its subscription down; its count stops contributing.
	groups.PushMembership(t, []string{"gA"})
	groups.WaitActiveGroupSubs(t, "gB", 0)
	groups.WaitGroupSubscribed(t, "gA", 2)

	groups.PushCount(t, "gA", 1)
	if total := testutil.Recv(t, sub); total != 1 {
		t.Errorf("total after leaving gB = %d, want 1", total)
	}
}

func TestObserveTotalUnreadGroupsEmptyMembership(t *testing.T) {
	groups := NewMockGroupDirectory()
	svc := newGroupTestService(groups, "u1")

	sub := svc.ObserveTotalUnreadGroups(context.Background())
	defer sub.Cancel()

	groups.PushMembership(t, []string{})
	if total := testutil.Recv(t, sub); total != 0 {
		t.Errorf("total = %d, want 0 for empty membership", total)
	}
	if n := groups.ActiveGroupSubs("g1"); n != 0 {
		t.Errorf("active per-group subscriptions = %d, want none", n)
	}
}

func TestObserveTotalUnreadGroupsUnauthenticated(t *testing.T) {
	groups := NewMockGroupDirectory()
	svc := newGroupTestService(groups, "")

	sub := svc.ObserveTotalUnreadGroups(context.Background())
	defer sub.Cancel()

	if total := testutil.Recv(t, sub); total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if err := testutil.WaitClosed(t, sub); err != nil {
		t.Errorf("terminal error = %v, want clean close", err)
	}
	if groups.MembershipSubs() != 0 {
		t.Errorf("membership subscriptions = %d, want 0", groups.MembershipSubs())
	}
}

func TestObserveTotalUnreadGroupsStaleEpochDiscarded(t *testing.T) {
	groups := NewMockGroupDirectory()
	svc := newGroupTestService(groups, "u1")

	sub := svc.ObserveTotalUnreadGroups(context.Background())
	defer sub.Cancel()

	groups.PushMembership(t, []string{"gA", "gB"})
	groups.WaitActiveGroupSubs(t, "gA", 1)
	groups.WaitActiveGroupSubs(t, "gB", 1)
	groups.PushCount(t, "gA", 10)

	// Membership flips before gB ever reports; the rebuilt set must not
	// see gA's pre-rebuild count.
	groups.PushMembership(t, []string{"gB"})
	groups.WaitActiveGroupSubs(t, "gA", 0)
	groups.WaitGroupSubscribed(t, "gB", 2)

	groups.PushCount(t, "gB", 1)
	if total := testutil.Recv(t, sub); total != 1 {
		t.Errorf("total = %d, want 1 (stale gA count must be discarded)", total)
	}
}

func TestObserveTotalUnreadGroupsMembershipErrorIsTerminal(t *testing.T) {
	dirErr := errors.New("membership listener revoked")
	groups := NewMockGroupDirectory()
	svc := newGroupTestService(groups, "u1")

	sub := svc.ObserveTotalUnreadGroups(context.Background())
	defer sub.Cancel()

	groups.PushMembership(t, []string{"g1"})
	groups.WaitActiveGroupSubs(t, "g1", 1)
	groups.PushCount(t, "g1", 2)
	if total := testutil.Recv(t, sub); total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}

	groups.FailMembership(dirErr)
	if err := testutil.WaitClosed(t, sub); !errors.Is(err, dirErr) {
		t.Errorf("terminal error = %v, want %v", err, dirErr)
	}
}

func TestObserveTotalUnreadGroupsCountErrorIsTerminal(t *testing.T) {
	countErr := errors.New("count listener revoked")
	groups := NewMockGroupDirectory()
	svc := newGroupTestService(groups, "u1")

	sub := svc.ObserveTotalUnreadGroups(context.Background())
	defer sub.Cancel()

	groups.PushMembership(t, []string{"g1", "g2"})
	groups.WaitActiveGroupSubs(t, "g1", 1)
	groups.WaitActiveGroupSubs(t, "g2", 1)
	groups.PushCount(t, "g1", 1)
	groups.PushCount(t, "g2", 1)
	if total := testutil.Recv(t, sub); total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}

	groups.FailGroup("g2", countErr)
	if err := testutil.WaitClosed(t, sub); !errors.Is(err, countErr) {
		t.Errorf("terminal error = %v, want %v", err, countErr)
	}
}
