package cache

import (
	"context"
	"fmt"
	"sort"

	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

func userGroupsKey(userID string) string {
	return fmt.Sprintf("user:groups:%s", userID)
}

func groupUnreadKey(groupID, userID string) string {
	return fmt.Sprintf("group:unread:%s:%s", groupID, userID)
}

func membershipChannel(userID string) string {
	return fmt.Sprintf("groups.membership.%s", userID)
}

func groupUnreadChannel(groupID string) string {
	return fmt.Sprintf("groups.unread.%s", groupID)
}

// GroupCache tracks group membership sets and per-member unread counters
// in Redis and broadcasts changes over pub/sub.
type GroupCache struct {
	redis *RedisCache
}

// NewGroupCache creates a new group cache
func NewGroupCache(redis *RedisCache) *GroupCache {
	return &GroupCache{redis: redis}
}

// UserGroupIDs returns the ids of every group the user belongs to, sorted
// so repeated reads of the same membership compare equal.
func (gc *GroupCache) UserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := gc.redis.SetMembers(ctx, userGroupsKey(userID))
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// AddMembership records the user as a member of the group and notifies
// the user's live membership subscriptions.
func (gc *GroupCache) AddMembership(ctx context.Context, groupID, userID string) error {
	if err := gc.redis.SetAdd(ctx, userGroupsKey(userID), groupID); err != nil {
		return err
	}
	return gc.notifyMembership(ctx, userID)
}

// RemoveMembership removes the user from the group, drops their unread
// counter for it and notifies the user's live membership subscriptions.
func (gc *GroupCache) RemoveMembership(ctx context.Context, groupID, userID string) error {
	if err := gc.redis.SetRemove(ctx, userGroupsKey(userID), groupID); err != nil {
		return err
	}
	if err := gc.redis.Delete(ctx, groupUnreadKey(groupID, userID)); err != nil {
		return err
	}
	return gc.notifyMembership(ctx, userID)
}

// IncrementUnread bumps the member's unread counter for the group and
// notifies the group's live unread subscriptions.
func (gc *GroupCache) IncrementUnread(ctx context.Context, groupID, userID string) error {
	if _, err := gc.redis.Incr(ctx, groupUnreadKey(groupID, userID)); err != nil {
		return err
	}
	return gc.notifyUnread(ctx, groupID, userID)
}

// ResetUnread zeroes the member's unread counter for the group and
// notifies the group's live unread subscriptions.
func (gc *GroupCache) ResetUnread(ctx context.Context, groupID, userID string) error {
	if err := gc.redis.Set(ctx, groupUnreadKey(groupID, userID), []byte("0"), 0); err != nil {
		return err
	}
	return gc.notifyUnread(ctx, groupID, userID)
}

func (gc *GroupCache) notifyMembership(ctx context.Context, userID string) error {
	return gc.redis.Publish(ctx, membershipChannel(userID), []byte(userID))
}

// notifyUnread publishes the id of the member whose counter changed, so
// subscriptions held by other members can skip the update.
func (gc *GroupCache) notifyUnread(ctx context.Context, groupID, userID string) error {
	return gc.redis.Publish(ctx, groupUnreadChannel(groupID), []byte(userID))
}

// SubscribeMemberships emits the user's current group ids immediately and
// re-reads the set after every membership notification.
func (gc *GroupCache) SubscribeMemberships(ctx context.Context, userID string) *stream.Subscription[[]string] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[[]string]) {
		pubsub, err := gc.redis.Subscribe(ctx, membershipChannel(userID))
		if err != nil {
			e.Close(err)
			return
		}
		defer pubsub.Close()

		emit := func() bool {
			ids, err := gc.UserGroupIDs(ctx, userID)
			if err != nil {
				e.Close(err)
				return false
			}
			return e.Emit(ids)
		}
		if !emit() {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					e.Close(fmt.Errorf("membership feed for %s: pub/sub connection closed", userID))
					return
				}
				if !emit() {
					return
				}
			}
		}
	})
}

// SubscribeGroupUnread emits the member's current unread count for the
// group immediately and re-reads it whenever their counter changes.
func (gc *GroupCache) SubscribeGroupUnread(ctx context.Context, groupID, userID string) *stream.Subscription[int] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[int]) {
		pubsub, err := gc.redis.Subscribe(ctx, groupUnreadChannel(groupID))
		if err != nil {
			e.Close(err)
			return
		}
		defer pubsub.Close()

		emit := func() bool {
			n, err := gc.redis.GetInt(ctx, groupUnreadKey(groupID, userID))
			if err != nil {
				e.Close(err)
				return false
			}
			return e.Emit(n)
		}
		if !emit() {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					e.Close(fmt.Errorf("unread feed for group %s: pub/sub connection closed", groupID))
					return
				}
				if msg.Payload != userID {
					continue
				}
				if !emit() {
					return
				}
			}
		}
	})
}
