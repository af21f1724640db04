package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

const (
	snapshotKey     = "conversations:snapshot"
	snapshotChannel = "conversations.snapshot"
)

// SnapshotCache keeps the latest full conversation snapshot in Redis and
// fans it out to live subscribers over pub/sub. Every payload is a
// complete snapshot; subscribers never see deltas.
type SnapshotCache struct {
	redis *RedisCache
}

// NewSnapshotCache creates a new snapshot cache
func NewSnapshotCache(redis *RedisCache) *SnapshotCache {
	return &SnapshotCache{redis: redis}
}

// LoadSnapshot reads the cached snapshot. A missing key decodes as an
// empty snapshot.
func (sc *SnapshotCache) LoadSnapshot(ctx context.Context) (models.ConversationSnapshot, error) {
	var snap models.ConversationSnapshot
	data, err := sc.redis.Get(ctx, snapshotKey)
	if err != nil {
		return snap, err
	}
	if data == nil {
		return snap, nil
	}
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// PublishSnapshot stores the snapshot and notifies every live feed.
func (sc *SnapshotCache) PublishSnapshot(ctx context.Context, snap models.ConversationSnapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := sc.redis.Set(ctx, snapshotKey, data, 0); err != nil {
		return err
	}
	return sc.redis.Publish(ctx, snapshotChannel, data)
}

// SubscribeConversations emits the cached snapshot immediately and then a
// fresh snapshot for every publish. The pub/sub subscription is opened
// before the initial read so a publish racing the read is never lost.
// Any listener failure closes the subscription with that error.
func (sc *SnapshotCache) SubscribeConversations(ctx context.Context) *stream.Subscription[models.ConversationSnapshot] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[models.ConversationSnapshot]) {
		pubsub, err := sc.redis.Subscribe(ctx, snapshotChannel)
		if err != nil {
			e.Close(err)
			return
		}
		defer pubsub.Close()

		snap, err := sc.LoadSnapshot(ctx)
		if err != nil {
			e.Close(err)
			return
		}
		if !e.Emit(snap) {
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					e.Close(errors.New("conversation feed: pub/sub connection closed"))
					return
				}
				var next models.ConversationSnapshot
				if err := msgpack.Unmarshal([]byte(msg.Payload), &next); err != nil {
					e.Close(fmt.Errorf("decode snapshot: %w", err))
					return
				}
				if !e.Emit(next) {
					return
				}
			}
		}
	})
}
