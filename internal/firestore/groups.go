package firestore

import (
	"context"
	"sort"
	"strings"

	gfs "cloud.google.com/go/firestore"

	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

// SubscribeMemberships listens on the users/{id} document and emits the
// groups array whenever it changes. A missing document reads as empty
// membership. Re-emissions caused by unrelated profile field edits are
// suppressed.
func (s *Store) SubscribeMemberships(ctx context.Context, userID string) *stream.Subscription[[]string] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[[]string]) {
		it := s.usersCol().Doc(userID).Snapshots(ctx)
		defer it.Stop()

		emitted := false
		var lastKey string
		for {
			doc, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				e.Close(err)
				return
			}

			var ids []string
			if doc.Exists() {
				ids = decodeGroupIDs(doc)
			}
			key := strings.Join(ids, "\n")
			if emitted && key == lastKey {
				continue
			}
			emitted, lastKey = true, key
			if !e.Emit(ids) {
				return
			}
		}
	})
}

// SubscribeGroupUnread listens on the groups/{id} document and emits the
// member's counter from its unread map whenever that counter changes.
func (s *Store) SubscribeGroupUnread(ctx context.Context, groupID, userID string) *stream.Subscription[int] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[int]) {
		it := s.groupsCol().Doc(groupID).Snapshots(ctx)
		defer it.Stop()

		last := -1
		for {
			doc, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				e.Close(err)
				return
			}

			n := 0
			if doc.Exists() {
				n = decodeUnreadCount(doc, userID)
			}
			if n == last {
				continue
			}
			last = n
			if !e.Emit(n) {
				return
			}
		}
	})
}

func decodeGroupIDs(doc *gfs.DocumentSnapshot) []string {
	raw, ok := doc.Data()["groups"].([]interface{})
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func decodeUnreadCount(doc *gfs.DocumentSnapshot, userID string) int {
	unread, ok := doc.Data()["unread"].(map[string]interface{})
	if !ok {
		return 0
	}
	switch v := unread[userID].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
