package firestore

import (
	"context"
	"errors"
	"sort"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

// SubscribeConversations emits one full snapshot per change to any
// message document, via a collection-group listener over every
// conversation's messages subcollection. The first snapshot arrives
// immediately; each later one supersedes it completely.
func (s *Store) SubscribeConversations(ctx context.Context) *stream.Subscription[models.ConversationSnapshot] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[models.ConversationSnapshot]) {
		it := s.client.CollectionGroup("messages").Snapshots(ctx)
		defer it.Stop()

		for {
			qsnap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				e.Close(err)
				return
			}
			snap, err := decodeSnapshot(qsnap)
			if err != nil {
				e.Close(err)
				return
			}
			if !e.Emit(snap) {
				return
			}
		}
	})
}

// decodeSnapshot groups the matched message documents by the id of their
// parent conversation document.
func decodeSnapshot(qsnap *gfs.QuerySnapshot) (models.ConversationSnapshot, error) {
	var snap models.ConversationSnapshot
	index := make(map[string]int)

	docs := qsnap.Documents
	defer docs.Stop()
	for {
		doc, err := docs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return models.ConversationSnapshot{}, err
		}

		parent := doc.Ref.Parent.Parent
		if parent == nil {
			continue
		}
		key := parent.ID

		i, ok := index[key]
		if !ok {
			i = len(snap.Conversations)
			index[key] = i
			snap.Conversations = append(snap.Conversations, models.ConversationMessages{Key: key})
		}
		snap.Conversations[i].Messages = append(snap.Conversations[i].Messages, decodeMessageDoc(doc))
	}

	sort.Slice(snap.Conversations, func(i, j int) bool {
		return snap.Conversations[i].Key < snap.Conversations[j].Key
	})
	return snap, nil
}

func decodeMessageDoc(doc *gfs.DocumentSnapshot) models.Message {
	data := doc.Data()

	getStr := func(key string) string {
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}
	getInt := func(key string) int64 {
		switch v := data[key].(type) {
		case int64:
			return v
		case float64:
			return int64(v)
		}
		return 0
	}

	m := models.Message{
		ID:            doc.Ref.ID,
		SenderID:      getStr("senderId"),
		ReceiverID:    getStr("receiverId"),
		GroupID:       getStr("groupId"),
		Body:          getStr("body"),
		Timestamp:     getInt("timestamp"),
		Type:          models.MessageType(getStr("type")),
		Status:        models.MessageStatus(getStr("status")),
		ReplyToID:     getStr("replyToId"),
		ReplyToBody:   getStr("replyToBody"),
		ReplyToSender: getStr("replyToSender"),
		ReplyToType:   models.MessageType(getStr("replyToType")),
	}
	if m.Type == "" {
		m.Type = models.TextMessage
	}
	if m.Status == "" {
		m.Status = models.StatusSent
	}
	return m
}
