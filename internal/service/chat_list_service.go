package service

import (
	"context"
	"sort"

	"github.com/yeray-yas/ChatApp-sub003/internal/identity"
	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

// ChatListService derives the live chat list and unread totals for one
// user. Every observation is recomputed from the latest full snapshot;
// nothing here holds incremental state that could drift.
type ChatListService struct {
	feed     repository.ConversationFeed
	profiles repository.ProfileReader
	groups   repository.GroupDirectory
	id       identity.Provider
}

func NewChatListService(feed repository.ConversationFeed, profiles repository.ProfileReader, groups repository.GroupDirectory, id identity.Provider) *ChatListService {
	return &ChatListService{
		feed:     feed,
		profiles: profiles,
		groups:   groups,
		id:       id,
	}
}

// WithIdentity returns a copy of the service bound to a different identity
// provider. The push daemon binds one per authenticated connection.
func (s *ChatListService) WithIdentity(id identity.Provider) *ChatListService {
	copied := *s
	copied.id = id
	return &copied
}

// ObserveChatList emits the sorted conversation list, then again on every
// upstream snapshot. The stream terminates with the upstream error on
// listener failure. An unauthenticated user gets a single empty list and a
// clean close, with no upstream subscription created.
func (s *ChatListService) ObserveChatList(ctx context.Context) *stream.Subscription[[]models.ChatListItem] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[[]models.ChatListItem]) {
		userID := s.id.CurrentUserID()
		if userID == "" {
			e.Emit([]models.ChatListItem{})
			return
		}
		upstream := s.feed.SubscribeConversations(ctx)
		defer upstream.Cancel()
		s.runChatListLoop(ctx, e, upstream, userID)
	})
}

// ObserveTotalUnreadIndividual emits the sum of unread counts over the
// chat list. It is derived from ObserveChatList, so the two streams agree
// by construction.
func (s *ChatListService) ObserveTotalUnreadIndividual(ctx context.Context) *stream.Subscription[int] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[int]) {
		if s.id.CurrentUserID() == "" {
			e.Emit(0)
			return
		}
		inner := s.ObserveChatList(ctx)
		defer inner.Cancel()
		for {
			select {
			case items, ok := <-inner.C():
				if !ok {
					e.Close(inner.Err())
					return
				}
				total := 0
				for _, item := range items {
					total += item.UnreadCount
				}
				if !e.Emit(total) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
}

// computeResult carries one finished aggregation back to the loop with the
// generation of the snapshot it was derived from.
type computeResult struct {
	gen   uint64
	items []models.ChatListItem
}

// runChatListLoop is the orchestrator state machine. It owns all derived
// state and serializes emissions; compute work runs on child goroutines
// whose contexts it cancels the moment a newer snapshot supersedes them.
// Results carrying a stale generation are discarded, so a stale
// computation can never overwrite a newer one.
func (s *ChatListService) runChatListLoop(ctx context.Context, e *stream.Emitter[[]models.ChatListItem], upstream *stream.Subscription[models.ConversationSnapshot], userID string) {
	var (
		gen            uint64
		results        = make(chan computeResult)
		cancelInflight context.CancelFunc
	)
	defer func() {
		if cancelInflight != nil {
			cancelInflight()
		}
	}()

	for {
		select {
		case snap, ok := <-upstream.C():
			if !ok {
				// Terminal: propagate the listener error (nil for a clean
				// upstream close) and tear down.
				e.Close(upstream.Err())
				return
			}
			gen++
			if cancelInflight != nil {
				cancelInflight()
			}
			computeCtx, cancel := context.WithCancel(ctx)
			cancelInflight = cancel
			go s.compute(computeCtx, gen, userID, snap, results)

		case res := <-results:
			if res.gen != gen {
				// Superseded snapshot finished late; a newer computation
				// is already in flight.
				continue
			}
			if cancelInflight != nil {
				cancelInflight()
				cancelInflight = nil
			}
			if !e.Emit(res.items) {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// compute runs partition -> reduce -> resolve -> sort for one snapshot and
// reports the result tagged with its generation. It gives up silently when
// its context is cancelled.
func (s *ChatListService) compute(ctx context.Context, gen uint64, userID string, snap models.ConversationSnapshot, results chan<- computeResult) {
	owned := partitionConversations(snap, userID)

	summaries := make([]conversationSummary, 0, len(owned))
	for _, conv := range owned {
		if sum, ok := reduceConversation(conv, userID); ok {
			summaries = append(summaries, sum)
		}
	}

	items := resolveCounterparts(ctx, s.profiles, summaries)
	if ctx.Err() != nil {
		return
	}
	sortByLastMessage(items)

	select {
	case results <- computeResult{gen: gen, items: items}:
	case <-ctx.Done():
	}
}

// sortByLastMessage orders newest conversation first. The sort is stable
// so equal timestamps keep their snapshot order.
func sortByLastMessage(items []models.ChatListItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastMessageTimestamp > items[j].LastMessageTimestamp
	})
}
