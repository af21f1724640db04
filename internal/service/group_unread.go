package service

import (
	"context"

	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

// groupEvent is one per-group stream occurrence forwarded into the group
// loop: a fresh count, a terminal error, or a close. epoch identifies the
// membership set the subscription belonged to.
type groupEvent struct {
	epoch   uint64
	groupID string
	count   int
	err     error
	closed  bool
}

// ObserveTotalUnreadGroups emits the summed unread count across the user's
// current groups. Every membership change discards all per-group
// subscriptions and rebuilds them for the new set; the sum is re-emitted
// whenever any active group stream emits. Empty membership emits 0 with no
// per-group subscriptions; an unauthenticated user gets a single 0 and a
// clean close with no subscriptions at all.
func (s *ChatListService) ObserveTotalUnreadGroups(ctx context.Context) *stream.Subscription[int] {
	return stream.Go(ctx, func(ctx context.Context, e *stream.Emitter[int]) {
		userID := s.id.CurrentUserID()
		if userID == "" {
			e.Emit(0)
			return
		}
		memberships := s.groups.SubscribeMemberships(ctx, userID)
		defer memberships.Cancel()
		s.runGroupUnreadLoop(ctx, e, memberships, userID)
	})
}

// runGroupUnreadLoop owns the per-group subscription set. Counts from a
// superseded membership set carry a stale epoch and are dropped, so a
// group left behind can never contribute to a later sum.
func (s *ChatListService) runGroupUnreadLoop(ctx context.Context, e *stream.Emitter[int], memberships *stream.Subscription[[]string], userID string) {
	var (
		epoch   uint64
		counts  = map[string]int{}
		pending = map[string]struct{}{}
		subs    = map[string]*stream.Subscription[int]{}
		events  = make(chan groupEvent)
	)
	cancelAll := func() {
		for _, sub := range subs {
			sub.Cancel()
		}
		subs = map[string]*stream.Subscription[int]{}
		counts = map[string]int{}
		pending = map[string]struct{}{}
	}
	defer cancelAll()

	sum := func() int {
		total := 0
		for _, n := range counts {
			total += n
		}
		return total
	}

	for {
		select {
		case groupIDs, ok := <-memberships.C():
			if !ok {
				e.Close(memberships.Err())
				return
			}
			epoch++
			cancelAll()
			if len(groupIDs) == 0 {
				if !e.Emit(0) {
					return
				}
				continue
			}
			for _, groupID := range groupIDs {
				if _, dup := subs[groupID]; dup {
					continue
				}
				sub := s.groups.SubscribeGroupUnread(ctx, groupID, userID)
				subs[groupID] = sub
				pending[groupID] = struct{}{}
				go forwardGroupCounts(ctx, epoch, groupID, sub, events)
			}

		case ev := <-events:
			if ev.epoch != epoch {
				continue
			}
			if ev.err != nil {
				e.Close(ev.err)
				return
			}
			if ev.closed {
				// Count stream ended cleanly; whatever it last reported
				// keeps contributing until the next membership change.
				wasPending := len(pending) > 0
				delete(pending, ev.groupID)
				if !wasPending || len(pending) > 0 {
					continue
				}
				// The close satisfied the last pending group; fall through
				// and surface the initial sum.
			} else {
				counts[ev.groupID] = ev.count
				delete(pending, ev.groupID)
				// Hold the first emission until every group in the current
				// set has reported once, then emit on every change.
				if len(pending) > 0 {
					continue
				}
			}
			if !e.Emit(sum()) {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// forwardGroupCounts pumps one per-group subscription into the loop's
// fan-in channel until the stream or the pipeline ends.
func forwardGroupCounts(ctx context.Context, epoch uint64, groupID string, sub *stream.Subscription[int], events chan<- groupEvent) {
	for {
		select {
		case n, ok := <-sub.C():
			if !ok {
				ev := groupEvent{epoch: epoch, groupID: groupID, err: sub.Err(), closed: true}
				select {
				case events <- ev:
				case <-ctx.Done():
				}
				return
			}
			select {
			case events <- groupEvent{epoch: epoch, groupID: groupID, count: n}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
