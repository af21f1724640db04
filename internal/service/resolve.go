package service

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
)

// resolveConcurrency bounds how many profile point-reads run at once for
// one snapshot.
const resolveConcurrency = 8

// resolveCounterparts issues all profile lookups for one snapshot
// concurrently, waits for every one to settle, then assembles the items in
// summary order. A failed or missing profile drops only that conversation
// from this emission; the failure is logged here and never escalates to
// the pipeline.
func resolveCounterparts(ctx context.Context, profiles repository.ProfileReader, summaries []conversationSummary) []models.ChatListItem {
	resolved := make([]*models.Profile, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i := range summaries {
		i := i
		sum := summaries[i]
		g.Go(func() error {
			profile, err := profiles.GetProfile(gctx, sum.counterpartID)
			if err != nil {
				// A cancelled computation is superseded work, not a drop
				// worth reporting.
				if !errors.Is(err, context.Canceled) {
					log.Printf("chat list: dropping conversation %s: profile %s: %v", sum.key, sum.counterpartID, err)
				}
				return nil
			}
			resolved[i] = profile
			return nil
		})
	}
	// Lookups never return an error; failures surface as nil slots.
	_ = g.Wait()

	items := make([]models.ChatListItem, 0, len(summaries))
	for i, sum := range summaries {
		profile := resolved[i]
		if profile == nil {
			continue
		}
		items = append(items, models.ChatListItem{
			ConversationKey:      sum.key.String(),
			CounterpartID:        sum.counterpartID,
			CounterpartName:      profile.DisplayName,
			CounterpartAvatar:    profile.AvatarURL,
			CounterpartOnline:    profile.Online,
			LastMessageBody:      sum.last.Body,
			LastMessageType:      sum.last.Type,
			LastMessageSenderID:  sum.last.SenderID,
			LastMessageTimestamp: sum.last.Timestamp,
			UnreadCount:          sum.unreadCount,
		})
	}
	return items
}
