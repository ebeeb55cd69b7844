package resolver

import (
	"context"

	"dota-events-service/internal/domain"
	"dota-events-service/internal/kv"
	"dota-events-service/internal/logging"
)

// Cards returns rank cards for the given accounts, cheapest source first.
// With refresh set the cache is bypassed and repopulated; roster resolution
// is never repeated for a refresh, only the cards. An account whose card
// cannot be fetched gets a zero card rather than failing the whole batch.
func (r *Resolver) Cards(ctx context.Context, accountIDs []int64, refresh bool) []domain.RankCard {
	logger := logging.FromContext(ctx, r.logger)
	cards := make([]domain.RankCard, 0, len(accountIDs))

	for _, id := range accountIDs {
		if id == 0 {
			cards = append(cards, domain.RankCard{})
			continue
		}

		if !refresh {
			var cached domain.RankCard
			if err := r.store.GetJSON(ctx, kv.RankCardKey(id), &cached); err == nil {
				cards = append(cards, cached)
				continue
			}
		}

		card, err := r.ranks.RankCard(ctx, id)
		if err != nil {
			logging.Warn(logger, "rank card fetch failed", logging.FieldAccountID, id, "error", err)
			var cached domain.RankCard
			if cacheErr := r.store.GetJSON(ctx, kv.RankCardKey(id), &cached); cacheErr == nil {
				cards = append(cards, cached)
			} else {
				cards = append(cards, domain.RankCard{AccountID: id})
			}
			continue
		}

		if err := r.store.SetJSON(ctx, kv.RankCardKey(id), card); err != nil {
			logging.Warn(logger, "rank card cache write failed", logging.FieldAccountID, id, "error", err)
		}
		cards = append(cards, *card)
	}
	return cards
}
