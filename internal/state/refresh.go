package state

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/five82/codecks-bot/internal/codecks"
)

const flightKey = "cycle"

// Bootstrap loads the snapshot from the mirror, or performs a full fetch when
// the mirror is absent or cannot be decoded.
func (s *Store) Bootstrap(ctx context.Context) error {
	_, err, _ := s.flight.Do(flightKey, func() (any, error) {
		return nil, s.bootstrap(ctx)
	})
	return err
}

// RefreshIncremental fetches activity since the last successful refresh and
// merges the affected cards. On any remote failure the snapshot and
// timestamp are left untouched so the next cycle retries the same window.
func (s *Store) RefreshIncremental(ctx context.Context) error {
	_, err, _ := s.flight.Do(flightKey, func() (any, error) {
		return nil, s.refreshIncremental(ctx)
	})
	return err
}

// Refresh bootstraps when no snapshot is installed yet and refreshes
// incrementally otherwise.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.flight.Do(flightKey, func() (any, error) {
		if !s.Bootstrapped() {
			return nil, s.bootstrap(ctx)
		}
		return nil, s.refreshIncremental(ctx)
	})
	return err
}

func (s *Store) bootstrap(ctx context.Context) error {
	if s.mirror != nil {
		doc, err := s.mirror.Load(ctx)
		switch {
		case err == nil:
			lastUpdate, _ := doc.ParsedLastUpdate()
			s.install(doc.Decks, doc.Cards, lastUpdate)
			s.report(doc)
			s.observe("loaded")
			s.logger.Info("project data loaded from mirror",
				"last_update", doc.LastUpdate, "decks", len(doc.Decks), "cards", len(doc.Cards))
			return nil
		case errors.Is(err, ErrMirrorNotFound):
			s.logger.Info("no project mirror found, fetching from codecks")
		default:
			s.logger.Error("failed to load project data from mirror, fetching from codecks", "error", err)
		}
	}
	return s.fetchProject(ctx)
}

func (s *Store) fetchProject(ctx context.Context) error {
	started := s.cycleStart()

	payload, err := s.fetcher.FetchProject(ctx)
	if err != nil {
		s.observe("failed")
		s.logger.Error("failed to fetch project data", "error", err)
		return fmt.Errorf("fetch project: %w", err)
	}

	decks := decksFromPayload(payload)
	cards := cardsFromPayload(payload.Cards)
	s.install(decks, cards, started)
	s.observe("bootstrapped")
	s.logger.Info("project data fetched from codecks",
		"updated_at", started.Format(codecks.TimestampLayout), "decks", len(decks), "cards", len(cards))
	s.persist(ctx)
	return nil
}

func (s *Store) refreshIncremental(ctx context.Context) error {
	since := s.LastUpdate()
	started := s.cycleStart()

	history, err := s.fetcher.FetchHistory(ctx, since)
	if err != nil {
		s.observe("failed")
		s.logger.Warn("history fetch failed, keeping snapshot", "since", since, "error", err)
		return fmt.Errorf("fetch history: %w", err)
	}

	ids := history.CardIDs()
	s.logger.Info("activities fetched", "count", len(history.Activities), "cards", len(ids))
	if len(ids) == 0 {
		s.advance(started)
		s.observe("unchanged")
		s.persist(ctx)
		return nil
	}

	payload, err := s.fetcher.FetchCards(ctx, ids)
	if err != nil {
		s.observe("failed")
		s.logger.Warn("card fetch failed, keeping snapshot", "cards", len(ids), "error", err)
		return fmt.Errorf("fetch cards: %w", err)
	}

	s.dataMu.RLock()
	current := s.cards
	s.dataMu.RUnlock()

	s.installCards(mergeCards(current, payload.Cards), started)
	s.observe("merged")
	s.persist(ctx)
	return nil
}

// mergeCards returns a new map holding current with the remote fields applied.
// Applying the same payload twice yields the same result.
func mergeCards(current map[string]Card, remote map[string]codecks.Card) map[string]Card {
	merged := maps.Clone(current)
	if merged == nil {
		merged = make(map[string]Card, len(remote))
	}
	for key, rc := range remote {
		id := cardKey(key, rc)
		merged[id] = merged[id].applyRemote(id, rc)
	}
	return merged
}
