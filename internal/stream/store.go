// Package stream holds the live feed state: a concurrency-safe store of the
// latest known odds per game and book, fed by the push client and read by the
// evaluation loop at its own cadence.
package stream

import (
	"log/slog"
	"sync"

	"github.com/dmaxfield/propscan/internal/domain"
)

// Feed frame actions.
const (
	ActionInitialState = "initial_state"
	ActionLineUpdate   = "line_update"
	ActionGameUpdate   = "game_update"
	ActionGameRemoved  = "game_removed"
	ActionSportClear   = "sport_clear"
)

// Update is one decoded feed frame applied to the store. Which fields are
// populated depends on Action: initial_state carries Games and Odds in full,
// line_update carries one (GameID, Book) outcome map, game_update carries
// Game, game_removed and sport_clear carry only identifiers.
type Update struct {
	Action string
	Sport  string
	GameID string
	Book   string
	Game   *domain.GameInfo
	// Outcomes is merged into the (GameID, Book) bucket on line_update.
	Outcomes map[string]domain.RawOutcome
	// Games and Odds replace the whole state on initial_state.
	Games map[string]domain.GameInfo
	Odds  map[string]map[string]map[string]domain.RawOutcome
}

// State is the immutable snapshot handed to consumers. Every map in it is a
// deep copy; callers may read it without holding any lock and mutate it
// freely without affecting the store.
type State struct {
	Games       map[string]domain.GameInfo
	Odds        map[string]map[string]map[string]domain.RawOutcome
	Connected   bool
	UpdateCount int
}

// Store owns the live feed state. All mutation goes through Apply and
// SetConnected; all reads go through Snapshot. The store is pinned to one
// sport and silently drops frames for any other.
type Store struct {
	sport  string
	logger *slog.Logger

	mu          sync.RWMutex
	games       map[string]domain.GameInfo
	odds        map[string]map[string]map[string]domain.RawOutcome
	connected   bool
	updateCount int
}

// NewStore creates an empty Store pinned to the given sport code ("NBA").
func NewStore(sport string, logger *slog.Logger) *Store {
	return &Store{
		sport:  sport,
		logger: logger.With(slog.String("component", "stream_store")),
		games:  make(map[string]domain.GameInfo),
		odds:   make(map[string]map[string]map[string]domain.RawOutcome),
	}
}

// Apply dispatches one decoded frame into the state. Unknown actions are
// ignored; malformed frames never reach here.
func (s *Store) Apply(u Update) {
	if u.Sport != "" && u.Sport != s.sport {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Action {
	case ActionInitialState:
		s.games = make(map[string]domain.GameInfo, len(u.Games))
		for id, g := range u.Games {
			s.games[id] = g
		}
		s.odds = make(map[string]map[string]map[string]domain.RawOutcome, len(u.Odds))
		for gameID, byBook := range u.Odds {
			s.odds[gameID] = copyBookOdds(byBook)
		}
		s.logger.Info("initial state loaded",
			slog.Int("games", len(s.games)),
		)
	case ActionLineUpdate:
		if u.GameID == "" || u.Book == "" {
			return
		}
		byBook, ok := s.odds[u.GameID]
		if !ok {
			byBook = make(map[string]map[string]domain.RawOutcome)
			s.odds[u.GameID] = byBook
		}
		bucket, ok := byBook[u.Book]
		if !ok {
			bucket = make(map[string]domain.RawOutcome)
			byBook[u.Book] = bucket
		}
		for outcomeID, raw := range u.Outcomes {
			bucket[outcomeID] = raw
		}
	case ActionGameUpdate:
		if u.GameID == "" || u.Game == nil {
			return
		}
		s.games[u.GameID] = *u.Game
	case ActionGameRemoved:
		delete(s.games, u.GameID)
		delete(s.odds, u.GameID)
	case ActionSportClear:
		s.games = make(map[string]domain.GameInfo)
		s.odds = make(map[string]map[string]map[string]domain.RawOutcome)
		s.logger.Info("sport state cleared", slog.String("sport", s.sport))
	default:
		return
	}
	s.updateCount++
}

// SetConnected records feed connectivity. It does not touch odds state; the
// evaluation loop keeps working from the last good snapshot while the client
// reconnects.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := State{
		Games:       make(map[string]domain.GameInfo, len(s.games)),
		Odds:        make(map[string]map[string]map[string]domain.RawOutcome, len(s.odds)),
		Connected:   s.connected,
		UpdateCount: s.updateCount,
	}
	for id, g := range s.games {
		out.Games[id] = g
	}
	for gameID, byBook := range s.odds {
		out.Odds[gameID] = copyBookOdds(byBook)
	}
	return out
}

func copyBookOdds(byBook map[string]map[string]domain.RawOutcome) map[string]map[string]domain.RawOutcome {
	out := make(map[string]map[string]domain.RawOutcome, len(byBook))
	for book, outcomes := range byBook {
		bucket := make(map[string]domain.RawOutcome, len(outcomes))
		for id, raw := range outcomes {
			bucket[id] = raw
		}
		out[book] = bucket
	}
	return out
}
