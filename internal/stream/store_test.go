package stream

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dmaxfield/propscan/internal/domain"
)

func newTestStore() *Store {
	return NewStore("NBA", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func raw(odds string) domain.RawOutcome {
	return domain.RawOutcome{
		OutcomeName:   "Points",
		OutcomeTarget: "Jalen Chandler",
		OutcomeLine:   "24.5",
		Odds:          odds,
	}
}

func initialState() Update {
	return Update{
		Action: ActionInitialState,
		Sport:  "NBA",
		Games: map[string]domain.GameInfo{
			"BOS @ NYK": {Name: "BOS @ NYK"},
		},
		Odds: map[string]map[string]map[string]domain.RawOutcome{
			"BOS @ NYK": {
				"draftkings": {"o1": raw("+150")},
			},
		},
	}
}

func TestStoreInitialState(t *testing.T) {
	s := newTestStore()
	s.Apply(initialState())

	snap := s.Snapshot()
	if len(snap.Games) != 1 || len(snap.Odds) != 1 {
		t.Fatalf("games=%d odds=%d, want 1/1", len(snap.Games), len(snap.Odds))
	}
	if snap.UpdateCount != 1 {
		t.Errorf("update count = %d, want 1", snap.UpdateCount)
	}
	if snap.Odds["BOS @ NYK"]["draftkings"]["o1"].Odds != "+150" {
		t.Error("initial odds not applied")
	}
}

func TestStoreLineUpdateMergesBucket(t *testing.T) {
	s := newTestStore()
	s.Apply(initialState())
	s.Apply(Update{
		Action:   ActionLineUpdate,
		Sport:    "NBA",
		GameID:   "BOS @ NYK",
		Book:     "draftkings",
		Outcomes: map[string]domain.RawOutcome{"o2": raw("-110")},
	})
	s.Apply(Update{
		Action:   ActionLineUpdate,
		Sport:    "NBA",
		GameID:   "BOS @ NYK",
		Book:     "fanduel",
		Outcomes: map[string]domain.RawOutcome{"o1": raw("+140")},
	})

	snap := s.Snapshot()
	dk := snap.Odds["BOS @ NYK"]["draftkings"]
	if len(dk) != 2 {
		t.Errorf("draftkings outcomes = %d, want 2 after merge", len(dk))
	}
	if snap.Odds["BOS @ NYK"]["fanduel"]["o1"].Odds != "+140" {
		t.Error("fanduel bucket not created by line update")
	}
	if snap.UpdateCount != 3 {
		t.Errorf("update count = %d, want 3", snap.UpdateCount)
	}
}

func TestStoreLineUpdateForUnseenGame(t *testing.T) {
	s := newTestStore()
	s.Apply(Update{
		Action:   ActionLineUpdate,
		Sport:    "NBA",
		GameID:   "DAL @ DEN",
		Book:     "betmgm",
		Outcomes: map[string]domain.RawOutcome{"o1": raw("+300")},
	})
	if snap := s.Snapshot(); len(snap.Odds["DAL @ DEN"]["betmgm"]) != 1 {
		t.Error("line update for a game without initial state must still land")
	}
}

func TestStoreGameUpdateAndRemoval(t *testing.T) {
	s := newTestStore()
	s.Apply(initialState())

	s.Apply(Update{
		Action: ActionGameUpdate,
		Sport:  "NBA",
		GameID: "BOS @ NYK",
		Game:   &domain.GameInfo{Name: "BOS @ NYK", Live: true},
	})
	if snap := s.Snapshot(); !snap.Games["BOS @ NYK"].Live {
		t.Error("game update did not mark the game live")
	}

	s.Apply(Update{Action: ActionGameRemoved, Sport: "NBA", GameID: "BOS @ NYK"})
	snap := s.Snapshot()
	if len(snap.Games) != 0 || len(snap.Odds) != 0 {
		t.Error("game removal must drop both game info and odds")
	}
}

func TestStoreSportClear(t *testing.T) {
	s := newTestStore()
	s.Apply(initialState())
	s.Apply(Update{Action: ActionSportClear, Sport: "NBA"})

	snap := s.Snapshot()
	if len(snap.Games) != 0 || len(snap.Odds) != 0 {
		t.Error("sport clear must empty the state")
	}
}

func TestStoreIgnoresOtherSports(t *testing.T) {
	s := newTestStore()
	s.Apply(initialState())

	u := initialState()
	u.Sport = "NHL"
	u.Action = ActionSportClear
	s.Apply(u)

	if snap := s.Snapshot(); len(snap.Games) != 1 {
		t.Error("frame for another sport must not touch the state")
	}
}

func TestStoreIgnoresUnknownAction(t *testing.T) {
	s := newTestStore()
	s.Apply(Update{Action: "odds_freeze", Sport: "NBA"})
	if snap := s.Snapshot(); snap.UpdateCount != 0 {
		t.Error("unknown action must not count as an update")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore()
	s.Apply(initialState())

	snap := s.Snapshot()
	snap.Odds["BOS @ NYK"]["draftkings"]["o1"] = raw("-500")
	snap.Games["BOS @ NYK"] = domain.GameInfo{Name: "tampered"}

	fresh := s.Snapshot()
	if fresh.Odds["BOS @ NYK"]["draftkings"]["o1"].Odds != "+150" {
		t.Error("mutating a snapshot leaked into the store")
	}
	if fresh.Games["BOS @ NYK"].Name != "BOS @ NYK" {
		t.Error("mutating snapshot game info leaked into the store")
	}
}

func TestStoreConnectedFlag(t *testing.T) {
	s := newTestStore()
	s.SetConnected(true)
	if !s.Snapshot().Connected {
		t.Error("connected flag not set")
	}
	s.SetConnected(false)
	if s.Snapshot().Connected {
		t.Error("connected flag not cleared")
	}
}

func TestStoreConcurrentReadersAndWriters(t *testing.T) {
	s := newTestStore()
	s.Apply(initialState())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Apply(Update{
					Action:   ActionLineUpdate,
					Sport:    "NBA",
					GameID:   "BOS @ NYK",
					Book:     fmt.Sprintf("book%d", n),
					Outcomes: map[string]domain.RawOutcome{"o": raw("+120")},
				})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := s.Snapshot()
				_ = snap.Odds["BOS @ NYK"]
			}
		}()
	}
	wg.Wait()

	if got := len(s.Snapshot().Odds["BOS @ NYK"]); got != 9 {
		t.Errorf("book buckets = %d, want 9", got)
	}
}
