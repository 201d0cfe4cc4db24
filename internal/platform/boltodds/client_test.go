package boltodds

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/dmaxfield/propscan/internal/stream"
)

func newTestClient() (*Client, *stream.Store) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := stream.NewStore("NBA", logger)
	return NewClient("ws://feed", "NBA", store, nil, logger), store
}

func TestFlexOddsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"signed string", `"+150"`, "+150"},
		{"negative string", `"-110"`, "-110"},
		{"bare number", `150`, "150"},
		{"bid ask object", `{"bid":"+140","ask":"+160"}`, "+160"},
		{"bid only object", `{"bid":"+140"}`, "+140"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexOdds
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if string(f) != tt.want {
				t.Errorf("odds = %q, want %q", f, tt.want)
			}
		})
	}
}

func TestHandleFrameInitialStateThenLineUpdate(t *testing.T) {
	c, store := newTestClient()

	c.handleFrame([]byte(`{
		"action": "initial_state",
		"data": {
			"sport": "NBA",
			"games": {"BOS @ NYK": {"name": "BOS @ NYK", "home_team": "NYK", "away_team": "BOS"}},
			"odds": {
				"BOS @ NYK": {
					"draftkings": {
						"o1": {"outcome_name": "Points", "outcome_target": "Jalen Chandler", "outcome_line": "24.5", "outcome_over_under": "Over", "odds": "+150"}
					}
				}
			}
		}
	}`))

	snap := store.Snapshot()
	if len(snap.Games) != 1 {
		t.Fatalf("games = %d, want 1", len(snap.Games))
	}
	if got := snap.Odds["BOS @ NYK"]["draftkings"]["o1"].Odds; got != "+150" {
		t.Errorf("odds = %q, want +150", got)
	}

	c.handleFrame([]byte(`{
		"action": "line_update",
		"data": {
			"sport": "NBA",
			"game": "BOS @ NYK",
			"sportsbook": "fanduel",
			"outcomes": {
				"o1": {"outcome_name": "Points", "outcome_target": "Jalen Chandler", "outcome_line": "24.5", "outcome_over_under": "Over", "odds": {"bid": "+135", "ask": "+145"}}
			}
		}
	}`))

	snap = store.Snapshot()
	if got := snap.Odds["BOS @ NYK"]["fanduel"]["o1"].Odds; got != "+145" {
		t.Errorf("exchange odds = %q, want flattened ask +145", got)
	}
}

func TestHandleFrameGameLifecycle(t *testing.T) {
	c, store := newTestClient()
	c.handleFrame([]byte(`{
		"action": "game_update",
		"data": {"sport": "NBA", "game": "DAL @ DEN", "info": {"name": "DAL @ DEN", "live": true}}
	}`))
	if !store.Snapshot().Games["DAL @ DEN"].Live {
		t.Fatal("game update not applied")
	}

	c.handleFrame([]byte(`{
		"action": "game_removed",
		"data": {"sport": "NBA", "game": "DAL @ DEN"}
	}`))
	if len(store.Snapshot().Games) != 0 {
		t.Error("game removal not applied")
	}
}

func TestHandleFrameDropsMalformed(t *testing.T) {
	c, store := newTestClient()
	c.handleFrame([]byte(`not json`))
	c.handleFrame([]byte(`{"action": "line_update", "data": "nope"}`))
	c.handleFrame([]byte(`{"action": "unknown_action", "data": {}}`))
	if got := store.Snapshot().UpdateCount; got != 0 {
		t.Errorf("update count = %d, want 0 after malformed frames", got)
	}
}

func TestHandleFrameObserver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := stream.NewStore("NBA", logger)
	var seen []string
	c := NewClient("ws://feed", "NBA", store, func(action string) {
		seen = append(seen, action)
	}, logger)

	c.handleFrame([]byte(`{"action": "sport_clear", "data": {"sport": "NBA"}}`))
	if len(seen) != 1 || seen[0] != "sport_clear" {
		t.Errorf("observer saw %v, want [sport_clear]", seen)
	}
}
