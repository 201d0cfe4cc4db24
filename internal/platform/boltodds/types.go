// Package boltodds implements the push odds feed client: a reconnecting
// WebSocket consumer that decodes feed frames and applies them to the stream
// store.
package boltodds

import (
	"encoding/json"

	"github.com/dmaxfield/propscan/internal/domain"
)

// Frame is the outer envelope of every feed message.
type Frame struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// FlexOdds decodes the feed's odds field, which is a plain American price
// string for sportsbooks ("+150", "-110") or a bid/ask object for exchange
// style books. The ask is the price actually available to back.
type FlexOdds string

// UnmarshalJSON accepts a string, a number, or a {bid, ask} object.
func (f *FlexOdds) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexOdds(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexOdds(n.String())
		return nil
	}
	var quote struct {
		Bid string `json:"bid"`
		Ask string `json:"ask"`
	}
	if err := json.Unmarshal(data, &quote); err != nil {
		return err
	}
	if quote.Ask != "" {
		*f = FlexOdds(quote.Ask)
	} else {
		*f = FlexOdds(quote.Bid)
	}
	return nil
}

// WireOutcome is one outcome as carried by the feed.
type WireOutcome struct {
	OutcomeName      string   `json:"outcome_name"`
	OutcomeTarget    string   `json:"outcome_target"`
	OutcomeLine      string   `json:"outcome_line"`
	OutcomeOverUnder string   `json:"outcome_over_under"`
	Odds             FlexOdds `json:"odds"`
	Link             string   `json:"link"`
}

// Domain converts the wire outcome to its normalized form.
func (w WireOutcome) Domain() domain.RawOutcome {
	return domain.RawOutcome{
		OutcomeName:      w.OutcomeName,
		OutcomeTarget:    w.OutcomeTarget,
		OutcomeLine:      w.OutcomeLine,
		OutcomeOverUnder: w.OutcomeOverUnder,
		Odds:             string(w.Odds),
		Link:             w.Link,
	}
}

// WireGame is the feed's game descriptor.
type WireGame struct {
	Name      string `json:"name"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	StartTime string `json:"start_time"`
	Live      bool   `json:"live"`
}

// Domain converts the wire game to its normalized form.
func (w WireGame) Domain() domain.GameInfo {
	return domain.GameInfo{
		Name:     w.Name,
		HomeTeam: w.HomeTeam,
		AwayTeam: w.AwayTeam,
		When:     w.StartTime,
		Live:     w.Live,
	}
}

// lineUpdateData is the payload of line_update frames.
type lineUpdateData struct {
	Sport      string                 `json:"sport"`
	Game       string                 `json:"game"`
	Sportsbook string                 `json:"sportsbook"`
	Outcomes   map[string]WireOutcome `json:"outcomes"`
}

// gameUpdateData is the payload of game_update and game_removed frames.
type gameUpdateData struct {
	Sport string    `json:"sport"`
	Game  string    `json:"game"`
	Info  *WireGame `json:"info"`
}

// initialStateData is the payload of initial_state frames: the full games and
// odds maps for one sport.
type initialStateData struct {
	Sport string                                       `json:"sport"`
	Games map[string]WireGame                          `json:"games"`
	Odds  map[string]map[string]map[string]WireOutcome `json:"odds"`
}

// sportClearData is the payload of sport_clear frames.
type sportClearData struct {
	Sport string `json:"sport"`
}

// subscribeCommand is the client-to-server subscription request, sent after
// the socket_connected acknowledgement.
type subscribeCommand struct {
	Action string   `json:"action"`
	Sports []string `json:"sports"`
}
