package alert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmaxfield/propscan/internal/books"
	"github.com/dmaxfield/propscan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func evaluated(book string, price int, evPct float64, tier domain.Tier) *domain.EvaluatedOpportunity {
	return &domain.EvaluatedOpportunity{
		MarketOpportunity: &domain.MarketOpportunity{
			Key: domain.OpportunityKey{
				Player:    "Jalen Chandler",
				MarketKey: "player_points_alternate",
				Line:      "24.5",
				Side:      domain.SideOver,
				GameID:    "BOS @ NYK",
			},
		},
		Game:      domain.GameInfo{Name: "BOS @ NYK"},
		Fair:      domain.FairValue{Probability: 0.45, CalcType: domain.CalcHybrid},
		BestBook:  book,
		BestPrice: price,
		FairPrice: 122,
		EVPct:     evPct,
		StdKelly:  0.40,
		ConfKelly: 0.30,
		Coverage:  6,
		Tier:      tier,
	}
}

func newTestGovernor(store domain.AlertStore) (*Governor, *time.Time) {
	g := NewGovernor(DefaultGovernorConfig(), store, testLogger())
	now := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	clock := &now
	g.now = func() time.Time { return *clock }
	return g, clock
}

func TestGovernorStateMachine(t *testing.T) {
	g, clock := newTestGovernor(nil)
	ctx := context.Background()

	e := evaluated("DK", 150, 8.0, domain.TierFire)
	if d := g.Decide(e); d != DecisionNewAlert {
		t.Fatalf("first sight = %q, want new_alert", d)
	}
	g.MarkSent(ctx, e)

	// Identical repeat inside the cooldown.
	if d := g.Decide(e); d != DecisionSameBookStale {
		t.Errorf("same book same price = %q, want same_book_no_improvement", d)
	}

	// Different book, inside cooldown.
	other := evaluated("FD", 160, 9.0, domain.TierFire)
	if d := g.Decide(other); d != DecisionSentRecently {
		t.Errorf("inside cooldown = %q, want sent_recently", d)
	}

	// Advance past the cooldown.
	*clock = clock.Add(31 * time.Minute)

	// Same book, worse price: suppressed even after cooldown.
	worse := evaluated("DK", 140, 12.0, domain.TierFire)
	if d := g.Decide(worse); d != DecisionSameBookStale {
		t.Errorf("same book worse price after cooldown = %q, want same_book_no_improvement", d)
	}

	// EV gain meeting the threshold triggers a repost.
	better := evaluated("FD", 155, 11.0, domain.TierFire)
	if d := g.Decide(better); d != DecisionEVImproved {
		t.Errorf("ev gain = %q, want ev_improved", d)
	}

	// Same book odds gain without the EV gain.
	odds := evaluated("DK", 175, 9.5, domain.TierFire)
	if d := g.Decide(odds); d != DecisionOddsImproved {
		t.Errorf("odds gain = %q, want odds_improved", d)
	}

	// Neither improvement after cooldown.
	flat := evaluated("FD", 155, 9.0, domain.TierFire)
	if d := g.Decide(flat); d != DecisionNoImprovement {
		t.Errorf("no gain = %q, want no_improvement", d)
	}

	// A repost overwrites memory, restarting the cooldown.
	g.MarkSent(ctx, better)
	if d := g.Decide(better); d != DecisionSameBookStale {
		t.Errorf("repeat of repost = %q, want same_book_no_improvement", d)
	}
}

func TestGovernorDecisionSendFlags(t *testing.T) {
	sending := []Decision{DecisionNewAlert, DecisionEVImproved, DecisionOddsImproved}
	suppressing := []Decision{DecisionSameBookStale, DecisionSentRecently, DecisionNoImprovement}
	for _, d := range sending {
		if !d.Send() {
			t.Errorf("%q should send", d)
		}
	}
	for _, d := range suppressing {
		if d.Send() {
			t.Errorf("%q should suppress", d)
		}
	}
}

type memoryAlertStore struct {
	mu      sync.Mutex
	records map[string]domain.AlertRecord
	fail    bool
}

func (s *memoryAlertStore) Load(ctx context.Context) (map[string]domain.AlertRecord, error) {
	if s.fail {
		return nil, errors.New("store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.AlertRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out, nil
}

func (s *memoryAlertStore) Record(ctx context.Context, key string, rec domain.AlertRecord) error {
	if s.fail {
		return errors.New("store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]domain.AlertRecord)
	}
	s.records[key] = rec
	return nil
}

func TestGovernorHydrateHonorsPersistedCooldown(t *testing.T) {
	ctx := context.Background()
	store := &memoryAlertStore{}

	g1, _ := newTestGovernor(store)
	e := evaluated("DK", 150, 8.0, domain.TierFire)
	g1.MarkSent(ctx, e)

	// Fresh process, same store.
	g2, _ := newTestGovernor(store)
	if err := g2.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if g2.Size() != 1 {
		t.Fatalf("hydrated %d records, want 1", g2.Size())
	}
	if d := g2.Decide(e); d != DecisionSameBookStale {
		t.Errorf("after restart = %q, want same_book_no_improvement", d)
	}
}

func TestGovernorStoreFailureDoesNotBlockAlerting(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGovernor(&memoryAlertStore{fail: true})

	e := evaluated("DK", 150, 8.0, domain.TierFire)
	g.MarkSent(ctx, e) // store write fails, memory still updates
	if d := g.Decide(e); d != DecisionSameBookStale {
		t.Errorf("decision = %q, want same_book_no_improvement from in-process memory", d)
	}
}

type captureSink struct {
	mu     sync.Mutex
	events []string
	titles []string
	bodies []string
	err    error
}

func (c *captureSink) Notify(ctx context.Context, event, title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	c.titles = append(c.titles, title)
	c.bodies = append(c.bodies, message)
	return nil
}

func newTestDispatcher(sink Sink, cfg DispatcherConfig) (*Dispatcher, *Governor) {
	gov, _ := newTestGovernor(nil)
	if cfg.State == "" {
		cfg.State = "ny"
	}
	if cfg.SendInterval == 0 {
		cfg.SendInterval = time.Nanosecond
	}
	return NewDispatcher(sink, gov, books.Default(), nil, cfg, testLogger()), gov
}

func TestDispatchSendsAndDedupes(t *testing.T) {
	sink := &captureSink{}
	d, _ := newTestDispatcher(sink, DispatcherConfig{})
	ctx := context.Background()

	batch := []*domain.EvaluatedOpportunity{
		evaluated("DK", 150, 8.0, domain.TierFire),
		evaluated("FD", 300, 6.0, domain.TierNone), // untiered, skipped
	}
	if sent := d.Dispatch(ctx, batch); sent != 1 {
		t.Fatalf("sent %d, want 1", sent)
	}
	if sink.events[0] != "FIRE" {
		t.Errorf("event = %q, want FIRE", sink.events[0])
	}

	// Second cycle with the same opportunity is suppressed.
	if sent := d.Dispatch(ctx, batch[:1]); sent != 0 {
		t.Errorf("resend inside cooldown sent %d, want 0", sent)
	}
}

func TestDispatchSkipsIllegalBooks(t *testing.T) {
	sink := &captureSink{}
	d, _ := newTestDispatcher(sink, DispatcherConfig{State: "nh"}) // DK only
	ctx := context.Background()

	batch := []*domain.EvaluatedOpportunity{
		evaluated("FD", 150, 8.0, domain.TierFire),
		evaluated("DK", 140, 7.0, domain.TierFire),
	}
	if sent := d.Dispatch(ctx, batch); sent != 1 {
		t.Fatalf("sent %d, want 1", sent)
	}
	if !strings.Contains(sink.bodies[0], "DraftKings") {
		t.Errorf("body = %q, want DraftKings alert only", sink.bodies[0])
	}
}

func TestDispatchTierCaps(t *testing.T) {
	sink := &captureSink{}
	d, _ := newTestDispatcher(sink, DispatcherConfig{
		TierCaps: map[domain.Tier]int{domain.TierFire: 1},
	})
	ctx := context.Background()

	a := evaluated("DK", 150, 8.0, domain.TierFire)
	b := evaluated("FD", 200, 7.0, domain.TierFire)
	b.Key.Player = "Marcus Webb"

	if sent := d.Dispatch(ctx, []*domain.EvaluatedOpportunity{a, b}); sent != 1 {
		t.Errorf("sent %d, want 1 with a tier cap of 1", sent)
	}
}

func TestDispatchDeliveryFailureContinuesBatch(t *testing.T) {
	sink := &captureSink{err: errors.New("channel down")}
	d, gov := newTestDispatcher(sink, DispatcherConfig{})
	ctx := context.Background()

	e := evaluated("DK", 150, 8.0, domain.TierFire)
	if sent := d.Dispatch(ctx, []*domain.EvaluatedOpportunity{e}); sent != 0 {
		t.Fatalf("sent %d, want 0 on delivery failure", sent)
	}
	// Failed deliveries must not poison the governor memory.
	if d := gov.Decide(e); d != DecisionNewAlert {
		t.Errorf("decision after failed send = %q, want new_alert", d)
	}
}

func TestFormatMessageFields(t *testing.T) {
	e := evaluated("DK", 150, 8.2, domain.TierFire)
	e.NextBook = "FD"
	e.NextPrice = 120
	e.BestLink = "https://sportsbook.draftkings.com/event/1"

	msg := FormatMessage(e, books.Default())
	for _, want := range []string{
		"Over 24.5 Points",
		"BOS @ NYK",
		"Best: DraftKings +150",
		"Next: FanDuel +120",
		"Fair: +122 (45.0%)",
		"EV: +8.2%",
		"Kelly: 0.30u",
		"Books: 6",
		"https://sportsbook.draftkings.com/event/1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatTitleRepost(t *testing.T) {
	e := evaluated("DK", 150, 8.0, domain.TierFire)
	if got := FormatTitle(e, DecisionNewAlert); strings.Contains(got, "repost") {
		t.Errorf("new alert title marked as repost: %q", got)
	}
	if got := FormatTitle(e, DecisionEVImproved); !strings.Contains(got, "repost") {
		t.Errorf("repost title missing marker: %q", got)
	}
}
