package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeSender struct {
	name string
	sent []string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyTierFilter(t *testing.T) {
	s := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{"FIRE"}, testLogger())
	ctx := context.Background()

	if err := n.Notify(ctx, "FIRE", "t1", "m"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := n.Notify(ctx, "OUTLIER", "t2", "m"); err != nil {
		t.Fatalf("filtered notify must not error: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0] != "t1" {
		t.Errorf("sent = %v, want [t1]", s.sent)
	}
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	s := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	if err := n.Notify(context.Background(), "CUSTOM", "t", "m"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(s.sent) != 1 {
		t.Errorf("sent = %v, want one delivery", s.sent)
	}
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("down")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.NotifyAll(context.Background(), "t", "m")
	if err == nil {
		t.Fatal("want combined error when a sender fails")
	}
	if len(good.sent) != 1 {
		t.Error("healthy sender must still deliver")
	}
}
