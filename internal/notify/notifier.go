// Package notify provides a multi-channel notification system. Alerts are
// dispatched to all registered senders (Telegram, Discord, etc.) and can be
// filtered by tier so operators receive only the severities they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a set
// of allowed tiers; Notify only forwards alerts whose tier is in the allowed
// set, while NotifyAll bypasses the filter for operational messages.
type Notifier struct {
	senders []Sender
	tiers   map[string]bool // allowed tiers
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// alerts whose tier appears in the tiers slice will be forwarded by Notify.
// If tiers is empty, all tiers are allowed.
func NewNotifier(senders []Sender, tiers []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(tiers))
	for _, t := range tiers {
		allowed[strings.TrimSpace(t)] = true
	}
	return &Notifier{
		senders: senders,
		tiers:   allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends an alert to all senders only if the tier is in the allowed
// list. If no tiers were configured (empty list), all tiers pass.
func (n *Notifier) Notify(ctx context.Context, tier, title, message string) error {
	if len(n.tiers) > 0 && !n.tiers[tier] {
		n.logger.DebugContext(ctx, "tier filtered out",
			slog.String("tier", tier),
		)
		return nil
	}

	return n.dispatch(ctx, title, message)
}

// NotifyAll sends a notification to all senders regardless of tier. Used for
// startup, shutdown, and feed health messages.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
