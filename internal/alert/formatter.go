package alert

import (
	"fmt"
	"strings"

	"github.com/dmaxfield/propscan/internal/books"
	"github.com/dmaxfield/propscan/internal/domain"
	"github.com/dmaxfield/propscan/internal/scanner"
)

var tierEmoji = map[domain.Tier]string{
	domain.TierFire:          "🔥",
	domain.TierValueLongshot: "💰",
	domain.TierOutlier:       "📊",
	domain.TierCustom:        "🎯",
}

// FormatPrice renders an American price with its sign ("+150", "-110").
func FormatPrice(odds int) string {
	if odds > 0 {
		return fmt.Sprintf("+%d", odds)
	}
	return fmt.Sprintf("%d", odds)
}

// FormatTitle renders the notification title for one alert.
func FormatTitle(e *domain.EvaluatedOpportunity, d Decision) string {
	emoji := tierEmoji[e.Tier]
	label := string(e.Tier)
	if label == "" {
		label = "ALERT"
	}
	title := fmt.Sprintf("%s %s: %s", emoji, label, e.Key.Player)
	if d == DecisionEVImproved || d == DecisionOddsImproved {
		title += " (repost)"
	}
	return strings.TrimSpace(title)
}

// FormatMessage renders the notification body. Plain multi-line text; each
// sender applies its own channel markup around it.
func FormatMessage(e *domain.EvaluatedOpportunity, bt books.Table) string {
	var b strings.Builder

	market := scanner.MarketDisplayName(e.Key.MarketKey)
	switch e.Key.Side {
	case domain.SideYes:
		fmt.Fprintf(&b, "%s\n", market)
	case domain.SideNo:
		fmt.Fprintf(&b, "No %s\n", market)
	default:
		fmt.Fprintf(&b, "%s %s %s\n", string(e.Key.Side), e.Key.Line, market)
	}
	if e.Game.Name != "" {
		fmt.Fprintf(&b, "%s\n", e.Game.Name)
	}

	fmt.Fprintf(&b, "Best: %s %s\n", bt.FullName(e.BestBook), FormatPrice(e.BestPrice))
	if e.NextBook != "" {
		fmt.Fprintf(&b, "Next: %s %s\n", bt.FullName(e.NextBook), FormatPrice(e.NextPrice))
	}
	fmt.Fprintf(&b, "Fair: %s (%.1f%%)\n", FormatPrice(e.FairPrice), e.Fair.Probability*100)
	fmt.Fprintf(&b, "EV: %+.1f%%  Kelly: %.2fu\n", e.EVPct, e.ConfKelly)
	fmt.Fprintf(&b, "Books: %d", e.Coverage)
	if e.Outlier {
		fmt.Fprintf(&b, "  (+%.0f%% vs next)", e.PctVsNext)
	}
	if e.BestLink != "" {
		fmt.Fprintf(&b, "\n%s", e.BestLink)
	}
	return b.String()
}
