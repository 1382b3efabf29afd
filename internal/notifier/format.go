package notifier

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/XavierBriggs/Augur/pkg/models"
)

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// FormatCandidate renders one candidate as a Markdown message
func FormatCandidate(c models.Candidate) string {
	var b strings.Builder

	if c.Accepted() {
		b.WriteString("✅ *ACCEPTED*")
	} else {
		b.WriteString("❌ *REJECTED*")
	}
	title := c.SportTitle
	if title == "" {
		title = c.SportKey
	}
	fmt.Fprintf(&b, " | %s\n", esc(title))

	fmt.Fprintf(&b, "👥 %s vs %s\n", esc(c.HomeTeam), esc(c.AwayTeam))
	fmt.Fprintf(&b, "⏰ %s\n", c.CommenceTime.UTC().Format("2006-01-02 15:04 MST"))

	pick := c.OutcomeName
	if c.Point != nil {
		pick = fmt.Sprintf("%s %g", c.OutcomeName, *c.Point)
	}
	fmt.Fprintf(&b, "🛒 Market: %s | Pick: %s\n", esc(c.MarketKey), esc(pick))
	fmt.Fprintf(&b, "💰 Price: %.2f @ %s\n", c.Price, esc(c.Bookmaker))

	fmt.Fprintf(&b, "📈 Probability: %.1f%% (implied %.1f%%", c.Probability, c.ImpliedProbability)
	if c.HistoricalProbability != nil {
		fmt.Fprintf(&b, ", historical %.1f%%", *c.HistoricalProbability)
	}
	b.WriteString(")\n")
	fmt.Fprintf(&b, "🔺 Edge: %+.1f%%", c.Edge)

	if len(c.Reasons) > 0 {
		b.WriteString("\n⚠️ ")
		b.WriteString(esc(strings.Join(c.Reasons, "; ")))
	}

	return b.String()
}

// FormatEmptyCycle renders the informational message for a cycle with no
// new candidates
func FormatEmptyCycle(at time.Time, sports int) string {
	return fmt.Sprintf("ℹ️ No new results this cycle (%d sports checked, %s)",
		sports, at.UTC().Format("2006-01-02 15:04 MST"))
}

// FormatStartup renders the message sent when the bot starts
func FormatStartup(sports []string, schedule string) string {
	escaped := make([]string, len(sports))
	for i, s := range sports {
		escaped[i] = esc(s)
	}
	return fmt.Sprintf("🤖 *Augur started*\nSports: %s\nSchedule: %s",
		strings.Join(escaped, ", "), esc(schedule))
}
