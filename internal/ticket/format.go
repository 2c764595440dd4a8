package ticket

import (
	"fmt"
	"strings"
	"time"
)

// Render produces the human-readable ticket text handed to delivery
// collaborators. Downstream treats it as opaque content.
func (t Ticket) Render(loc *time.Location) string {
	var b strings.Builder
	for i, leg := range t.Legs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(leg.render(loc))
	}

	parts := make([]string, 0, len(t.Legs))
	for _, leg := range t.Legs {
		parts = append(parts, fmt.Sprintf("%.2f", leg.Price))
	}
	b.WriteString(fmt.Sprintf("\n\nTOTAL ODDS: %s = %.2f", strings.Join(parts, " × "), t.TotalOdds))
	return b.String()
}

func (l Leg) render(loc *time.Location) string {
	kickoff := "TBD"
	if !l.Kickoff.IsZero() {
		kickoff = l.Kickoff.In(loc).Format("2006-01-02 15:04")
	}
	return fmt.Sprintf(
		"🏟 %s\n🆔 %d\n⚽ %s vs %s\n⏰ %s\n• %s → %s: %.2f",
		l.League, l.FixtureID, l.HomeTeam, l.AwayTeam, kickoff,
		l.Market, l.Outcome, l.Price,
	)
}
