package printer

import (
	"fmt"
	"strings"
	"time"

	"notify_printer/internal/model"
)

// Width is the line width of the receipt printer in characters.
const Width = 32

const timeFormat = "2006-01-02 15:04"

// RenderNotification formats a single notification as receipt text.
func RenderNotification(n model.Notification) string {
	var b strings.Builder
	rule := strings.Repeat("=", Width)

	b.WriteString(rule + "\n")
	b.WriteString(clip("SERVICE: "+n.Source) + "\n")
	if n.Repository != "" {
		b.WriteString(clip("REPO: "+n.Repository) + "\n")
	}
	b.WriteString(clip("TYPE: "+n.Type) + "\n")
	if n.Reason != "" {
		b.WriteString(clip("REASON: "+strings.ToUpper(n.Reason)) + "\n")
	}
	b.WriteString(clip("TIME: "+n.Timestamp.Format(timeFormat)) + "\n")
	b.WriteString(strings.Repeat("-", Width) + "\n")

	for _, line := range wrap(n.Title, Width) {
		b.WriteString(line + "\n")
	}

	b.WriteString(rule + "\n")
	return b.String()
}

// RenderBatch formats a whole delivery: header, notifications grouped
// by source in first-appearance order, footer.
func RenderBatch(notifications []model.Notification, now time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("=", Width)

	var order []string
	groups := map[string][]model.Notification{}
	for _, n := range notifications {
		if _, ok := groups[n.Source]; !ok {
			order = append(order, n.Source)
		}
		groups[n.Source] = append(groups[n.Source], n)
	}

	b.WriteString(rule + "\n")
	b.WriteString("NOTIFICATIONS\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total: %d\n", len(notifications))
	b.WriteString(clip("Services: "+strings.Join(order, ", ")) + "\n")
	b.WriteString(clip("Time: "+now.Format(timeFormat)) + "\n")
	b.WriteString("\n")

	for _, source := range order {
		batch := groups[source]
		fmt.Fprintf(&b, "--- %s ---\n", strings.ToUpper(source))
		fmt.Fprintf(&b, "Count: %d\n\n", len(batch))
		for _, n := range batch {
			b.WriteString(RenderNotification(n))
			b.WriteString("\n")
		}
	}

	b.WriteString(rule + "\n")
	b.WriteString("END OF NOTIFICATIONS\n")
	b.WriteString(rule + "\n")
	return b.String()
}

func clip(s string) string {
	if len(s) <= Width {
		return s
	}
	return s[:Width]
}

// wrap breaks text into lines of at most width characters on word
// boundaries. A single word longer than width keeps its own line.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		if len(current)+1+len(word) <= width {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	lines = append(lines, current)
	return lines
}
