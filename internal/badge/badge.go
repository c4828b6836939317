// Package badge renders shields-style SVG status badges from dashboard stats.
package badge

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/roeintheglasses/heimdall/internal/domain"
)

// Kind selects which statistic a badge shows.
type Kind string

const (
	KindLast   Kind = "last"
	KindToday  Kind = "today"
	KindStreak Kind = "streak"
	KindTotal  Kind = "total"
)

// Style selects the badge corner radius.
type Style string

const (
	StyleFlat       Style = "flat"
	StyleFlatSquare Style = "flat-square"
)

var colors = map[string]string{
	"cyan":    "#00ffff",
	"green":   "#00ff00",
	"magenta": "#ff00ff",
	"orange":  "#ff9500",
	"pink":    "#ff69b4",
}

// Badge is a rendered label/value pair.
type Badge struct {
	Label string
	Value string
	Color string
	Style Style
}

// FromStats picks the label and value for kind. A nil stats yields the
// "Heimdall: N/A" placeholder. Unknown kinds behave like KindLast.
func FromStats(stats *domain.Stats, kind Kind, now time.Time) (label, value string) {
	if stats == nil {
		return "Heimdall", "N/A"
	}

	switch kind {
	case KindToday:
		return "Today", fmt.Sprintf("%d deploys", stats.Last24Hours)
	case KindStreak:
		streak := 0
		if stats.Streak != nil {
			streak = stats.Streak.CurrentStreak
		}
		return "Streak", fmt.Sprintf("%d days", streak)
	case KindTotal:
		return "Total", fmt.Sprintf("%d events", stats.TotalEvents)
	default:
		value := "N/A"
		if stats.Streak != nil && stats.Streak.LastActiveDate != "" {
			value = TimeAgo(stats.Streak.LastActiveDate, now)
		}
		return "Last shipped", value
	}
}

// TimeAgo formats an RFC 3339 or YYYY-MM-DD date relative to now.
func TimeAgo(dateStr string, now time.Time) string {
	if dateStr == "" {
		return "N/A"
	}

	t, err := parseDate(dateStr)
	if err != nil {
		return "N/A"
	}

	hours := int(now.Sub(t).Hours())
	days := hours / 24

	switch {
	case hours < 1:
		return "just now"
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 2")
	}
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// New builds a badge, normalizing unknown colors to cyan and unknown
// styles to flat.
func New(label, value, color string, style Style) Badge {
	if _, ok := colors[color]; !ok {
		color = "cyan"
	}
	if style != StyleFlatSquare {
		style = StyleFlat
	}
	return Badge{Label: label, Value: value, Color: color, Style: style}
}

// SVG renders the badge.
func (b Badge) SVG() string {
	labelWidth := len(b.Label)*7 + 10
	valueWidth := len(b.Value)*7 + 10
	totalWidth := labelWidth + valueWidth
	const height = 20

	radius := 0
	if b.Style == StyleFlat {
		radius = 3
	}

	bg, ok := colors[b.Color]
	if !ok {
		bg = colors["cyan"]
	}

	label := html.EscapeString(b.Label)
	value := html.EscapeString(b.Value)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" role="img" aria-label="%s: %s">`+"\n", totalWidth, height, label, value)
	fmt.Fprintf(&sb, "  <title>%s: %s</title>\n", label, value)
	sb.WriteString(`  <linearGradient id="s" x2="0" y2="100%">` + "\n")
	sb.WriteString(`    <stop offset="0" stop-color="#fff" stop-opacity=".1"/>` + "\n")
	sb.WriteString(`    <stop offset="1" stop-opacity=".1"/>` + "\n")
	sb.WriteString("  </linearGradient>\n")
	sb.WriteString(`  <clipPath id="r">` + "\n")
	fmt.Fprintf(&sb, `    <rect width="%d" height="%d" rx="%d" fill="#fff"/>`+"\n", totalWidth, height, radius)
	sb.WriteString("  </clipPath>\n")
	sb.WriteString(`  <g clip-path="url(#r)">` + "\n")
	fmt.Fprintf(&sb, `    <rect width="%d" height="%d" fill="#1a1a2e"/>`+"\n", labelWidth, height)
	fmt.Fprintf(&sb, `    <rect x="%d" width="%d" height="%d" fill="%s"/>`+"\n", labelWidth, valueWidth, height, bg)
	fmt.Fprintf(&sb, `    <rect width="%d" height="%d" fill="url(#s)"/>`+"\n", totalWidth, height)
	sb.WriteString("  </g>\n")
	sb.WriteString(`  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="11">` + "\n")
	fmt.Fprintf(&sb, `    <text aria-hidden="true" x="%s" y="15" fill="#010101" fill-opacity=".3">%s</text>`+"\n", half(labelWidth), label)
	fmt.Fprintf(&sb, `    <text x="%s" y="14" fill="#fff">%s</text>`+"\n", half(labelWidth), label)
	fmt.Fprintf(&sb, `    <text aria-hidden="true" x="%s" y="15" fill="#010101" fill-opacity=".3">%s</text>`+"\n", offsetHalf(labelWidth, valueWidth), value)
	fmt.Fprintf(&sb, `    <text x="%s" y="14" fill="#000">%s</text>`+"\n", offsetHalf(labelWidth, valueWidth), value)
	sb.WriteString("  </g>\n")
	sb.WriteString("</svg>")
	return sb.String()
}

// half formats w/2 without a trailing ".0" for even widths.
func half(w int) string {
	if w%2 == 0 {
		return fmt.Sprintf("%d", w/2)
	}
	return fmt.Sprintf("%d.5", w/2)
}

func offsetHalf(offset, w int) string {
	if w%2 == 0 {
		return fmt.Sprintf("%d", offset+w/2)
	}
	return fmt.Sprintf("%d.5", offset+w/2)
}
