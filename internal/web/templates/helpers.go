package templates

import (
	"fmt"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 2, 15:04")
}

func formatKPa(v float64) string {
	return fmt.Sprintf("%.1f kPa", v)
}

func formatCost(c float64) string {
	return fmt.Sprintf("%.2f /m³", c)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func formatCount(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func buildHistoryURL(limit int) templ.SafeURL {
	return templ.SafeURL(fmt.Sprintf("/history?limit=%d", limit))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
