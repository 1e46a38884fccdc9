package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"evecorpbot/internal/domain"
)

// FuelRemaining formats a remaining fuel duration as "Nd Nh Nm".
func FuelRemaining(d *time.Duration) string {
	if d == nil || *d <= 0 {
		return "⛔ Out of fuel"
	}
	total := int64(d.Minutes())
	days := total / (24 * 60)
	hours := (total % (24 * 60)) / 60
	minutes := total % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func expiry(t *time.Time) string {
	if t == nil {
		return "❓ Unknown"
	}
	return Timestamp(*t)
}

func stationName(s domain.StationStatus) string {
	if s.Name == "" {
		return "Unnamed"
	}
	return s.Name
}

// FuelAlert renders the low fuel warning for the given stations.
func FuelAlert(stations []domain.StationStatus, threshold time.Duration) string {
	blocks := make([]string, len(stations))
	for i, s := range stations {
		blocks[i] = fmt.Sprintf("⚠️ **%s**\n🗓️ Expires: %s", stationName(s), expiry(s.FuelExpires))
	}
	return fmt.Sprintf("🚨 **Fuel Warning**: One or more structures have less than %s of fuel:\n\n%s",
		thresholdDays(threshold), strings.Join(blocks, "\n\n"))
}

func thresholdDays(d time.Duration) string {
	days := d.Hours() / 24
	if days == float64(int64(days)) {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", int64(days))
	}
	return d.String()
}

// StationList renders the fuel listing of every known station.
func StationList(stations []domain.StationStatus) string {
	blocks := make([]string, len(stations))
	for i, s := range stations {
		name := s.Name
		if name == "" {
			name = "Unnamed Structure"
		}
		blocks[i] = fmt.Sprintf("🛰️ **%s**\n⏳ Remaining: %s\n📅 Expires: %s", name, FuelRemaining(s.FuelRemaining), expiry(s.FuelExpires))
	}
	return strings.Join(blocks, "\n\n")
}

// ADM formats an ADM level without trailing zeros.
func ADM(level float64) string {
	return strconv.FormatFloat(level, 'f', -1, 64)
}

// SovereigntyReport renders the ADM status of every system followed by a
// warning line naming the systems below the floor.
func SovereigntyReport(systems []domain.SystemStatus, floor float64) string {
	var b strings.Builder
	b.WriteString("**System Sovereignty Status (ADM Levels)**\n\n")
	var low []string
	for _, s := range systems {
		if s.ADMLevel == nil {
			fmt.Fprintf(&b, "**%s**: No sovereignty data\n", s.Name)
			continue
		}
		icon := "✅"
		if *s.ADMLevel < floor {
			icon = "⚠️"
			low = append(low, fmt.Sprintf("%s (ADM %s)", s.Name, ADM(*s.ADMLevel)))
		}
		fmt.Fprintf(&b, "**%s**: ADM %s %s\n", s.Name, ADM(*s.ADMLevel), icon)
	}
	if len(low) > 0 {
		fmt.Fprintf(&b, "\n🚨 **Warning!** Low ADM in: %s", strings.Join(low, ", "))
	}
	return b.String()
}
