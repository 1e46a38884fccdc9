package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evecorpbot/internal/domain"
)

func sampleEvent() *domain.Event {
	return &domain.Event{
		ID:          "m1",
		ChannelID:   "c1",
		ScheduledAt: time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC),
		Title:       "Ops Meeting",
		Description: "Bring ships",
	}
}

func TestEventCreated(t *testing.T) {
	ev := sampleEvent()
	ev.PingRoleID = "role-1"

	msg := EventCreated(ev)
	assert.Equal(t, "<@&role-1>", msg.Content)
	require.Len(t, msg.Embeds, 1)
	embed := msg.Embeds[0]
	assert.Equal(t, "📅 Ops Meeting", embed.Title)
	assert.Equal(t, "Bring ships", embed.Description)
	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "`2026-05-01 18:30 UTC`", embed.Fields[0].Value)
	assert.Equal(t, "<t:1777660200:F>", embed.Fields[1].Value)
	assert.Equal(t, "*No one yet*", embed.Fields[2].Value)
	assert.Equal(t, "*No one yet*", embed.Fields[3].Value)

	require.Len(t, msg.Components, 2)
	assert.Equal(t, "event_join", msg.Components[0].CustomID)
	assert.Equal(t, "event_leave", msg.Components[1].CustomID)
}

func TestEventRSVP_ListsInJoinOrder(t *testing.T) {
	ev := sampleEvent()
	ev.Attendees = []string{"u2", "u1"}
	ev.Declined = []string{"u3"}

	edit := EventRSVP(ev)
	require.NotNil(t, edit.Embeds)
	require.Nil(t, edit.Components)
	fields := (*edit.Embeds)[0].Fields
	assert.Equal(t, "<@u2>\n<@u1>", fields[2].Value)
	assert.Equal(t, "<@u3>", fields[3].Value)
}

func TestEventStarting(t *testing.T) {
	ev := sampleEvent()
	ev.Attendees = []string{"u1", "u2"}

	msg := EventStarting(ev)
	assert.Equal(t, "🚀 Event **Ops Meeting** is starting now!\n👥 <@u1>, <@u2>", msg.Content)
	assert.Empty(t, msg.Components)
}

func crowd(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("1000000000000%05d", i)
	}
	return ids
}

func TestEventRSVP_LongListsFitFieldLimit(t *testing.T) {
	ev := sampleEvent()
	ev.Attendees = crowd(100)
	ev.Declined = crowd(60)

	edit := EventRSVP(ev)
	fields := (*edit.Embeds)[0].Fields

	attending := fields[2].Value
	assert.LessOrEqual(t, len(attending), 1024)
	assert.True(t, strings.HasPrefix(attending, "<@100000000000000000>\n"))
	assert.Regexp(t, `\n\+\d+ more$`, attending)
	shown := strings.Count(attending, "<@")
	assert.Equal(t, fmt.Sprintf("+%d more", 100-shown), attending[strings.LastIndex(attending, "\n")+1:])

	assert.LessOrEqual(t, len(fields[3].Value), 1024)
	assert.Contains(t, fields[3].Value, "more")
}

func TestEventRSVP_ShortListHasNoSummary(t *testing.T) {
	ev := sampleEvent()
	ev.Attendees = crowd(40)

	value := EventEmbed(ev).Fields[2].Value
	assert.LessOrEqual(t, len(value), 1024)
	assert.Equal(t, 40, strings.Count(value, "<@"))
	assert.NotContains(t, value, "more")
}

func TestEventStarting_LongListFitsContentLimit(t *testing.T) {
	ev := sampleEvent()
	ev.Attendees = crowd(100)

	content := EventStarting(ev).Content
	assert.LessOrEqual(t, len(content), 2000)
	assert.True(t, strings.HasPrefix(content, "🚀 Event **Ops Meeting** is starting now!\n👥 <@100000000000000000>, "))
	shown := strings.Count(content, "<@")
	assert.True(t, strings.HasSuffix(content, fmt.Sprintf(", +%d more", 100-shown)))
}

func TestStripControls(t *testing.T) {
	edit := StripControls()
	require.NotNil(t, edit.Components)
	assert.Empty(t, *edit.Components)
	assert.Nil(t, edit.Embeds)
	assert.Nil(t, edit.Content)
}

func TestFuelRemaining(t *testing.T) {
	d := func(v time.Duration) *time.Duration { return &v }

	assert.Equal(t, "⛔ Out of fuel", FuelRemaining(nil))
	assert.Equal(t, "⛔ Out of fuel", FuelRemaining(d(0)))
	assert.Equal(t, "6d 4h 30m", FuelRemaining(d(6*24*time.Hour+4*time.Hour+30*time.Minute+59*time.Second)))
}

func TestFuelAlert(t *testing.T) {
	expires := time.Unix(1777660200, 0).UTC()
	got := FuelAlert([]domain.StationStatus{
		{Name: "Keepstar", FuelExpires: &expires},
		{Name: ""},
	}, 7*24*time.Hour)

	assert.Equal(t, "🚨 **Fuel Warning**: One or more structures have less than 7 days of fuel:\n\n"+
		"⚠️ **Keepstar**\n🗓️ Expires: <t:1777660200:F>\n\n"+
		"⚠️ **Unnamed**\n🗓️ Expires: ❓ Unknown", got)
}

func TestSovereigntyReport(t *testing.T) {
	low, ok := 3.2, 5.0
	got := SovereigntyReport([]domain.SystemStatus{
		{Name: "PYY3-5", ADMLevel: &ok},
		{Name: "E-351", ADMLevel: &low},
		{Name: "System ID: 3"},
	}, 4)

	assert.Equal(t, "**System Sovereignty Status (ADM Levels)**\n\n"+
		"**PYY3-5**: ADM 5 ✅\n"+
		"**E-351**: ADM 3.2 ⚠️\n"+
		"**System ID: 3**: No sovereignty data\n"+
		"\n🚨 **Warning!** Low ADM in: E-351 (ADM 3.2)", got)
}

func TestClosed(t *testing.T) {
	original := domain.Embed{Title: "🎫 Reprocessing Ticket", Color: colorInfo, Fields: []domain.EmbedField{{Name: "a", Value: "b"}}}
	closed := Closed(original, "staff-1")

	assert.Equal(t, colorMuted, closed.Color)
	require.Len(t, closed.Fields, 2)
	assert.Equal(t, "<@staff-1>", closed.Fields[1].Value)
	assert.Len(t, original.Fields, 1)
}

func TestDisableAll(t *testing.T) {
	buttons := DisableAll([]domain.Button{{CustomID: "x"}, {CustomID: "y"}})
	for _, b := range buttons {
		assert.True(t, b.Disabled)
	}
}
