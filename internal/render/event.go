// Package render builds the chat payloads the bot posts. Everything here is
// a pure function of its inputs.
package render

import (
	"fmt"
	"strings"
	"time"

	"evecorpbot/internal/domain"
)

const (
	colorEvent = 0x2b2d31
	colorInfo  = 0x00b0f4
	colorMuted = 0x555555

	emptyList = "*No one yet*"

	// Discord rejects embed field values and message content above these.
	maxFieldValue = 1024
	maxContent    = 2000

	fieldUTC       = "🕒 Time (EVE/UTC)"
	fieldLocal     = "🌍 Your Local Time"
	fieldAttending = "🟢 Attending"
	fieldDeclined  = "🔴 Declined"
)

// Mention formats a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// RoleMention formats a role mention.
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

// Timestamp formats a dynamic timestamp token that clients show in the
// viewer's local time.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:F>", t.Unix())
}

// UTCTime formats t as "YYYY-MM-DD HH:mm UTC".
func UTCTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04") + " UTC"
}

// mentionList joins mentions of ids with sep, keeping the result within
// limit bytes. Mentions that do not fit are summarized as "+N more".
func mentionList(ids []string, sep string, limit int) string {
	if len(ids) == 0 {
		return emptyList
	}
	reserve := len(sep) + len(fmt.Sprintf("+%d more", len(ids)))
	var b strings.Builder
	for i, id := range ids {
		m := Mention(id)
		if i > 0 {
			m = sep + m
		}
		room := limit - reserve
		if i == len(ids)-1 {
			room = limit
		}
		if b.Len()+len(m) > room {
			if b.Len() > 0 {
				b.WriteString(sep)
			}
			fmt.Fprintf(&b, "+%d more", len(ids)-i)
			break
		}
		b.WriteString(m)
	}
	return b.String()
}

// EventEmbed renders the event surface with the current RSVP lists.
func EventEmbed(ev *domain.Event) domain.Embed {
	return domain.Embed{
		Title:       "📅 " + ev.Title,
		Description: ev.Description,
		Color:       colorEvent,
		Fields: []domain.EmbedField{
			{Name: fieldUTC, Value: "`" + UTCTime(ev.ScheduledAt) + "`", Inline: true},
			{Name: fieldLocal, Value: Timestamp(ev.ScheduledAt), Inline: true},
			{Name: fieldAttending, Value: mentionList(ev.Attendees, "\n", maxFieldValue)},
			{Name: fieldDeclined, Value: mentionList(ev.Declined, "\n", maxFieldValue)},
		},
		Footer: "Click a button to RSVP",
	}
}

// RSVPButtons returns the join and decline controls.
func RSVPButtons() []domain.Button {
	return []domain.Button{
		{CustomID: domain.Action{Kind: domain.ActionEventJoin}.CustomID(), Label: "✅ Join", Style: domain.ButtonSuccess},
		{CustomID: domain.Action{Kind: domain.ActionEventDecline}.CustomID(), Label: "❌ Decline", Style: domain.ButtonDanger},
	}
}

// EventCreated renders the initial notification surface.
func EventCreated(ev *domain.Event) *domain.Message {
	msg := &domain.Message{
		Embeds:     []domain.Embed{EventEmbed(ev)},
		Components: RSVPButtons(),
	}
	if ev.PingRoleID != "" {
		msg.Content = RoleMention(ev.PingRoleID)
	}
	return msg
}

// EventRSVP renders the edit that refreshes the surface after an RSVP.
func EventRSVP(ev *domain.Event) *domain.MessageEdit {
	embeds := []domain.Embed{EventEmbed(ev)}
	return &domain.MessageEdit{Embeds: &embeds}
}

// EventStarting renders the "starting now" notification.
func EventStarting(ev *domain.Event) *domain.Message {
	header := fmt.Sprintf("🚀 Event **%s** is starting now!\n👥 ", ev.Title)
	return &domain.Message{
		Content: header + mentionList(ev.Attendees, ", ", maxContent-len(header)),
	}
}

// StripControls renders the edit that removes every control from a message.
func StripControls() *domain.MessageEdit {
	none := []domain.Button{}
	return &domain.MessageEdit{Components: &none}
}
