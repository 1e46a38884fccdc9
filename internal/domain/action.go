package domain

import (
	"fmt"
	"strings"
)

// ActionKind enumerates the interactive controls the bot understands.
type ActionKind int

const (
	ActionEventJoin ActionKind = iota + 1
	ActionEventDecline
	ActionTicketCreate
	ActionTicketClose
	ActionRecruitOpen
	ActionRecruitSubmit
	ActionRecruitClose
	ActionSetupSubmit
)

// Action is a decoded button or modal custom ID. UserID is set for actions
// bound to one member; ChannelID for actions bound to a channel.
type Action struct {
	Kind      ActionKind
	UserID    string
	ChannelID string
}

// Custom IDs keep the wire format of surfaces already posted in the guild.
const (
	customEventJoin    = "event_join"
	customEventDecline = "event_leave"
	customTicketCreate = "create_ticket"
	customSetupSubmit  = "setup_modal"
	prefixTicketClose  = "close_ticket_"
	prefixRecruitOpen  = "recruit_modal_"
	prefixRecruitSub   = "recruit_submit_"
	prefixRecruitClose = "recruit_close_"
)

// ParseAction decodes a custom ID.
func ParseAction(customID string) (Action, error) {
	switch customID {
	case customEventJoin:
		return Action{Kind: ActionEventJoin}, nil
	case customEventDecline:
		return Action{Kind: ActionEventDecline}, nil
	case customTicketCreate:
		return Action{Kind: ActionTicketCreate}, nil
	case customSetupSubmit:
		return Action{Kind: ActionSetupSubmit}, nil
	}

	prefixed := []struct {
		prefix  string
		kind    ActionKind
		channel bool
	}{
		{prefixTicketClose, ActionTicketClose, false},
		{prefixRecruitOpen, ActionRecruitOpen, false},
		{prefixRecruitSub, ActionRecruitSubmit, false},
		{prefixRecruitClose, ActionRecruitClose, true},
	}
	for _, p := range prefixed {
		ref, ok := strings.CutPrefix(customID, p.prefix)
		if !ok {
			continue
		}
		if ref == "" || strings.Contains(ref, "_") {
			return Action{}, fmt.Errorf("malformed custom id %q: %w", customID, ErrInvalidInput)
		}
		if p.channel {
			return Action{Kind: p.kind, ChannelID: ref}, nil
		}
		return Action{Kind: p.kind, UserID: ref}, nil
	}
	return Action{}, fmt.Errorf("unknown custom id %q: %w", customID, ErrInvalidInput)
}

// CustomID encodes the action back to its wire form.
func (a Action) CustomID() string {
	switch a.Kind {
	case ActionEventJoin:
		return customEventJoin
	case ActionEventDecline:
		return customEventDecline
	case ActionTicketCreate:
		return customTicketCreate
	case ActionSetupSubmit:
		return customSetupSubmit
	case ActionTicketClose:
		return prefixTicketClose + a.UserID
	case ActionRecruitOpen:
		return prefixRecruitOpen + a.UserID
	case ActionRecruitSubmit:
		return prefixRecruitSub + a.UserID
	case ActionRecruitClose:
		return prefixRecruitClose + a.ChannelID
	default:
		return ""
	}
}

// RSVP maps an event button action to its RSVP action.
func (a Action) RSVP() (RSVPAction, bool) {
	switch a.Kind {
	case ActionEventJoin:
		return RSVPJoin, true
	case ActionEventDecline:
		return RSVPDecline, true
	default:
		return 0, false
	}
}
