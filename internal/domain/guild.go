package domain

import "context"

// TicketRequest is a member asking for a private reprocessing ticket.
type TicketRequest struct {
	UserID   string
	Username string
	// SourceChannelID is the channel holding the ticket surface; the new
	// ticket is created under the same category.
	SourceChannelID string
}

// RecruitApplication is a submitted corp application.
type RecruitApplication struct {
	UserID        string
	Username      string
	CharacterName string
	TimeInEVE     string
	Activities    string
	HowFound      string
}

// CloseRequest is a staff member closing a ticket or recruit channel from
// the message carrying the close button.
type CloseRequest struct {
	ChannelID string
	UserID    string
	UserRoles []string
	Message   *Message
}

// TicketService provisions and closes ticket and recruitment channels.
type TicketService interface {
	// EnsureSurface posts the "Create Ticket" message unless the bot already
	// has one among the latest messages of the ticket channel.
	EnsureSurface(ctx context.Context, botUserID string) error
	OpenTicket(ctx context.Context, req TicketRequest) (string, error)
	Welcome(ctx context.Context, userID string) error
	SubmitApplication(ctx context.Context, formOwnerID string, app RecruitApplication) (string, error)
	// Close returns the edit that marks the message closed and deletes the
	// channel shortly after. Non-staff callers get ErrForbidden.
	Close(ctx context.Context, req CloseRequest) (*MessageEdit, error)
	IsStaff(roles []string) bool
}
