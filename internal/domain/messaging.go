package domain

import "context"

// ButtonStyle selects the look of a message button.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// Button is an interactive control attached to a message.
type Button struct {
	CustomID string
	Label    string
	Style    ButtonStyle
	Disabled bool
}

// EmbedField is one name/value block of an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message block.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
}

// Message is a platform-neutral chat message payload.
type Message struct {
	ID         string
	ChannelID  string
	AuthorID   string
	Content    string
	Embeds     []Embed
	Components []Button
}

// MessageEdit replaces the parts of a message whose fields are non-nil.
type MessageEdit struct {
	Content    *string
	Embeds     *[]Embed
	Components *[]Button
}

// Messenger is the chat platform messaging surface.
type Messenger interface {
	SendMessage(ctx context.Context, channelID string, msg *Message) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, edit *MessageEdit) error
	// FetchMessage returns ErrNotFound when the message no longer exists.
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	RecentMessages(ctx context.Context, channelID string, limit int) ([]*Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	DeleteChannel(ctx context.Context, channelID string) error
}

// PrivateChannelSpec describes a text channel visible only to one member
// and a set of staff roles.
type PrivateChannelSpec struct {
	GuildID      string
	Name         string
	ParentID     string
	MemberID     string
	StaffRoleIDs []string
}

// Channel is a guild channel summary.
type Channel struct {
	ID       string
	Name     string
	ParentID string
}

// GuildManager covers the guild administration calls the bot needs.
type GuildManager interface {
	Channels(ctx context.Context, guildID string) ([]Channel, error)
	CreatePrivateChannel(ctx context.Context, spec PrivateChannelSpec) (string, error)
}
