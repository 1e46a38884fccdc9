package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"evecorpbot/internal/domain"
	"evecorpbot/internal/repository/docstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryDocs is an in-memory DocumentStore.
type memoryDocs struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemoryDocs() *memoryDocs {
	return &memoryDocs{docs: make(map[string][]byte)}
}

func (m *memoryDocs) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(data), nil
}

func (m *memoryDocs) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = slices.Clone(data)
	return nil
}

func (m *memoryDocs) raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.docs[key])
}

type plainSealer struct{}

func (plainSealer) Seal(s string) (string, error) { return s, nil }
func (plainSealer) Open(s string) (string, error) { return s, nil }

// newStores returns event and state stores sharing one in-memory medium,
// with the state initialized to initial.
func newStores(t *testing.T, initial *domain.BotState) (*memoryDocs, domain.EventStore, domain.StateStore) {
	t.Helper()
	docs := newMemoryDocs()
	events := docstore.NewEventStore(docs)
	state := docstore.NewStateStore(docs, plainSealer{})
	require.NoError(t, events.Init(context.Background()))
	if initial == nil {
		initial = &domain.BotState{}
	}
	require.NoError(t, state.Init(context.Background(), initial))
	return docs, events, state
}

type sentMessage struct {
	ChannelID string
	Message   *domain.Message
}

type editedMessage struct {
	ChannelID string
	MessageID string
	Edit      *domain.MessageEdit
}

// fakeMessenger records every call and hands out sequential message IDs.
type fakeMessenger struct {
	mu       sync.Mutex
	next     int
	sent     []sentMessage
	edits    []editedMessage
	deleted  []string
	channels []string
	recent   map[string][]*domain.Message

	sendErr   error
	editErr   error
	recentErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{recent: make(map[string][]*domain.Message)}
}

func (f *fakeMessenger) SendMessage(ctx context.Context, channelID string, msg *domain.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.next++
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Message: msg})
	return fmt.Sprintf("msg-%d", f.next), nil
}

func (f *fakeMessenger) EditMessage(ctx context.Context, channelID, messageID string, edit *domain.MessageEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, editedMessage{ChannelID: channelID, MessageID: messageID, Edit: edit})
	return nil
}

func (f *fakeMessenger) FetchMessage(ctx context.Context, channelID, messageID string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.recent[channelID] {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMessenger) RecentMessages(ctx context.Context, channelID string, limit int) ([]*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	msgs := f.recent[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeMessenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channelID)
	return nil
}

func (f *fakeMessenger) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMessenger) lastSent() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

// recordingScheduler records armed events without scheduling anything.
type recordingScheduler struct {
	mu    sync.Mutex
	armed []string
}

func (r *recordingScheduler) Arm(ev *domain.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = append(r.armed, ev.ID)
	return true
}

func (r *recordingScheduler) RestoreAll(ctx context.Context) (int, error) { return 0, nil }

type fakeOAuth struct {
	refreshed  domain.TokenPair
	exchanged  domain.TokenPair
	refreshErr error
	exchErr    error
	lastState  string
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	f.lastState = state
	return "https://sso.example/authorize?state=" + state
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string) (domain.TokenPair, error) {
	if f.exchErr != nil {
		return domain.TokenPair{}, f.exchErr
	}
	return f.exchanged, nil
}

func (f *fakeOAuth) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	if f.refreshErr != nil {
		return domain.TokenPair{}, f.refreshErr
	}
	return f.refreshed, nil
}

type fakeStructures struct {
	structures []domain.CorporationStructure
	err        error
	gotToken   string
}

func (f *fakeStructures) FetchStructures(ctx context.Context, accessToken string) ([]domain.CorporationStructure, error) {
	f.gotToken = accessToken
	return f.structures, f.err
}

type fakeSovereignty struct {
	feed []domain.SovereigntyStructure
	err  error
}

func (f *fakeSovereignty) FetchSovereignty(ctx context.Context) ([]domain.SovereigntyStructure, error) {
	return f.feed, f.err
}

type fakeMailer struct {
	sent []*domain.AlertEmailData
}

func (f *fakeMailer) SendAlert(ctx context.Context, data *domain.AlertEmailData) error {
	f.sent = append(f.sent, data)
	return nil
}

type fakeGuild struct {
	channels []domain.Channel
	created  []domain.PrivateChannelSpec
}

func (f *fakeGuild) Channels(ctx context.Context, guildID string) ([]domain.Channel, error) {
	return f.channels, nil
}

func (f *fakeGuild) CreatePrivateChannel(ctx context.Context, spec domain.PrivateChannelSpec) (string, error) {
	f.created = append(f.created, spec)
	id := fmt.Sprintf("chan-%d", len(f.created))
	f.channels = append(f.channels, domain.Channel{ID: id, Name: spec.Name, ParentID: spec.ParentID})
	return id, nil
}

type fakeIssuer struct {
	err error
}

func (fakeIssuer) Issue(discordUserID string) (string, error) { return "state-" + discordUserID, nil }

func (f fakeIssuer) Verify(state string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id, ok := strings.CutPrefix(state, "state-")
	if !ok {
		return "", fmt.Errorf("bad state")
	}
	return id, nil
}

func ptr[T any](v T) *T { return &v }
