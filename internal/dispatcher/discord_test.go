package dispatcher

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

type fakeREST struct {
	moved     map[string]string
	dms       map[string]string
	timeouts  map[string]time.Time
	bans      map[string]int
	channels  map[string]bool
	moveErr   error
	dmOpenErr error
	dmSendErr error
	timeErr   error
	banErr    error
}

func newFakeREST() *fakeREST {
	return &fakeREST{
		moved:    map[string]string{},
		dms:      map[string]string{},
		timeouts: map[string]time.Time{},
		bans:     map[string]int{},
		channels: map[string]bool{},
	}
}

func (f *fakeREST) GuildMemberMove(_ string, userID string, channelID *string, _ ...discordgo.RequestOption) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	f.moved[userID] = *channelID
	return nil
}

func (f *fakeREST) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.dmOpenErr != nil {
		return nil, f.dmOpenErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeREST) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.dmSendErr != nil {
		return nil, f.dmSendErr
	}
	f.dms[channelID] = content
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeREST) GuildMemberTimeout(_ string, userID string, until *time.Time, _ ...discordgo.RequestOption) error {
	if f.timeErr != nil {
		return f.timeErr
	}
	f.timeouts[userID] = *until
	return nil
}

func (f *fakeREST) GuildBanCreateWithReason(_, userID, _ string, days int, _ ...discordgo.RequestOption) error {
	if f.banErr != nil {
		return f.banErr
	}
	f.bans[userID] = days
	return nil
}

func (f *fakeREST) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.channels[channelID] {
		return &discordgo.Channel{ID: channelID}, nil
	}
	return nil, restError(http.StatusNotFound, discordgo.ErrCodeUnknownChannel)
}

func newTestDiscord(rest *fakeREST) *Discord {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Discord{rest: rest, now: func() time.Time { return now }}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing permissions code", restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions), ErrPermissionDenied},
		{"missing access code", restError(http.StatusForbidden, discordgo.ErrCodeMissingAccess), ErrPermissionDenied},
		{"dm closed", restError(http.StatusForbidden, discordgo.ErrCodeCannotSendMessagesToThisUser), ErrDirectMessagesClosed},
		{"unknown channel", restError(http.StatusNotFound, discordgo.ErrCodeUnknownChannel), ErrNotFound},
		{"bare 403", restError(http.StatusForbidden, 0), ErrPermissionDenied},
		{"bare 404", restError(http.StatusNotFound, 0), ErrNotFound},
		{"state miss", discordgo.ErrStateNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}
}

func TestClassifyPassesThroughUnknownErrors(t *testing.T) {
	boom := errors.New("boom")
	assert.Equal(t, boom, classify(boom))
	assert.Nil(t, classify(nil))

	server := restError(http.StatusInternalServerError, 0)
	got := classify(server)
	assert.False(t, IsPermissionDenied(got))
	assert.False(t, IsNotFound(got))
}

func TestMoveUser(t *testing.T) {
	rest := newFakeREST()
	d := newTestDiscord(rest)

	require.NoError(t, d.MoveUser(context.Background(), "g", "42", "200"))
	assert.Equal(t, "200", rest.moved["42"])

	rest.moveErr = restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)
	err := d.MoveUser(context.Background(), "g", "42", "200")
	assert.True(t, IsPermissionDenied(err))
}

func TestSendDirectMessage(t *testing.T) {
	rest := newFakeREST()
	d := newTestDiscord(rest)

	require.NoError(t, d.SendDirectMessage(context.Background(), "42", "hello"))
	assert.Equal(t, "hello", rest.dms["dm-42"])

	rest.dmSendErr = restError(http.StatusForbidden, discordgo.ErrCodeCannotSendMessagesToThisUser)
	err := d.SendDirectMessage(context.Background(), "42", "hello")
	assert.ErrorIs(t, err, ErrDirectMessagesClosed)
}

func TestApplyTimeoutUsesDuration(t *testing.T) {
	rest := newFakeREST()
	d := newTestDiscord(rest)

	require.NoError(t, d.ApplyTimeout(context.Background(), "g", "42", 15*time.Minute, "reason"))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC), rest.timeouts["42"])

	rest.timeErr = restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)
	assert.True(t, IsPermissionDenied(d.ApplyTimeout(context.Background(), "g", "42", time.Minute, "reason")))
}

func TestBanUser(t *testing.T) {
	rest := newFakeREST()
	d := newTestDiscord(rest)

	require.NoError(t, d.BanUser(context.Background(), "g", "42", "reason", 1))
	assert.Equal(t, 1, rest.bans["42"])

	rest.banErr = restError(http.StatusForbidden, 0)
	assert.True(t, IsPermissionDenied(d.BanUser(context.Background(), "g", "42", "reason", 1)))
}

func TestResolveChannel(t *testing.T) {
	rest := newFakeREST()
	rest.channels["200"] = true
	d := newTestDiscord(rest)

	assert.NoError(t, d.ResolveChannel(context.Background(), "200"))
	assert.True(t, IsNotFound(d.ResolveChannel(context.Background(), "201")))
}

func TestResolveChannelFromState(t *testing.T) {
	state := discordgo.NewState()
	require.NoError(t, state.GuildAdd(&discordgo.Guild{ID: "g"}))
	require.NoError(t, state.ChannelAdd(&discordgo.Channel{ID: "300", GuildID: "g"}))

	d := &Discord{rest: newFakeREST(), state: state, now: time.Now}
	assert.NoError(t, d.ResolveChannel(context.Background(), "300"))
}
