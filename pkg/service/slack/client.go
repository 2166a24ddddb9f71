package slack

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	slackmodel "github.com/secmon-lab/briareos/pkg/domain/model/slack"
	"github.com/slack-go/slack"
)

const (
	// DefaultPingInterval is how often a realtime ping frame is written.
	DefaultPingInterval = 30 * time.Second
	// DefaultPageSize is the conversations.list page size.
	DefaultPageSize = 200
)

// conversationTypes covers every conversation the bot can receive messages from.
var conversationTypes = []string{"public_channel", "private_channel", "mpim", "im"}

// client implements interfaces.SlackAPI for one bot token
type client struct {
	api          *slack.Client
	slackOpts    []slack.Option
	dialer       *websocket.Dialer
	pingInterval time.Duration
	pageSize     int
}

// Option is a functional option for client configuration
type Option func(*client)

// WithAPIURL points the client at another Web API base URL, e.g. a test server.
// The URL must end with a slash.
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.slackOpts = append(c.slackOpts, slack.OptionAPIURL(url))
	}
}

// WithHTTPClient sets the HTTP client used for Web API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.slackOpts = append(c.slackOpts, slack.OptionHTTPClient(httpClient))
	}
}

// WithDialer sets the websocket dialer used for realtime connections.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *client) {
		c.dialer = d
	}
}

// WithPingInterval sets the realtime ping interval. Zero disables pings and read deadlines.
func WithPingInterval(d time.Duration) Option {
	return func(c *client) {
		c.pingInterval = d
	}
}

// WithPageSize sets the conversations.list page size.
func WithPageSize(n int) Option {
	return func(c *client) {
		c.pageSize = n
	}
}

// New creates a Slack API client bound to a bot token
func New(token string, opts ...Option) (interfaces.SlackAPI, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &client{
		dialer:       websocket.DefaultDialer,
		pingInterval: DefaultPingInterval,
		pageSize:     DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = slack.New(token, c.slackOpts...)

	return c, nil
}

// AuthTest identifies the team and the bot user of the token
func (c *client) AuthTest(ctx context.Context) (*slackmodel.BotIdentity, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call auth.test")
	}

	return &slackmodel.BotIdentity{
		TeamID:    resp.TeamID,
		TeamName:  resp.Team,
		BotUserID: resp.UserID,
	}, nil
}

// ListConversations pages through conversations.list
func (c *client) ListConversations(ctx context.Context) ([]*slackmodel.Conversation, error) {
	var result []*slackmodel.Conversation
	var cursor string

	for {
		params := &slack.GetConversationsParameters{
			Types:           conversationTypes,
			ExcludeArchived: true,
			Limit:           c.pageSize,
			Cursor:          cursor,
		}

		convs, nextCursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get conversations", goerr.V("cursor", cursor))
		}

		for _, conv := range convs {
			result = append(result, &slackmodel.Conversation{
				ID:         conv.ID,
				Name:       conv.Name,
				IsIM:       conv.IsIM,
				PeerUserID: conv.User,
			})
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return result, nil
}

// GetUser retrieves user information for the given user ID
func (c *client) GetUser(ctx context.Context, userID string) (*slackmodel.User, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user info", goerr.V("user_id", userID))
	}

	return &slackmodel.User{
		ID:          user.ID,
		Name:        user.Name,
		RealName:    user.RealName,
		DisplayName: user.Profile.DisplayName,
		Email:       user.Profile.Email,
	}, nil
}

// GetPresence reports whether the user's presence is "active"
func (c *client) GetPresence(ctx context.Context, userID string) (bool, error) {
	presence, err := c.api.GetUserPresenceContext(ctx, userID)
	if err != nil {
		return false, goerr.Wrap(err, "failed to get user presence", goerr.V("user_id", userID))
	}
	return presence.Presence == "active", nil
}

// ConnectRealtime calls rtm.connect and dials the returned websocket URL
func (c *client) ConnectRealtime(ctx context.Context) (interfaces.RealtimeConnection, error) {
	_, wsURL, err := c.api.ConnectRTMContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call rtm.connect")
	}
	if wsURL == "" {
		return nil, goerr.New("rtm.connect returned no websocket URL")
	}

	conn, err := dialRealtime(ctx, c.dialer, wsURL, c.pingInterval)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Send posts a payload. Files go through files.uploadV2, everything else through chat.postMessage.
func (c *client) Send(ctx context.Context, channelID string, payload slackmodel.Payload) (string, error) {
	if payload.Kind() == slackmodel.PayloadFile {
		return c.upload(ctx, channelID, payload)
	}

	var opts []slack.MsgOption
	switch payload.Kind() {
	case slackmodel.PayloadText:
		opts = append(opts, slack.MsgOptionText(payload.Text(), false))
	case slackmodel.PayloadAttachments:
		if payload.Text() != "" {
			opts = append(opts, slack.MsgOptionText(payload.Text(), false))
		}
		opts = append(opts, slack.MsgOptionAttachments(payload.Attachments()...))
	case slackmodel.PayloadBlocks:
		opts = append(opts,
			slack.MsgOptionText(payload.Text(), false),
			slack.MsgOptionBlocks(payload.Blocks()...),
		)
	default:
		return "", goerr.Wrap(slackmodel.ErrInvalidPayload, "unsupported payload kind", goerr.V("kind", payload.Kind()))
	}

	if payload.ThreadTS() != "" {
		opts = append(opts, slack.MsgOptionTS(payload.ThreadTS()))
	}
	if payload.Unfurl() {
		opts = append(opts, slack.MsgOptionEnableLinkUnfurl())
	}

	_, ts, err := c.api.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post message",
			goerr.V("channel_id", channelID), goerr.V("kind", payload.Kind()))
	}
	return ts, nil
}

func (c *client) upload(ctx context.Context, channelID string, payload slackmodel.Payload) (string, error) {
	file := payload.File()
	filename := file.Filename
	if filename == "" {
		filename = file.Title
	}

	summary, err := c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:          bytes.NewReader(file.Content),
		FileSize:        len(file.Content),
		Filename:        filename,
		Title:           file.Title,
		InitialComment:  file.Comment,
		Channel:         channelID,
		ThreadTimestamp: payload.ThreadTS(),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to upload file",
			goerr.V("channel_id", channelID), goerr.V("filename", filename))
	}
	return summary.ID, nil
}
