package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/model/slack"
)

// SlackAPI is the upstream API of one workspace, bound to that workspace's bot token.
type SlackAPI interface {
	// AuthTest authenticates the token and identifies the team and the bot user.
	AuthTest(ctx context.Context) (*slack.BotIdentity, error)

	// ListConversations returns every public, private, direct and multi-party conversation.
	ListConversations(ctx context.Context) ([]*slack.Conversation, error)

	// GetUser fetches a user's profile.
	GetUser(ctx context.Context, userID string) (*slack.User, error)

	// GetPresence reports whether the user is currently active.
	GetPresence(ctx context.Context, userID string) (bool, error)

	// ConnectRealtime opens a realtime connection for the workspace.
	ConnectRealtime(ctx context.Context) (RealtimeConnection, error)

	// Send posts payload to channelID and returns the message or file timestamp.
	Send(ctx context.Context, channelID string, payload slack.Payload) (string, error)
}

// SlackClientFactory creates per-token clients and completes OAuth installations.
type SlackClientFactory interface {
	New(token string) (SlackAPI, error)

	// ExchangeOAuthCode trades an OAuth authorization code for a bot installation.
	ExchangeOAuthCode(ctx context.Context, code string) (*model.WorkspaceInstallation, error)
}

// RealtimeConnection is a live realtime socket. Frames arrive in order on Messages,
// which is closed when the socket stops reading. Closed then yields exactly one reason.
type RealtimeConnection interface {
	ID() string
	Messages() <-chan []byte
	Closed() <-chan model.CloseReason
	// Close disconnects intentionally. The resulting CloseReason has Intentional set.
	Close() error
}
