package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/model/slack"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// Sender posts outbound payloads to workspace channels.
type Sender struct {
	clients   *workspaceClients
	directory *ChannelDirectory
}

func newSender(clients *workspaceClients, directory *ChannelDirectory) *Sender {
	return &Sender{clients: clients, directory: directory}
}

// Send validates payload, resolves channel (a name, user name or ID) and posts
// it once. It returns the timestamp of the posted message.
func (s *Sender) Send(ctx context.Context, teamID, channel string, payload slack.Payload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", goerr.Wrap(err, "cannot send payload",
			goerr.V(model.TeamIDKey, teamID),
			goerr.V(model.ChannelKey, channel),
			goerr.V(model.PayloadKey, payload.Kind()))
	}

	channelID, err := s.directory.ResolveChannelID(ctx, teamID, channel)
	if err != nil {
		return "", err
	}

	api, err := s.clients.For(teamID)
	if err != nil {
		return "", err
	}

	ts, err := api.Send(ctx, channelID, payload)
	if err != nil {
		return "", goerr.Wrap(model.ErrUpstreamUnavailable, "failed to send payload",
			goerr.V(model.TeamIDKey, teamID),
			goerr.V(model.ChannelKey, channelID),
			goerr.V(model.PayloadKey, payload.Kind()),
			goerr.V("cause", err.Error()))
	}

	logging.From(ctx).Debug("payload sent",
		"team_id", teamID,
		"channel", channelID,
		"kind", payload.Kind(),
		"ts", ts)
	return ts, nil
}

// Reply sends payload to the channel of event, inside its thread when the
// event was posted in one.
func (s *Sender) Reply(ctx context.Context, event *model.ConversationalEvent, payload slack.Payload) (string, error) {
	if event.ThreadTS != "" && payload.ThreadTS() == "" {
		payload = payload.InThread(event.ThreadTS)
	}
	return s.Send(ctx, event.TeamID, event.Channel, payload)
}
