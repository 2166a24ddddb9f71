package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/model/slack"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/secmon-lab/briareos/pkg/utils/metrics"
)

// EventNormalizer turns realtime frames into conversational events. Frames
// that are not messages, are incomplete, come from the bot itself or are
// filtered by the workspace policy are dropped silently.
type EventNormalizer struct {
	clients    *workspaceClients
	directory  *ChannelDirectory
	policies   *model.PolicySet
	recognizer interfaces.Recognizer
	deliverer  interfaces.Deliverer
}

func newEventNormalizer(clients *workspaceClients, directory *ChannelDirectory, policies *model.PolicySet, recognizer interfaces.Recognizer, deliverer interfaces.Deliverer) *EventNormalizer {
	return &EventNormalizer{
		clients:    clients,
		directory:  directory,
		policies:   policies,
		recognizer: recognizer,
		deliverer:  deliverer,
	}
}

// Handle implements FrameHandler.
// A panic while handling one frame is logged and the frame is counted as
// invalid, so the following frames of the workspace are still handled.
func (n *EventNormalizer) Handle(ctx context.Context, session model.WorkspaceSession, frame []byte) {
	outcome := metrics.OutcomeInvalid
	defer func() {
		if r := recover(); r != nil {
			errutil.Handle(ctx, goerr.New("panic while handling realtime frame",
				goerr.V(model.TeamIDKey, session.TeamID),
				goerr.V(model.ConnIDKey, session.ConnectionID),
				goerr.V("panic", r)), "dropping realtime frame")
		}
		metrics.InboundEvents.WithLabelValues(outcome).Inc()
	}()

	outcome = n.handle(ctx, session, frame)
}

func (n *EventNormalizer) handle(ctx context.Context, session model.WorkspaceSession, frame []byte) string {
	logger := logging.From(ctx)

	msg, err := slack.ParseMessage(frame)
	if err != nil {
		logger.Debug("dropping undecodable frame", "error", err)
		return metrics.OutcomeInvalid
	}
	if !msg.IsMessage() {
		return metrics.OutcomeDiscarded
	}
	if !msg.Complete() {
		logger.Debug("dropping incomplete message",
			"channel", msg.ChannelID(),
			"user_id", msg.UserID(),
			"sub_type", msg.SubType())
		return metrics.OutcomeInvalid
	}
	if msg.UserID() == session.BotUserID {
		return metrics.OutcomeDiscarded
	}

	logger = logger.With("channel", msg.ChannelID(), "user_id", msg.UserID())
	policy := n.policies.For(session.TeamID)
	channel := &channelKind{directory: n.directory, teamID: session.TeamID, channelID: msg.ChannelID()}

	text := msg.Text()
	if policy.ListenMentionsOnGroupChannels && channel.isGroup(ctx) {
		stripped, mentioned := stripMention(text, session.BotUserID)
		if !mentioned {
			logger.Debug("dropping group message without bot mention")
			return metrics.OutcomeDiscarded
		}
		text = stripped
	}

	username, email := n.author(ctx, session.TeamID, msg.UserID())

	event := &model.ConversationalEvent{
		SessionKey: model.SessionKey(msg.TeamID(), msg.ChannelID()),
		Text:       text,
		Channel:    msg.ChannelID(),
		Username:   username,
		UserEmail:  email,
		UserID:     msg.UserID(),
		TeamID:     msg.TeamID(),
		ThreadTS:   msg.ThreadTS(),
		MessageTS:  msg.TS(),
	}

	recognized, err := n.recognizer.Recognize(ctx, event.SessionKey, event)
	if err == nil && recognized == nil {
		err = goerr.New("recognizer returned no result", goerr.V("session_key", event.SessionKey))
	}
	if err != nil {
		errutil.Handle(ctx, err, "failed to recognize event")
		return metrics.OutcomeUnrecognized
	}
	if recognized.Event == nil {
		recognized.Event = event
	}

	if policy.IgnoreFallbackOnGroupChannels && recognized.IsFallback() && channel.isGroup(ctx) {
		logger.Debug("suppressing fallback intent in group channel", "session_key", event.SessionKey)
		return metrics.OutcomeSuppressed
	}

	if err := n.deliverer.Deliver(ctx, event.SessionKey, recognized); err != nil {
		errutil.Handle(ctx, err, "failed to deliver event")
		return metrics.OutcomeDeliverFailed
	}

	logger.Debug("event delivered",
		"session_key", event.SessionKey,
		"intent", recognized.Intent)
	return metrics.OutcomeDelivered
}

// author looks up the display name and email of userID. Lookup failures
// degrade to DefaultUsername and an empty email.
func (n *EventNormalizer) author(ctx context.Context, teamID, userID string) (string, string) {
	logger := logging.From(ctx)

	api, err := n.clients.For(teamID)
	if err != nil {
		logger.Warn("cannot look up message author", "error", err)
		return model.DefaultUsername, ""
	}
	user, err := api.GetUser(ctx, userID)
	if err != nil {
		logger.Warn("failed to get message author, using defaults", "error", err)
		return model.DefaultUsername, ""
	}

	username := user.PreferredName()
	if username == "" {
		username = model.DefaultUsername
	}
	return username, user.Email
}

// channelKind classifies a channel on first use and remembers the answer for
// the rest of the event.
type channelKind struct {
	directory *ChannelDirectory
	teamID    string
	channelID string

	resolved bool
	group    bool
}

func (c *channelKind) isGroup(ctx context.Context) bool {
	if c.resolved {
		return c.group
	}
	c.resolved = true

	group, err := c.directory.IsGroupChannel(ctx, c.teamID, c.channelID)
	if err != nil {
		logging.From(ctx).Warn("cannot classify channel, treating it as direct",
			"channel", c.channelID, "error", err)
		return false
	}
	c.group = group
	return group
}

// stripMention removes every mention of botUserID from text and collapses the
// whitespace left around it.
func stripMention(text, botUserID string) (string, bool) {
	mention := "<@" + botUserID + ">"
	if !strings.Contains(text, mention) {
		return text, false
	}

	var parts []string
	for _, p := range strings.Split(text, mention) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " "), true
}
