package slack

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	libslack "github.com/slack-go/slack"
)

// MessageType is the realtime event type accepted by the normalizer.
const MessageType = "message"

// Message is a raw realtime event as received from a workspace connection.
// Only the fields consumed by the normalizer are kept.
type Message struct {
	eventType string
	teamID    string
	channelID string
	userID    string
	text      string
	threadTS  string
	ts        string
	subType   string
}

// ParseMessage decodes a realtime frame. Every frame carries a type field, so
// non-message events decode too and are told apart by Type().
func ParseMessage(data []byte) (*Message, error) {
	var ev libslack.MessageEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, goerr.Wrap(err, "failed to decode realtime frame", goerr.V("size", len(data)))
	}
	if ev.Type == "" {
		return nil, goerr.New("realtime frame has no type", goerr.V("size", len(data)))
	}

	return &Message{
		eventType: ev.Type,
		teamID:    ev.Team,
		channelID: ev.Channel,
		userID:    ev.User,
		text:      ev.Text,
		threadTS:  ev.ThreadTimestamp,
		ts:        ev.Timestamp,
		subType:   ev.SubType,
	}, nil
}

// Getters to maintain immutability
func (m *Message) Type() string      { return m.eventType }
func (m *Message) TeamID() string    { return m.teamID }
func (m *Message) ChannelID() string { return m.channelID }
func (m *Message) UserID() string    { return m.userID }
func (m *Message) Text() string      { return m.text }
func (m *Message) ThreadTS() string  { return m.threadTS }
func (m *Message) TS() string        { return m.ts }
func (m *Message) SubType() string   { return m.subType }

// IsMessage reports whether the event is a chat message.
func (m *Message) IsMessage() bool {
	return m.eventType == MessageType
}

// Complete reports whether team, channel, user and text are all present.
func (m *Message) Complete() bool {
	return m.teamID != "" && m.channelID != "" && m.userID != "" && m.text != ""
}
