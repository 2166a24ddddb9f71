package model

const (
	// DefaultUsername is used when the author's profile cannot be fetched.
	DefaultUsername = "unknown user"

	// FallbackIntent is the classification returned when no specific intent matches.
	FallbackIntent = "Default_Fallback_Intent"
)

// SessionKey identifies the conversation session of a channel in a workspace.
func SessionKey(teamID, channelID string) string {
	return teamID + "@" + channelID
}

// ConversationalEvent is an accepted inbound message with its context.
type ConversationalEvent struct {
	SessionKey string `json:"session_key"`
	Text       string `json:"text"`
	Channel    string `json:"channel"`
	Username   string `json:"username"`
	UserEmail  string `json:"user_email" masq:"secret"`
	UserID     string `json:"user_id"`
	TeamID     string `json:"team_id"`
	ThreadTS   string `json:"thread_ts"`
	MessageTS  string `json:"message_ts"`
}

// RecognizedEvent is a ConversationalEvent classified by the recognizer.
type RecognizedEvent struct {
	Intent     string               `json:"intent"`
	Confidence float64              `json:"confidence"`
	Parameters map[string]string    `json:"parameters,omitempty"`
	Event      *ConversationalEvent `json:"event"`
}

// IsFallback reports whether no specific intent matched.
func (e *RecognizedEvent) IsFallback() bool {
	return e.Intent == FallbackIntent
}
