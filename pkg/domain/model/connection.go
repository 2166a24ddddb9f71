package model

// ConnectionState is the lifecycle state of one workspace's realtime connection.
type ConnectionState string

const (
	ConnectionConnecting       ConnectionState = "connecting"
	ConnectionConnected        ConnectionState = "connected"
	ConnectionReconnectBackoff ConnectionState = "reconnect_backoff"
	ConnectionClosed           ConnectionState = "closed"
)

// AllConnectionStates lists every state, for metrics that export one series per state.
func AllConnectionStates() []string {
	return []string{
		string(ConnectionConnecting),
		string(ConnectionConnected),
		string(ConnectionReconnectBackoff),
		string(ConnectionClosed),
	}
}

// ConnectionStatus is a point-in-time view of a workspace connection.
type ConnectionStatus struct {
	TeamID            string          `json:"team_id"`
	State             ConnectionState `json:"state"`
	ReconnectAttempts int             `json:"reconnect_attempts"`
	ConnectionID      string          `json:"connection_id,omitempty"`
}

// CloseReason describes why a realtime connection stopped.
type CloseReason struct {
	// Intentional is true only when the connection was closed through its Close method.
	Intentional bool
	// Code is the websocket close code. A socket dropped without a close frame reports
	// 1006 (abnormal closure); 0 means the read failed with a non-close error such as a timeout.
	Code int
	Err  error
}

// Abnormal reports whether the close should trigger a reconnect.
func (r CloseReason) Abnormal() bool {
	return !r.Intentional
}

// WorkspaceSession identifies the bot on one live connection.
type WorkspaceSession struct {
	TeamID       string
	BotUserID    string
	ConnectionID string
}
