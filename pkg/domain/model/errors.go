package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors of the ingestion gateway. Match them with errors.Is.
var (
	// ErrConfiguration is returned when neither or both credential modes are configured.
	ErrConfiguration = goerr.New("invalid gateway configuration")

	// ErrUnknownWorkspace is returned for a team that was never installed.
	ErrUnknownWorkspace = goerr.New("unknown workspace")

	// ErrChannelNotFound is returned when a name or ID is still unresolved after one forced refresh.
	ErrChannelNotFound = goerr.New("channel not found")

	// ErrUpstreamUnavailable wraps failures of upstream API calls and realtime connects.
	ErrUpstreamUnavailable = goerr.New("upstream unavailable")
)

// Context keys for error values
const (
	TeamIDKey  = "team_id"
	ChannelKey = "channel"
	UserIDKey  = "user_id"
	ConnIDKey  = "conn_id"
	AttemptKey = "attempt"
	PayloadKey = "payload_kind"
)
