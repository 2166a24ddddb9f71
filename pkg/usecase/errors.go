package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrSupervisorClosed is returned by Start after Close, or when a workspace
	// is stopped while its first connection is being opened.
	ErrSupervisorClosed = goerr.New("connection supervisor is closed")

	// ErrInvalidInstallation is returned when an installation lacks a team ID,
	// a token or an authorization code.
	ErrInvalidInstallation = goerr.New("invalid installation")
)
