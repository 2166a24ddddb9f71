package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound  = goerr.New("configuration file not found")
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrDuplicateTeamID = goerr.New("duplicate team ID")
	ErrMissingTeamID   = goerr.New("team_id is required")
)

// Context keys for error values
const (
	ConfigPathKey     = "config_path"
	TeamIDKey         = "team_id"
	WorkspaceIndexKey = "workspace_index"
)
