package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
)

// PolicyFile is the per-workspace policy configuration.
//
//	[default]
//	ignore_fallback_on_group_channels = true
//
//	[[workspace]]
//	team_id = "T0123456"
//	listen_mentions_on_group_channels = true
type PolicyFile struct {
	Default    *PolicyEntry  `toml:"default"`
	Workspaces []PolicyEntry `toml:"workspace"`
}

// PolicyEntry overrides the switches it sets; unset switches are inherited.
type PolicyEntry struct {
	TeamID                        string `toml:"team_id"`
	IgnoreFallbackOnGroupChannels *bool  `toml:"ignore_fallback_on_group_channels"`
	ListenMentionsOnGroupChannels *bool  `toml:"listen_mentions_on_group_channels"`
}

// Apply returns base with the switches set in the entry overridden.
func (e PolicyEntry) Apply(base model.Policy) model.Policy {
	if e.IgnoreFallbackOnGroupChannels != nil {
		base.IgnoreFallbackOnGroupChannels = *e.IgnoreFallbackOnGroupChannels
	}
	if e.ListenMentionsOnGroupChannels != nil {
		base.ListenMentionsOnGroupChannels = *e.ListenMentionsOnGroupChannels
	}
	return base
}

// Validate checks if the PolicyFile is valid
func (p *PolicyFile) Validate() error {
	teamIDs := make(map[string]bool)
	for i, ws := range p.Workspaces {
		if ws.TeamID == "" {
			return goerr.Wrap(ErrMissingTeamID, "invalid workspace policy", goerr.V(WorkspaceIndexKey, i))
		}
		if teamIDs[ws.TeamID] {
			return goerr.Wrap(ErrDuplicateTeamID, "workspace policy is defined twice",
				goerr.V(TeamIDKey, ws.TeamID), goerr.V(WorkspaceIndexKey, i))
		}
		teamIDs[ws.TeamID] = true
	}
	return nil
}

// PolicySet resolves the file against defaults: [default] applies on top of
// defaults, and each workspace applies on top of the result.
func (p *PolicyFile) PolicySet(defaults model.Policy) *model.PolicySet {
	if p.Default != nil {
		defaults = p.Default.Apply(defaults)
	}

	overrides := make(map[string]model.Policy, len(p.Workspaces))
	for _, ws := range p.Workspaces {
		overrides[ws.TeamID] = ws.Apply(defaults)
	}
	return model.NewPolicySet(defaults, overrides)
}

// LoadPolicyFile loads the policy configuration from a TOML file
func LoadPolicyFile(path string) (*PolicyFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "policy file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read policy file", goerr.V(ConfigPathKey, path))
	}

	var file PolicyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML policy file",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "policy file validation failed", goerr.V(ConfigPathKey, path))
	}

	return &file, nil
}
