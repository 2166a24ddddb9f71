package model

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// WorkspaceInstallation is the credential of one installed workspace.
type WorkspaceInstallation struct {
	TeamID string
	Token  string `masq:"secret"`
}

// InstallMode selects how workspaces get their credentials.
type InstallMode int

const (
	// InstallModeStatic runs a single workspace with a pre-provisioned bot token.
	InstallModeStatic InstallMode = iota + 1
	// InstallModeDynamic accepts any number of workspaces through the OAuth install flow.
	InstallModeDynamic
)

func (m InstallMode) String() string {
	switch m {
	case InstallModeStatic:
		return "static"
	case InstallModeDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// TokenRegistry maps team IDs to bot tokens. It is safe for concurrent use.
type TokenRegistry struct {
	mode InstallMode

	mu     sync.RWMutex
	tokens map[string]string
	order  []string // preserves installation order
}

// NewStaticTokenRegistry returns a registry seeded with exactly one installation.
func NewStaticTokenRegistry(teamID, token string) *TokenRegistry {
	r := &TokenRegistry{
		mode:   InstallModeStatic,
		tokens: make(map[string]string),
	}
	r.Register(teamID, token)
	return r
}

// NewDynamicTokenRegistry returns an empty registry filled by OAuth installations.
func NewDynamicTokenRegistry() *TokenRegistry {
	return &TokenRegistry{
		mode:   InstallModeDynamic,
		tokens: make(map[string]string),
	}
}

// Mode reports how the registry was constructed.
func (r *TokenRegistry) Mode() InstallMode {
	return r.mode
}

// Register stores or overwrites the token of teamID.
func (r *TokenRegistry) Register(teamID, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[teamID]; !exists {
		r.order = append(r.order, teamID)
	}
	r.tokens[teamID] = token
}

// Resolve returns the token of teamID.
func (r *TokenRegistry) Resolve(teamID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[teamID]
	return token, ok
}

// Token is Resolve with an ErrUnknownWorkspace error for missing teams.
func (r *TokenRegistry) Token(teamID string) (string, error) {
	token, ok := r.Resolve(teamID)
	if !ok {
		return "", goerr.Wrap(ErrUnknownWorkspace, "no installation for team",
			goerr.V(TeamIDKey, teamID))
	}
	return token, nil
}

// Has reports whether teamID has been installed.
func (r *TokenRegistry) Has(teamID string) bool {
	_, ok := r.Resolve(teamID)
	return ok
}

// All returns every installation in installation order.
func (r *TokenRegistry) All() []WorkspaceInstallation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]WorkspaceInstallation, 0, len(r.order))
	for _, teamID := range r.order {
		result = append(result, WorkspaceInstallation{TeamID: teamID, Token: r.tokens[teamID]})
	}
	return result
}
