package usecase

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
)

type cachedClient struct {
	token string
	api   interfaces.SlackAPI
}

// workspaceClients hands out one upstream client per workspace and rebuilds it
// when the workspace is re-installed with another token.
type workspaceClients struct {
	registry *model.TokenRegistry
	factory  interfaces.SlackClientFactory

	mu    sync.RWMutex
	cache map[string]cachedClient
}

func newWorkspaceClients(registry *model.TokenRegistry, factory interfaces.SlackClientFactory) *workspaceClients {
	return &workspaceClients{
		registry: registry,
		factory:  factory,
		cache:    make(map[string]cachedClient),
	}
}

// For returns the client of teamID, or ErrUnknownWorkspace.
func (c *workspaceClients) For(teamID string) (interfaces.SlackAPI, error) {
	token, err := c.registry.Token(teamID)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, ok := c.cache[teamID]
	c.mu.RUnlock()
	if ok && cached.token == token {
		return cached.api, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if cached, ok := c.cache[teamID]; ok && cached.token == token {
		return cached.api, nil
	}

	api, err := c.factory.New(token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack client", goerr.V(model.TeamIDKey, teamID))
	}
	c.cache[teamID] = cachedClient{token: token, api: api}
	return api, nil
}
