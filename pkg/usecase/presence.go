package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
)

// Presence answers whether workspace users are online.
type Presence struct {
	clients *workspaceClients
}

// IsOnline reports whether userID is currently active in teamID.
func (p *Presence) IsOnline(ctx context.Context, teamID, userID string) (bool, error) {
	api, err := p.clients.For(teamID)
	if err != nil {
		return false, err
	}

	online, err := api.GetPresence(ctx, userID)
	if err != nil {
		return false, goerr.Wrap(model.ErrUpstreamUnavailable, "failed to get presence",
			goerr.V(model.TeamIDKey, teamID),
			goerr.V(model.UserIDKey, userID),
			goerr.V("cause", err.Error()))
	}
	return online, nil
}
