package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// InstallationCoordinator brings a newly installed workspace online: it
// registers the token, primes the channel directory and starts the realtime
// connection.
type InstallationCoordinator struct {
	registry   *model.TokenRegistry
	factory    interfaces.SlackClientFactory
	directory  *ChannelDirectory
	supervisor *ConnectionSupervisor
}

func newInstallationCoordinator(registry *model.TokenRegistry, factory interfaces.SlackClientFactory, directory *ChannelDirectory, supervisor *ConnectionSupervisor) *InstallationCoordinator {
	return &InstallationCoordinator{
		registry:   registry,
		factory:    factory,
		directory:  directory,
		supervisor: supervisor,
	}
}

// OnInstalled handles an installation or re-installation of a workspace.
// A failed directory priming is logged and leaves the directory empty until
// the next refresh. A failed connect is returned.
func (c *InstallationCoordinator) OnInstalled(ctx context.Context, inst model.WorkspaceInstallation) error {
	if inst.TeamID == "" || inst.Token == "" {
		return goerr.Wrap(ErrInvalidInstallation, "cannot install workspace", goerr.V(model.TeamIDKey, inst.TeamID))
	}

	logger := logging.From(ctx).With("team_id", inst.TeamID)
	ctx = logging.With(ctx, logger)

	c.registry.Register(inst.TeamID, inst.Token)
	logger.Info("workspace installed", "installation", inst)

	if err := c.directory.Prime(ctx, inst.TeamID); err != nil {
		errutil.Handle(ctx, err, "failed to prime channel directory")
	}

	if err := c.supervisor.Start(ctx, inst.TeamID); err != nil {
		return goerr.Wrap(err, "failed to start workspace connection", goerr.V(model.TeamIDKey, inst.TeamID))
	}
	return nil
}

// Install completes an OAuth installation with the authorization code and
// brings the workspace online. It is only available in dynamic mode.
func (c *InstallationCoordinator) Install(ctx context.Context, code string) (*model.WorkspaceInstallation, error) {
	if c.registry.Mode() != model.InstallModeDynamic {
		return nil, goerr.Wrap(model.ErrConfiguration, "OAuth installation is disabled with a static bot token")
	}
	if code == "" {
		return nil, goerr.Wrap(ErrInvalidInstallation, "authorization code is empty")
	}

	inst, err := c.factory.ExchangeOAuthCode(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "failed to exchange OAuth code",
			goerr.V("cause", err.Error()))
	}

	if err := c.OnInstalled(ctx, *inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// StartAll brings every registered workspace online concurrently and returns
// the first failure after all of them were attempted.
func (c *InstallationCoordinator) StartAll(ctx context.Context) error {
	var eg errgroup.Group
	for _, inst := range c.registry.All() {
		eg.Go(func() error {
			return c.OnInstalled(ctx, inst)
		})
	}
	return eg.Wait()
}
