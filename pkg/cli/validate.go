package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/cli/config"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var slackCfg config.Slack
	var policyCfg config.Policy
	var checkAuth bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "check-auth",
			Usage:       "Call auth.test with the static bot token",
			Destination: &checkAuth,
			Sources:     cli.EnvVars("BRIAREOS_CHECK_AUTH"),
		},
	}
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)

	return &cli.Command{
		Name:  "validate",
		Usage: "Validate the credential mode and the policy file without connecting",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			mode, err := slackCfg.Mode()
			if err != nil {
				return goerr.Wrap(err, "invalid Slack credentials")
			}

			policies, err := policyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "invalid policy configuration")
			}

			if checkAuth && mode == model.InstallModeStatic {
				registry, _, err := slackCfg.Configure(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to authenticate bot token")
				}
				for _, inst := range registry.All() {
					logging.Default().Info("bot token is valid", "team_id", inst.TeamID)
				}
			}

			fmt.Printf("Configuration is valid (mode: %s, workspace policies: %d)\n", mode, policies.Overrides())
			return nil
		},
	}
}
