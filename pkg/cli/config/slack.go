package config

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	slacksvc "github.com/secmon-lab/briareos/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

const (
	defaultReconnectBaseDelay       = 2 * time.Second
	defaultDirectoryRefreshInterval = 10 * time.Minute
)

type Slack struct {
	botToken     string
	clientID     string
	clientSecret string
	redirectURL  string
	apiURL       string

	reconnectBaseDelay       time.Duration
	directoryRefreshInterval time.Duration
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token of a single workspace (static mode)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("BRIAREOS_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-client-id",
			Usage:       "Slack OAuth client ID (dynamic mode)",
			Category:    "Slack",
			Destination: &x.clientID,
			Sources:     cli.EnvVars("BRIAREOS_SLACK_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:        "slack-client-secret",
			Usage:       "Slack OAuth client secret (dynamic mode)",
			Category:    "Slack",
			Destination: &x.clientSecret,
			Sources:     cli.EnvVars("BRIAREOS_SLACK_CLIENT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-redirect-url",
			Usage:       "OAuth redirect URL registered for the Slack app (dynamic mode)",
			Category:    "Slack",
			Destination: &x.redirectURL,
			Sources:     cli.EnvVars("BRIAREOS_SLACK_REDIRECT_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-api-url",
			Usage:       "Slack Web API base URL",
			Category:    "Slack",
			Destination: &x.apiURL,
			Sources:     cli.EnvVars("BRIAREOS_SLACK_API_URL"),
		},
		&cli.DurationFlag{
			Name:        "reconnect-base-delay",
			Usage:       "Base delay of the linear reconnect backoff",
			Category:    "Slack",
			Value:       defaultReconnectBaseDelay,
			Destination: &x.reconnectBaseDelay,
			Sources:     cli.EnvVars("BRIAREOS_RECONNECT_BASE_DELAY"),
		},
		&cli.DurationFlag{
			Name:        "directory-refresh-interval",
			Usage:       "Interval of the periodic channel directory refresh (0 disables it)",
			Category:    "Slack",
			Value:       defaultDirectoryRefreshInterval,
			Destination: &x.directoryRefreshInterval,
			Sources:     cli.EnvVars("BRIAREOS_DIRECTORY_REFRESH_INTERVAL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("client-id", x.clientID),
		slog.Int("client-secret.len", len(x.clientSecret)),
		slog.String("redirect-url", x.redirectURL),
		slog.String("api-url", x.apiURL),
		slog.String("reconnect-base-delay", x.reconnectBaseDelay.String()),
		slog.String("directory-refresh-interval", x.directoryRefreshInterval.String()),
	)
}

// Mode validates that exactly one credential mode is configured
func (x *Slack) Mode() (model.InstallMode, error) {
	hasStatic := x.botToken != ""
	hasOAuth := x.clientID != "" || x.clientSecret != ""

	switch {
	case hasStatic && hasOAuth:
		return 0, goerr.Wrap(model.ErrConfiguration,
			"--slack-bot-token cannot be combined with --slack-client-id/--slack-client-secret")
	case hasStatic:
		return model.InstallModeStatic, nil
	case x.clientID != "" && x.clientSecret != "":
		return model.InstallModeDynamic, nil
	case hasOAuth:
		return 0, goerr.Wrap(model.ErrConfiguration,
			"dynamic mode requires both --slack-client-id and --slack-client-secret")
	default:
		return 0, goerr.Wrap(model.ErrConfiguration,
			"set --slack-bot-token (static mode) or --slack-client-id and --slack-client-secret (dynamic mode)")
	}
}

// NewFactory creates the Slack client factory
func (x *Slack) NewFactory() *slacksvc.Factory {
	var clientOpts []slacksvc.Option
	if x.apiURL != "" {
		apiURL := x.apiURL
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		clientOpts = append(clientOpts, slacksvc.WithAPIURL(apiURL))
	}

	opts := []slacksvc.FactoryOption{slacksvc.WithClientOptions(clientOpts...)}
	if x.clientID != "" && x.clientSecret != "" {
		opts = append(opts, slacksvc.WithOAuthApp(x.clientID, x.clientSecret, x.redirectURL))
	}
	return slacksvc.NewFactory(opts...)
}

// Configure validates the credential mode and builds the token registry. In
// static mode the bot token is authenticated to learn its team.
func (x *Slack) Configure(ctx context.Context) (*model.TokenRegistry, *slacksvc.Factory, error) {
	mode, err := x.Mode()
	if err != nil {
		return nil, nil, err
	}

	factory := x.NewFactory()
	if mode == model.InstallModeDynamic {
		return model.NewDynamicTokenRegistry(), factory, nil
	}

	api, err := factory.New(x.botToken)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create Slack client")
	}
	ident, err := api.AuthTest(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(model.ErrUpstreamUnavailable, "failed to authenticate Slack bot token",
			goerr.V("cause", err.Error()))
	}

	return model.NewStaticTokenRegistry(ident.TeamID, x.botToken), factory, nil
}

// ReconnectBaseDelay returns the base delay of the reconnect backoff
func (x *Slack) ReconnectBaseDelay() time.Duration {
	if x.reconnectBaseDelay <= 0 {
		return defaultReconnectBaseDelay
	}
	return x.reconnectBaseDelay
}

// DirectoryRefreshInterval returns the refresh interval, 0 when disabled
func (x *Slack) DirectoryRefreshInterval() time.Duration {
	return x.directoryRefreshInterval
}
