package slack

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/slack-go/slack"
)

// ErrOAuthDisabled is returned by ExchangeOAuthCode when no OAuth app is configured.
var ErrOAuthDisabled = goerr.New("OAuth installation is not configured")

// Factory builds per-token clients with shared options and completes OAuth installs.
type Factory struct {
	clientOpts []Option

	clientID     string
	clientSecret string `masq:"secret"`
	redirectURL  string
	httpClient   *http.Client
}

// FactoryOption is a functional option for Factory
type FactoryOption func(*Factory)

// WithClientOptions applies opts to every client the factory creates.
func WithClientOptions(opts ...Option) FactoryOption {
	return func(f *Factory) {
		f.clientOpts = append(f.clientOpts, opts...)
	}
}

// WithOAuthApp enables the OAuth install flow.
func WithOAuthApp(clientID, clientSecret, redirectURL string) FactoryOption {
	return func(f *Factory) {
		f.clientID = clientID
		f.clientSecret = clientSecret
		f.redirectURL = redirectURL
	}
}

// WithOAuthHTTPClient sets the HTTP client used for oauth.v2.access.
func WithOAuthHTTPClient(c *http.Client) FactoryOption {
	return func(f *Factory) {
		f.httpClient = c
	}
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New creates a client for token
func (f *Factory) New(token string) (interfaces.SlackAPI, error) {
	return New(token, f.clientOpts...)
}

// ExchangeOAuthCode calls oauth.v2.access and returns the bot installation
func (f *Factory) ExchangeOAuthCode(ctx context.Context, code string) (*model.WorkspaceInstallation, error) {
	if f.clientID == "" || f.clientSecret == "" {
		return nil, ErrOAuthDisabled
	}
	if code == "" {
		return nil, goerr.New("authorization code is required")
	}

	resp, err := slack.GetOAuthV2ResponseContext(ctx, f.httpClient, f.clientID, f.clientSecret, code, f.redirectURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to exchange OAuth code")
	}
	if resp.Team.ID == "" || resp.AccessToken == "" {
		return nil, goerr.New("OAuth response has no team or bot token",
			goerr.V("team_id", resp.Team.ID), goerr.V("app_id", resp.AppID))
	}

	return &model.WorkspaceInstallation{
		TeamID: resp.Team.ID,
		Token:  resp.AccessToken,
	}, nil
}
