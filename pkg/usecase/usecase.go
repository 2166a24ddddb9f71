package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/service/dispatch"
	"golang.org/x/time/rate"
)

type UseCases struct {
	registry   *model.TokenRegistry
	policies   *model.PolicySet
	recognizer interfaces.Recognizer
	deliverer  interfaces.Deliverer

	reconnectBaseDelay time.Duration
	lookupRate         rate.Limit
	lookupBurst        int

	Directory  *ChannelDirectory
	Supervisor *ConnectionSupervisor
	Normalizer *EventNormalizer
	Installer  *InstallationCoordinator
	Sender     *Sender
	Presence   *Presence
}

type Option func(*UseCases)

// WithPolicies sets the per-workspace filtering policies. Without it every
// workspace uses the zero policy.
func WithPolicies(policies *model.PolicySet) Option {
	return func(uc *UseCases) {
		uc.policies = policies
	}
}

func WithRecognizer(recognizer interfaces.Recognizer) Option {
	return func(uc *UseCases) {
		uc.recognizer = recognizer
	}
}

func WithDeliverer(deliverer interfaces.Deliverer) Option {
	return func(uc *UseCases) {
		uc.deliverer = deliverer
	}
}

func WithReconnectBaseDelay(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.reconnectBaseDelay = d
	}
}

// WithUserLookupRate limits users.info calls made by one directory refresh.
func WithUserLookupRate(limit rate.Limit, burst int) Option {
	return func(uc *UseCases) {
		uc.lookupRate = limit
		uc.lookupBurst = burst
	}
}

func New(registry *model.TokenRegistry, factory interfaces.SlackClientFactory, opts ...Option) *UseCases {
	uc := &UseCases{
		registry:           registry,
		reconnectBaseDelay: DefaultReconnectBaseDelay,
		lookupRate:         DefaultUserLookupRate,
		lookupBurst:        DefaultUserLookupBurst,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.recognizer == nil || uc.deliverer == nil {
		fallback := dispatch.NewLogger()
		if uc.recognizer == nil {
			uc.recognizer = fallback
		}
		if uc.deliverer == nil {
			uc.deliverer = fallback
		}
	}

	clients := newWorkspaceClients(registry, factory)
	uc.Directory = newChannelDirectory(registry, clients, uc.lookupRate, uc.lookupBurst)
	uc.Normalizer = newEventNormalizer(clients, uc.Directory, uc.policies, uc.recognizer, uc.deliverer)
	uc.Supervisor = newConnectionSupervisor(clients, uc.Normalizer, uc.reconnectBaseDelay)
	uc.Installer = newInstallationCoordinator(registry, factory, uc.Directory, uc.Supervisor)
	uc.Sender = newSender(clients, uc.Directory)
	uc.Presence = &Presence{clients: clients}

	return uc
}

// Registry returns the token registry shared by all use cases.
func (uc *UseCases) Registry() *model.TokenRegistry {
	return uc.registry
}

// Close disconnects every workspace.
func (uc *UseCases) Close(ctx context.Context) {
	uc.Supervisor.Close(ctx)
}
