package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/utils/async"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/secmon-lab/briareos/pkg/utils/metrics"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserLookupRate bounds users.info calls per workspace during a refresh.
	DefaultUserLookupRate = rate.Limit(20)
	// DefaultUserLookupBurst is the burst allowed on top of DefaultUserLookupRate.
	DefaultUserLookupBurst = 20

	refreshTimeout = 2 * time.Minute
)

// ChannelDirectory caches per-workspace name to ID mappings and the
// group/direct classification of conversations. Lookups that miss trigger
// at most one refresh of that workspace.
type ChannelDirectory struct {
	registry *model.TokenRegistry
	clients  *workspaceClients

	lookupRate  rate.Limit
	lookupBurst int

	mu       sync.RWMutex
	entries  map[string]*model.ChannelDirectoryEntry
	limiters map[string]*rate.Limiter

	refreshes singleflight.Group
}

func newChannelDirectory(registry *model.TokenRegistry, clients *workspaceClients, lookupRate rate.Limit, lookupBurst int) *ChannelDirectory {
	return &ChannelDirectory{
		registry:    registry,
		clients:     clients,
		lookupRate:  lookupRate,
		lookupBurst: lookupBurst,
		entries:     make(map[string]*model.ChannelDirectoryEntry),
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Prime installs an empty entry for teamID and fills it with a refresh.
// The empty entry stays in place when the refresh fails.
func (d *ChannelDirectory) Prime(ctx context.Context, teamID string) error {
	d.mu.Lock()
	d.entries[teamID] = model.EmptyDirectoryEntry()
	d.mu.Unlock()

	return d.Refresh(ctx, teamID)
}

// Refresh fetches the complete conversation listing of teamID and replaces its
// entry. On failure the previous entry is kept. Concurrent refreshes of the
// same workspace share one upstream fetch.
func (d *ChannelDirectory) Refresh(ctx context.Context, teamID string) error {
	_, err, _ := d.refreshes.Do(teamID, func() (any, error) {
		// the fetch is shared, so one caller going away must not fail the others
		fetchCtx, cancel := context.WithTimeout(async.Detach(ctx), refreshTimeout)
		defer cancel()
		return nil, d.refresh(fetchCtx, teamID)
	})
	if err != nil {
		metrics.DirectoryRefresh.WithLabelValues("failure").Inc()
		return err
	}
	metrics.DirectoryRefresh.WithLabelValues("success").Inc()
	return nil
}

func (d *ChannelDirectory) refresh(ctx context.Context, teamID string) error {
	startTime := time.Now()

	api, err := d.clients.For(teamID)
	if err != nil {
		return goerr.Wrap(model.ErrUpstreamUnavailable, "no usable credential for refresh",
			goerr.V(model.TeamIDKey, teamID), goerr.V("cause", err.Error()))
	}

	convs, err := api.ListConversations(ctx)
	if err != nil {
		return goerr.Wrap(model.ErrUpstreamUnavailable, "failed to list conversations",
			goerr.V(model.TeamIDKey, teamID), goerr.V("cause", err.Error()))
	}

	limiter := d.limiter(teamID)
	builder := model.NewDirectoryBuilder()
	for _, conv := range convs {
		if !conv.IsIM {
			builder.AddGroupChannel(conv.ID, conv.Name)
			continue
		}
		if conv.PeerUserID == "" {
			builder.AddDirectChannel(conv.ID)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return goerr.Wrap(model.ErrUpstreamUnavailable, "user lookup throttled",
				goerr.V(model.TeamIDKey, teamID), goerr.V("cause", err.Error()))
		}
		user, err := api.GetUser(ctx, conv.PeerUserID)
		if err != nil {
			return goerr.Wrap(model.ErrUpstreamUnavailable, "failed to get direct message peer",
				goerr.V(model.TeamIDKey, teamID), goerr.V(model.UserIDKey, conv.PeerUserID),
				goerr.V("cause", err.Error()))
		}
		builder.AddDirectChannel(conv.ID, user.Aliases()...)
	}

	entry := builder.Build()
	d.mu.Lock()
	d.entries[teamID] = entry
	d.mu.Unlock()

	keys, groups, directs := entry.Size()
	logging.From(ctx).Debug("channel directory refreshed",
		"team_id", teamID,
		"keys", keys,
		"groups", groups,
		"directs", directs,
		"duration", time.Since(startTime).String())

	return nil
}

// ResolveChannelID resolves a channel name, user name or ID. A miss triggers
// one refresh and one retry before ErrChannelNotFound.
func (d *ChannelDirectory) ResolveChannelID(ctx context.Context, teamID, nameOrID string) (string, error) {
	if !d.registry.Has(teamID) {
		return "", goerr.Wrap(model.ErrUnknownWorkspace, "cannot resolve channel",
			goerr.V(model.TeamIDKey, teamID))
	}

	if id, ok := d.entry(teamID).Lookup(nameOrID); ok {
		return id, nil
	}

	if err := d.Refresh(ctx, teamID); err != nil {
		return "", err
	}

	if id, ok := d.entry(teamID).Lookup(nameOrID); ok {
		return id, nil
	}
	return "", goerr.Wrap(model.ErrChannelNotFound, "channel not found after refresh",
		goerr.V(model.TeamIDKey, teamID), goerr.V(model.ChannelKey, nameOrID))
}

// IsGroupChannel reports whether channelID is a multi-party conversation.
// Direct channels answer false without a refresh; unknown channels refresh once
// and then answer false.
func (d *ChannelDirectory) IsGroupChannel(ctx context.Context, teamID, channelID string) (bool, error) {
	if !d.registry.Has(teamID) {
		return false, goerr.Wrap(model.ErrUnknownWorkspace, "cannot classify channel",
			goerr.V(model.TeamIDKey, teamID))
	}

	entry := d.entry(teamID)
	if entry.IsDirect(channelID) {
		return false, nil
	}
	if entry.IsGroup(channelID) {
		return true, nil
	}

	if err := d.Refresh(ctx, teamID); err != nil {
		return false, err
	}
	return d.entry(teamID).IsGroup(channelID), nil
}

func (d *ChannelDirectory) entry(teamID string) *model.ChannelDirectoryEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if e, ok := d.entries[teamID]; ok {
		return e
	}
	return model.EmptyDirectoryEntry()
}

func (d *ChannelDirectory) limiter(teamID string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	if l, ok := d.limiters[teamID]; ok {
		return l
	}
	l := rate.NewLimiter(d.lookupRate, d.lookupBurst)
	d.limiters[teamID] = l
	return l
}
