package usecase

import (
	"context"
	"time"
)

// SetWait replaces the backoff sleep of the supervisor. Call it before Start.
func (s *ConnectionSupervisor) SetWait(fn func(ctx context.Context, d time.Duration) error) {
	s.wait = fn
}

var (
	BackoffDelay = backoffDelay
	StripMention = stripMention
	SleepContext = sleepContext
)
