package usecase_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

// newTestUseCases builds use cases over a dynamic registry holding T1/tok-1 and T2/tok-2.
func newTestUseCases(t *testing.T, opts ...usecase.Option) (*usecase.UseCases, *mockFactory) {
	t.Helper()

	registry := model.NewDynamicTokenRegistry()
	registry.Register("T1", "tok-1")
	registry.Register("T2", "tok-2")

	factory := newMockFactory()
	uc := usecase.New(registry, factory, opts...)
	t.Cleanup(func() { uc.Close(t.Context()) })
	return uc, factory
}

func messageFrame(t *testing.T, team, channel, user, text string) []byte {
	t.Helper()

	raw, err := json.Marshal(map[string]string{
		"type":    "message",
		"team":    team,
		"channel": channel,
		"user":    user,
		"text":    text,
		"ts":      "1700000000.000100",
	})
	gt.NoError(t, err).Required()
	return raw
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
