package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model"
)

func TestPolicySet(t *testing.T) {
	defaults := model.Policy{ListenMentionsOnGroupChannels: true}
	set := model.NewPolicySet(defaults, map[string]model.Policy{
		"T2": {IgnoreFallbackOnGroupChannels: true},
	})

	gt.Value(t, set.For("T1")).Equal(defaults)
	gt.Value(t, set.For("T2")).Equal(model.Policy{IgnoreFallbackOnGroupChannels: true})
	gt.Number(t, set.Overrides()).Equal(1)
}

func TestPolicySet_Nil(t *testing.T) {
	var set *model.PolicySet
	gt.Value(t, set.For("T1")).Equal(model.Policy{})
	gt.Value(t, set.Default()).Equal(model.Policy{})
}
