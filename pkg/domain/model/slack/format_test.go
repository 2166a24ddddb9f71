package slack_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model/slack"
)

func TestItemizeList(t *testing.T) {
	gt.Value(t, slack.ItemizeList([]string{"a", "b", "c"})).Equal("- a\n- b\n- c")
	gt.Value(t, slack.ItemizeList(nil)).Equal("")
}

func TestEnumerateList(t *testing.T) {
	gt.Value(t, slack.EnumerateList([]string{"a", "b"})).Equal("[0] a\n[1] b\n")
	gt.Value(t, slack.EnumerateList(nil)).Equal("")
}

func TestUser_PreferredName(t *testing.T) {
	gt.Value(t, (&slack.User{Name: "alice", RealName: "Alice", DisplayName: "ali"}).PreferredName()).Equal("ali")
	gt.Value(t, (&slack.User{Name: "alice", RealName: "Alice"}).PreferredName()).Equal("Alice")
	gt.Value(t, (&slack.User{Name: "alice"}).PreferredName()).Equal("alice")
	gt.Array(t, (&slack.User{Name: "alice", DisplayName: "ali"}).Aliases()).Length(2)
}
