package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/cli/config"
	"github.com/secmon-lab/briareos/pkg/domain/model"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadPolicyFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "valid policy file",
			content: `
[default]
ignore_fallback_on_group_channels = true

[[workspace]]
team_id = "T1"
listen_mentions_on_group_channels = true

[[workspace]]
team_id = "T2"
ignore_fallback_on_group_channels = false
`,
		},
		{
			name:    "empty file",
			content: ``,
		},
		{
			name: "missing team id",
			content: `
[[workspace]]
listen_mentions_on_group_channels = true
`,
			wantErr: config.ErrMissingTeamID,
		},
		{
			name: "duplicate team id",
			content: `
[[workspace]]
team_id = "T1"

[[workspace]]
team_id = "T1"
`,
			wantErr: config.ErrDuplicateTeamID,
		},
		{
			name:    "broken TOML",
			content: `[[workspace`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadPolicyFile(writePolicyFile(t, tt.content))
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err)
		})
	}
}

func TestLoadPolicyFileNotFound(t *testing.T) {
	_, err := config.LoadPolicyFile(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Error(t, err).Is(config.ErrConfigNotFound)
}

func TestPolicyFilePolicySet(t *testing.T) {
	path := writePolicyFile(t, `
[default]
ignore_fallback_on_group_channels = true

[[workspace]]
team_id = "T1"
listen_mentions_on_group_channels = true

[[workspace]]
team_id = "T2"
ignore_fallback_on_group_channels = false
`)
	file, err := config.LoadPolicyFile(path)
	gt.NoError(t, err).Required()

	set := file.PolicySet(model.Policy{ListenMentionsOnGroupChannels: false})
	gt.Value(t, set.Default()).Equal(model.Policy{IgnoreFallbackOnGroupChannels: true})
	gt.Value(t, set.For("T1")).Equal(model.Policy{IgnoreFallbackOnGroupChannels: true, ListenMentionsOnGroupChannels: true})
	gt.Value(t, set.For("T2")).Equal(model.Policy{})
	gt.Value(t, set.For("T3")).Equal(model.Policy{IgnoreFallbackOnGroupChannels: true})
	gt.Number(t, set.Overrides()).Equal(2)
}

func TestPolicyConfigure(t *testing.T) {
	t.Run("flags only", func(t *testing.T) {
		set, err := config.NewPolicyForTest(true, false, "").Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, set.For("T1")).Equal(model.Policy{IgnoreFallbackOnGroupChannels: true})
		gt.Number(t, set.Overrides()).Equal(0)
	})

	t.Run("file inherits flags", func(t *testing.T) {
		path := writePolicyFile(t, `
[[workspace]]
team_id = "T1"
ignore_fallback_on_group_channels = false
`)
		set, err := config.NewPolicyForTest(true, true, path).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, set.For("T1")).Equal(model.Policy{ListenMentionsOnGroupChannels: true})
		gt.Value(t, set.For("T2")).Equal(model.Policy{IgnoreFallbackOnGroupChannels: true, ListenMentionsOnGroupChannels: true})
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.NewPolicyForTest(false, false, filepath.Join(t.TempDir(), "nope.toml")).Configure()
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})
}
