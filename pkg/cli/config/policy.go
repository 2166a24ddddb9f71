package config

import (
	"log/slog"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Policy holds the filtering switches of the event normalizer
type Policy struct {
	ignoreFallback bool
	listenMentions bool
	file           string
}

func (x *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "ignore-fallback-on-group-channels",
			Usage:       "Do not deliver fallback intents recognized in group channels",
			Category:    "Policy",
			Destination: &x.ignoreFallback,
			Sources:     cli.EnvVars("BRIAREOS_IGNORE_FALLBACK_ON_GROUP_CHANNELS"),
		},
		&cli.BoolFlag{
			Name:        "listen-mentions-on-group-channels",
			Usage:       "Only accept messages mentioning the bot in group channels",
			Category:    "Policy",
			Destination: &x.listenMentions,
			Sources:     cli.EnvVars("BRIAREOS_LISTEN_MENTIONS_ON_GROUP_CHANNELS"),
		},
		&cli.StringFlag{
			Name:        "policy-file",
			Usage:       "TOML file with per-workspace policy overrides",
			Category:    "Policy",
			Destination: &x.file,
			Sources:     cli.EnvVars("BRIAREOS_POLICY_FILE"),
		},
	}
}

func (x Policy) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("ignore-fallback-on-group-channels", x.ignoreFallback),
		slog.Bool("listen-mentions-on-group-channels", x.listenMentions),
		slog.String("policy-file", x.file),
	)
}

// Configure builds the policy set from the flags and the optional policy file
func (x *Policy) Configure() (*model.PolicySet, error) {
	defaults := model.Policy{
		IgnoreFallbackOnGroupChannels: x.ignoreFallback,
		ListenMentionsOnGroupChannels: x.listenMentions,
	}

	if x.file == "" {
		return model.NewPolicySet(defaults, nil), nil
	}

	file, err := LoadPolicyFile(x.file)
	if err != nil {
		return nil, err
	}
	return file.PolicySet(defaults), nil
}
