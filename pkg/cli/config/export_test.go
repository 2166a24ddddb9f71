package config

import "time"

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, clientID, clientSecret, apiURL string) *Slack {
	return &Slack{
		botToken:     botToken,
		clientID:     clientID,
		clientSecret: clientSecret,
		apiURL:       apiURL,
	}
}

// NewPolicyForTest creates a Policy config for testing purposes
func NewPolicyForTest(ignoreFallback, listenMentions bool, file string) *Policy {
	return &Policy{
		ignoreFallback: ignoreFallback,
		listenMentions: listenMentions,
		file:           file,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewDispatchForTest creates a Dispatch config for testing purposes
func NewDispatchForTest(recognizerURL, deliverURL string, timeout time.Duration) *Dispatch {
	return &Dispatch{recognizerURL: recognizerURL, deliverURL: deliverURL, timeout: timeout}
}

var Redactor = redactor

// NewSentryForTest creates a Sentry config for testing purposes
func NewSentryForTest(dsn, env string) *Sentry {
	return &Sentry{dsn: dsn, env: env}
}
