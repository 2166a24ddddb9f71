package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/service/dispatch"
	"github.com/urfave/cli/v3"
)

// Dispatch selects where normalized events are recognized and delivered
type Dispatch struct {
	recognizerURL string
	deliverURL    string
	timeout       time.Duration
}

func (x *Dispatch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "recognizer-url",
			Usage:       "Webhook URL classifying events into intents (events are logged as fallback if empty)",
			Category:    "Dispatch",
			Destination: &x.recognizerURL,
			Sources:     cli.EnvVars("BRIAREOS_RECOGNIZER_URL"),
		},
		&cli.StringFlag{
			Name:        "deliver-url",
			Usage:       "Webhook URL receiving recognized events (events are logged if empty)",
			Category:    "Dispatch",
			Destination: &x.deliverURL,
			Sources:     cli.EnvVars("BRIAREOS_DELIVER_URL"),
		},
		&cli.DurationFlag{
			Name:        "dispatch-timeout",
			Usage:       "Timeout of one webhook call",
			Category:    "Dispatch",
			Value:       dispatch.DefaultTimeout,
			Destination: &x.timeout,
			Sources:     cli.EnvVars("BRIAREOS_DISPATCH_TIMEOUT"),
		},
	}
}

func (x Dispatch) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("recognizer-url", x.recognizerURL),
		slog.String("deliver-url", x.deliverURL),
		slog.String("timeout", x.timeout.String()),
	)
}

func (x *Dispatch) httpClient() *http.Client {
	timeout := x.timeout
	if timeout <= 0 {
		timeout = dispatch.DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Recognizer returns the webhook recognizer, or the logging one when no URL is set
func (x *Dispatch) Recognizer() interfaces.Recognizer {
	if x.recognizerURL == "" {
		return dispatch.NewLogger()
	}
	return dispatch.NewWebhookRecognizer(x.recognizerURL, dispatch.WithHTTPClient(x.httpClient()))
}

// Deliverer returns the webhook deliverer, or the logging one when no URL is set
func (x *Dispatch) Deliverer() interfaces.Deliverer {
	if x.deliverURL == "" {
		return dispatch.NewLogger()
	}
	return dispatch.NewWebhookDeliverer(x.deliverURL, dispatch.WithHTTPClient(x.httpClient()))
}
