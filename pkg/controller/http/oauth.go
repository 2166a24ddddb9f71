package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/usecase"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/secmon-lab/briareos/pkg/utils/safe"
)

// oauthRedirectHandler completes the "Add to Slack" flow. Slack redirects here
// with either ?code=... or ?error=... after the user approved or denied.
func oauthRedirectHandler(installer Installer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()

		if denied := query.Get("error"); denied != "" {
			writeJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "installation was not approved: " + denied})
			return
		}

		code := query.Get("code")
		if code == "" {
			writeJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "missing code parameter"})
			return
		}

		inst, err := installer.Install(ctx, code)
		if err != nil {
			status := installStatus(err)
			if status >= http.StatusInternalServerError {
				errutil.Handle(ctx, err, "failed to install workspace")
			} else {
				logging.From(ctx).Warn("rejected workspace installation", "error", err.Error())
			}
			writeJSON(ctx, w, status, map[string]string{"error": err.Error()})
			return
		}

		logging.From(ctx).Info("workspace installed via OAuth", "team_id", inst.TeamID)
		writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "Installed!"})
	}
}

func installStatus(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidInstallation), errors.Is(err, model.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, goerr.Wrap(err, "failed to marshal response").Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}
