package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

func TestErrors_SentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrSupervisorClosed", usecase.ErrSupervisorClosed},
		{"ErrInvalidInstallation", usecase.ErrInvalidInstallation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.err).NotNil()
		})
	}
}

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	gt.Bool(t, errors.Is(usecase.ErrSupervisorClosed, usecase.ErrInvalidInstallation)).False()
	gt.Bool(t, errors.Is(usecase.ErrInvalidInstallation, model.ErrConfiguration)).False()
}
