package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/litt/internal/failure"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		kind failure.Kind
		want int
	}{
		{failure.StopwatchAlreadyRunning, 1},
		{failure.NoStopwatchRunning, 2},
		{failure.InterruptionAlreadyOpen, 3},
		{failure.ResumeWithoutStopwatch, 4},
		{failure.NoOpenInterruption, 5},
		{failure.MissingInterval, 6},
		{failure.NonPositiveInterval, 7},
		{failure.UnparseableTimespec, 8},
		{failure.RecordNotFound, 9},
		{failure.HookFailed, 10},
		{failure.InvalidSortKey, 11},
		{failure.InvalidFilter, 12},
		{failure.InvalidConfig, 13},
		{failure.InvalidArgument, 64},
		{failure.DryRun, 127},
	}
	for _, tt := range tests {
		err := failure.New(tt.kind, "boom")
		assert.Equal(t, tt.want, failure.ExitCode(err), tt.kind.String())
	}
}

func TestExitCodeWrapped(t *testing.T) {
	err := fmt.Errorf("command failed: %w", failure.New(failure.RecordNotFound, "no record %q", "x"))
	assert.Equal(t, 9, failure.ExitCode(err))
	assert.True(t, failure.IsKind(err, failure.RecordNotFound))
	assert.True(t, errors.Is(err, failure.New(failure.RecordNotFound, "")))
	assert.False(t, errors.Is(err, failure.New(failure.DryRun, "")))
}

func TestExitCodeUnclassified(t *testing.T) {
	assert.Equal(t, 0, failure.ExitCode(nil))
	assert.Equal(t, 1, failure.ExitCode(errors.New("disk full")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, failure.HTTPStatus(failure.New(failure.StopwatchAlreadyRunning, "")))
	assert.Equal(t, http.StatusNotFound, failure.HTTPStatus(failure.New(failure.RecordNotFound, "")))
	assert.Equal(t, http.StatusBadRequest, failure.HTTPStatus(failure.New(failure.InvalidSortKey, "")))
	assert.Equal(t, http.StatusOK, failure.HTTPStatus(failure.New(failure.DryRun, "")))
	assert.Equal(t, http.StatusInternalServerError, failure.HTTPStatus(failure.New(failure.HookFailed, "")))
}

func TestErrorMessage(t *testing.T) {
	err := failure.Wrap(failure.UnparseableTimespec, errors.New("no match"), "unable to parse timespec %q", "soon")
	assert.Equal(t, `unable to parse timespec "soon": no match`, err.Error())
}
