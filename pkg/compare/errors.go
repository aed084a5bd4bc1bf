package compare

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mpapenbr/f1-telemetry-lab/pkg/chart"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/model"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/session"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/api"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/telemetry"
)

type Kind string

const (
	KindInvalidQuery      Kind = "invalid_query"
	KindUnknownDriver     Kind = "unknown_driver"
	KindSessionNotFound   Kind = "session_not_found"
	KindAmbiguousQuery    Kind = "ambiguous_query"
	KindSessionEmpty      Kind = "session_empty"
	KindNoSessions        Kind = "no_sessions"
	KindNoValidLap        Kind = "no_valid_lap"
	KindNoTelemetryData   Kind = "no_telemetry_data"
	KindAxisMismatch      Kind = "axis_mismatch"
	KindRemoteUnavailable Kind = "remote_unavailable"
	KindBadResponse       Kind = "bad_response"
	KindEmptyResult       Kind = "empty_result"
	KindInternal          Kind = "internal"
)

const genericHint = "check the spelling of your input and the availability of the backend"

// UserError is the single user visible message for a failed action.
type UserError struct {
	Message string `json:"error"`
	Hint    string `json:"hint"`
	Kind    Kind   `json:"kind"`
}

func (e UserError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Hint)
}

type kindEntry struct {
	target error
	kind   Kind
	hint   string
}

// order matters: the first matching entry wins
var kinds = []kindEntry{
	{model.ErrInvalidQuery, KindInvalidQuery,
		"use either --event with --type or --key together with a positive season"},
	{model.ErrUnknownSessionType, KindInvalidQuery,
		"valid session types are R, Q, FP1, FP2 and FP3"},
	{ErrUnknownDriver, KindUnknownDriver,
		"use the drivers command to list the drivers of the session"},
	{session.ErrSessionNotFound, KindSessionNotFound,
		"use the sessions command to list the events of the season"},
	{session.ErrAmbiguousQuery, KindAmbiguousQuery,
		"address the session by its key instead of the event name"},
	{session.ErrSessionEmpty, KindSessionEmpty,
		"the session has no driver data, try another session"},
	{session.ErrNoSessions, KindNoSessions,
		"the backend has no data for this year, try another season"},
	{telemetry.ErrNoValidLap, KindNoValidLap,
		"the driver has no timed lap, try the session mode or another driver"},
	{telemetry.ErrNoTelemetryData, KindNoTelemetryData,
		"the backend has no car data for this driver, try another driver or session"},
	{chart.ErrAxisMismatch, KindAxisMismatch,
		"compare both drivers with the same mode"},
	{api.ErrRemoteUnavailable, KindRemoteUnavailable,
		"the backend did not answer, retry later or increase --request-timeout"},
	{context.DeadlineExceeded, KindRemoteUnavailable,
		"the backend did not answer, retry later or increase --request-timeout"},
	{context.Canceled, KindRemoteUnavailable,
		"the request was canceled, retry"},
	{api.ErrBadResponse, KindBadResponse,
		"the backend delivered unexpected data, " + genericHint},
	{api.ErrEmptyResult, KindEmptyResult, genericHint},
}

// Describe maps err into a message plus remediation hint.
func Describe(err error) UserError {
	if err == nil {
		return UserError{}
	}
	var ue UserError
	if errors.As(err, &ue) {
		return ue
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			msg := err.Error()
			if k.kind == KindRemoteUnavailable && !errors.Is(err, api.ErrRemoteUnavailable) {
				msg = fmt.Sprintf("%s: %s", api.ErrRemoteUnavailable, msg)
			}
			return UserError{Message: msg, Hint: k.hint, Kind: k.kind}
		}
	}
	return UserError{Message: err.Error(), Hint: genericHint, Kind: KindInternal}
}

// HTTPStatus returns the status code used by the HTTP API for the kind
func (k Kind) HTTPStatus() int {
	switch k {
	case KindSessionNotFound, KindNoSessions, KindSessionEmpty, KindEmptyResult:
		return http.StatusNotFound
	case KindInvalidQuery, KindAmbiguousQuery, KindUnknownDriver:
		return http.StatusBadRequest
	case KindRemoteUnavailable, KindBadResponse:
		return http.StatusBadGateway
	case KindNoValidLap, KindNoTelemetryData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
