package errs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// ErrResponse is the JSON body written for every failed request.
type ErrResponse struct {
	Error ServiceError `json:"error"`
}

type ServiceError struct {
	Kind    string   `json:"kind,omitempty"`
	Param   string   `json:"param,omitempty"`
	Message string   `json:"message,omitempty"`
	Ops     []string `json:"ops,omitempty"`
}

// HTTPErrorResponse writes err to w with a status code derived from its Kind.
// Errors that are not an *Error are treated as unanticipated.
func HTTPErrorResponse(w http.ResponseWriter, logger zerolog.Logger, err error) {
	if err == nil {
		logger.Error().Msg("nil error passed to HTTPErrorResponse")
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	var e *Error
	if !errors.As(err, &e) {
		unknownErrorResponse(w, logger, err)
		return
	}

	kind := effectiveKind(e)
	status := HTTPStatusCode(kind)

	event := logger.Error()
	if status < http.StatusInternalServerError {
		event = logger.Info()
	}

	event.Err(err).
		Int("http_status", status).
		Str("kind", kind.String()).
		Str("param", string(e.Param)).
		Strs("ops", OpStack(err)).
		Msg("error response")

	message := err.Error()
	if inner := innermost(e); inner != nil {
		message = inner.Error()
	}

	writeErrorResponse(w, logger, status, ErrResponse{
		Error: ServiceError{
			Kind:    kind.String(),
			Param:   string(e.Param),
			Message: message,
			Ops:     OpStack(err),
		},
	})
}

func unknownErrorResponse(w http.ResponseWriter, logger zerolog.Logger, err error) {
	logger.Error().Err(err).Msg("unknown error")

	writeErrorResponse(w, logger, http.StatusInternalServerError, ErrResponse{
		Error: ServiceError{
			Kind:    Unanticipated.String(),
			Message: "unexpected error, contact support",
		},
	})
}

func writeErrorResponse(w http.ResponseWriter, logger zerolog.Logger, status int, body ErrResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		logger.Error().Err(err).Msg("encoding error response")
	}
}

// KindOf returns the first Kind set along the chain of err, or Other.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return Other
	}

	return effectiveKind(e)
}

func effectiveKind(e *Error) Kind {
	for e != nil {
		if e.Kind != Other {
			return e.Kind
		}

		var next *Error
		if !errors.As(e.Err, &next) {
			break
		}

		e = next
	}

	return Other
}

// innermost returns the first error in the chain that is not an *Error,
// which is the message that makes sense to show a client.
func innermost(e *Error) error {
	var err error = e

	for {
		var next *Error
		if !errors.As(err, &next) {
			return err
		}

		if next.Err == nil {
			return nil
		}

		err = next.Err
	}
}

// HTTPStatusCode is the status code of responses for errors of kind k.
func HTTPStatusCode(k Kind) int {
	switch k {
	case NotExist:
		return http.StatusNotFound
	case Invalid, Validation, InvalidRequest:
		return http.StatusBadRequest
	case Exist:
		return http.StatusConflict
	case Conversion:
		return http.StatusUnprocessableEntity
	case Unauthenticated:
		return http.StatusUnauthorized
	case Unauthorized, Private:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
