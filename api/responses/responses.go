package responses

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/types"
)

// requestIDHeader is set on the response by the request id middleware.
const requestIDHeader = "X-Request-Id"

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError renders err as the public error envelope. Errors outside the
// taxonomy become INTERNAL_ERROR and their text never reaches the client.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	body := types.APIError{
		Code:      string(typed.Code()),
		Message:   meta.PublicMessage,
		RequestID: w.Header().Get(requestIDHeader),
	}
	if meta.ClientMessage && typed.Message() != "" {
		body.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		body.Details = typed.Details()
	}

	if logg != nil {
		cause := err
		if cause == nil {
			cause = typed
		}
		logCtx := logg.WithFields(ctx, pkgerrors.Dump(cause).Fields())
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(logCtx, "request failed", typed)
		} else {
			logg.Warn(logCtx, "request rejected")
		}
	}
	writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Error: body})
}

// writeJSON ignores encode failures: the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
