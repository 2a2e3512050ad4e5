package bridge

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Unmarshaller drives resolved calls onto live connections.
type Unmarshaller struct {
	log *zap.Logger
}

func NewUnmarshaller(log *zap.Logger) *Unmarshaller {
	if log == nil {
		log = zap.NewNop()
	}

	return &Unmarshaller{log: log.Named("unmarshaller")}
}

// Respond waits for call to complete and writes exactly one response
// to w. Faulted calls and malformed envelopes are written as a fixed
// 500 response. If ctx is done before the call completes, nothing is
// written and the context error is returned.
func (u *Unmarshaller) Respond(ctx context.Context, w http.ResponseWriter, call *Call) error {
	log := u.log.With(
		zap.String("method", call.descriptor.Method),
		zap.String("path", call.descriptor.Path),
	)

	result, err := call.Wait(ctx)
	if err != nil {
		log.Debug("connection gone before call completed", zap.Error(err))
		return err
	}

	envelope := InternalErrorEnvelope()

	switch call.State() {
	case StateResolved:
		parsed, err := ParseEnvelope([]byte(result))
		switch {
		case err != nil:
			log.Error("failed to parse envelope", zap.Error(err))
			call.parseFailed()
		case !parsed.Final():
			log.Error("envelope is not a final response", zap.Int("status", parsed.Status))
			call.parseFailed()
		default:
			envelope = parsed
		}
	case StateFaulted:
		log.Debug("call faulted", zap.Error(call.Fault()))
	}

	if err := call.responded(); err != nil {
		log.Error("refusing to respond twice", zap.Error(err))
		return err
	}

	if err := WriteEnvelope(w, envelope); err != nil {
		log.Debug("failed to write response", zap.Error(err))
		return err
	}

	return nil
}

// WriteEnvelope writes an envelope to w. Content-Length headers of the
// envelope are dropped and recomputed from the body. An envelope with
// an informational status is replaced by the fixed 500 response, as
// net/http would otherwise follow it with an empty 200.
func WriteEnvelope(w http.ResponseWriter, envelope ResponseEnvelope) error {
	if !envelope.Final() {
		envelope = InternalErrorEnvelope()
	}

	header := w.Header()
	for _, h := range envelope.Headers.Without("Content-Length") {
		header.Add(h.Name, h.Value)
	}

	if !bodyAllowed(envelope.Status) {
		w.WriteHeader(envelope.Status)
		return nil
	}

	header.Set("Content-Length", strconv.Itoa(len(envelope.Body)))

	w.WriteHeader(envelope.Status)

	_, err := io.WriteString(w, envelope.Body)
	return err
}

func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified
}
