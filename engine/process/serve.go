package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/internal/execution/worker"
	"github.com/lambda-feedback/shimbridge/util"
)

// Serve is the worker side of the stdio protocol. It reads requests
// from r until EOF, handles them one at a time on engine and writes
// the responses to w.
func Serve(
	ctx context.Context,
	engine bridge.Engine,
	r io.Reader,
	w io.Writer,
	log *zap.Logger,
) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)

	for {
		var msg worker.Message[json.RawMessage]
		if err := dec.Decode(&msg); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("error reading request: %w", err)
		}

		res := handleMessage(ctx, engine, msg, log)

		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("error writing response: %w", err)
		}
	}
}

// ServeFiles is the worker side of the file protocol. It handles the
// single request stored in reqPath and writes the response to resPath.
func ServeFiles(
	ctx context.Context,
	engine bridge.Engine,
	reqPath string,
	resPath string,
	log *zap.Logger,
) error {
	data, err := os.ReadFile(reqPath)
	if err != nil {
		return fmt.Errorf("error reading request file: %w", err)
	}

	var msg worker.Message[json.RawMessage]
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("error decoding request file: %w", err)
	}

	res, err := json.Marshal(handleMessage(ctx, engine, msg, log))
	if err != nil {
		return err
	}

	return os.WriteFile(resPath, res, 0o600)
}

// handleMessage answers a single message. Descriptors failing schema
// validation and engine failures are answered with the fixed 500
// envelope, so the host always gets a reply for the message id.
func handleMessage(
	ctx context.Context,
	engine bridge.Engine,
	msg worker.Message[json.RawMessage],
	log *zap.Logger,
) worker.Message[json.RawMessage] {
	log = log.With(zap.Int("id", msg.ID))

	req, err := bridge.UnmarshalDescriptor(msg.Data)
	if err != nil {
		log.Error("received invalid descriptor", zap.Error(err))

		return worker.Message[json.RawMessage]{ID: msg.ID, Data: internalError()}
	}

	data, err := engine.Handle(ctx, req)
	if err != nil || !json.Valid(data) {
		log.Error("engine failed to handle request",
			zap.String("path", req.Path),
			zap.Error(err),
		)

		data = internalError()
	}

	return worker.Message[json.RawMessage]{
		ID:   msg.ID,
		Data: data,
	}
}

func internalError() []byte {
	return util.Must(bridge.MarshalEnvelope(bridge.InternalErrorEnvelope()))
}
