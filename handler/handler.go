package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/bridge"
)

// AuthHeader is the request header carrying the api key.
const AuthHeader = "api-key"

type AuthConfig struct {
	// Key is the api key clients have to send. Empty disables
	// authorization.
	Key string `conf:"key"`
}

// Invoker dispatches descriptors, e.g. a *bridge.Bridge.
type Invoker interface {
	Invoke(context.Context, bridge.RequestDescriptor) *bridge.Call
}

type BridgeHandlerParams struct {
	fx.In

	Bridge       *bridge.Bridge
	Builder      *bridge.Builder
	Unmarshaller *bridge.Unmarshaller
	Auth         AuthConfig
	Log          *zap.Logger
}

func NewBridgeHandler(params BridgeHandlerParams) *BridgeHandler {
	return &BridgeHandler{
		invoker:      params.Bridge,
		builder:      params.Builder,
		unmarshaller: params.Unmarshaller,
		auth:         params.Auth,
		log:          params.Log,
	}
}

// BridgeHandler serves every request through the bridge: the request
// is turned into a descriptor, dispatched to the engine and the
// resulting envelope is written back.
type BridgeHandler struct {
	invoker      Invoker
	builder      *bridge.Builder
	unmarshaller *bridge.Unmarshaller
	auth         AuthConfig
	log          *zap.Logger
}

func (h *BridgeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	// Check for authorization
	if h.auth.Key != "" && r.Header.Get(AuthHeader) != h.auth.Key {
		log.Debug("unauthorized request")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	req, err := h.builder.BuildHTTP(r)
	if err != nil {
		log.Debug("failed to read body", zap.Error(err))

		status := http.StatusBadRequest
		if errors.Is(err, bridge.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		http.Error(w, "failed to read body", status)
		return
	}

	if h.auth.Key != "" {
		req.Headers = req.Headers.Without(AuthHeader)
	}

	call := h.invoker.Invoke(r.Context(), req)

	if err := h.unmarshaller.Respond(r.Context(), w, call); err != nil {
		log.Debug("failed to respond", zap.Error(err))
	}
}
