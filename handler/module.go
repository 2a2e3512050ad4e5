package handler

import (
	"net/http"

	"go.uber.org/fx"

	"github.com/lambda-feedback/shimbridge/internal/server"
)

const (
	// BridgePath catches every path not claimed by a host-local route.
	BridgePath = "/"
	HealthPath = "/health"
)

func NewBridgeRoute(handler *BridgeHandler) server.HttpHandlerResult {
	return server.AsHttpHandler(BridgePath, handler)
}

func NewHealthRoute() server.HttpHandlerResult {
	return server.AsHttpHandler(HealthPath, http.HandlerFunc(HealthHandler))
}

func Module() fx.Option {
	return fx.Module("handler",
		fx.Provide(
			NewBridgeHandler,
			NewBridgeRoute,
			NewHealthRoute,
		),
	)
}
