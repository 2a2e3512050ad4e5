package lambda

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lambda-feedback/shimbridge/internal/server"
)

type LambdaHandlerParams struct {
	fx.In

	Config Config

	// Handlers and Middleware form the same mux the http server uses.
	Handlers   []*server.HttpHandler `group:"handlers"`
	Middleware []server.Middleware   `group:"middleware"`

	Context context.Context
	Logger  *zap.Logger
}

// LambdaHandler runs the AWS Lambda runtime client. Proxy events are
// converted to http requests on the mux, so they reach the bridge the
// same way requests to the standalone server do.
type LambdaHandler struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	mux    http.Handler
	log    *zap.Logger
}

func NewLambdaHandler(params LambdaHandlerParams) *LambdaHandler {
	ctx, cancel := context.WithCancel(params.Context)

	return &LambdaHandler{
		config: params.Config,
		ctx:    ctx,
		cancel: cancel,
		mux:    server.NewMux(params.Handlers, params.Middleware),
		log:    params.Logger,
	}
}

func NewLifecycleHandler(params LambdaHandlerParams, lc fx.Lifecycle) *LambdaHandler {
	h := NewLambdaHandler(params)
	lc.Append(fx.StartStopHook(h.Start, h.Shutdown))
	return h
}

// Start launches the runtime client in the background. It only fails
// if the proxy source is invalid.
func (s *LambdaHandler) Start() error {
	proxy, err := s.getProxyFunction()
	if err != nil {
		return err
	}

	s.log.Debug("starting runtime client", zap.Stringer("proxy_source", s.config.ProxySource))

	go lambda.StartWithOptions(proxy, lambda.WithContext(s.ctx))

	return nil
}

// Shutdown cancels the context handed to the runtime client.
func (s *LambdaHandler) Shutdown() {
	s.cancel()
}

func (s *LambdaHandler) getProxyFunction() (any, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	switch s.config.ProxySource {
	case ProxySourceApiGatewayV1:
		return httpadapter.New(s.mux).ProxyWithContext, nil
	case ProxySourceAlb:
		return httpadapter.NewALB(s.mux).ProxyWithContext, nil
	default:
		return httpadapter.NewV2(s.mux).ProxyWithContext, nil
	}
}
