package lambda

import (
	"context"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lambda-feedback/shimbridge/bridge"
	"github.com/lambda-feedback/shimbridge/engine/router"
	"github.com/lambda-feedback/shimbridge/handler"
	"github.com/lambda-feedback/shimbridge/internal/server"
)

func newLambdaHandler(t *testing.T, source ProxySource) *LambdaHandler {
	log := zaptest.NewLogger(t)

	e, err := router.New(router.Params{Log: log})
	require.NoError(t, err)

	b, err := bridge.New(bridge.Params{Engine: e, Log: log})
	require.NoError(t, err)

	h := handler.NewBridgeHandler(handler.BridgeHandlerParams{
		Bridge:       b,
		Builder:      bridge.NewBuilder(bridge.Config{}),
		Unmarshaller: bridge.NewUnmarshaller(log),
		Log:          log,
	})

	lh := NewLambdaHandler(LambdaHandlerParams{
		Config:   Config{ProxySource: source},
		Handlers: []*server.HttpHandler{handler.NewBridgeRoute(h).Handler},
		Context:  context.Background(),
		Logger:   log,
	})
	t.Cleanup(lh.Shutdown)

	return lh
}

func TestLambdaHandler_ApiGatewayV2(t *testing.T) {
	fn, err := newLambdaHandler(t, ProxySourceApiGatewayV2).getProxyFunction()
	require.NoError(t, err)

	proxy, ok := fn.(func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error))
	require.True(t, ok)

	res, err := proxy(context.Background(), events.APIGatewayV2HTTPRequest{
		RawPath: "/test",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/test",
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "This is a test route.", res.Body)
}

func TestLambdaHandler_ApiGatewayV1(t *testing.T) {
	fn, err := newLambdaHandler(t, ProxySourceApiGatewayV1).getProxyFunction()
	require.NoError(t, err)

	proxy, ok := fn.(func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error))
	require.True(t, ok)

	res, err := proxy(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/missing",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestLambdaHandler_ProxySources(t *testing.T) {
	for _, source := range []ProxySource{"", ProxySourceApiGatewayV1, ProxySourceApiGatewayV2, ProxySourceAlb} {
		_, err := newLambdaHandler(t, source).getProxyFunction()
		assert.NoError(t, err, source)
	}

	_, err := newLambdaHandler(t, "SQS").getProxyFunction()
	assert.ErrorIs(t, err, ErrInvalidProxySource)
}

func TestParseProxySource(t *testing.T) {
	source, err := ParseProxySource(" alb ")
	require.NoError(t, err)
	assert.Equal(t, ProxySourceAlb, source)

	source, err = ParseProxySource("")
	require.NoError(t, err)
	assert.Equal(t, ProxySourceApiGatewayV2, source)

	_, err = ParseProxySource("kinesis")
	assert.ErrorIs(t, err, ErrInvalidProxySource)
}
