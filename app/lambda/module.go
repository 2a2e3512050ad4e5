package lambda

import (
	"go.uber.org/fx"

	"github.com/lambda-feedback/shimbridge/handler"
	"github.com/lambda-feedback/shimbridge/util/logging"
)

// Module runs the lambda runtime client on top of the bridge handler.
// An unknown proxy source fails the app before anything starts.
func Module(config Config) fx.Option {
	if err := config.Validate(); err != nil {
		return fx.Error(err)
	}

	return fx.Module(
		"lambda",
		fx.Supply(config),
		logging.DecorateLogger("lambda"),
		handler.Module(),
		fx.Provide(NewLifecycleHandler),
		fx.Invoke(func(*LambdaHandler) {}),
	)
}
