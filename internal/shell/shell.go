package shell

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Shell runs an fx application until it is signalled to stop, then
// shuts it down within the application's stop timeout.
type Shell struct {
	log     *zap.Logger
	options []fx.Option
}

func New(log *zap.Logger, options ...fx.Option) *Shell {
	return &Shell{
		log:     log,
		options: options,
	}
}

// Run starts the application composed of the shell options and the
// given options. It blocks until the application receives a shutdown
// signal or ctx is cancelled. A non-nil error is always an *ExitError.
func (s *Shell) Run(ctx context.Context, options ...fx.Option) error {
	defer func() { _ = s.log.Sync() }()

	// the app context is handed to components and cancelled before
	// stop hooks run, so in-flight work observes the shutdown
	appCtx, cancelApp := context.WithCancel(ctx)
	defer cancelApp()

	fxApp := s.createFxApp(appCtx, options...)
	if err := fxApp.Err(); err != nil {
		s.log.Error("failed to build app", zap.Error(err))
		return &ExitError{Code: 1, Cause: err}
	}

	startCtx, cancelStart := context.WithTimeout(ctx, fxApp.StartTimeout())
	defer cancelStart()

	if err := fxApp.Start(startCtx); err != nil {
		s.log.Error("failed to start app", zap.Error(err))
		return &ExitError{Code: 1, Cause: err}
	}

	var exitCode int
	select {
	case sig := <-fxApp.Wait():
		exitCode = sig.ExitCode
		s.log.Debug("received shutdown signal", zap.Int("exit_code", exitCode))
	case <-ctx.Done():
		s.log.Debug("context done, shutting down")
	}

	cancelApp()

	// ctx may be done already, stopping must still get its full timeout
	stopCtx, cancelStop := context.WithTimeout(context.WithoutCancel(ctx), fxApp.StopTimeout())
	defer cancelStop()

	if err := fxApp.Stop(stopCtx); err != nil {
		s.log.Error("failed to stop app", zap.Error(err))
		return &ExitError{Code: 1, Cause: err}
	}

	if exitCode != 0 {
		return &ExitError{Code: exitCode}
	}

	return nil
}

func (s *Shell) createFxApp(ctx context.Context, options ...fx.Option) *fx.App {
	return fx.New(
		fx.Supply(fx.Annotate(ctx, fx.As(new(context.Context)))),
		fx.Supply(s.log),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: s.log.Named("fx")}
		}),
		fx.Options(s.options...),
		fx.Options(options...),
	)
}
