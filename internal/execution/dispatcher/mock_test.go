package dispatcher_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lambda-feedback/shimbridge/internal/execution/supervisor"
)

type mockSupervisor struct {
	mock.Mock
}

var _ supervisor.Supervisor[string, string] = (*mockSupervisor)(nil)

func (m *mockSupervisor) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSupervisor) Send(ctx context.Context, data string) (*supervisor.Result[string], error) {
	args := m.Called(ctx, data)

	res, _ := args.Get(0).(*supervisor.Result[string])
	return res, args.Error(1)
}

func (m *mockSupervisor) Shutdown(ctx context.Context) (supervisor.WaitFunc, error) {
	args := m.Called(ctx)

	wait, _ := args.Get(0).(supervisor.WaitFunc)
	return wait, args.Error(1)
}

func noWait() supervisor.WaitFunc {
	return func() error { return nil }
}

func factoryOf(sv supervisor.Supervisor[string, string]) func(supervisor.Params[string, string]) (supervisor.Supervisor[string, string], error) {
	return func(supervisor.Params[string, string]) (supervisor.Supervisor[string, string], error) {
		return sv, nil
	}
}
