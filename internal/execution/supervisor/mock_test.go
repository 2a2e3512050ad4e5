package supervisor_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lambda-feedback/shimbridge/internal/execution/supervisor"
)

type mockAdapter struct {
	mock.Mock
}

var _ supervisor.Adapter[string, string] = (*mockAdapter)(nil)

func (m *mockAdapter) Start(ctx context.Context, params supervisor.StartConfig) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockAdapter) Send(ctx context.Context, data string, params supervisor.SendConfig) (string, error) {
	args := m.Called(ctx, data, params)
	return args.String(0), args.Error(1)
}

func (m *mockAdapter) Stop(params supervisor.StopConfig) (supervisor.ReleaseFunc, error) {
	args := m.Called(params)

	release, _ := args.Get(0).(supervisor.ReleaseFunc)
	return release, args.Error(1)
}
