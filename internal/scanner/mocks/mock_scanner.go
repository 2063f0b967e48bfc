package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/scanner"
)

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, path string) (scanner.Result, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(scanner.Result), args.Error(1)
}

func (m *MockScanner) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
