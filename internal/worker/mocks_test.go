package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"misinfo/features/job"
)

// Mocks

type MockChecker struct{ mock.Mock }

func (m *MockChecker) Check(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type MockContentStore struct{ mock.Mock }

func (m *MockContentStore) GetText(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockContentStore) SaveAnalysis(ctx context.Context, id, analysis string) error {
	args := m.Called(ctx, id, analysis)
	return args.Error(0)
}

type MockJobRepo struct{ mock.Mock }

func (m *MockJobRepo) Save(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

type MockRecorder struct{ mock.Mock }

func (m *MockRecorder) ObserveCheck(status string) {
	m.Called(status)
}
