package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueAnalysis(gameID int64, deep bool) error {
	args := m.Called(gameID, deep)
	return args.Error(0)
}
