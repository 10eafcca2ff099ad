package mocks

import (
	"context"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockNarrativeGenerator is a mock type for the NarrativeGenerator type
type MockNarrativeGenerator struct {
	mock.Mock
}

// GenerateTurn provides a mock function with given fields: ctx, userAction, current
func (_m *MockNarrativeGenerator) GenerateTurn(ctx context.Context, userAction string, current models.StatSnapshot) (*models.TurnResult, error) {
	ret := _m.Called(ctx, userAction, current)

	var r0 *models.TurnResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.TurnResult)
	}

	return r0, ret.Error(1)
}

// NewMockNarrativeGenerator creates a new instance of MockNarrativeGenerator.
func NewMockNarrativeGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNarrativeGenerator {
	m := &MockNarrativeGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockImageGenerator is a mock type for the ImageGenerator type
type MockImageGenerator struct {
	mock.Mock
}

// GenerateImage provides a mock function with given fields: ctx, prompt
func (_m *MockImageGenerator) GenerateImage(ctx context.Context, prompt string) *string {
	ret := _m.Called(ctx, prompt)

	if rf, ok := ret.Get(0).(func(context.Context, string) *string); ok {
		return rf(ctx, prompt)
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*string)
}

// NewMockImageGenerator creates a new instance of MockImageGenerator.
func NewMockImageGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageGenerator {
	m := &MockImageGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockTurnEventPublisher is a mock type for the TurnEventPublisher type
type MockTurnEventPublisher struct {
	mock.Mock
}

// PublishTurnCompleted provides a mock function with given fields: ctx, event
func (_m *MockTurnEventPublisher) PublishTurnCompleted(ctx context.Context, event models.TurnCompletedEvent) error {
	ret := _m.Called(ctx, event)
	return ret.Error(0)
}

// Close provides a mock function with no fields
func (_m *MockTurnEventPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockTurnEventPublisher creates a new instance of MockTurnEventPublisher.
func NewMockTurnEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTurnEventPublisher {
	m := &MockTurnEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var (
	_ interfaces.NarrativeGenerator = (*MockNarrativeGenerator)(nil)
	_ interfaces.ImageGenerator     = (*MockImageGenerator)(nil)
	_ interfaces.TurnEventPublisher = (*MockTurnEventPublisher)(nil)
)
