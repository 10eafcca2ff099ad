package mocks

import (
	"context"

	"samguk-server/internal/models"
	"samguk-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockTurnService is a mock type for the TurnService type
type MockTurnService struct {
	mock.Mock
}

// GetCountry provides a mock function with given fields: ctx, name
func (_m *MockTurnService) GetCountry(ctx context.Context, name string) (*models.Country, error) {
	ret := _m.Called(ctx, name)

	var r0 *models.Country
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Country)
	}
	return r0, ret.Error(1)
}

// ListCountries provides a mock function with given fields: ctx
func (_m *MockTurnService) ListCountries(ctx context.Context) ([]*models.Country, error) {
	ret := _m.Called(ctx)

	var r0 []*models.Country
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Country)
	}
	return r0, ret.Error(1)
}

// PlayTurn provides a mock function with given fields: ctx, countryName, userAction
func (_m *MockTurnService) PlayTurn(ctx context.Context, countryName string, userAction string) (*models.TurnOutcome, error) {
	ret := _m.Called(ctx, countryName, userAction)

	var r0 *models.TurnOutcome
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.TurnOutcome)
	}
	return r0, ret.Error(1)
}

// NewMockTurnService creates a new instance of MockTurnService.
func NewMockTurnService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTurnService {
	m := &MockTurnService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.TurnService = (*MockTurnService)(nil)
