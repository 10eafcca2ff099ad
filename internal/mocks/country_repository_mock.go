package mocks

import (
	"context"

	"samguk-server/internal/interfaces"
	"samguk-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockCountryRepository is a mock type for the CountryRepository type
type MockCountryRepository struct {
	mock.Mock
}

// GetByName provides a mock function with given fields: ctx, name
func (_m *MockCountryRepository) GetByName(ctx context.Context, name string) (*models.Country, error) {
	ret := _m.Called(ctx, name)

	var r0 *models.Country
	if rf, ok := ret.Get(0).(func(context.Context, string) *models.Country); ok {
		r0 = rf(ctx, name)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Country)
	}

	return r0, ret.Error(1)
}

// Upsert provides a mock function with given fields: ctx, country
func (_m *MockCountryRepository) Upsert(ctx context.Context, country *models.Country) error {
	ret := _m.Called(ctx, country)
	return ret.Error(0)
}

// ApplyDeltas provides a mock function with given fields: ctx, name, deltas
func (_m *MockCountryRepository) ApplyDeltas(ctx context.Context, name string, deltas models.StatDeltas) (*models.Country, error) {
	ret := _m.Called(ctx, name, deltas)

	var r0 *models.Country
	if rf, ok := ret.Get(0).(func(context.Context, string, models.StatDeltas) *models.Country); ok {
		r0 = rf(ctx, name, deltas)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Country)
	}

	return r0, ret.Error(1)
}

// List provides a mock function with given fields: ctx
func (_m *MockCountryRepository) List(ctx context.Context) ([]*models.Country, error) {
	ret := _m.Called(ctx)

	var r0 []*models.Country
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.Country)
	}

	return r0, ret.Error(1)
}

// Count provides a mock function with given fields: ctx
func (_m *MockCountryRepository) Count(ctx context.Context) (int, error) {
	ret := _m.Called(ctx)
	return ret.Int(0), ret.Error(1)
}

// NewMockCountryRepository creates a new instance of MockCountryRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockCountryRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCountryRepository {
	m := &MockCountryRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.CountryRepository = (*MockCountryRepository)(nil)
