package api_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"medifinder/m/domain"
	"medifinder/m/internal/catalog"
	"medifinder/m/internal/identity"
	"medifinder/m/internal/ordering"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Search(ctx context.Context, f catalog.Filters) ([]domain.PharmacyView, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PharmacyView), args.Error(1)
}

func (m *MockCatalog) GetByID(ctx context.Context, id string) (domain.PharmacyView, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.PharmacyView), args.Bool(1), args.Error(2)
}

type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) Signup(ctx context.Context, in identity.SignupInput) (identity.AuthResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(identity.AuthResult), args.Error(1)
}

func (m *MockIdentity) Login(ctx context.Context, email, password string) (identity.AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(identity.AuthResult), args.Error(1)
}

func (m *MockIdentity) UserByID(ctx context.Context, id string) (domain.User, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) PharmacyForUser(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockDashboard) ListStock(ctx context.Context, pharmacyID string) ([]domain.StockView, error) {
	args := m.Called(ctx, pharmacyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockView), args.Error(1)
}

func (m *MockDashboard) SetStock(ctx context.Context, pharmacyID string, medicineID, quantity int64, priceRWF float64) ([]domain.StockView, error) {
	args := m.Called(ctx, pharmacyID, medicineID, quantity, priceRWF)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockView), args.Error(1)
}

func (m *MockDashboard) ListOrders(ctx context.Context, pharmacyID string, status *domain.OrderStatus) ([]domain.OrderView, error) {
	args := m.Called(ctx, pharmacyID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderView), args.Error(1)
}

func (m *MockDashboard) SetOrderStatus(ctx context.Context, pharmacyID, orderID string, status domain.OrderStatus) ([]domain.OrderView, error) {
	args := m.Called(ctx, pharmacyID, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderView), args.Error(1)
}

func (m *MockDashboard) SetPrescriptionStatus(ctx context.Context, pharmacyID, orderID string, status domain.PrescriptionStatus) ([]domain.OrderView, error) {
	args := m.Called(ctx, pharmacyID, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderView), args.Error(1)
}

type MockOrdering struct {
	mock.Mock
}

func (m *MockOrdering) Place(ctx context.Context, c ordering.Checkout) ([]domain.OrderView, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderView), args.Error(1)
}

func (m *MockOrdering) ListForUser(ctx context.Context, userID string) ([]domain.OrderView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderView), args.Error(1)
}
