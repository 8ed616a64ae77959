package token

import "context"

// MockService is a mock implementation of Service for testing.
// All function fields must be set before the corresponding method is called.
type MockService struct {
	BalanceOfFn     func(ctx context.Context, token, owner string) (uint64, error)
	TransferFn      func(ctx context.Context, token, from, to string, amount uint64) error
	TransferFromFn  func(ctx context.Context, token, spender, from, to string, amount uint64) error
	ApproveFn       func(ctx context.Context, token, owner, spender string, amount uint64) error
	TransferBatchFn func(ctx context.Context, token, from string, outs []Output) error
}

// Compile-time interface check.
var _ Service = (*MockService)(nil)

// BalanceOf calls BalanceOfFn.
func (m *MockService) BalanceOf(ctx context.Context, token, owner string) (uint64, error) {
	return m.BalanceOfFn(ctx, token, owner)
}

// Transfer calls TransferFn.
func (m *MockService) Transfer(ctx context.Context, token, from, to string, amount uint64) error {
	return m.TransferFn(ctx, token, from, to, amount)
}

// TransferFrom calls TransferFromFn.
func (m *MockService) TransferFrom(ctx context.Context, token, spender, from, to string, amount uint64) error {
	return m.TransferFromFn(ctx, token, spender, from, to, amount)
}

// Approve calls ApproveFn.
func (m *MockService) Approve(ctx context.Context, token, owner, spender string, amount uint64) error {
	return m.ApproveFn(ctx, token, owner, spender, amount)
}

// TransferBatch calls TransferBatchFn.
func (m *MockService) TransferBatch(ctx context.Context, token, from string, outs []Output) error {
	return m.TransferBatchFn(ctx, token, from, outs)
}
