package handlers_test

import (
	"context"
	"encoding/json"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetBalance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) ListEntries(ctx context.Context, accountID string, limit int, offset int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) Reconcile(ctx context.Context, accountID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockLedgerService) FindCharge(ctx context.Context, key domain.ChargeKey) (*domain.ChargeRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChargeRecord), args.Error(1)
}

func (m *MockLedgerService) Charge(ctx context.Context, req domain.ChargeRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerService) Grant(ctx context.Context, accountID string, amount int64, reason domain.LedgerReason, metadata domain.Metadata) (*domain.Account, error) {
	args := m.Called(ctx, accountID, amount, reason, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerService) ResetBalance(ctx context.Context, accountID string, newBalance int64, metadata domain.Metadata) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, newBalance, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

type MockUsageService struct {
	mock.Mock
}

func (m *MockUsageService) Translate(ctx context.Context, accountID string, idempotencyKey string, in domain.TranslateInput) (*domain.TranslateOutput, error) {
	args := m.Called(ctx, accountID, idempotencyKey, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TranslateOutput), args.Error(1)
}

func (m *MockUsageService) Transcribe(ctx context.Context, accountID string, idempotencyKey string, in domain.TranscribeInput) (*domain.Transcript, error) {
	args := m.Called(ctx, accountID, idempotencyKey, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transcript), args.Error(1)
}

func (m *MockUsageService) Synthesize(ctx context.Context, accountID string, idempotencyKey string, in domain.SpeechInput) (*domain.SpeechOutput, error) {
	args := m.Called(ctx, accountID, idempotencyKey, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SpeechOutput), args.Error(1)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) CreateJob(ctx context.Context, accountID string) (*domain.Job, string, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.Job), args.String(1), args.Error(2)
}

func (m *MockSettlementService) StartJob(ctx context.Context, accountID string, jobID string, language string) (*domain.Job, error) {
	args := m.Called(ctx, accountID, jobID, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockSettlementService) GetJob(ctx context.Context, accountID string, jobID string) (*domain.Job, error) {
	args := m.Called(ctx, accountID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockSettlementService) HandleRelayCallback(ctx context.Context, event domain.RelayEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSettlementService) CompleteAndCharge(ctx context.Context, jobID string, result json.RawMessage, usage domain.Usage) (*domain.Job, error) {
	args := m.Called(ctx, jobID, result, usage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) HandleConfirmation(ctx context.Context, event domain.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
