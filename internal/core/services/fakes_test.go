package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memLedgerRepo keeps balances, entries and charge records in memory. Every write method holds
// the lock for its whole body, matching the single-transaction behaviour of the database store.
type memLedgerRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	entries  []domain.LedgerEntry
	records  map[domain.ChargeKey]domain.ChargeRecord
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{
		accounts: make(map[string]*domain.Account),
		records:  make(map[domain.ChargeKey]domain.ChargeRecord),
	}
}

var _ portsrepo.LedgerRepositoryFacade = (*memLedgerRepo)(nil)

func (r *memLedgerRepo) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *memLedgerRepo) ListEntries(_ context.Context, accountID string, limit int, offset int) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LedgerEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].AccountID == accountID {
			out = append(out, r.entries[i])
		}
	}
	if offset >= len(out) {
		return []domain.LedgerEntry{}, nil
	}
	out = out[offset:]
	return out[:min(limit, len(out))], nil
}

func (r *memLedgerRepo) SumDeltas(_ context.Context, accountID string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, count int64
	for _, e := range r.entries {
		if e.AccountID == accountID {
			sum += e.Delta
			count++
		}
	}
	return sum, count, nil
}

func (r *memLedgerRepo) FindChargeRecord(_ context.Context, key domain.ChargeKey) (*domain.ChargeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rec, nil
}

func (r *memLedgerRepo) Grant(_ context.Context, entry domain.LedgerEntry) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[entry.AccountID]
	if !ok {
		acc = &domain.Account{AccountID: entry.AccountID, CreatedAt: entry.CreatedAt}
		r.accounts[entry.AccountID] = acc
	}
	acc.Balance += entry.Delta
	acc.UpdatedAt = entry.CreatedAt
	r.entries = append(r.entries, entry)
	cp := *acc
	return &cp, nil
}

func (r *memLedgerRepo) Reset(_ context.Context, entry domain.LedgerEntry, newBalance int64) (*domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[entry.AccountID]
	if !ok {
		acc = &domain.Account{AccountID: entry.AccountID, CreatedAt: entry.CreatedAt}
		r.accounts[entry.AccountID] = acc
	}
	entry.Delta = newBalance - acc.Balance
	acc.Balance = newBalance
	r.entries = append(r.entries, entry)
	return &entry, nil
}

func (r *memLedgerRepo) Debit(_ context.Context, entry domain.LedgerEntry) (domain.ChargeOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.debitLocked(entry), nil
}

func (r *memLedgerRepo) DebitIdempotent(_ context.Context, record domain.ChargeRecord, entry domain.LedgerEntry) (domain.ChargeOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ChargeKey]; ok {
		return domain.ChargeAlreadySettled, nil
	}
	outcome := r.debitLocked(entry)
	if outcome == domain.ChargeApplied {
		r.records[record.ChargeKey] = record
	}
	return outcome, nil
}

func (r *memLedgerRepo) debitLocked(entry domain.LedgerEntry) domain.ChargeOutcome {
	acc, ok := r.accounts[entry.AccountID]
	if !ok || acc.Balance < -entry.Delta {
		return domain.ChargeDeclined
	}
	acc.Balance += entry.Delta
	acc.UpdatedAt = entry.CreatedAt
	r.entries = append(r.entries, entry)
	return domain.ChargeApplied
}

func (r *memLedgerRepo) entryCount(accountID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.AccountID == accountID {
			n++
		}
	}
	return n
}

func (r *memLedgerRepo) balance(accountID string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[accountID]; ok {
		return acc.Balance
	}
	return 0
}

type memEventRepo struct {
	mu     sync.Mutex
	events map[string]domain.ProcessedEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[string]domain.ProcessedEvent)}
}

func (r *memEventRepo) ExistsProcessedEvent(_ context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.events[eventID]
	return ok, nil
}

func (r *memEventRepo) SaveProcessedEvent(_ context.Context, event domain.ProcessedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.EventID]; !ok {
		r.events[event.EventID] = event
	}
	return nil
}

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]domain.Job)}
}

var _ portsrepo.JobRepositoryFacade = (*memJobRepo)(nil)

func (r *memJobRepo) SaveJob(_ context.Context, job domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.JobID]; ok {
		return apperrors.ErrDuplicate
	}
	r.jobs[job.JobID] = job
	return nil
}

func (r *memJobRepo) FindJobByID(_ context.Context, jobID string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &job, nil
}

func (r *memJobRepo) ListStaleJobs(_ context.Context, status domain.JobStatus, cutoff time.Time, limit int) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Job
	for _, job := range r.jobs {
		if job.Status == status && job.UpdatedAt.Before(cutoff) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out[:min(limit, len(out))], nil
}

func (r *memJobRepo) UpdateJobWithLock(_ context.Context, jobID string, mutate portsrepo.JobMutation) (*domain.JobTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	changed, err := mutate(&job)
	if err != nil {
		return nil, err
	}
	if changed {
		r.jobs[jobID] = job
	}
	return &domain.JobTransition{Job: &job, Applied: changed}, nil
}

// --- Mocks for outbound gateways ---

type MockPricer struct {
	mock.Mock
}

func (m *MockPricer) Cost(usage domain.Usage) (decimal.Decimal, error) {
	args := m.Called(usage)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// flatPricer charges a fixed cost per unit of the billable quantity.
type flatPricer struct {
	perUnit decimal.Decimal
}

func (p flatPricer) Cost(usage domain.Usage) (decimal.Decimal, error) {
	switch usage.Kind {
	case domain.UsageTranscribe:
		return p.perUnit.Mul(decimal.NewFromFloat(usage.Seconds)), nil
	case domain.UsageSpeech:
		return p.perUnit.Mul(decimal.NewFromInt(usage.Characters)), nil
	default:
		return p.perUnit.Mul(decimal.NewFromInt(usage.InputTokens + usage.OutputTokens)), nil
	}
}

type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Submit(ctx context.Context, req domain.RelayRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) UploadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockAnalytics struct {
	mock.Mock
}

func (m *MockAnalytics) Enqueue(distinctID string, event string, properties map[string]any) {
	m.Called(distinctID, event, properties)
}

// MockLedgerRepository is used where a store fault has to be simulated.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerRepository) ListEntries(ctx context.Context, accountID string, limit int, offset int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) SumDeltas(ctx context.Context, accountID string) (int64, int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) FindChargeRecord(ctx context.Context, key domain.ChargeKey) (*domain.ChargeRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChargeRecord), args.Error(1)
}

func (m *MockLedgerRepository) Grant(ctx context.Context, entry domain.LedgerEntry) (*domain.Account, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerRepository) Reset(ctx context.Context, entry domain.LedgerEntry, newBalance int64) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entry, newBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Debit(ctx context.Context, entry domain.LedgerEntry) (domain.ChargeOutcome, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(domain.ChargeOutcome), args.Error(1)
}

func (m *MockLedgerRepository) DebitIdempotent(ctx context.Context, record domain.ChargeRecord, entry domain.LedgerEntry) (domain.ChargeOutcome, error) {
	args := m.Called(ctx, record, entry)
	return args.Get(0).(domain.ChargeOutcome), args.Error(1)
}

// MockEventRepository is used where a store fault has to be simulated.
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) ExistsProcessedEvent(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepository) SaveProcessedEvent(ctx context.Context, event domain.ProcessedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
