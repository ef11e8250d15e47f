package pgsql_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/usage_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/core/services"
	"github.com/SscSPs/usage_billing_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/usage_billing_app/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
)

// PgsqlRepositoryTestSuite runs the repositories against a real PostgreSQL named by PGSQL_URL.
// Every test works on fresh account and job IDs, so the database can be shared.
type PgsqlRepositoryTestSuite struct {
	suite.Suite
	pool   *pgxpool.Pool
	repos  portsrepo.RepositoryProvider
	ledger portssvc.LedgerSvcFacade
}

func (suite *PgsqlRepositoryTestSuite) SetupSuite() {
	url := os.Getenv("PGSQL_URL")
	if url == "" {
		suite.T().Skip("PGSQL_URL not set")
	}
	migrations, err := filepath.Abs(filepath.Join("..", "..", "..", "..", "migrations"))
	suite.Require().NoError(err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	suite.Require().NoError(database.RunMigrations(url, "file://"+migrations, logger))

	suite.pool, err = database.NewPgxPool(context.Background(), url, true)
	suite.Require().NoError(err)
	suite.repos = pgsql.NewRepositoryProvider(suite.pool)
	suite.ledger = services.NewLedgerService(suite.repos.LedgerRepo)
}

func (suite *PgsqlRepositoryTestSuite) TearDownSuite() {
	database.ClosePgxPool(suite.pool)
}

func (suite *PgsqlRepositoryTestSuite) newAccount(balance int64) string {
	accountID := "acc-" + uuid.NewString()
	if balance > 0 {
		_, err := suite.repos.LedgerRepo.Grant(context.Background(), suite.entry(accountID, balance, domain.ReasonAdminGrant))
		suite.Require().NoError(err)
	}
	return accountID
}

func (suite *PgsqlRepositoryTestSuite) entry(accountID string, delta int64, reason domain.LedgerReason) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:   uuid.NewString(),
		AccountID: accountID,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}

func (suite *PgsqlRepositoryTestSuite) record(accountID, key string, spend int64) domain.ChargeRecord {
	return domain.ChargeRecord{
		ChargeKey:   domain.ChargeKey{AccountID: accountID, Reason: domain.ReasonChargeTranscribe, IdempotencyKey: key},
		Spend:       spend,
		RequestHash: "hash-" + key,
		CreatedAt:   time.Now().UTC(),
	}
}

func (suite *PgsqlRepositoryTestSuite) balance(accountID string) int64 {
	acc, err := suite.repos.LedgerRepo.FindAccountByID(context.Background(), accountID)
	suite.Require().NoError(err)
	return acc.Balance
}

func (suite *PgsqlRepositoryTestSuite) assertReconciled(accountID string) {
	rec, err := suite.ledger.Reconcile(context.Background(), accountID)
	suite.Require().NoError(err)
	suite.True(rec.Consistent, "balance %d vs ledger sum %d", rec.Balance, rec.LedgerSum)
}

func (suite *PgsqlRepositoryTestSuite) TestDebit_AppliesOrDeclines() {
	ctx := context.Background()
	accountID := suite.newAccount(30)

	outcome, err := suite.repos.LedgerRepo.Debit(ctx, suite.entry(accountID, -20, domain.ReasonChargeTranslate))
	suite.Require().NoError(err)
	suite.Equal(domain.ChargeApplied, outcome)

	outcome, err = suite.repos.LedgerRepo.Debit(ctx, suite.entry(accountID, -20, domain.ReasonChargeTranslate))
	suite.Require().NoError(err)
	suite.Equal(domain.ChargeDeclined, outcome)

	outcome, err = suite.repos.LedgerRepo.Debit(ctx, suite.entry("acc-"+uuid.NewString(), -1, domain.ReasonChargeTranslate))
	suite.Require().NoError(err)
	suite.Equal(domain.ChargeDeclined, outcome)

	suite.Equal(int64(10), suite.balance(accountID))
	suite.assertReconciled(accountID)
}

func (suite *PgsqlRepositoryTestSuite) TestDebitIdempotent_DeclineLeavesNoRecordAndRetrySucceedsAfterTopUp() {
	ctx := context.Background()
	accountID := suite.newAccount(40)
	rec := suite.record(accountID, "job-40-50", 50)

	outcome, err := suite.repos.LedgerRepo.DebitIdempotent(ctx, rec, suite.entry(accountID, -50, domain.ReasonChargeTranscribe))
	suite.Require().NoError(err)
	suite.Equal(domain.ChargeDeclined, outcome)
	_, err = suite.repos.LedgerRepo.FindChargeRecord(ctx, rec.ChargeKey)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Equal(int64(40), suite.balance(accountID))

	_, err = suite.repos.LedgerRepo.Grant(ctx, suite.entry(accountID, 20, domain.ReasonGrantPack))
	suite.Require().NoError(err)

	outcome, err = suite.repos.LedgerRepo.DebitIdempotent(ctx, rec, suite.entry(accountID, -50, domain.ReasonChargeTranscribe))
	suite.Require().NoError(err)
	suite.Equal(domain.ChargeApplied, outcome)
	suite.Equal(int64(10), suite.balance(accountID))
	suite.assertReconciled(accountID)
}

func (suite *PgsqlRepositoryTestSuite) TestDebitIdempotent_ExistingRecordIsAlreadySettled() {
	ctx := context.Background()
	accountID := suite.newAccount(100)
	rec := suite.record(accountID, "job-dup", 25)
	rec.Response = json.RawMessage(`{"text":"hola"}`)

	outcome, err := suite.repos.LedgerRepo.DebitIdempotent(ctx, rec, suite.entry(accountID, -25, domain.ReasonChargeTranscribe))
	suite.Require().NoError(err)
	suite.Equal(domain.ChargeApplied, outcome)

	// No lookup first: the primary key violation itself must map to already settled.
	outcome, err = suite.repos.LedgerRepo.DebitIdempotent(ctx, rec, suite.entry(accountID, -25, domain.ReasonChargeTranscribe))
	suite.Require().NoError(err)
	suite.Equal(domain.ChargeAlreadySettled, outcome)
	suite.Equal(int64(75), suite.balance(accountID))

	stored, err := suite.repos.LedgerRepo.FindChargeRecord(ctx, rec.ChargeKey)
	suite.Require().NoError(err)
	suite.Equal(int64(25), stored.Spend)
	suite.Equal("hash-job-dup", stored.RequestHash)
	suite.JSONEq(`{"text":"hola"}`, string(stored.Response))
	suite.assertReconciled(accountID)
}

func (suite *PgsqlRepositoryTestSuite) TestFindChargeRecord_WithoutResponse() {
	ctx := context.Background()
	accountID := suite.newAccount(10)
	rec := suite.record(accountID, "job-no-response", 5)

	_, err := suite.repos.LedgerRepo.DebitIdempotent(ctx, rec, suite.entry(accountID, -5, domain.ReasonChargeTranscribe))
	suite.Require().NoError(err)

	stored, err := suite.repos.LedgerRepo.FindChargeRecord(ctx, rec.ChargeKey)
	suite.Require().NoError(err)
	suite.Nil(stored.Response)
}

func (suite *PgsqlRepositoryTestSuite) TestCharge_ConcurrentSameKeyAppliesOnce() {
	ctx := context.Background()
	accountID := suite.newAccount(100)
	req := domain.ChargeRequest{
		AccountID:      accountID,
		Amount:         30,
		Reason:         domain.ReasonChargeTranscribe,
		IdempotencyKey: "job-concurrent",
		RequestHash:    "same",
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = suite.ledger.Charge(ctx, req)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		suite.NoError(err)
	}
	suite.Equal(int64(70), suite.balance(accountID))
	_, count, err := suite.repos.LedgerRepo.SumDeltas(ctx, accountID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)
}

func (suite *PgsqlRepositoryTestSuite) TestCharge_ConcurrentDistinctChargesNeverOverdraw() {
	ctx := context.Background()
	accountID := suite.newAccount(50)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	paid := 0
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := suite.ledger.Charge(ctx, domain.ChargeRequest{
				AccountID:      accountID,
				Amount:         10,
				Reason:         domain.ReasonChargeTranslate,
				IdempotencyKey: uuid.NewString(),
			})
			if err != nil && !apperrors.IsBillingDeclined(err) {
				suite.Failf("unexpected charge error", "worker %d: %v", i, err)
			}
			if ok {
				mu.Lock()
				paid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	suite.Equal(5, paid)
	suite.Equal(int64(0), suite.balance(accountID))
	suite.assertReconciled(accountID)
}

func (suite *PgsqlRepositoryTestSuite) TestCharge_KeyReuseWithOtherRequestIsRejected() {
	ctx := context.Background()
	accountID := suite.newAccount(100)
	req := domain.ChargeRequest{
		AccountID:      accountID,
		Amount:         10,
		Reason:         domain.ReasonChargeTranslate,
		IdempotencyKey: "K",
		RequestHash:    "first",
	}
	_, err := suite.ledger.Charge(ctx, req)
	suite.Require().NoError(err)

	req.RequestHash = "second"
	ok, err := suite.ledger.Charge(ctx, req)
	suite.False(ok)
	suite.ErrorIs(err, apperrors.ErrIdempotencyMismatch)
	suite.Equal(int64(90), suite.balance(accountID))
}

func (suite *PgsqlRepositoryTestSuite) TestGrantAndReset() {
	ctx := context.Background()
	accountID := suite.newAccount(0)

	_, err := suite.repos.LedgerRepo.FindAccountByID(ctx, accountID)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	acc, err := suite.repos.LedgerRepo.Grant(ctx, suite.entry(accountID, 15, domain.ReasonGrantPack))
	suite.Require().NoError(err)
	suite.Equal(int64(15), acc.Balance)
	acc, err = suite.repos.LedgerRepo.Grant(ctx, suite.entry(accountID, 5, domain.ReasonAdminGrant))
	suite.Require().NoError(err)
	suite.Equal(int64(20), acc.Balance)

	saved, err := suite.repos.LedgerRepo.Reset(ctx, suite.entry(accountID, 0, domain.ReasonAdminReset), 7)
	suite.Require().NoError(err)
	suite.Equal(int64(-13), saved.Delta)
	suite.Equal(int64(7), suite.balance(accountID))

	entries, err := suite.repos.LedgerRepo.ListEntries(ctx, accountID, 10, 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 3)
	suite.Equal(domain.ReasonAdminReset, entries[0].Reason)
	suite.assertReconciled(accountID)
}

func (suite *PgsqlRepositoryTestSuite) TestUpdateJobWithLock() {
	ctx := context.Background()
	now := time.Now().UTC()
	job := domain.Job{
		JobID:     uuid.NewString(),
		AccountID: "acc-" + uuid.NewString(),
		Status:    domain.JobProcessing,
		InputRef:  "uploads/x",
		CreatedAt: now,
		UpdatedAt: now,
	}
	suite.Require().NoError(suite.repos.JobRepo.SaveJob(ctx, job))
	suite.ErrorIs(suite.repos.JobRepo.SaveJob(ctx, job), apperrors.ErrDuplicate)

	tr, err := suite.repos.JobRepo.UpdateJobWithLock(ctx, job.JobID, func(j *domain.Job) (bool, error) {
		return false, nil
	})
	suite.Require().NoError(err)
	suite.False(tr.Applied)

	// Concurrent completions serialize on the row lock: exactly one applies.
	const workers = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := suite.repos.JobRepo.UpdateJobWithLock(ctx, job.JobID, func(j *domain.Job) (bool, error) {
				if j.Status != domain.JobProcessing {
					return false, nil
				}
				j.Status = domain.JobCompleted
				j.Result = json.RawMessage(`{"text":"done"}`)
				j.UpdatedAt = time.Now().UTC()
				return true, nil
			})
			if err == nil && tr.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	suite.Equal(1, applied)

	got, err := suite.repos.JobRepo.FindJobByID(ctx, job.JobID)
	suite.Require().NoError(err)
	suite.Equal(domain.JobCompleted, got.Status)
	suite.JSONEq(`{"text":"done"}`, string(got.Result))

	_, err = suite.repos.JobRepo.UpdateJobWithLock(ctx, uuid.NewString(), func(j *domain.Job) (bool, error) { return true, nil })
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *PgsqlRepositoryTestSuite) TestProcessedEvents() {
	ctx := context.Background()
	eventID := "evt-" + uuid.NewString()

	exists, err := suite.repos.EventRepo.ExistsProcessedEvent(ctx, eventID)
	suite.Require().NoError(err)
	suite.False(exists)

	event := domain.ProcessedEvent{EventID: eventID, EventType: domain.EventTypePaymentConfirmed, ProcessedAt: time.Now().UTC()}
	suite.Require().NoError(suite.repos.EventRepo.SaveProcessedEvent(ctx, event))
	suite.Require().NoError(suite.repos.EventRepo.SaveProcessedEvent(ctx, event))

	exists, err = suite.repos.EventRepo.ExistsProcessedEvent(ctx, eventID)
	suite.Require().NoError(err)
	suite.True(exists)
}

func TestPgsqlRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PgsqlRepositoryTestSuite))
}
