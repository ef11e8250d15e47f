package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/usage_billing_app/internal/apperrors"
	"github.com/SscSPs/usage_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/usage_billing_app/internal/core/ports/services"
	"github.com/SscSPs/usage_billing_app/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type JobServiceTestSuite struct {
	suite.Suite
	repo    *memJobRepo
	storage *MockObjectStorage
	clock   time.Time
	service portssvc.JobSvcFacade
}

func (suite *JobServiceTestSuite) SetupTest() {
	suite.repo = newMemJobRepo()
	suite.storage = new(MockObjectStorage)
	suite.clock = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.service = services.NewJobService(suite.repo,
		services.WithJobStorage(suite.storage),
		services.WithJobClock(func() time.Time { return suite.clock }),
	)
}

func (suite *JobServiceTestSuite) create() *domain.Job {
	job, err := suite.service.Create(context.Background(), "acc-1", "uploads/acc-1/input")
	suite.Require().NoError(err)
	return job
}

func (suite *JobServiceTestSuite) TestCreate_StartsPending() {
	job := suite.create()
	suite.Equal(domain.JobPendingInput, job.Status)
	suite.Equal(suite.clock, job.CreatedAt)

	got, err := suite.service.Get(context.Background(), job.JobID)
	suite.Require().NoError(err)
	suite.Equal(job.JobID, got.JobID)
}

func (suite *JobServiceTestSuite) TestGet_MalformedIDIsNotFound() {
	_, err := suite.service.Get(context.Background(), "not-a-uuid")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *JobServiceTestSuite) TestLifecycle_CompleteThenDuplicateIsNoop() {
	ctx := context.Background()
	job := suite.create()
	suite.storage.On("Delete", mock.Anything, job.InputRef).Return(nil).Once()

	tr, err := suite.service.MarkProcessing(ctx, job.JobID)
	suite.Require().NoError(err)
	suite.True(tr.Applied)

	tr, err = suite.service.Complete(ctx, job.JobID, json.RawMessage(`{"text":"hello"}`))
	suite.Require().NoError(err)
	suite.True(tr.Applied)
	suite.Equal(domain.JobCompleted, tr.Job.Status)
	suite.JSONEq(`{"text":"hello"}`, string(tr.Job.Result))

	tr, err = suite.service.Complete(ctx, job.JobID, json.RawMessage(`{"text":"other"}`))
	suite.Require().NoError(err)
	suite.False(tr.Applied)
	suite.JSONEq(`{"text":"hello"}`, string(tr.Job.Result))

	tr, err = suite.service.Fail(ctx, job.JobID, "late failure")
	suite.Require().NoError(err)
	suite.False(tr.Applied)
	suite.Equal(domain.JobCompleted, tr.Job.Status)

	suite.storage.AssertExpectations(suite.T())
}

func (suite *JobServiceTestSuite) TestComplete_FromPendingIsRejected() {
	job := suite.create()
	_, err := suite.service.Complete(context.Background(), job.JobID, json.RawMessage(`{}`))
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)

	got, err := suite.service.Get(context.Background(), job.JobID)
	suite.Require().NoError(err)
	suite.Equal(domain.JobPendingInput, got.Status)
}

func (suite *JobServiceTestSuite) TestMarkProcessing_Twice() {
	ctx := context.Background()
	job := suite.create()
	tr, err := suite.service.MarkProcessing(ctx, job.JobID)
	suite.Require().NoError(err)
	suite.True(tr.Applied)

	tr, err = suite.service.MarkProcessing(ctx, job.JobID)
	suite.Require().NoError(err)
	suite.False(tr.Applied)
}

func (suite *JobServiceTestSuite) TestForceFail() {
	ctx := context.Background()
	job := suite.create()
	suite.storage.On("Delete", mock.Anything, job.InputRef).Return(nil)

	_, err := suite.service.ForceFail(ctx, job.JobID, "billing failed")
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = suite.service.MarkProcessing(ctx, job.JobID)
	suite.Require().NoError(err)
	_, err = suite.service.Complete(ctx, job.JobID, json.RawMessage(`{"text":"x"}`))
	suite.Require().NoError(err)

	tr, err := suite.service.ForceFail(ctx, job.JobID, "billing failed")
	suite.Require().NoError(err)
	suite.True(tr.Applied)
	suite.Equal(domain.JobFailed, tr.Job.Status)
	suite.Nil(tr.Job.Result)
	suite.Equal("billing failed", tr.Job.Error)

	tr, err = suite.service.ForceFail(ctx, job.JobID, "billing failed")
	suite.Require().NoError(err)
	suite.False(tr.Applied)
}

func (suite *JobServiceTestSuite) TestCleanup_FailureIsOnlyLogged() {
	ctx := context.Background()
	job := suite.create()
	suite.storage.On("Delete", mock.Anything, job.InputRef).Return(errors.New("bucket unavailable")).Once()

	tr, err := suite.service.Fail(ctx, job.JobID, "cancelled by user")
	suite.Require().NoError(err)
	suite.True(tr.Applied)
	suite.Equal(domain.JobFailed, tr.Job.Status)
	suite.storage.AssertExpectations(suite.T())
}

func (suite *JobServiceTestSuite) TestExpireStale() {
	ctx := context.Background()
	stale := suite.create()
	suite.clock = suite.clock.Add(50 * time.Minute)
	fresh := suite.create()
	suite.clock = suite.clock.Add(20 * time.Minute)
	suite.storage.On("Delete", mock.Anything, mock.Anything).Return(nil)

	expired, err := suite.service.ExpireStale(ctx, time.Hour)
	suite.Require().NoError(err)
	suite.Equal(1, expired)

	got, err := suite.service.Get(ctx, stale.JobID)
	suite.Require().NoError(err)
	suite.Equal(domain.JobFailed, got.Status)

	got, err = suite.service.Get(ctx, fresh.JobID)
	suite.Require().NoError(err)
	suite.Equal(domain.JobPendingInput, got.Status)
}

func TestJobServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JobServiceTestSuite))
}
