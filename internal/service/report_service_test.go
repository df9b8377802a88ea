package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReportRequest() CreateReportRequest {
	return CreateReportRequest{
		Title:       "Broken streetlight",
		Description: "The light at the corner has been out for a week",
		Category:    model.CategoryLighting,
		City:        "Cairo",
	}
}

func TestCreateReportStartsPendingWithHistoryAndReward(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	svc := f.reportService(nil)

	report, err := svc.Create(context.Background(), reporterID, validReportRequest())
	require.NoError(t, err)

	assert.Equal(t, model.ReportStatusPending, report.Status)
	assert.Equal(t, model.UrgencyMedium, report.Urgency)
	assert.Equal(t, reporterID, report.ReporterID)

	loaded, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	require.Len(t, loaded.StatusHistory, 1)
	assert.Equal(t, model.ReportStatusPending, loaded.StatusHistory[0].Status)
	assert.Equal(t, loaded.Status, loaded.StatusHistory[0].Status)

	// submission reward lands in the same unit of work
	assert.Equal(t, model.SubmissionReward, f.userPoints(reporterID))
	txs := f.userTransactions(reporterID)
	require.Len(t, txs, 1)
	assert.Equal(t, model.PointsTxEarn, txs[0].Type)
	assert.Equal(t, model.SourceReportSubmission, txs[0].Source)
	assert.Equal(t, model.SubmissionReward, txs[0].Amount)
	assert.Equal(t, model.SubmissionReward, txs[0].BalanceAfter)
	require.NotNil(t, txs[0].ReferenceID)
	assert.Equal(t, report.ID, *txs[0].ReferenceID)
}

func TestCreateReportInvalidCategory(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	svc := f.reportService(nil)

	req := validReportRequest()
	req.Category = "potholes"
	_, err := svc.Create(context.Background(), reporterID, req)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	assert.Equal(t, 0, f.userPoints(reporterID))
}

func TestCreateReportUnknownReporterRollsBack(t *testing.T) {
	f := newFixture()
	svc := f.reportService(nil)

	_, err := svc.Create(context.Background(), uuid.New(), validReportRequest())
	require.Error(t, err)

	// the reward failure must also roll the report back
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	assert.Empty(t, f.store.reports)
	assert.Empty(t, f.store.history)
}

func TestTransitionStatusAppendsHistory(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	updated, err := svc.TransitionStatus(ctx, report.ID, model.ReportStatusInProgress, adminID, "Crew dispatched")
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusInProgress, updated.Status)
	require.NotNil(t, updated.AdminID)
	assert.Equal(t, adminID, *updated.AdminID)

	loaded, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, loaded.StatusHistory, 2)
	assert.Equal(t, model.ReportStatusInProgress, loaded.StatusHistory[1].Status)
	assert.Equal(t, "Crew dispatched", loaded.StatusHistory[1].Note)
}

func TestTransitionStatusInvalidValue(t *testing.T) {
	f := newFixture()
	svc := f.reportService(nil)

	_, err := svc.TransitionStatus(context.Background(), uuid.New(), "escalated", uuid.New(), "")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestTransitionStatusUnknownReport(t *testing.T) {
	f := newFixture()
	svc := f.reportService(nil)

	_, err := svc.TransitionStatus(context.Background(), uuid.New(), model.ReportStatusResolved, uuid.New(), "")
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestResolveCreditsUrgencyScaledReward(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	_, err = svc.SetUrgency(ctx, report.ID, model.UrgencyHigh, adminID)
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusResolved, adminID, "Fixed")
	require.NoError(t, err)

	// 25 submission + 150 high-urgency resolution
	assert.Equal(t, 175, f.userPoints(reporterID))
	txs := f.userTransactions(reporterID)
	require.Len(t, txs, 2)
	assert.Equal(t, model.SourceReportResolved, txs[1].Source)
	assert.Equal(t, 150, txs[1].Amount)
}

func TestResolveRetryIsIdempotent(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusResolved, adminID, "")
	require.NoError(t, err)
	balanceAfterFirst := f.userPoints(reporterID)

	// retry of the same terminal transition succeeds without a second credit
	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusResolved, adminID, "")
	require.NoError(t, err)
	assert.Equal(t, balanceAfterFirst, f.userPoints(reporterID))
	assert.Len(t, f.userTransactions(reporterID), 2)

	loaded, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.StatusHistory, 2)
}

func TestTransitionOutOfTerminalStateFails(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusRejected, adminID, "Duplicate")
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusInProgress, adminID, "")
	require.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.EqualError(t, err, "report is already rejected")

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusResolved, adminID, "")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.Equal(t, model.SubmissionReward, f.userPoints(reporterID))
}

func TestTransitionBackwardRejected(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusInProgress, adminID, "")
	require.NoError(t, err)

	// there is no edge back to pending
	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusPending, adminID, "")
	require.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
	assert.EqualError(t, err, "cannot move report from in-progress to pending")

	loaded, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusInProgress, loaded.Status)

	// an in-progress report stays undeletable after the rejected attempt
	err = svc.Delete(ctx, report.ID, reporterID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestTransitionSameStatusRetryLeavesNoDuplicateHistory(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusInProgress, adminID, "Crew dispatched")
	require.NoError(t, err)

	// retry of a non-terminal transition is a no-op
	retried, err := svc.TransitionStatus(ctx, report.ID, model.ReportStatusInProgress, adminID, "Crew dispatched")
	require.NoError(t, err)
	assert.Equal(t, model.ReportStatusInProgress, retried.Status)

	loaded, err := svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.StatusHistory, 2)
}

func TestRejectedReportNeverPaysResolutionReward(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusRejected, adminID, "Not ours")
	require.NoError(t, err)

	assert.Equal(t, model.SubmissionReward, f.userPoints(reporterID))
	assert.Len(t, f.userTransactions(reporterID), 1)
}

func TestSetUrgencyMayLower(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	_, err = svc.SetUrgency(ctx, report.ID, model.UrgencyCritical, adminID)
	require.NoError(t, err)

	// unlike the analysis merge, the admin override may go down
	updated, err := svc.SetUrgency(ctx, report.ID, model.UrgencyLow, adminID)
	require.NoError(t, err)
	assert.Equal(t, model.UrgencyLow, updated.Urgency)
}

func TestSetUrgencyRejectsInvalidAndTerminal(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	_, err = svc.SetUrgency(ctx, report.ID, "extreme", adminID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusResolved, adminID, "")
	require.NoError(t, err)

	_, err = svc.SetUrgency(ctx, report.ID, model.UrgencyHigh, adminID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}

func TestDeleteReportRules(t *testing.T) {
	f := newFixture()
	reporterID := f.store.addUser(0)
	otherID := f.store.addUser(0)
	adminID := f.store.addUser(0)
	svc := f.reportService(nil)
	ctx := context.Background()

	report, err := svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)

	err = svc.Delete(ctx, report.ID, otherID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))

	require.NoError(t, svc.Delete(ctx, report.ID, reporterID))
	_, err = svc.Get(ctx, report.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	// a report that left pending can no longer be deleted
	report, err = svc.Create(ctx, reporterID, validReportRequest())
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, report.ID, model.ReportStatusInProgress, adminID, "")
	require.NoError(t, err)

	err = svc.Delete(ctx, report.ID, reporterID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidState))
}
