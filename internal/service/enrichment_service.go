package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/ai"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/apex/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrichmentService merges asynchronous AI analysis into a report.
// The merge policy is escalation-only: the AI snapshot always overwrites the
// previous one, but the live urgency field only moves up, and only when the
// detector is confident enough.
type EnrichmentService interface {
	Enrich(ctx context.Context, reportID uuid.UUID) error
}

// escalationThreshold is the minimum detector confidence required before an
// AI result may raise a report's urgency.
const escalationThreshold = 0.7

type enrichmentService struct {
	reportRepo repository.ReportRepository
	txManager  repository.TransactionManager
	client     ai.Client
}

func NewEnrichmentService(
	reportRepo repository.ReportRepository,
	txManager repository.TransactionManager,
	client ai.Client,
) EnrichmentService {
	return &enrichmentService{
		reportRepo: reportRepo,
		txManager:  txManager,
		client:     client,
	}
}

// Enrich calls the AI backend and merges the result. The calls are fail-soft
// (fallbacks at confidence 0.5 on any backend trouble), so the only errors
// returned here are storage failures — and those leave the report untouched,
// making the whole operation safe to retry.
func (s *enrichmentService) Enrich(ctx context.Context, reportID uuid.UUID) error {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("report")
		}
		return fmt.Errorf("failed to load report: %w", err)
	}

	imageURL := ""
	if len(report.Images) > 0 {
		imageURL = report.Images[0]
	}

	classification := s.client.Classify(ctx, imageURL)
	urgency := s.client.DetectUrgency(ctx, report.Title+"\n"+report.Description, imageURL)

	return s.merge(ctx, reportID, classification, urgency)
}

// merge re-locks the report and re-reads its urgency at write time: an admin
// may have raised it while the AI calls were in flight, and the escalation
// check must run against the stored value, not one cached before the calls.
func (s *enrichmentService) merge(ctx context.Context, reportID uuid.UUID, classification ai.ClassificationResult, urgency ai.UrgencyResult) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		report, err := s.reportRepo.FindByIDForUpdate(txCtx, reportID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("report")
			}
			return fmt.Errorf("failed to lock report: %w", err)
		}

		// The report may have reached a terminal state while the analysis was
		// in flight; its urgency and snapshot are frozen with it.
		if model.TerminalReportStatus(report.Status) {
			log.WithField("report_id", reportID.String()).
				Info("skipping analysis merge: report is " + report.Status)
			return nil
		}

		now := time.Now()
		report.AIClassification = &classification.Classification
		report.AIUrgency = &urgency.Urgency
		report.AIConfidence = &urgency.Confidence
		report.AIAnalyzedAt = &now

		escalated := false
		if urgency.Confidence > escalationThreshold &&
			model.UrgencyRank(urgency.Urgency) > model.UrgencyRank(report.Urgency) {
			report.Urgency = urgency.Urgency
			escalated = true
		}

		if err := s.reportRepo.Update(txCtx, report); err != nil {
			return fmt.Errorf("failed to store analysis: %w", err)
		}

		if escalated {
			entry := model.ReportStatusHistory{
				ReportID: reportID,
				Status:   report.Status,
				Note:     fmt.Sprintf("Urgency escalated to %s by analysis (confidence %.2f)", urgency.Urgency, urgency.Confidence),
			}
			if err := s.reportRepo.AppendHistory(txCtx, &entry); err != nil {
				return fmt.Errorf("failed to write status history: %w", err)
			}
			log.WithFields(log.Fields{
				"report_id": reportID.String(),
				"urgency":   urgency.Urgency,
			}).Info("report urgency escalated by analysis")
		}

		return nil
	})
}
