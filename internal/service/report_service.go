package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/apex/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateReportRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Governorate string   `json:"governorate"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Images      []string `json:"images"`
}

type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type SetUrgencyRequest struct {
	Urgency string `json:"urgency" binding:"required"`
}

var reportCategories = map[string]bool{
	model.CategoryRoads:       true,
	model.CategoryWater:       true,
	model.CategoryElectricity: true,
	model.CategoryWaste:       true,
	model.CategoryLighting:    true,
	model.CategoryOther:       true,
}

// ReportService owns the report status state machine: the status field, the
// append-only history, and the urgency field are written only here and by
// the enrichment merge.
type ReportService interface {
	Create(ctx context.Context, reporterID uuid.UUID, req CreateReportRequest) (*model.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
	List(ctx context.Context, page, limit int, filter repository.ReportFilter) ([]model.Report, int64, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, page, limit int) ([]model.Report, int64, error)
	TransitionStatus(ctx context.Context, reportID uuid.UUID, newStatus string, actorID uuid.UUID, note string) (*model.Report, error)
	SetUrgency(ctx context.Context, reportID uuid.UUID, urgency string, actorID uuid.UUID) (*model.Report, error)
	Delete(ctx context.Context, reportID, requesterID uuid.UUID) error
}

type reportService struct {
	reportRepo repository.ReportRepository
	points     PointsService
	txManager  repository.TransactionManager
	enricher   EnrichmentService
	notifier   Notifier
}

func NewReportService(
	reportRepo repository.ReportRepository,
	points PointsService,
	txManager repository.TransactionManager,
	enricher EnrichmentService,
	notifier Notifier,
) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		points:     points,
		txManager:  txManager,
		enricher:   enricher,
		notifier:   notifier,
	}
}

// Create files a new report in status pending, writes the first history
// entry, and credits the submission reward — all in one transaction, so a
// retried submission can never leave a report without its reward or vice
// versa. When images are attached, AI enrichment is kicked off
// asynchronously and never delays the response.
func (s *reportService) Create(ctx context.Context, reporterID uuid.UUID, req CreateReportRequest) (*model.Report, error) {
	if !reportCategories[req.Category] {
		return nil, apperror.InvalidState("invalid category: %s", req.Category)
	}

	report := model.Report{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Address:     req.Address,
		City:        req.City,
		Governorate: req.Governorate,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Images:      model.ImageList(req.Images),
		Status:      model.ReportStatusPending,
		Urgency:     model.UrgencyMedium,
		ReporterID:  reporterID,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.reportRepo.Create(txCtx, &report); err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}

		entry := model.ReportStatusHistory{
			ReportID: report.ID,
			Status:   model.ReportStatusPending,
			ActorID:  &reporterID,
			Note:     "Report created",
		}
		if err := s.reportRepo.AppendHistory(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write status history: %w", err)
		}

		refID := report.ID
		if _, err := s.points.EarnTx(txCtx, reporterID, model.SubmissionReward,
			model.SourceReportSubmission, &refID, "Report submitted: "+report.Title); err != nil {
			return fmt.Errorf("failed to credit submission reward: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(report.Images) > 0 && s.enricher != nil {
		reportID := report.ID
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			if err := s.enricher.Enrich(bgCtx, reportID); err != nil {
				log.WithError(err).WithField("report_id", reportID.String()).
					Error("report enrichment failed")
			}
		}()
	}

	return &report, nil
}

func (s *reportService) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("report")
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	history, err := s.reportRepo.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	report.StatusHistory = history

	return report, nil
}

func (s *reportService) List(ctx context.Context, page, limit int, filter repository.ReportFilter) ([]model.Report, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.reportRepo.List(ctx, page, limit, filter)
}

func (s *reportService) ListByReporter(ctx context.Context, reporterID uuid.UUID, page, limit int) ([]model.Report, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.reportRepo.ListByReporter(ctx, reporterID, page, limit)
}

// TransitionStatus moves a report along the edges ReportTransitionAllowed
// defines. The first transition into resolved credits the urgency-scaled
// resolution reward; re-applying the current status is an idempotent no-op so
// retries never double-credit and never duplicate history rows.
func (s *reportService) TransitionStatus(ctx context.Context, reportID uuid.UUID, newStatus string, actorID uuid.UUID, note string) (*model.Report, error) {
	if !model.ValidReportStatus(newStatus) {
		return nil, apperror.InvalidState("invalid status: %s", newStatus)
	}

	var report *model.Report
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		report, txErr = s.reportRepo.FindByIDForUpdate(txCtx, reportID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("report")
			}
			return fmt.Errorf("failed to lock report: %w", txErr)
		}

		if report.Status == newStatus {
			// Retry of an already-applied transition
			return nil
		}
		if !model.ReportTransitionAllowed(report.Status, newStatus) {
			if model.TerminalReportStatus(report.Status) {
				return apperror.InvalidState("report is already %s", report.Status)
			}
			return apperror.InvalidState("cannot move report from %s to %s", report.Status, newStatus)
		}

		report.Status = newStatus
		report.AdminID = &actorID
		if err := s.reportRepo.Update(txCtx, report); err != nil {
			return fmt.Errorf("failed to update report: %w", err)
		}

		entry := model.ReportStatusHistory{
			ReportID: reportID,
			Status:   newStatus,
			ActorID:  &actorID,
			Note:     note,
		}
		if err := s.reportRepo.AppendHistory(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write status history: %w", err)
		}

		// First entry into resolved: terminal states have no outgoing edges
		// and retries short-circuit above, so this runs at most once per report.
		if newStatus == model.ReportStatusResolved {
			refID := report.ID
			amount := model.ResolutionReward(report.Urgency)
			if _, err := s.points.EarnTx(txCtx, report.ReporterID, amount,
				model.SourceReportResolved, &refID, "Report resolved: "+report.Title); err != nil {
				return fmt.Errorf("failed to credit resolution reward: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyStatusChanged(report, newStatus, note)

	return report, nil
}

// SetUrgency is the explicit admin override: unlike the AI merge it may set
// any legal urgency value, including a lower one.
func (s *reportService) SetUrgency(ctx context.Context, reportID uuid.UUID, urgency string, actorID uuid.UUID) (*model.Report, error) {
	switch urgency {
	case model.UrgencyLow, model.UrgencyMedium, model.UrgencyHigh, model.UrgencyCritical:
	default:
		return nil, apperror.InvalidState("invalid urgency: %s", urgency)
	}

	var report *model.Report
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		report, txErr = s.reportRepo.FindByIDForUpdate(txCtx, reportID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return apperror.NotFound("report")
			}
			return fmt.Errorf("failed to lock report: %w", txErr)
		}

		if model.TerminalReportStatus(report.Status) {
			return apperror.InvalidState("report is already %s", report.Status)
		}

		report.Urgency = urgency
		if err := s.reportRepo.Update(txCtx, report); err != nil {
			return fmt.Errorf("failed to update report: %w", err)
		}

		entry := model.ReportStatusHistory{
			ReportID: reportID,
			Status:   report.Status,
			ActorID:  &actorID,
			Note:     "Urgency set to " + urgency,
		}
		if err := s.reportRepo.AppendHistory(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write status history: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// Delete removes a report; only the reporter may do this and only while the
// report is still pending.
func (s *reportService) Delete(ctx context.Context, reportID, requesterID uuid.UUID) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		report, err := s.reportRepo.FindByIDForUpdate(txCtx, reportID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("report")
			}
			return fmt.Errorf("failed to lock report: %w", err)
		}

		if report.ReporterID != requesterID {
			return apperror.InvalidState("only the reporter may delete a report")
		}
		if report.Status != model.ReportStatusPending {
			return apperror.InvalidState("only pending reports can be deleted")
		}

		if err := s.reportRepo.Delete(txCtx, reportID); err != nil {
			return fmt.Errorf("failed to delete report: %w", err)
		}
		return nil
	})
}
