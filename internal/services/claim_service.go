// Package services orchestrates the claim processing pipeline: submission,
// document extraction, adjudication, and decision persistence.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"claims-service/internal/adjudication"
	"claims-service/internal/apperrors"
	"claims-service/internal/event"
	"claims-service/internal/extraction"
	"claims-service/internal/lock"
	"claims-service/internal/metrics"
	"claims-service/internal/models"
	"claims-service/internal/policy"
)

// ClaimStore is the persistence surface the pipeline needs.
type ClaimStore interface {
	Save(ctx context.Context, claim *models.Claim) error
	Update(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, claimID string) (*models.Claim, error)
	List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, int, error)
	HistoryByEmployee(ctx context.Context, employeeID string) (models.ClaimHistory, error)
}

// DocumentStore stores and retrieves claim documents by opaque reference.
type DocumentStore interface {
	Upload(ctx context.Context, claimID, filename, contentType string, content []byte) (string, error)
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
}

// Extractor turns claim documents into structured facts. It never fails;
// degraded inputs yield low-confidence results instead.
type Extractor interface {
	Extract(ctx context.Context, docs []extraction.Document) models.ExtractedClaimData
}

// ClaimService drives claims through the SUBMITTED -> EXTRACTING ->
// ADJUDICATING -> DECIDED state machine.
type ClaimService struct {
	store     ClaimStore
	docs      DocumentStore
	extractor Extractor
	policy    *policy.Model
	locker    lock.Locker
	publisher *event.DecisionPublisher
	nowFn     func() time.Time
}

func NewClaimService(store ClaimStore, docs DocumentStore, extractor Extractor,
	pol *policy.Model, locker lock.Locker, publisher *event.DecisionPublisher) *ClaimService {
	return &ClaimService{
		store:     store,
		docs:      docs,
		extractor: extractor,
		policy:    pol,
		locker:    locker,
		publisher: publisher,
		nowFn:     time.Now,
	}
}

// Submit validates and persists a new claim together with its documents and
// returns it in the SUBMITTED state. No adjudication happens here.
func (s *ClaimService) Submit(ctx context.Context, req models.SubmitClaimRequest, uploads []models.DocumentUpload) (*models.Claim, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	claimID := newClaimID()

	refs := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		ref, err := s.docs.Upload(ctx, claimID, upload.Filename, upload.MimeType, upload.Content)
		if err != nil {
			return nil, apperrors.Operational(
				fmt.Sprintf("failed to store document %s for claim %s", upload.Filename, claimID), err)
		}
		refs = append(refs, ref)
	}

	claim := &models.Claim{
		ClaimID:       claimID,
		PatientName:   strings.TrimSpace(req.PatientName),
		EmployeeID:    strings.TrimSpace(req.EmployeeID),
		ClaimAmount:   req.ClaimAmount,
		ClaimCategory: req.ClaimCategory,
		TreatmentDate: req.TreatmentDate,
		HospitalName:  strings.TrimSpace(req.HospitalName),
		Notes:         req.Notes,
		DocumentRefs:  refs,
		Status:        models.StateSubmitted,
		SubmittedAt:   s.nowFn().UTC(),
	}

	if err := s.store.Save(ctx, claim); err != nil {
		return nil, err
	}

	metrics.ClaimsSubmitted.Inc()
	slog.Info("Claim submitted",
		"claim_id", claim.ClaimID,
		"employee_id", claim.EmployeeID,
		"category", claim.ClaimCategory,
		"amount", claim.ClaimAmount,
		"documents", len(refs),
	)
	return claim, nil
}

// Process runs one claim through extraction and adjudication. Processing an
// already DECIDED claim returns the stored decision unless force is set.
// Exactly one processing attempt per claim runs at a time; a concurrent call
// gets a conflict error and the claim state is untouched.
func (s *ClaimService) Process(ctx context.Context, claimID string, force bool) (*models.Decision, error) {
	release, err := s.locker.Acquire(ctx, claimID)
	if err != nil {
		return nil, err
	}
	defer release()

	started := s.nowFn()
	defer func() {
		metrics.ProcessingDuration.Observe(time.Since(started).Seconds())
	}()

	claim, err := s.store.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if claim.Status == models.StateDecided && !force {
		slog.Info("Claim already decided, returning stored decision", "claim_id", claimID)
		return claim.Decision(), nil
	}

	if err := s.transition(ctx, claim, models.StateExtracting); err != nil {
		return nil, err
	}

	docs, err := s.fetchDocuments(ctx, claim)
	if err != nil {
		return nil, s.failClaim(claim, "failed to load claim documents", err)
	}

	extracted := s.extractor.Extract(ctx, docs)
	if ctx.Err() != nil {
		// Cancellation during extraction leaves no decision behind; the claim
		// goes back to SUBMITTED so a later attempt starts clean.
		claim.Status = models.StateSubmitted
		s.persistBestEffort(claim)
		return nil, apperrors.Operational("claim processing cancelled during extraction", ctx.Err())
	}

	claim.ExtractionSource = string(extracted.Source)
	claim.ExtractionConfidence = extracted.Confidence
	metrics.ExtractionsBySource.WithLabelValues(string(extracted.Source)).Inc()

	if err := s.transition(ctx, claim, models.StateAdjudicating); err != nil {
		return nil, err
	}

	history, err := s.store.HistoryByEmployee(ctx, claim.EmployeeID)
	if err != nil {
		return nil, s.failClaim(claim, "failed to snapshot claim history", err)
	}

	decision := adjudication.Adjudicate(adjudication.Input{
		Claim:     claim,
		Extracted: extracted,
		Policy:    s.policy,
		History:   history,
		Now:       s.nowFn(),
	})

	now := s.nowFn().UTC()
	claim.Status = models.StateDecided
	claim.DecisionStatus = &decision.Status
	claim.ApprovedAmount = decision.ApprovedAmount
	claim.ConfidenceScore = decision.ConfidenceScore
	claim.DecisionReasons = decision.ReasonStrings()
	claim.NextSteps = decision.NextSteps
	claim.ProcessedAt = &now

	if err := s.store.Update(ctx, claim); err != nil {
		return nil, s.failClaim(claim, "failed to persist decision", err)
	}

	metrics.ClaimsDecided.WithLabelValues(string(decision.Status)).Inc()
	slog.Info("Claim decided",
		"claim_id", claim.ClaimID,
		"status", decision.Status,
		"approved_amount", decision.ApprovedAmount,
		"confidence", decision.ConfidenceScore,
		"reasons", decision.ReasonStrings(),
	)

	if err := s.publisher.PublishDecision(ctx, claim, decision); err != nil {
		slog.Warn("Failed to publish decision event", "claim_id", claim.ClaimID, "error", err)
	}

	return decision, nil
}

// Get returns one claim by ID.
func (s *ClaimService) Get(ctx context.Context, claimID string) (*models.Claim, error) {
	return s.store.GetByID(ctx, claimID)
}

// List returns a page of claims and the total match count.
func (s *ClaimService) List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, int, error) {
	return s.store.List(ctx, filter)
}

func (s *ClaimService) fetchDocuments(ctx context.Context, claim *models.Claim) ([]extraction.Document, error) {
	docs := make([]extraction.Document, 0, len(claim.DocumentRefs))
	for _, ref := range claim.DocumentRefs {
		content, contentType, err := s.docs.Fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		name := ref
		if idx := strings.LastIndex(ref, "/"); idx >= 0 {
			name = ref[idx+1:]
		}
		docs = append(docs, extraction.Document{Name: name, MimeType: contentType, Content: content})
	}
	return docs, nil
}

// transition persists a pipeline state change.
func (s *ClaimService) transition(ctx context.Context, claim *models.Claim, next models.ClaimState) error {
	claim.Status = next
	if err := s.store.Update(ctx, claim); err != nil {
		return err
	}
	slog.Debug("Claim state transition", "claim_id", claim.ClaimID, "state", next)
	return nil
}

// failClaim marks the claim FAILED after an infrastructure fault and returns
// the operational error the caller sees. FAILED claims may be retried with
// another Process call.
func (s *ClaimService) failClaim(claim *models.Claim, msg string, cause error) error {
	claim.Status = models.StateFailed
	s.persistBestEffort(claim)
	metrics.ClaimsFailed.Inc()
	slog.Error("Claim processing failed", "claim_id", claim.ClaimID, "message", msg, "error", cause)
	return apperrors.Operational(msg, cause)
}

// persistBestEffort writes claim state outside the request context so a
// cancelled or failed request still leaves an accurate state behind.
func (s *ClaimService) persistBestEffort(claim *models.Claim) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Update(ctx, claim); err != nil {
		slog.Error("Failed to persist claim state", "claim_id", claim.ClaimID, "state", claim.Status, "error", err)
	}
}

func validateSubmission(req models.SubmitClaimRequest) error {
	if strings.TrimSpace(req.PatientName) == "" {
		return apperrors.Validation("patient_name is required")
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		return apperrors.Validation("employee_id is required")
	}
	if !req.ClaimAmount.IsPositive() {
		return apperrors.Validation("claim_amount must be greater than zero")
	}
	if !req.ClaimCategory.IsValid() {
		return apperrors.Validation(fmt.Sprintf("unknown claim_category %q", req.ClaimCategory))
	}
	if req.TreatmentDate.IsZero() {
		return apperrors.Validation("treatment_date is required")
	}
	return nil
}

func newClaimID() string {
	return "CLM_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
