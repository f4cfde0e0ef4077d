package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"claims-service/internal/apperrors"
	"claims-service/internal/models"
)

// ClaimRepository persists claims in PostgreSQL.
type ClaimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `claim_id, patient_name, employee_id, claim_amount, claim_category,
	treatment_date, hospital_name, notes, document_refs, status,
	decision_status, approved_amount, confidence_score, decision_reasons, next_steps,
	extraction_source, extraction_confidence, submitted_at, processed_at`

// Save inserts a newly submitted claim.
func (r *ClaimRepository) Save(ctx context.Context, claim *models.Claim) error {
	query := `
		INSERT INTO claims (` + claimColumns + `)
		VALUES (:claim_id, :patient_name, :employee_id, :claim_amount, :claim_category,
			:treatment_date, :hospital_name, :notes, :document_refs, :status,
			:decision_status, :approved_amount, :confidence_score, :decision_reasons, :next_steps,
			:extraction_source, :extraction_confidence, :submitted_at, :processed_at)`

	if _, err := r.db.NamedExecContext(ctx, query, claim); err != nil {
		return apperrors.Operational(fmt.Sprintf("failed to save claim %s", claim.ClaimID), err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing claim.
func (r *ClaimRepository) Update(ctx context.Context, claim *models.Claim) error {
	query := `
		UPDATE claims SET
			status = :status,
			decision_status = :decision_status,
			approved_amount = :approved_amount,
			confidence_score = :confidence_score,
			decision_reasons = :decision_reasons,
			next_steps = :next_steps,
			extraction_source = :extraction_source,
			extraction_confidence = :extraction_confidence,
			processed_at = :processed_at
		WHERE claim_id = :claim_id`

	result, err := r.db.NamedExecContext(ctx, query, claim)
	if err != nil {
		return apperrors.Operational(fmt.Sprintf("failed to update claim %s", claim.ClaimID), err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFound(fmt.Sprintf("claim %s not found", claim.ClaimID))
	}
	return nil
}

// GetByID fetches one claim. Missing claims return a NotFound error.
func (r *ClaimRepository) GetByID(ctx context.Context, claimID string) (*models.Claim, error) {
	var claim models.Claim
	query := `SELECT ` + claimColumns + ` FROM claims WHERE claim_id = $1`

	if err := r.db.GetContext(ctx, &claim, query, claimID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("claim %s not found", claimID))
		}
		return nil, apperrors.Operational(fmt.Sprintf("failed to get claim %s", claimID), err)
	}
	return &claim, nil
}

// List returns a page of claims matching the filter plus the total count.
func (r *ClaimRepository) List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, int, error) {
	filter.Normalize()

	where := " WHERE 1=1"
	args := []any{}
	argPos := 1

	if filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND employee_id = $%d", argPos)
		args = append(args, filter.EmployeeID)
		argPos++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM claims` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, apperrors.Operational("failed to count claims", err)
	}

	query := `SELECT ` + claimColumns + ` FROM claims` + where +
		fmt.Sprintf(" ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	claims := []models.Claim{}
	if err := r.db.SelectContext(ctx, &claims, query, args...); err != nil {
		return nil, 0, apperrors.Operational("failed to list claims", err)
	}
	return claims, total, nil
}

// HistoryByEmployee returns every claim of an employee regardless of state.
// The pipeline snapshots this once per processing attempt; duplicate detection
// must see still-undecided siblings, while annual-limit accumulation filters
// to decided claims on its own.
func (r *ClaimRepository) HistoryByEmployee(ctx context.Context, employeeID string) (models.ClaimHistory, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
		WHERE employee_id = $1
		ORDER BY submitted_at ASC`

	claims := []models.Claim{}
	if err := r.db.SelectContext(ctx, &claims, query, employeeID); err != nil {
		return nil, apperrors.Operational(fmt.Sprintf("failed to load claim history for employee %s", employeeID), err)
	}
	return models.ClaimHistory(claims), nil
}
