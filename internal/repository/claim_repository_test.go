package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claims-service/internal/apperrors"
	"claims-service/internal/models"
)

func newMockRepository(t *testing.T) (*ClaimRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewClaimRepository(sqlx.NewDb(db, "postgres")), mock
}

func claimColumnNames() []string {
	return []string{
		"claim_id", "patient_name", "employee_id", "claim_amount", "claim_category",
		"treatment_date", "hospital_name", "notes", "document_refs", "status",
		"decision_status", "approved_amount", "confidence_score", "decision_reasons", "next_steps",
		"extraction_source", "extraction_confidence", "submitted_at", "processed_at",
	}
}

func TestSave_InsertsClaim(t *testing.T) {
	repo, mock := newMockRepository(t)

	claim := &models.Claim{
		ClaimID:       "CLM_ABC123",
		PatientName:   "Rahul Sharma",
		EmployeeID:    "EMP001",
		ClaimAmount:   decimal.NewFromInt(1500),
		ClaimCategory: models.CategoryConsultation,
		TreatmentDate: time.Now().AddDate(0, 0, -5),
		DocumentRefs:  []string{"CLM_ABC123/prescription.txt"},
		Status:        models.StateSubmitted,
		SubmittedAt:   time.Now(),
	}

	mock.ExpectExec("INSERT INTO claims").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), claim)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM claims WHERE claim_id").
		WithArgs("CLM_MISSING").
		WillReturnRows(sqlmock.NewRows(claimColumnNames()))

	_, err := repo.GetByID(context.Background(), "CLM_MISSING")
	assert.True(t, apperrors.IsNotFound(err), "expected not found, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_ScansClaim(t *testing.T) {
	repo, mock := newMockRepository(t)

	submitted := time.Now()
	rows := sqlmock.NewRows(claimColumnNames()).AddRow(
		"CLM_ABC123", "Rahul Sharma", "EMP001", "1500.00", "consultation",
		submitted.AddDate(0, 0, -5), "City Care Clinic", "", []byte("{CLM_ABC123/prescription.txt}"), "SUBMITTED",
		nil, "0", 0.0, []byte("{}"), "",
		"", 0.0, submitted, nil,
	)
	mock.ExpectQuery("SELECT (.+) FROM claims WHERE claim_id").
		WithArgs("CLM_ABC123").
		WillReturnRows(rows)

	claim, err := repo.GetByID(context.Background(), "CLM_ABC123")
	require.NoError(t, err)

	assert.Equal(t, "CLM_ABC123", claim.ClaimID)
	assert.Equal(t, models.CategoryConsultation, claim.ClaimCategory)
	assert.True(t, claim.ClaimAmount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, models.StateSubmitted, claim.Status)
	assert.Nil(t, claim.DecisionStatus)
	require.Len(t, claim.DocumentRefs, 1)
	assert.Equal(t, "CLM_ABC123/prescription.txt", claim.DocumentRefs[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_MissingClaimIsNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("UPDATE claims SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claim := &models.Claim{ClaimID: "CLM_MISSING", Status: models.StateExtracting}
	err := repo.Update(context.Background(), claim)
	assert.True(t, apperrors.IsNotFound(err), "expected not found, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_AppliesFilterAndPagination(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM claims WHERE 1=1 AND employee_id`).
		WithArgs("EMP001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(claimColumnNames()).AddRow(
		"CLM_ABC123", "Rahul Sharma", "EMP001", "1500.00", "consultation",
		time.Now(), "", "", []byte("{}"), "DECIDED",
		"APPROVED", "1350.00", 0.9, []byte("{COPAY_APPLIED}"), "Approved.",
		"LLM", 0.9, time.Now(), time.Now(),
	)
	mock.ExpectQuery("SELECT (.+) FROM claims WHERE 1=1 AND employee_id (.+) ORDER BY submitted_at DESC").
		WithArgs("EMP001", 10, 0).
		WillReturnRows(rows)

	claims, total, err := repo.List(context.Background(), models.ClaimFilter{EmployeeID: "EMP001"})
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, claims, 1)
	require.NotNil(t, claims[0].DecisionStatus)
	assert.Equal(t, models.DecisionApproved, *claims[0].DecisionStatus)
	assert.True(t, claims[0].ApprovedAmount.Equal(decimal.NewFromFloat(1350)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryByEmployee_ReturnsAllClaims(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows(claimColumnNames()).AddRow(
		"CLM_OLD1", "Rahul Sharma", "EMP001", "2000.00", "pharmacy",
		time.Now().AddDate(0, -2, 0), "", "", []byte("{}"), "DECIDED",
		"APPROVED", "1400.00", 0.8, []byte("{COPAY_APPLIED}"), "Approved.",
		"LLM", 0.8, time.Now().AddDate(0, -2, 0), time.Now().AddDate(0, -2, 0),
	).AddRow(
		"CLM_PEND1", "Rahul Sharma", "EMP001", "1500.00", "consultation",
		time.Now(), "", "", []byte("{}"), "SUBMITTED",
		nil, "0", 0, []byte("{}"), "",
		"", 0, time.Now(), nil,
	)
	mock.ExpectQuery("SELECT (.+) FROM claims").
		WithArgs("EMP001").
		WillReturnRows(rows)

	history, err := repo.HistoryByEmployee(context.Background(), "EMP001")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "CLM_OLD1", history[0].ClaimID)
	assert.Equal(t, models.StateSubmitted, history[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
