package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"claims-service/internal/apperrors"
	"claims-service/internal/models"
	"claims-service/internal/services"
	"claims-service/utils"
)

var allowedDocumentExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".txt":  true,
}

type ClaimHandler struct {
	claimService  *services.ClaimService
	maxFileSizeMB int
}

func NewClaimHandler(claimService *services.ClaimService, maxFileSizeMB int) *ClaimHandler {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 10
	}
	return &ClaimHandler{
		claimService:  claimService,
		maxFileSizeMB: maxFileSizeMB,
	}
}

func (h *ClaimHandler) Register(app *fiber.App) {
	claimGroup := app.Group("/api/claims")

	claimGroup.Post("/submit", h.SubmitClaim)       // POST /api/claims/submit
	claimGroup.Post("/:id/process", h.ProcessClaim) // POST /api/claims/:id/process
	claimGroup.Get("/:id", h.GetClaim)              // GET  /api/claims/:id
	claimGroup.Get("/", h.ListClaims)               // GET  /api/claims
}

// SubmitClaim accepts a multipart form with claim fields plus zero or more
// supporting documents and creates the claim in the SUBMITTED state.
func (h *ClaimHandler) SubmitClaim(c fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_FORM", "Request must be multipart/form-data"))
	}

	req, err := parseSubmitForm(form)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_CLAIM_DATA", err.Error()))
	}

	uploads, err := h.readUploads(form.File["documents"])
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("INVALID_DOCUMENT", err.Error()))
	}

	claim, err := h.claimService.Submit(c.Context(), req, uploads)
	if err != nil {
		return respondError(c, err, "Failed to submit claim")
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(claim))
}

// ProcessClaim runs extraction and adjudication for one claim. Pass force=true
// to re-adjudicate an already decided claim.
func (h *ClaimHandler) ProcessClaim(c fiber.Ctx) error {
	claimID := c.Params("id")
	force, _ := strconv.ParseBool(c.Query("force", "false"))

	decision, err := h.claimService.Process(c.Context(), claimID, force)
	if err != nil {
		return respondError(c, err, "Failed to process claim")
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(decision))
}

func (h *ClaimHandler) GetClaim(c fiber.Ctx) error {
	claimID := c.Params("id")

	claim, err := h.claimService.Get(c.Context(), claimID)
	if err != nil {
		return respondError(c, err, "Failed to retrieve claim")
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(claim))
}

func (h *ClaimHandler) ListClaims(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))

	filter := models.ClaimFilter{
		EmployeeID: c.Query("employee_id"),
		Status:     models.ClaimState(c.Query("status")),
		Page:       page,
		PageSize:   pageSize,
	}

	claims, total, err := h.claimService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err, "Failed to list claims")
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]interface{}{
		"claims":    claims,
		"count":     len(claims),
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	}))
}

func parseSubmitForm(form *multipart.Form) (models.SubmitClaimRequest, error) {
	value := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	amount, err := decimal.NewFromString(value("claim_amount"))
	if err != nil {
		return models.SubmitClaimRequest{}, fmt.Errorf("claim_amount must be a decimal number")
	}

	treatmentDate, err := time.Parse("2006-01-02", value("treatment_date"))
	if err != nil {
		return models.SubmitClaimRequest{}, fmt.Errorf("treatment_date must be formatted as YYYY-MM-DD")
	}

	return models.SubmitClaimRequest{
		PatientName:   value("patient_name"),
		EmployeeID:    value("employee_id"),
		ClaimAmount:   amount,
		ClaimCategory: models.ClaimCategory(value("claim_category")),
		TreatmentDate: treatmentDate,
		HospitalName:  value("hospital_name"),
		Notes:         value("notes"),
	}, nil
}

func (h *ClaimHandler) readUploads(files []*multipart.FileHeader) ([]models.DocumentUpload, error) {
	maxBytes := int64(h.maxFileSizeMB) << 20

	uploads := make([]models.DocumentUpload, 0, len(files))
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedDocumentExtensions[ext] {
			return nil, fmt.Errorf("file type %s is not supported", ext)
		}
		if fh.Size > maxBytes {
			return nil, fmt.Errorf("file %s exceeds the %dMB size limit", fh.Filename, h.maxFileSizeMB)
		}

		file, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file %s", fh.Filename)
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file %s", fh.Filename)
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		uploads = append(uploads, models.DocumentUpload{
			Filename: filepath.Base(fh.Filename),
			MimeType: contentType,
			Content:  content,
		})
	}
	return uploads, nil
}

// respondError maps pipeline errors onto HTTP statuses.
func respondError(c fiber.Ctx, err error, logMsg string) error {
	switch {
	case apperrors.IsValidation(err):
		return c.Status(http.StatusBadRequest).JSON(
			utils.CreateErrorResponse("VALIDATION_ERROR", err.Error()))
	case apperrors.IsNotFound(err):
		return c.Status(http.StatusNotFound).JSON(
			utils.CreateErrorResponse("NOT_FOUND", err.Error()))
	case apperrors.IsConflict(err):
		return c.Status(http.StatusConflict).JSON(
			utils.CreateErrorResponse("CONFLICT", err.Error()))
	default:
		slog.Error(logMsg, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			utils.CreateErrorResponse("INTERNAL_ERROR", "An internal error occurred while handling the claim"))
	}
}
