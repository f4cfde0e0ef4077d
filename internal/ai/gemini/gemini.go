package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"claims-service/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client wraps one Gemini API key with the flash model used for claim-fact
// extraction.
type Client struct {
	client     *genai.Client
	flashModel *genai.GenerativeModel
}

func NewClient(ctx context.Context, apiKey, flashModelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}
	return &Client{
		client:     client,
		flashModel: client.GenerativeModel(flashModelName),
	}, nil
}

// extractedPayload is the JSON shape the extraction prompt instructs the
// model to return.
type extractedPayload struct {
	PatientName      string   `json:"patient_name"`
	DoctorName       string   `json:"doctor_name"`
	DoctorRegNumber  string   `json:"doctor_reg_number"`
	HospitalName     string   `json:"hospital_name"`
	DocumentKinds    []string `json:"document_kinds"`
	DiagnosisTerms   []string `json:"diagnosis_terms"`
	ProcedureTerms   []string `json:"procedure_terms"`
	PreAuthorization bool     `json:"pre_authorization_present"`
	Confidence       float64  `json:"confidence"`
}

// ExtractClaimFacts asks the model for structured claim facts from OCR text.
func (c *Client) ExtractClaimFacts(ctx context.Context, text string) (models.Facts, float64, error) {
	prompt := fmt.Sprintf(ExtractionPromptTemplate, text)

	resp, err := c.flashModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return models.Facts{}, 0, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return models.Facts{}, 0, errors.New("no content returned from AI")
	}
	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return models.Facts{}, 0, fmt.Errorf("response part is not text, received %T", resp.Candidates[0].Content.Parts[0])
	}

	payload, err := parseResponse(string(textPart))
	if err != nil {
		return models.Facts{}, 0, err
	}

	kinds := make([]models.DocumentKind, 0, len(payload.DocumentKinds))
	for _, k := range payload.DocumentKinds {
		switch kind := models.DocumentKind(strings.ToLower(strings.TrimSpace(k))); kind {
		case models.DocPrescription, models.DocBill, models.DocReport:
			kinds = append(kinds, kind)
		}
	}

	facts := models.Facts{
		PatientName:    payload.PatientName,
		DoctorName:     payload.DoctorName,
		DoctorRegNo:    payload.DoctorRegNumber,
		HospitalName:   payload.HospitalName,
		DocumentKinds:  kinds,
		DiagnosisTerms: payload.DiagnosisTerms,
		ProcedureTerms: payload.ProcedureTerms,
		PreAuthPresent: payload.PreAuthorization,
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return facts, confidence, nil
}

// parseResponse strips the markdown JSON wrapper Gemini tends to add and
// unmarshals the payload.
func parseResponse(raw string) (*extractedPayload, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```json") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimSuffix(raw, "```")
	} else if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
	}
	raw = strings.TrimSpace(raw)

	var payload extractedPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AI response to JSON: %w. Raw response was: %s", err, raw)
	}
	return &payload, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
