// Package minio stores uploaded claim documents. Documents are written once
// at submission and read back by document reference during processing.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"claims-service/internal/apperrors"
	"claims-service/internal/config"
)

const claimDocumentsBucket = "claim-documents"

// MinioClient wraps the MinIO client with claim document functionality.
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		slog.Warn("Invalid MinIO secure flag, defaulting to false", "value", cfg.MinioSecure)
		isSecure = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := minioClient.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	mc := &MinioClient{client: minioClient, config: cfg}
	if err := mc.ensureBucket(ctx, claimDocumentsBucket); err != nil {
		return nil, fmt.Errorf("failed to ensure claim documents bucket: %w", err)
	}

	slog.Info("MinIO client initialized", "endpoint", cfg.MinioURL)
	return mc, nil
}

func (mc *MinioClient) ensureBucket(ctx context.Context, bucketName string) error {
	exists, err := mc.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		err := mc.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
			Region: mc.config.MinioLocation,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", bucketName, err)
		}
		slog.Info("Created bucket", "bucket", bucketName)
	}
	return nil
}

// Upload stores a claim document and returns its opaque document reference.
// PDF payloads are structurally validated first; a corrupt PDF is still
// stored since downstream extraction degrades gracefully on unreadable input.
func (mc *MinioClient) Upload(ctx context.Context, claimID, filename, contentType string, content []byte) (string, error) {
	if strings.EqualFold(contentType, "application/pdf") || strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		if err := api.Validate(bytes.NewReader(content), nil); err != nil {
			slog.Warn("Uploaded PDF failed validation, storing anyway",
				"claim_id", claimID, "filename", filename, "error", err)
		}
	}

	objectName := fmt.Sprintf("%s/%s", claimID, filename)
	_, err := mc.client.PutObject(ctx, claimDocumentsBucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", apperrors.Operational(fmt.Sprintf("failed to upload document %s", objectName), err)
	}

	slog.Info("Uploaded claim document", "claim_id", claimID, "object", objectName, "bytes", len(content))
	return objectName, nil
}

// Fetch retrieves a stored document by reference. A reference that no longer
// resolves returns a NotFound error so the pipeline can fail the claim.
func (mc *MinioClient) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	object, err := mc.client.GetObject(ctx, claimDocumentsBucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", apperrors.Operational(fmt.Sprintf("failed to get document %s", ref), err)
	}
	defer object.Close()

	stat, err := object.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", apperrors.NotFound(fmt.Sprintf("document %s not found", ref))
		}
		return nil, "", apperrors.Operational(fmt.Sprintf("failed to stat document %s", ref), err)
	}

	content, err := io.ReadAll(object)
	if err != nil {
		return nil, "", apperrors.Operational(fmt.Sprintf("failed to read document %s", ref), err)
	}
	return content, stat.ContentType, nil
}

// Delete removes a stored document. Used when claim submission fails midway.
func (mc *MinioClient) Delete(ctx context.Context, ref string) error {
	err := mc.client.RemoveObject(ctx, claimDocumentsBucket, ref, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", ref, err)
	}
	return nil
}

// GetPresignedURL generates a temporary access URL for a stored document.
func (mc *MinioClient) GetPresignedURL(ctx context.Context, ref string, expiry time.Duration) (string, error) {
	presignedURL, err := mc.client.PresignedGetObject(ctx, claimDocumentsBucket, ref, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for %s: %w", ref, err)
	}
	return presignedURL.String(), nil
}

func (mc *MinioClient) Close() error {
	return nil
}
