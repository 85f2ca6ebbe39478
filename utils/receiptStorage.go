package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// getGoogleClient initializes a Google Cloud Storage client.
// Prefers ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
// Set GCS_CREDENTIALS_JSON to provide explicit JSON (e.g. locally).
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	return storage.NewClient(ctx)
}

// Receipts are photos of signed paper receipts, occasionally a PDF scan.
var allowedReceiptMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// UploadReceiptToGCS stores a sale receipt and returns the object key.
// The object key embeds the sale id so orphaned receipts are traceable.
func UploadReceiptToGCS(ctx context.Context, saleId int, fileContent io.Reader) (string, error) {
	fileData, err := io.ReadAll(fileContent)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %v", err)
	}

	mimeType := http.DetectContentType(fileData)
	if !allowedReceiptMimeTypes[mimeType] {
		return "", NewValidationError(fmt.Sprintf("unsupported receipt file type: %s", mimeType))
	}

	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		return "", errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	objectKey := fmt.Sprintf("receipts/%d/%s%s", saleId, GenerateUniqueFilename(), extensionForMimeType(mimeType))

	wc := client.Bucket(bucketName).Object(objectKey).NewWriter(ctx)
	wc.ContentType = mimeType

	if _, err := wc.Write(fileData); err != nil {
		return "", fmt.Errorf("failed to upload receipt to Google Cloud Storage: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	return objectKey, nil
}

// DeleteReceiptFromGCS removes a receipt object. A missing object is not an error.
func DeleteReceiptFromGCS(ctx context.Context, objectKey string) error {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	bucketName := os.Getenv("GCS_BUCKET")

	err = client.Bucket(bucketName).Object(objectKey).Delete(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil
		}
		return err
	}
	return nil
}

// ReceiptExistsInGCS checks object existence without downloading content.
func ReceiptExistsInGCS(ctx context.Context, objectKey string) (bool, error) {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return false, err
	}
	defer client.Close()

	bucketName := os.Getenv("GCS_BUCKET")

	_, err = client.Bucket(bucketName).Object(objectKey).Attrs(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func extensionForMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}

// BuildObjectAccessURL maps an object key to a client-reachable URL.
// STORAGE_ACCESS_BASE_URL may contain an {objectKey} placeholder (CDN setups).
func BuildObjectAccessURL(objectKey string) string {
	base := strings.TrimSpace(os.Getenv("STORAGE_ACCESS_BASE_URL"))
	if base != "" {
		if strings.Contains(base, "{objectKey}") {
			escaped := objectKey
			if strings.Contains(base, "?") {
				escaped = url.QueryEscape(objectKey)
			}
			return strings.ReplaceAll(base, "{objectKey}", escaped)
		}
		if strings.Contains(base, "?") {
			return base + url.QueryEscape(objectKey)
		}
		return strings.TrimRight(base, "/") + "/" + objectKey
	}

	gcsURL := strings.TrimSpace(os.Getenv("GCS_URL"))
	gcsBucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if gcsURL != "" && gcsBucket != "" {
		return "https://" + gcsURL + "/" + gcsBucket + "/" + objectKey
	}

	return objectKey
}
