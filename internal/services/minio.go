package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"velora_back_end/internal/database"
)

// UploadProductImage pousse l'image dans MinIO et renvoie (url publique,
// identifiant objet). Le cœur ne stocke jamais le binaire, seulement l'URL
// et l'identifiant.
func UploadProductImage(ctx context.Context, file *multipart.FileHeader) (string, string, error) {
	if database.MinIO == nil {
		return "", "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	objectID := uuid.NewString() + path.Ext(file.Filename)

	_, err = database.MinIO.PutObject(ctx, bucket, objectID, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", "", err
	}

	scheme := "http"
	if os.Getenv("MINIO_USE_SSL") == "true" {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s/%s/%s", scheme, os.Getenv("MINIO_ENDPOINT"), bucket, objectID)
	return url, objectID, nil
}

// RemoveProductImage supprime l'objet associé à une image de produit.
func RemoveProductImage(ctx context.Context, objectID string) error {
	if database.MinIO == nil || objectID == "" {
		return nil
	}
	bucket := os.Getenv("MINIO_BUCKET")
	return database.MinIO.RemoveObject(ctx, bucket, objectID, minio.RemoveObjectOptions{})
}
