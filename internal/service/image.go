package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/platefeed/backend/config"
	"github.com/platefeed/backend/internal/logger"
)

// ImageService stores uploaded recipe images in S3. Recipes arrive with a
// base64 payload (optionally a data URI); only the resulting public URL is
// persisted.
type ImageService struct {
	s3Config *config.S3Config
	log      *logger.Logger
}

func NewImageService(s3Config *config.S3Config, log *logger.Logger) *ImageService {
	return &ImageService{s3Config: s3Config, log: log}
}

// UploadRecipeImage decodes the payload and uploads it under
// recipe-images/<uuid>.<ext>, returning the public URL.
func (s *ImageService) UploadRecipeImage(ctx context.Context, payload string) (string, error) {
	data, ext, err := decodeImagePayload(payload)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("recipe-images/%s.%s", uuid.New().String(), ext)
	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + ext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName)
	s.log.Info("recipe image uploaded", "url", publicURL)
	return publicURL, nil
}

// decodeImagePayload accepts either a bare base64 string or a data URI like
// "data:image/png;base64,...". The extension defaults to png.
func decodeImagePayload(payload string) ([]byte, string, error) {
	ext := "png"
	encoded := payload
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		meta := parts[0]
		encoded = parts[1]
		if strings.HasPrefix(meta, "data:image/") {
			mediaType := strings.TrimPrefix(meta, "data:image/")
			if idx := strings.IndexAny(mediaType, ";"); idx > 0 {
				ext = mediaType[:idx]
			}
		}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image payload: %w", err)
	}
	return data, ext, nil
}
