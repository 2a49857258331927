package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/xqian/apparel-crm-backend/config"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

// S3Archiver keeps a copy of every imported bill file in S3, so a bad
// import can always be replayed from the original workbook.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

func NewS3Archiver(cfg *appconfig.S3Config) *S3Archiver {
	var awsCfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.Region),
		)
		if err != nil {
			awsCfg = aws.Config{
				Region: cfg.Region,
			}
		}
	}

	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
	}
}

// Archive uploads the file under imports/<date>/<uuid><ext> and returns
// the object key.
func (s *S3Archiver) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	key := fmt.Sprintf("imports/%s/%s%s", time.Now().Format("2006-01-02"), uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	logger.Debug("Bill file uploaded to S3", map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
		"bytes":  len(data),
	})
	return key, nil
}
