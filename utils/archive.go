// utils/archive.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"connect4-server/config"
	"connect4-server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes finished games to an S3-compatible bucket (R2, MinIO, S3).
type S3Archiver struct {
	client objectPutter
	bucket string
}

// ArchivedGame is the object body stored per finished game.
type ArchivedGame struct {
	models.Game
	Moves  []int  `json:"moves"`
	Winner string `json:"winner,omitempty"`
}

func NewS3Archiver(ctx context.Context, cfg config.ArchiveConfig) (*S3Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Archiver{client: client, bucket: cfg.Bucket}, nil
}

// ArchiveKey is games/<yyyy>/<mm>/<dd>/<uuid>.json, dated by game creation.
func ArchiveKey(g *models.Game) string {
	return fmt.Sprintf("games/%s/%s.json", g.CreatedAt.UTC().Format("2006/01/02"), g.UUID)
}

func (a *S3Archiver) ArchiveGame(ctx context.Context, g *models.Game) error {
	domain, err := g.ToDomain()
	if err != nil {
		return err
	}
	body, err := json.Marshal(ArchivedGame{
		Game:   *g,
		Moves:  []int(domain.Board),
		Winner: domain.Winner(),
	})
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ArchiveKey(g)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload game %s: %w", g.UUID, err)
	}
	return nil
}
