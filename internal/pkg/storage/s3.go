package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Storage implementa a interface Storage sobre um bucket S3 (ou compatível,
// e.g. MinIO, via endpoint customizado).
type S3Storage struct {
	client   *s3.S3
	bucket   string
	baseURL  string
}

// S3Config agrupa os parâmetros de conexão do bucket.
type S3Config struct {
	Region   string
	Bucket   string
	Endpoint string // vazio para AWS; preenchido para provedores S3-compatíveis
	BaseURL  string // prefixo público dos objetos (CDN ou endpoint do bucket)
}

// NewS3Storage cria o cliente S3 a partir da cadeia padrão de credenciais da AWS.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("falha ao criar sessão AWS: %w", err)
	}

	return &S3Storage{
		client:  s3.New(sess),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Upload envia o objeto com leitura pública e retorna sua URL.
func (s *S3Storage) Upload(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("falha ao enviar objeto %s: %w", path, err)
	}
	return s.PublicURL(path), nil
}

// PublicURL monta a URL pública do objeto.
func (s *S3Storage) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, path)
}

// Delete remove o objeto do bucket.
func (s *S3Storage) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("falha ao remover objeto %s: %w", path, err)
	}
	return nil
}
