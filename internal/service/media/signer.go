// Package media turns stored photo references into URLs guests can open.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/shadicards/concierge/backend/internal/config"
)

// Signer presigns object keys in the wedding photo bucket. Absolute URLs and
// all references when storage is not configured pass through unchanged.
type Signer struct {
	presign  *s3.PresignClient
	bucket   string
	ttl      time.Duration
	log      zerolog.Logger
	disabled bool
}

// NewSigner builds a signer from the storage configuration.
func NewSigner(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*Signer, error) {
	logger := log.With().Str("component", "media-signer").Logger()
	signer := &Signer{
		bucket: cfg.Bucket,
		ttl:    cfg.PresignTTL,
		log:    logger,
	}
	if signer.ttl <= 0 {
		signer.ttl = 24 * time.Hour
	}

	if !cfg.Enabled() {
		logger.Warn().Msg("STORAGE_S3_BUCKET or credentials are not set; photo references are returned as stored")
		signer.disabled = true
		return signer, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	signer.presign = s3.NewPresignClient(client)
	return signer, nil
}

// SignURL returns a time-limited URL for ref. Failures fall back to ref.
func (s *Signer) SignURL(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || s == nil || s.disabled || isAbsoluteURL(ref) {
		return ref
	}

	key := strings.TrimPrefix(ref, "/")
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to presign photo")
		return ref
	}
	return req.URL
}

// SignAll signs every reference, skipping empty ones.
func (s *Signer) SignAll(ctx context.Context, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if signed := s.SignURL(ctx, ref); signed != "" {
			out = append(out, signed)
		}
	}
	return out
}

func isAbsoluteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
